package services

import (
	"context"
	"sort"
	"sync"

	"dormhop/utils"
)

// observers is a small subscriber registry. Callbacks run outside any lock
// held by the publisher, in subscription order.
type observers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (o *observers[T]) subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	id := o.next
	o.next++
	o.fns[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	}
}

func (o *observers[T]) notify(v T) {
	o.mu.Lock()
	ids := make([]int, 0, len(o.fns))
	for id := range o.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// fetch runs one idempotent GET through the retry policy.
func fetch[T any](ctx context.Context, retry *utils.RetryConfig, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	err := retry.Do(ctx, op, func() error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
