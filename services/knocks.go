package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
	"dormhop/utils"
)

// KnockView is the sent and received knock lists with the last failure.
type KnockView struct {
	Sent     []models.Knock
	Received []models.Knock
	Loading  bool
	Error    string
}

// KnockBoard tracks the user's knocks. Every confirmed mutation is
// followed by a full reload of both lists; a failed one leaves them as
// they were.
type KnockBoard struct {
	source KnockSource
	retry  *utils.RetryConfig
	logger *zap.Logger

	mu       sync.Mutex
	sent     []models.Knock
	received []models.Knock
	loading  int
	errMsg   string
	pending  map[int]struct{}
	changes  observers[KnockView]
}

// NewKnockBoard creates an empty board backed by source.
func NewKnockBoard(source KnockSource, retry *utils.RetryConfig, logger *zap.Logger) *KnockBoard {
	return &KnockBoard{
		source:  source,
		retry:   retry,
		logger:  logger,
		pending: make(map[int]struct{}),
	}
}

// Subscribe registers fn for every change to the board.
func (b *KnockBoard) Subscribe(fn func(KnockView)) func() {
	return b.changes.subscribe(fn)
}

// View returns a copy of the board.
func (b *KnockBoard) View() KnockView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

// Sent returns the knocks the user sent.
func (b *KnockBoard) Sent() []models.Knock { return b.View().Sent }

// Received returns the knocks on the user's room.
func (b *KnockBoard) Received() []models.Knock { return b.View().Received }

// Error returns the message of the last failure, or "".
func (b *KnockBoard) Error() string { return b.View().Error }

// Load fetches both knock lists. They are replaced together, so if either
// fetch fails both keep their previous contents.
func (b *KnockBoard) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loading++
	b.mu.Unlock()
	b.publish()

	var (
		wg                   sync.WaitGroup
		sent, received       []models.Knock
		sentErr, receivedErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sent, sentErr = fetch(ctx, b.retry, "list sent knocks", b.source.ListSentKnocks)
	}()
	go func() {
		defer wg.Done()
		received, receivedErr = fetch(ctx, b.retry, "list received knocks", b.source.ListReceivedKnocks)
	}()
	wg.Wait()

	b.mu.Lock()
	b.loading--
	err := errors.Join(sentErr, receivedErr)
	if err == nil {
		b.sent = sent
		b.received = received
	}
	if err != nil {
		first := sentErr
		if first == nil {
			first = receivedErr
		}
		b.errMsg = "Failed to load knocks: " + api.Message(first)
	} else {
		b.errMsg = ""
	}
	b.mu.Unlock()
	b.publish()

	if err != nil {
		b.logger.Warn("Failed to load knocks", zap.Error(err))
		return err
	}
	b.logger.Debug("Loaded knocks", zap.Int("sent", len(sent)), zap.Int("received", len(received)))
	return nil
}

// SendKnock knocks on roomID. When the server confirms, the board is
// reloaded and then onResult, if non-nil, receives the created knock.
func (b *KnockBoard) SendKnock(ctx context.Context, roomID int, onResult func(models.Knock)) error {
	if roomID <= 0 {
		return fmt.Errorf("send knock: invalid room id %d", roomID)
	}
	var knock *models.Knock
	err := b.mutate(ctx, "Failed to knock", -roomID, func() error {
		var err error
		knock, err = b.source.SendKnock(ctx, roomID)
		return err
	})
	if err != nil {
		return err
	}
	if onResult != nil {
		onResult(*knock)
	}
	return nil
}

// AcceptKnock accepts a received knock.
func (b *KnockBoard) AcceptKnock(ctx context.Context, knockID int) error {
	return b.mutate(ctx, "Accept failed", knockID, func() error {
		_, err := b.source.AcceptKnock(ctx, knockID)
		return err
	})
}

// DeleteKnock rejects a received knock or cancels a sent one.
func (b *KnockBoard) DeleteKnock(ctx context.Context, knockID int) error {
	return b.mutate(ctx, "Delete failed", knockID, func() error {
		return b.source.DeleteKnock(ctx, knockID)
	})
}

// mutate runs one server mutation keyed by key. Knock ids are positive
// and room ids are stored negated so the two never collide.
func (b *KnockBoard) mutate(ctx context.Context, failure string, key int, call func() error) error {
	b.mu.Lock()
	if _, busy := b.pending[key]; busy {
		b.mu.Unlock()
		return ErrMutationInFlight
	}
	b.pending[key] = struct{}{}
	b.mu.Unlock()

	err := call()

	b.mu.Lock()
	delete(b.pending, key)
	if err != nil {
		b.errMsg = failure + ": " + api.Message(err)
	}
	b.mu.Unlock()

	if err != nil {
		b.publish()
		b.logger.Warn("Knock mutation failed", zap.String("action", failure), zap.Int("key", key), zap.Error(err))
		return err
	}

	// Contacts and accepted_at are server-derived; reload both lists.
	if lerr := b.Load(ctx); lerr != nil {
		b.logger.Warn("Reload after knock mutation failed", zap.Error(lerr))
	}
	return nil
}

func (b *KnockBoard) publish() {
	b.mu.Lock()
	view := b.viewLocked()
	b.mu.Unlock()
	b.changes.notify(view)
}

func (b *KnockBoard) viewLocked() KnockView {
	return KnockView{
		Sent:     append([]models.Knock(nil), b.sent...),
		Received: append([]models.Knock(nil), b.received...),
		Loading:  b.loading > 0,
		Error:    b.errMsg,
	}
}
