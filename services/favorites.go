package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/utils"
)

// ErrMutationInFlight is returned when a mutation for the same item is
// already waiting on the server.
var ErrMutationInFlight = errors.New("mutation already in flight")

// Favorites is the set of room ids the user has saved. Changes are applied
// only after the server confirms them.
type Favorites struct {
	source SavedSource
	retry  *utils.RetryConfig
	logger *zap.Logger

	mu       sync.Mutex
	ids      map[int]struct{}
	pending  map[int]struct{}
	revision uint64
	errMsg   string
	changes  observers[struct{}]
}

// NewFavorites creates an empty saved set backed by source.
func NewFavorites(source SavedSource, retry *utils.RetryConfig, logger *zap.Logger) *Favorites {
	return &Favorites{
		source:  source,
		retry:   retry,
		logger:  logger,
		ids:     make(map[int]struct{}),
		pending: make(map[int]struct{}),
	}
}

// Subscribe registers fn to run after every change to the set or its error.
func (f *Favorites) Subscribe(fn func()) func() {
	return f.changes.subscribe(func(struct{}) { fn() })
}

// Load replaces the set with the server's saved ids.
func (f *Favorites) Load(ctx context.Context) error {
	ids, err := fetch(ctx, f.retry, "list saved room ids", f.source.ListSavedRoomIDs)
	if err != nil {
		f.logger.Warn("Failed to load saved rooms", zap.Error(err))
		f.setError("Failed to load saved rooms: " + api.Message(err))
		return err
	}

	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	f.mu.Lock()
	f.ids = set
	f.revision++
	f.mu.Unlock()

	f.logger.Debug("Loaded saved room ids", zap.Int("count", len(set)))
	f.changes.notify(struct{}{})
	return nil
}

// IDs returns a copy of the saved set.
func (f *Favorites) IDs() map[int]struct{} {
	ids, _ := f.Snapshot()
	return ids
}

// Snapshot returns a copy of the saved set and its revision.
func (f *Favorites) Snapshot() (map[int]struct{}, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]struct{}, len(f.ids))
	for id := range f.ids {
		out[id] = struct{}{}
	}
	return out, f.revision
}

// IsSaved reports whether roomID is in the confirmed saved set.
func (f *Favorites) IsSaved(roomID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[roomID]
	return ok
}

// Pending reports whether a save or unsave of roomID is in flight.
func (f *Favorites) Pending(roomID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[roomID]
	return ok
}

// Error returns the message of the last failure, or "".
func (f *Favorites) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// ClearError drops the last failure message.
func (f *Favorites) ClearError() {
	f.setError("")
}

// ToggleSave flips the saved state of roomID and returns the new state.
func (f *Favorites) ToggleSave(ctx context.Context, roomID int) (bool, error) {
	want := !f.IsSaved(roomID)
	if err := f.SetSaved(ctx, roomID, want); err != nil {
		return !want, err
	}
	return want, nil
}

// SetSaved saves or unsaves roomID. The set changes only after the server
// confirms; on failure it is left as it was and the error is recorded.
func (f *Favorites) SetSaved(ctx context.Context, roomID int, saved bool) error {
	f.mu.Lock()
	if _, busy := f.pending[roomID]; busy {
		f.mu.Unlock()
		return ErrMutationInFlight
	}
	_, already := f.ids[roomID]
	if already == saved {
		f.mu.Unlock()
		return nil
	}
	f.pending[roomID] = struct{}{}
	f.mu.Unlock()

	var err error
	if saved {
		err = f.source.SaveRoom(ctx, roomID)
	} else {
		err = f.source.UnsaveRoom(ctx, roomID)
	}

	f.mu.Lock()
	delete(f.pending, roomID)
	if err != nil {
		f.errMsg = "Failed to update saved rooms: " + api.Message(err)
	} else {
		if saved {
			f.ids[roomID] = struct{}{}
		} else {
			delete(f.ids, roomID)
		}
		f.revision++
		f.errMsg = ""
	}
	f.mu.Unlock()

	f.changes.notify(struct{}{})

	if err != nil {
		f.logger.Warn("Saved room mutation failed",
			zap.Int("room_id", roomID),
			zap.Bool("saved", saved),
			zap.Error(err),
		)
		return fmt.Errorf("set saved room %d: %w", roomID, err)
	}
	f.logger.Info("Saved room mutation confirmed", zap.Int("room_id", roomID), zap.Bool("saved", saved))
	return nil
}

func (f *Favorites) setError(msg string) {
	f.mu.Lock()
	changed := f.errMsg != msg
	f.errMsg = msg
	f.mu.Unlock()
	if changed {
		f.changes.notify(struct{}{})
	}
}
