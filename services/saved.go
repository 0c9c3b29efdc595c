package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
	"dormhop/utils"
)

// SavedView is the saved rooms screen state.
type SavedView struct {
	Rooms   []models.Room
	Loading bool
	Error   string
}

// SavedRooms lists the full saved room records and removes them one at a time.
type SavedRooms struct {
	source SavedRoomsSource
	retry  *utils.RetryConfig
	logger *zap.Logger

	mu      sync.Mutex
	rooms   []models.Room
	loading bool
	errMsg  string
	changes observers[SavedView]
}

func NewSavedRooms(source SavedRoomsSource, retry *utils.RetryConfig, logger *zap.Logger) *SavedRooms {
	return &SavedRooms{source: source, retry: retry, logger: logger}
}

func (s *SavedRooms) Subscribe(fn func(SavedView)) func() {
	return s.changes.subscribe(fn)
}

func (s *SavedRooms) View() SavedView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Load replaces the list with the server's saved rooms.
func (s *SavedRooms) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	s.publish()

	rooms, err := fetch(ctx, s.retry, "list saved rooms", s.source.ListSavedRooms)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = "Failed to load saved rooms: " + api.Message(err)
	} else {
		s.rooms = rooms
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		s.logger.Warn("Failed to load saved rooms", zap.Error(err))
	}
	return err
}

// Unsave removes roomID once the server confirms. On failure the list is
// unchanged and the error reads "Failed to remove".
func (s *SavedRooms) Unsave(ctx context.Context, roomID int) error {
	err := s.source.UnsaveRoom(ctx, roomID)

	s.mu.Lock()
	if err != nil {
		s.errMsg = "Failed to remove"
	} else {
		kept := make([]models.Room, 0, len(s.rooms))
		for _, r := range s.rooms {
			if r.ID != roomID {
				kept = append(kept, r)
			}
		}
		s.rooms = kept
		s.errMsg = ""
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		s.logger.Warn("Failed to unsave room", zap.Int("room_id", roomID), zap.Error(err))
	}
	return err
}

func (s *SavedRooms) publish() {
	s.changes.notify(s.View())
}

func (s *SavedRooms) viewLocked() SavedView {
	return SavedView{
		Rooms:   append([]models.Room(nil), s.rooms...),
		Loading: s.loading,
		Error:   s.errMsg,
	}
}
