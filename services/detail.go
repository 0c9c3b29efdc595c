package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"dormhop/models"
)

const featuresKey = "dorm_features"

// RoomDetailView is one room with the community features of its dorm.
type RoomDetailView struct {
	Room     models.Room
	Features []string
}

// RoomDetail loads single rooms. The dorm features map is shared by every
// room and cached for ttl.
type RoomDetail struct {
	source DetailSource
	cache  *cache.Cache
	logger *zap.Logger
}

func NewRoomDetail(source DetailSource, ttl time.Duration, logger *zap.Logger) *RoomDetail {
	return &RoomDetail{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Load fetches roomID. Features that cannot be fetched are left empty and
// do not fail the load.
func (d *RoomDetail) Load(ctx context.Context, roomID int) (*RoomDetailView, error) {
	room, err := d.source.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room %d: %w", roomID, err)
	}
	return &RoomDetailView{
		Room:     *room,
		Features: d.Features(ctx)[room.Dorm],
	}, nil
}

// Features returns the dorm features map, from cache when fresh. A fetch
// failure returns nil and is not cached.
func (d *RoomDetail) Features(ctx context.Context) map[string][]string {
	if v, ok := d.cache.Get(featuresKey); ok {
		return v.(map[string][]string)
	}

	features, err := d.source.DormFeatures(ctx)
	if err != nil {
		d.logger.Warn("Failed to load dorm features", zap.Error(err))
		return nil
	}
	d.cache.SetDefault(featuresKey, features)
	d.logger.Debug("Cached dorm features", zap.Int("dorms", len(features)))
	return features
}

// Invalidate forces the next load to refetch dorm features.
func (d *RoomDetail) Invalidate() {
	d.cache.Delete(featuresKey)
}
