package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"dormhop/models"
	"dormhop/utils"
)

// Paginator tracks how much of the room collection has been loaded. A page
// that is empty or holds no room id seen since Reset ends pagination until
// the next Reset.
type Paginator struct {
	source PageSource
	logger *zap.Logger

	mu         sync.Mutex
	cursor     models.PageCursor
	seen       *utils.IDSet
	exhausted  bool
	inFlight   bool
	generation uint64
}

// NewPaginator creates a paginator fetching pageSize rooms at a time.
func NewPaginator(source PageSource, pageSize int, logger *zap.Logger) *Paginator {
	return &Paginator{
		source: source,
		logger: logger,
		cursor: models.PageCursor{Limit: pageSize},
		seen:   utils.NewIDSet(),
	}
}

// Reset restarts pagination after the rooms already loaded. A fetch in
// flight when Reset is called is discarded.
func (p *Paginator) Reset(loaded []models.Room) {
	ids := make([]int, 0, len(loaded))
	for _, r := range loaded {
		ids = append(ids, r.ID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor.Offset = len(loaded)
	p.seen = utils.NewIDSet(ids...)
	p.exhausted = false
	p.generation++
}

// Cursor returns the position of the next page.
func (p *Paginator) Cursor() models.PageCursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Exhausted reports whether pagination has ended since the last Reset.
func (p *Paginator) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Fetch loads the next page, advances the cursor past it and returns the
// rooms not seen before. It returns (nil, nil) when pagination is exhausted,
// a fetch is already running, or the result was made stale by Reset. On
// error the cursor is unchanged.
func (p *Paginator) Fetch(ctx context.Context) ([]models.Room, error) {
	p.mu.Lock()
	if p.exhausted || p.inFlight {
		p.mu.Unlock()
		return nil, nil
	}
	p.inFlight = true
	cursor := p.cursor
	gen := p.generation
	p.mu.Unlock()

	page, err := p.source.NextRoomPage(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false

	if gen != p.generation {
		p.logger.Debug("Discarding stale room page", zap.Int("offset", cursor.Offset))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fresh := make([]models.Room, 0, len(page))
	for _, r := range page {
		if p.seen.Add(r.ID) {
			fresh = append(fresh, r)
		}
	}
	// Backends that ignore offset keep resending rooms already loaded.
	if len(fresh) == 0 {
		p.exhausted = true
		p.logger.Info("Room pagination exhausted",
			zap.Int("offset", cursor.Offset),
			zap.Int("page", len(page)),
			zap.Int("loaded", p.seen.Size()),
		)
		return nil, nil
	}

	p.cursor = cursor.Next(len(page))
	p.logger.Debug("Fetched room page",
		zap.Int("offset", cursor.Offset),
		zap.Int("count", len(page)),
		zap.Int("new", len(fresh)),
	)
	return fresh, nil
}

// AppendUnique appends the rooms of page whose id is not already present,
// keeping the order of both slices. existing is never modified.
func AppendUnique(existing, page []models.Room) []models.Room {
	seen := utils.NewIDSet()
	out := make([]models.Room, 0, len(existing)+len(page))
	for _, r := range existing {
		seen.Add(r.ID)
		out = append(out, r)
	}
	for _, r := range page {
		if !seen.Add(r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
