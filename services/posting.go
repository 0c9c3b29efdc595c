package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
)

// MyPosting shows the user's own room and toggles whether it is listed.
type MyPosting struct {
	source ProfileSource
	logger *zap.Logger

	mu      sync.Mutex
	user    *models.User
	loading bool
	errMsg  string
}

func NewMyPosting(source ProfileSource, logger *zap.Logger) *MyPosting {
	return &MyPosting{source: source, logger: logger}
}

// User returns a copy of the last loaded profile, or nil.
func (p *MyPosting) User() *models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

func (p *MyPosting) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *MyPosting) Error() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// Refresh reloads the profile. On failure the previous profile is kept.
func (p *MyPosting) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	user, err := p.source.Profile(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.errMsg = "Failed to load your room: " + api.Message(err)
		p.logger.Warn("Failed to refresh profile", zap.Error(err))
		return err
	}
	p.user = user
	p.errMsg = ""
	return nil
}

// SetVisibility lists or unlists the user's room and returns the flag the
// server confirmed. The local profile changes only on success.
func (p *MyPosting) SetVisibility(ctx context.Context, listed bool) (bool, error) {
	resp, err := p.source.SetVisibility(ctx, listed)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.errMsg = "Failed to update visibility: " + api.Message(err)
		p.logger.Warn("Failed to set room visibility", zap.Bool("listed", listed), zap.Error(err))
		if p.user != nil {
			return p.user.IsRoomListed, err
		}
		return !listed, err
	}

	if p.user != nil {
		u := *p.user
		u.IsRoomListed = resp.IsRoomListed
		if u.CurrentRoom != nil {
			r := *u.CurrentRoom
			r.IsRoomListed = resp.IsRoomListed
			u.CurrentRoom = &r
		}
		p.user = &u
	}
	p.errMsg = ""
	p.logger.Info("Room visibility updated", zap.Bool("listed", resp.IsRoomListed))
	return resp.IsRoomListed, nil
}
