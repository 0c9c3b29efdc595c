package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
)

// ErrExpired is returned by Resume when the stored token has lapsed or the
// server no longer accepts it.
var ErrExpired = errors.New("session: expired, sign in again")

var _ api.TokenSource = (*Session)(nil)

// Session is one signed-in user. It is the token source for every
// authenticated API call; after Close it supplies no token.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims *Claims
	user   *models.User
}

func newSession(token string, claims *Claims, user *models.User) *Session {
	return &Session{token: token, claims: claims, user: user}
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Claims returns the decoded token claims.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// User returns the signed-in user's profile as of sign-in or resume.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// NeedsProfile reports whether the user still has to describe their room.
func (s *Session) NeedsProfile() bool {
	return s.User().NeedsProfile()
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	return s.Token() == ""
}

// Close forgets the token. It does not touch the token store.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Manager creates sessions from a Google ID token or from the stored token,
// and destroys them.
type Manager struct {
	store  TokenStore
	client *api.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store TokenStore, client *api.Client, logger *zap.Logger) *Manager {
	return &Manager{store: store, client: client, logger: logger, now: time.Now}
}

// Client returns an API client authenticated as s.
func (m *Manager) Client(s *Session) *api.Client {
	return m.client.WithTokens(s)
}

// Login exchanges a Google ID token for a session and stores its token.
func (m *Manager) Login(ctx context.Context, idToken string) (*Session, error) {
	resp, err := m.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	claims, err := ParseClaims(resp.Token)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := m.store.Save(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	m.logger.Info("Signed in",
		zap.Int("user_id", resp.User.ID),
		zap.String("email", resp.User.Email),
		zap.Bool("needs_profile", resp.User.NeedsProfile()),
	)
	return newSession(resp.Token, claims, resp.User), nil
}

// Resume restores the stored session and refreshes its profile. A lapsed
// or rejected token is cleared and reported as ErrExpired.
func (m *Manager) Resume(ctx context.Context) (*Session, error) {
	token, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := ParseClaims(token)
	if err != nil || claims.Expired(m.now()) {
		m.logger.Info("Stored session is no longer valid")
		m.forget(ctx)
		return nil, ErrExpired
	}

	s := newSession(token, claims, nil)
	user, err := m.Client(s).Profile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			m.forget(ctx)
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("resume session: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	m.logger.Debug("Resumed session", zap.Int("user_id", claims.UserID))
	return s, nil
}

// Logout closes s, if any, and clears the stored token.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	if s != nil {
		s.Close()
	}
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.logger.Info("Signed out")
	return nil
}

func (m *Manager) forget(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("Failed to clear stored token", zap.Error(err))
	}
}
