package session

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the server puts in a session token.
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	gojwt.RegisteredClaims
}

// ParseClaims decodes token without checking its signature; the signing
// key stays on the server.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token has lapsed at now. A token without an
// expiry never lapses.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}
