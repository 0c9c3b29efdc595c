package api

import (
	"context"
	"fmt"
	"net/http"

	"dormhop/models"
)

// AuthResponse is returned by the identity token exchange.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RoomRequest creates or updates the caller's room.
type RoomRequest struct {
	Dorm        string   `json:"dorm" validate:"required"`
	RoomNumber  string   `json:"room_number" validate:"required"`
	Occupancy   int      `json:"occupancy" validate:"min=1"`
	Amenities   []string `json:"amenities" validate:"dive,required"`
	Description *string  `json:"description"`
}

// VisibilityResponse reports the listing flag after a visibility change.
type VisibilityResponse struct {
	IsRoomListed bool   `json:"is_room_listed"`
	UpdatedAt    string `json:"updated_at"`
}

type verifyRequest struct {
	IDToken string `json:"id_token"`
}

type visibilityRequest struct {
	IsRoomListed bool `json:"is_room_listed"`
}

// VerifyIDToken exchanges a Google ID token for a DormHop session token.
// It is the only unauthenticated call.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*AuthResponse, error) {
	const op = "verify id token"
	var resp AuthResponse
	err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/verify_id_token",
		public: true,
		body:   verifyRequest{IDToken: idToken},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, emptyBody(op)
	}
	return &resp, nil
}

// Profile fetches the caller's own profile.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, call{op: "get profile", method: http.MethodGet, path: "/users/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRoom edits the caller's existing room.
func (c *Client) UpdateRoom(ctx context.Context, req RoomRequest) (*models.Room, error) {
	return c.writeRoom(ctx, "update room", http.MethodPatch, req)
}

// CreateRoom registers the caller's room for the first time.
func (c *Client) CreateRoom(ctx context.Context, req RoomRequest) (*models.Room, error) {
	return c.writeRoom(ctx, "create room", http.MethodPost, req)
}

func (c *Client) writeRoom(ctx context.Context, op, method string, req RoomRequest) (*models.Room, error) {
	if req.Amenities == nil {
		req.Amenities = []string{}
	}
	var room models.Room
	if err := c.do(ctx, call{op: op, method: method, path: "/users/me/room", body: req}, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// SetVisibility lists or unlists the caller's room.
func (c *Client) SetVisibility(ctx context.Context, listed bool) (*VisibilityResponse, error) {
	var resp VisibilityResponse
	err := c.do(ctx, call{
		op:     "set visibility",
		method: http.MethodPatch,
		path:   "/users/me/room/visibility",
		body:   visibilityRequest{IsRoomListed: listed},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func emptyBody(op string) error {
	return fmt.Errorf("%s: %w", op, ErrEmptyBody)
}
