package api

import (
	"context"
	"net/http"
	"strconv"

	"dormhop/models"
)

type savedRoomsResponse struct {
	SavedRooms *[]models.Room `json:"saved_rooms"`
}

type roomIDRequest struct {
	RoomID int `json:"room_id"`
}

// ListSavedRooms fetches the caller's saved rooms.
func (c *Client) ListSavedRooms(ctx context.Context) ([]models.Room, error) {
	const op = "list saved rooms"
	var resp savedRoomsResponse
	if err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/users/me/saved_rooms"}, &resp); err != nil {
		return nil, err
	}
	if resp.SavedRooms == nil {
		return nil, emptyBody(op)
	}
	return *resp.SavedRooms, nil
}

// ListSavedRoomIDs fetches the ids of the caller's saved rooms, in server order.
func (c *Client) ListSavedRoomIDs(ctx context.Context) ([]int, error) {
	rooms, err := c.ListSavedRooms(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// SaveRoom adds a room to the caller's favorites.
func (c *Client) SaveRoom(ctx context.Context, roomID int) error {
	return c.do(ctx, call{
		op:     "save room",
		method: http.MethodPost,
		path:   "/users/me/saved_rooms",
		body:   roomIDRequest{RoomID: roomID},
	}, nil)
}

// UnsaveRoom removes a room from the caller's favorites.
func (c *Client) UnsaveRoom(ctx context.Context, roomID int) error {
	return c.do(ctx, call{
		op:         "unsave room",
		method:     http.MethodDelete,
		path:       "/users/me/saved_rooms/{room_id}",
		pathParams: map[string]string{"room_id": strconv.Itoa(roomID)},
	}, nil)
}
