package api

import (
	"context"
	"net/http"
	"strconv"

	"dormhop/models"
)

// RoomsResponse is the envelope of the room list endpoints.
type RoomsResponse struct {
	Rooms *[]models.Room `json:"rooms"`
	Total int            `json:"total"`
}

func (r *RoomsResponse) list(op string) ([]models.Room, error) {
	if r.Rooms == nil {
		return nil, emptyBody(op)
	}
	return *r.Rooms, nil
}

// ListRooms fetches the listed rooms.
func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	const op = "list rooms"
	var resp RoomsResponse
	if err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/rooms"}, &resp); err != nil {
		return nil, err
	}
	return resp.list(op)
}

// ListRecommendedRooms fetches the rooms recommended for the caller.
func (c *Client) ListRecommendedRooms(ctx context.Context) ([]models.Room, error) {
	const op = "list recommended rooms"
	var resp RoomsResponse
	if err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/recommendations"}, &resp); err != nil {
		return nil, err
	}
	return resp.list(op)
}

// NextRoomPage fetches the page of rooms starting at cursor.
func (c *Client) NextRoomPage(ctx context.Context, cursor models.PageCursor) ([]models.Room, error) {
	const op = "list room page"
	query := map[string]string{"offset": strconv.Itoa(cursor.Offset)}
	if cursor.Limit > 0 {
		query["limit"] = strconv.Itoa(cursor.Limit)
	}

	var resp RoomsResponse
	if err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/rooms", query: query}, &resp); err != nil {
		return nil, err
	}
	return resp.list(op)
}

// GetRoom fetches a single room.
func (c *Client) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	var room models.Room
	err := c.do(ctx, call{
		op:         "get room",
		method:     http.MethodGet,
		path:       "/rooms/{id}",
		pathParams: map[string]string{"id": strconv.Itoa(roomID)},
	}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DormFeatures fetches the community features of every dorm, keyed by dorm name.
func (c *Client) DormFeatures(ctx context.Context) (map[string][]string, error) {
	var features map[string][]string
	if err := c.do(ctx, call{op: "dorm features", method: http.MethodGet, path: "/dorm_features"}, &features); err != nil {
		return nil, err
	}
	return features, nil
}
