package api

import (
	"context"
	"net/http"
	"strconv"

	"dormhop/models"
)

type knocksResponse struct {
	Knocks *[]models.Knock `json:"knocks"`
}

type knockRequest struct {
	ToRoomID int `json:"to_room_id"`
}

type knockStatusRequest struct {
	Status models.KnockStatus `json:"status"`
}

// SendKnock asks the occupant of roomID for a swap.
func (c *Client) SendKnock(ctx context.Context, roomID int) (*models.Knock, error) {
	var knock models.Knock
	err := c.do(ctx, call{
		op:     "send knock",
		method: http.MethodPost,
		path:   "/knocks",
		body:   knockRequest{ToRoomID: roomID},
	}, &knock)
	if err != nil {
		return nil, err
	}
	return &knock, nil
}

// ListSentKnocks fetches the knocks the caller sent.
func (c *Client) ListSentKnocks(ctx context.Context) ([]models.Knock, error) {
	return c.listKnocks(ctx, "list sent knocks", "/knocks/sent")
}

// ListReceivedKnocks fetches the knocks on the caller's room.
func (c *Client) ListReceivedKnocks(ctx context.Context) ([]models.Knock, error) {
	return c.listKnocks(ctx, "list received knocks", "/knocks/received")
}

func (c *Client) listKnocks(ctx context.Context, op, path string) ([]models.Knock, error) {
	var resp knocksResponse
	if err := c.do(ctx, call{op: op, method: http.MethodGet, path: path}, &resp); err != nil {
		return nil, err
	}
	if resp.Knocks == nil {
		return nil, emptyBody(op)
	}
	return *resp.Knocks, nil
}

// AcceptKnock accepts a received knock. The returned knock carries contacts.
func (c *Client) AcceptKnock(ctx context.Context, knockID int) (*models.Knock, error) {
	var knock models.Knock
	err := c.do(ctx, call{
		op:         "accept knock",
		method:     http.MethodPatch,
		path:       "/knocks/{id}",
		pathParams: map[string]string{"id": strconv.Itoa(knockID)},
		body:       knockStatusRequest{Status: models.KnockAccepted},
	}, &knock)
	if err != nil {
		return nil, err
	}
	return &knock, nil
}

// DeleteKnock cancels a sent knock or rejects a received one.
func (c *Client) DeleteKnock(ctx context.Context, knockID int) error {
	return c.do(ctx, call{
		op:         "delete knock",
		method:     http.MethodDelete,
		path:       "/knocks/{id}",
		pathParams: map[string]string{"id": strconv.Itoa(knockID)},
	}, nil)
}
