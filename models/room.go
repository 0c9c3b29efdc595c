package models

import "encoding/json"

// Room is a dorm room listing as served by the backend.
// The client never edits a Room in place; a fresh copy from the server
// replaces the old one wholesale.
type Room struct {
	ID           int      `json:"id"`
	Dorm         string   `json:"dorm"`
	RoomNumber   string   `json:"room_number"`
	Occupancy    int      `json:"occupancy"`
	Amenities    []string `json:"amenities"`
	Description  string   `json:"description,omitempty"`
	Campus       string   `json:"campus,omitempty"`
	UserGender   string   `json:"gender,omitempty"`
	IsRoomListed bool     `json:"is_room_listed"`
	Owner        *User    `json:"owner,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// UnmarshalJSON accepts both "gender" and "user_gender" for the owner's
// gender facet and tolerates a null description.
func (r *Room) UnmarshalJSON(data []byte) error {
	type plain Room
	aux := struct {
		*plain
		Description *string `json:"description"`
		UserGender  *string `json:"user_gender"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Description != nil {
		r.Description = *aux.Description
	}
	if r.UserGender == "" && aux.UserGender != nil {
		r.UserGender = *aux.UserGender
	}
	return nil
}

// PageCursor marks where the next page of the room collection starts.
type PageCursor struct {
	Offset int
	Limit  int
}

// Next returns the cursor advanced past n received rooms.
func (c PageCursor) Next(n int) PageCursor {
	return PageCursor{Offset: c.Offset + n, Limit: c.Limit}
}
