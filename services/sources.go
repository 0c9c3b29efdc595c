package services

import (
	"context"

	"dormhop/api"
	"dormhop/models"
)

// RoomSource fetches the two room collections a search screen merges.
type RoomSource interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListRecommendedRooms(ctx context.Context) ([]models.Room, error)
}

// PageSource fetches one page of the room collection.
type PageSource interface {
	NextRoomPage(ctx context.Context, cursor models.PageCursor) ([]models.Room, error)
}

// SavedSource backs the saved-room id set.
type SavedSource interface {
	ListSavedRoomIDs(ctx context.Context) ([]int, error)
	SaveRoom(ctx context.Context, roomID int) error
	UnsaveRoom(ctx context.Context, roomID int) error
}

// SavedRoomsSource backs the saved rooms screen.
type SavedRoomsSource interface {
	ListSavedRooms(ctx context.Context) ([]models.Room, error)
	UnsaveRoom(ctx context.Context, roomID int) error
}

// KnockSource backs the knock lifecycle.
type KnockSource interface {
	SendKnock(ctx context.Context, roomID int) (*models.Knock, error)
	ListSentKnocks(ctx context.Context) ([]models.Knock, error)
	ListReceivedKnocks(ctx context.Context) ([]models.Knock, error)
	AcceptKnock(ctx context.Context, knockID int) (*models.Knock, error)
	DeleteKnock(ctx context.Context, knockID int) error
}

// ProfileSource backs the profile editor and the posting screen.
type ProfileSource interface {
	Profile(ctx context.Context) (*models.User, error)
	UpdateRoom(ctx context.Context, req api.RoomRequest) (*models.Room, error)
	CreateRoom(ctx context.Context, req api.RoomRequest) (*models.Room, error)
	SetVisibility(ctx context.Context, listed bool) (*api.VisibilityResponse, error)
}

// DetailSource backs the room detail screen.
type DetailSource interface {
	GetRoom(ctx context.Context, roomID int) (*models.Room, error)
	DormFeatures(ctx context.Context) (map[string][]string, error)
}

var (
	_ RoomSource       = (*api.Client)(nil)
	_ PageSource       = (*api.Client)(nil)
	_ SavedSource      = (*api.Client)(nil)
	_ SavedRoomsSource = (*api.Client)(nil)
	_ KnockSource      = (*api.Client)(nil)
	_ ProfileSource    = (*api.Client)(nil)
	_ DetailSource     = (*api.Client)(nil)
)
