package services

import (
	"context"
	"sync"

	"dormhop/api"
	"dormhop/models"
)

// fakeBackend is an in-memory stand-in for the REST API. Each error field,
// when set, is returned by the matching call.
type fakeBackend struct {
	mu sync.Mutex

	rooms       []models.Room
	recommended []models.Room
	pages       [][]models.Room
	savedIDs    []int
	savedRooms  []models.Room
	sent        []models.Knock
	received    []models.Knock
	user        *models.User
	features    map[string][]string

	roomsErr, recommendedErr, savedErr, pageErr  error
	saveErr, unsaveErr                           error
	knockErr, acceptErr, deleteErr, listKnockErr error
	profileErr, roomWriteErr, visibilityErr      error
	featuresErr                                  error
	// receivedErr fails only the received-knocks list.
	receivedErr error

	calls     map[string]int
	cursors   []models.PageCursor
	lastRoom  *api.RoomRequest
	nextKnock int

	// gate, when non-nil, blocks NextRoomPage until it is closed.
	gate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int), nextKnock: 100}
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) ListRooms(ctx context.Context) ([]models.Room, error) {
	f.count("ListRooms")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roomsErr != nil {
		return nil, f.roomsErr
	}
	return append([]models.Room(nil), f.rooms...), nil
}

func (f *fakeBackend) ListRecommendedRooms(ctx context.Context) ([]models.Room, error) {
	f.count("ListRecommendedRooms")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recommendedErr != nil {
		return nil, f.recommendedErr
	}
	return append([]models.Room(nil), f.recommended...), nil
}

func (f *fakeBackend) NextRoomPage(ctx context.Context, cursor models.PageCursor) ([]models.Room, error) {
	f.count("NextRoomPage")
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, cursor)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeBackend) ListSavedRoomIDs(ctx context.Context) ([]int, error) {
	f.count("ListSavedRoomIDs")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.savedErr != nil {
		return nil, f.savedErr
	}
	return append([]int(nil), f.savedIDs...), nil
}

func (f *fakeBackend) ListSavedRooms(ctx context.Context) ([]models.Room, error) {
	f.count("ListSavedRooms")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.savedErr != nil {
		return nil, f.savedErr
	}
	return append([]models.Room(nil), f.savedRooms...), nil
}

func (f *fakeBackend) SaveRoom(ctx context.Context, roomID int) error {
	f.count("SaveRoom")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedIDs = append(f.savedIDs, roomID)
	return nil
}

func (f *fakeBackend) UnsaveRoom(ctx context.Context, roomID int) error {
	f.count("UnsaveRoom")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsaveErr != nil {
		return f.unsaveErr
	}
	kept := f.savedIDs[:0:0]
	for _, id := range f.savedIDs {
		if id != roomID {
			kept = append(kept, id)
		}
	}
	f.savedIDs = kept
	return nil
}

func (f *fakeBackend) SendKnock(ctx context.Context, roomID int) (*models.Knock, error) {
	f.count("SendKnock")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.knockErr != nil {
		return nil, f.knockErr
	}
	f.nextKnock++
	k := models.Knock{
		ID:     f.nextKnock,
		ToRoom: models.Room{ID: roomID},
		Status: models.KnockPending,
	}
	f.sent = append(f.sent, k)
	return &k, nil
}

func (f *fakeBackend) ListSentKnocks(ctx context.Context) ([]models.Knock, error) {
	f.count("ListSentKnocks")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listKnockErr != nil {
		return nil, f.listKnockErr
	}
	return append([]models.Knock(nil), f.sent...), nil
}

func (f *fakeBackend) ListReceivedKnocks(ctx context.Context) ([]models.Knock, error) {
	f.count("ListReceivedKnocks")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listKnockErr != nil {
		return nil, f.listKnockErr
	}
	if f.receivedErr != nil {
		return nil, f.receivedErr
	}
	return append([]models.Knock(nil), f.received...), nil
}

func (f *fakeBackend) AcceptKnock(ctx context.Context, knockID int) (*models.Knock, error) {
	f.count("AcceptKnock")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	at := "2025-01-02T00:00:00"
	accept := func(k *models.Knock) {
		k.Status = models.KnockAccepted
		k.AcceptedAt = &at
		k.Contacts = &models.Contacts{FromEmail: "a@tamu.edu", ToEmail: "b@tamu.edu"}
	}
	var accepted *models.Knock
	for i := range f.received {
		if f.received[i].ID == knockID {
			accept(&f.received[i])
			k := f.received[i]
			accepted = &k
		}
	}
	if accepted == nil {
		return nil, &api.ServerError{Op: "accept knock", StatusCode: 404, Message: "Knock not found"}
	}
	// Both parties see the same knock.
	for i := range f.sent {
		if f.sent[i].ID == knockID {
			accept(&f.sent[i])
		}
	}
	return accepted, nil
}

func (f *fakeBackend) DeleteKnock(ctx context.Context, knockID int) error {
	f.count("DeleteKnock")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.sent = dropKnock(f.sent, knockID)
	f.received = dropKnock(f.received, knockID)
	return nil
}

func dropKnock(ks []models.Knock, id int) []models.Knock {
	out := ks[:0:0]
	for _, k := range ks {
		if k.ID != id {
			out = append(out, k)
		}
	}
	return out
}

func (f *fakeBackend) Profile(ctx context.Context) (*models.User, error) {
	f.count("Profile")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.user == nil {
		return nil, api.ErrEmptyBody
	}
	u := *f.user
	return &u, nil
}

func (f *fakeBackend) UpdateRoom(ctx context.Context, req api.RoomRequest) (*models.Room, error) {
	f.count("UpdateRoom")
	return f.writeRoom(req)
}

func (f *fakeBackend) CreateRoom(ctx context.Context, req api.RoomRequest) (*models.Room, error) {
	f.count("CreateRoom")
	return f.writeRoom(req)
}

func (f *fakeBackend) writeRoom(req api.RoomRequest) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRoom = &req
	if f.roomWriteErr != nil {
		return nil, f.roomWriteErr
	}
	r := models.Room{
		ID:         7,
		Dorm:       req.Dorm,
		RoomNumber: req.RoomNumber,
		Occupancy:  req.Occupancy,
		Amenities:  req.Amenities,
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	return &r, nil
}

func (f *fakeBackend) SetVisibility(ctx context.Context, listed bool) (*api.VisibilityResponse, error) {
	f.count("SetVisibility")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visibilityErr != nil {
		return nil, f.visibilityErr
	}
	return &api.VisibilityResponse{IsRoomListed: listed}, nil
}

func (f *fakeBackend) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	f.count("GetRoom")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.ID == roomID {
			return &r, nil
		}
	}
	return nil, &api.ServerError{Op: "get room", StatusCode: 404, Message: "Room not found"}
}

func (f *fakeBackend) DormFeatures(ctx context.Context) (map[string][]string, error) {
	f.count("DormFeatures")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	return f.features, nil
}

func sampleRooms() []models.Room {
	return []models.Room{
		{ID: 1, Dorm: "Hullabaloo Hall", RoomNumber: "204", Occupancy: 2, Amenities: []string{"AC", "Desk"}, Campus: "Main", UserGender: "Male"},
		{ID: 2, Dorm: "McFaddin Hall", RoomNumber: "112", Occupancy: 1, Amenities: []string{"WiFi", "Sink"}, Campus: "Main", UserGender: "Female"},
		{ID: 3, Dorm: "Gainer Hall", RoomNumber: "3B", Occupancy: 4, Amenities: []string{"Kitchen"}, Campus: "Galveston", UserGender: "male"},
		{ID: 4, Dorm: "Moses Hall", RoomNumber: "401", Occupancy: 2, Amenities: nil, Campus: "", UserGender: ""},
	}
}

func roomIDs(rooms []models.Room) []int {
	out := make([]int, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func knockIDs(ks []models.Knock) []int {
	out := make([]int, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.ID)
	}
	return out
}
