package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dormhop/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, zap.NewNop()).WithTokens(staticToken("jwt-123"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListRoomsSendsBearerAndRequestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/rooms", r.URL.Path)
		assert.Equal(t, "Bearer jwt-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{
			"rooms": []map[string]any{
				{"id": 1, "dorm": "McFaddin Hall", "room_number": "488", "occupancy": 2, "amenities": []string{"WiFi"}, "description": nil, "gender": "female"},
				{"id": 2, "dorm": "Becker House", "room_number": "563", "occupancy": 1, "amenities": []string{"Laundry"}, "user_gender": "male"},
			},
			"total": 2,
		})
	})

	rooms, err := c.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "McFaddin Hall", rooms[0].Dorm)
	assert.Equal(t, "female", rooms[0].UserGender)
	assert.Equal(t, "", rooms[0].Description)
	assert.Equal(t, "male", rooms[1].UserGender)
}

func TestVerifyIDTokenIsUnauthenticated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/verify_id_token", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "google-id-token", body["id_token"])

		writeJSON(w, http.StatusOK, map[string]any{
			"token": "session-jwt",
			"user":  map[string]any{"id": 3, "email": "a@cornell.edu", "full_name": "A", "class_year": 2026},
		})
	})

	resp, err := c.VerifyIDToken(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "session-jwt", resp.Token)
	assert.Equal(t, 3, resp.User.ID)
	assert.True(t, resp.User.NeedsProfile())
}

func TestNextRoomPageQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{"rooms": []any{}, "total": 40})
	})

	rooms, err := c.NextRoomPage(context.Background(), models.PageCursor{Offset: 40, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestServerErrorCarriesStatusAndMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database down"})
	})

	err := c.SaveRoom(context.Background(), 7)
	require.Error(t, err)

	var srvErr *ServerError
	require.True(t, errors.As(err, &srvErr))
	assert.Equal(t, http.StatusInternalServerError, srvErr.StatusCode)
	assert.Equal(t, "database down", srvErr.Message)
	assert.Equal(t, KindServer, KindOf(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "500 database down", Message(err))
}

func TestUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsRetryable(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zap.NewNop())
	_, err := c.ListRecommendedRooms(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestEmptyBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no body", ""},
		{"null", "null"},
		{"garbage", "<html>"},
		{"missing envelope key", `{"total": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.ListSentKnocks(context.Background())
			require.ErrorIs(t, err, ErrEmptyBody)
			assert.Equal(t, KindEmptyBody, KindOf(err))
		})
	}
}

func TestKnockEndpoints(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/knocks":
			var body map[string]int
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 9, body["to_room_id"])
			writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "status": "pending", "to_room": map[string]any{"id": 9}})
		case r.Method == http.MethodPatch && r.URL.Path == "/api/knocks/1":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "accepted", body["status"])
			writeJSON(w, http.StatusOK, map[string]any{
				"id": 1, "status": "accepted", "to_room": map[string]any{"id": 9},
				"contacts": map[string]string{"from_email": "a@x.edu", "to_email": "b@x.edu"},
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/knocks/1":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	k, err := c.SendKnock(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, models.KnockPending, k.Status)
	assert.Equal(t, 9, k.ToRoom.ID)

	k, err = c.AcceptKnock(ctx, 1)
	require.NoError(t, err)
	assert.True(t, k.IsAccepted())
	require.NotNil(t, k.Contacts)
	assert.Equal(t, "b@x.edu", k.Contacts.ToEmail)

	require.NoError(t, c.DeleteKnock(ctx, 1))
	assert.Equal(t, []string{"POST /api/knocks", "PATCH /api/knocks/1", "DELETE /api/knocks/1"}, seen)
}

func TestSavedRoomEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/users/me/saved_rooms":
			writeJSON(w, http.StatusOK, map[string]any{"saved_rooms": []map[string]any{{"id": 5}, {"id": 8}}})
		case "DELETE /api/users/me/saved_rooms/5":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ids, err := c.ListSavedRoomIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 8}, ids)
	require.NoError(t, c.UnsaveRoom(context.Background(), 5))
	assert.True(t, IsNotFound(c.UnsaveRoom(context.Background(), 6)))
}

func TestRoomWriteEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "PATCH /api/users/me/room", "POST /api/users/me/room":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Nil(t, body["description"])
			assert.Equal(t, []any{}, body["amenities"])
			writeJSON(w, http.StatusOK, map[string]any{"id": 4, "dorm": body["dorm"], "room_number": body["room_number"], "occupancy": body["occupancy"]})
		case "PATCH /api/users/me/room/visibility":
			writeJSON(w, http.StatusOK, map[string]any{"is_room_listed": true, "updated_at": "2025-01-01T00:00:00Z"})
		case "GET /api/dorm_features":
			writeJSON(w, http.StatusOK, map[string][]string{"Becker House": {"Dining hall"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	room, err := c.UpdateRoom(ctx, RoomRequest{Dorm: "Becker House", RoomNumber: "563", Occupancy: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, room.ID)

	room, err = c.CreateRoom(ctx, RoomRequest{Dorm: "Cook House", RoomNumber: "101", Occupancy: 1})
	require.NoError(t, err)
	assert.Equal(t, "Cook House", room.Dorm)

	vis, err := c.SetVisibility(ctx, true)
	require.NoError(t, err)
	assert.True(t, vis.IsRoomListed)

	features, err := c.DormFeatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dining hall"}, features["Becker House"])
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Session expired, please sign in again", Message(&ServerError{StatusCode: 401}))
	assert.Equal(t, "404 Not Found", Message(&ServerError{StatusCode: 404}))
	assert.Equal(t, "Network error, check your connection", Message(&NetworkError{Op: "x", Err: errors.New("refused")}))
	assert.Equal(t, "Unexpected response from server", Message(emptyBody("x")))
}
