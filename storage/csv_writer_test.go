package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormhop/models"
)

func TestCSVWriterWritesEveryRoom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rooms.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	rooms := make([]models.Room, 0, 12)
	for i := 1; i <= 12; i++ {
		rooms = append(rooms, models.Room{ID: i, Dorm: "Moses Hall", RoomNumber: "1", Occupancy: 2})
	}
	rooms[0].Amenities = []string{"AC", "Desk"}
	rooms[0].Owner = &models.User{Email: "rev@tamu.edu"}
	rooms[0].Description = "has a comma, and \"quotes\""

	require.NoError(t, w.WriteRooms(rooms))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 13)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"1", "Moses Hall", "1", "2", "AC; Desk", "", "", "false", "rev@tamu.edu", "has a comma, and \"quotes\"",
	}, records[1])
	assert.Equal(t, "12", records[12][0])
}

func TestCSVWriterBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := NewCSVWriter(filepath.Join(blocker, "rooms.csv"))
	assert.Error(t, err)
}
