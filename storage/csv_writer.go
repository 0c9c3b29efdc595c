package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"dormhop/models"
)

var csvHeader = []string{
	"id", "dorm", "room_number", "occupancy", "amenities", "campus", "gender", "is_room_listed", "owner_email", "description",
}

// CSVWriter writes a room view to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRooms appends one row per room, in view order. Amenities are joined
// with "; ".
func (c *CSVWriter) WriteRooms(rooms []models.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rooms {
		owner := ""
		if r.Owner != nil {
			owner = r.Owner.Email
		}
		row := []string{
			strconv.Itoa(r.ID),
			r.Dorm,
			r.RoomNumber,
			strconv.Itoa(r.Occupancy),
			strings.Join(r.Amenities, "; "),
			r.Campus,
			r.UserGender,
			strconv.FormatBool(r.IsRoomListed),
			owner,
			r.Description,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
