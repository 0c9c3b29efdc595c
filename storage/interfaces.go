package storage

import "dormhop/models"

// RoomWriter is the interface any export backend must satisfy.
type RoomWriter interface {
	WriteRooms(rooms []models.Room) error
	Close() error
}

// RoomArchive is a RoomWriter that can read back what it stored.
type RoomArchive interface {
	RoomWriter
	FetchAll() ([]models.Room, error)
}

var (
	_ RoomWriter  = (*CSVWriter)(nil)
	_ RoomArchive = (*PostgresWriter)(nil)
)
