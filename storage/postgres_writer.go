package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"dormhop/models"
	"dormhop/utils"
)

const roomColumns = 10

// PostgresWriter archives fetched rooms in PostgreSQL, one row per room id.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to
// answer, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw, err := NewPostgresWriterFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return pw, nil
}

// NewPostgresWriterFromDB wraps an open database and runs schema migrations.
func NewPostgresWriterFromDB(db *sql.DB) (*PostgresWriter, error) {
	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id             INTEGER     PRIMARY KEY,
			dorm           TEXT        NOT NULL,
			room_number    TEXT        NOT NULL,
			occupancy      INTEGER     NOT NULL,
			amenities      TEXT[]      NOT NULL DEFAULT '{}',
			description    TEXT,
			campus         TEXT        NOT NULL DEFAULT '',
			gender         TEXT        NOT NULL DEFAULT '',
			is_room_listed BOOLEAN     NOT NULL DEFAULT FALSE,
			owner_email    TEXT        NOT NULL DEFAULT '',
			archived_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_rooms_dorm      ON rooms(dorm);
		CREATE INDEX IF NOT EXISTS idx_rooms_occupancy ON rooms(occupancy);
		CREATE INDEX IF NOT EXISTS idx_rooms_campus    ON rooms(campus);
	`)
	return err
}

// Clear deletes every archived room.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM rooms")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// WriteRooms upserts rooms by id in batches. A room that appears twice is
// written once, with its first occurrence.
func (pw *PostgresWriter) WriteRooms(rooms []models.Room) error {
	seen := utils.NewIDSet()
	unique := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if seen.Add(r.ID) {
			unique = append(unique, r)
		}
	}
	if len(unique) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(unique); i += batchSize {
		end := i + batchSize
		if end > len(unique) {
			end = len(unique)
		}
		if err := pw.upsertBatch(unique[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(batch []models.Room) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*roomColumns)

	for idx, r := range batch {
		base := idx * roomColumns
		placeholders := make([]string, roomColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var description sql.NullString
		if r.Description != "" {
			description = sql.NullString{String: r.Description, Valid: true}
		}
		owner := ""
		if r.Owner != nil {
			owner = r.Owner.Email
		}
		amenities := r.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		valueArgs = append(valueArgs,
			r.ID, r.Dorm, r.RoomNumber, r.Occupancy, pq.Array(amenities),
			description, r.Campus, r.UserGender, r.IsRoomListed, owner)
	}

	query := fmt.Sprintf(`
		INSERT INTO rooms (id, dorm, room_number, occupancy, amenities, description, campus, gender, is_room_listed, owner_email)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			dorm = EXCLUDED.dorm,
			room_number = EXCLUDED.room_number,
			occupancy = EXCLUDED.occupancy,
			amenities = EXCLUDED.amenities,
			description = EXCLUDED.description,
			campus = EXCLUDED.campus,
			gender = EXCLUDED.gender,
			is_room_listed = EXCLUDED.is_room_listed,
			owner_email = EXCLUDED.owner_email,
			archived_at = NOW()
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert rooms: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves every archived room ordered by id.
func (pw *PostgresWriter) FetchAll() ([]models.Room, error) {
	rows, err := pw.db.Query(`
		SELECT id, dorm, room_number, occupancy, amenities, description, campus, gender, is_room_listed, owner_email
		FROM rooms
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var (
			r           models.Room
			description sql.NullString
			owner       string
		)
		if err := rows.Scan(
			&r.ID, &r.Dorm, &r.RoomNumber, &r.Occupancy, pq.Array(&r.Amenities),
			&description, &r.Campus, &r.UserGender, &r.IsRoomListed, &owner,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Description = description.String
		if owner != "" {
			r.Owner = &models.User{Email: owner}
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}
