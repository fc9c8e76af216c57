// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitroom/internal/models"
	"github.com/mmynk/splitroom/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas apply to every pooled connection
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRoom persists a new room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.CreatedAt == 0 {
		room.CreatedAt = time.Now().UnixMilli()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO rooms (code, created_by, created_at) VALUES (?, ?, ?) ON CONFLICT (code) DO NOTHING",
		room.Code, room.CreatedBy, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check inserted room: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("room %s: %w", room.Code, storage.ErrConflict)
	}

	return nil
}

// GetRoom retrieves a room by code.
func (s *SQLiteStore) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	room := &models.Room{}
	err := s.db.QueryRowContext(ctx,
		"SELECT code, created_by, created_at FROM rooms WHERE code = ?",
		code,
	).Scan(&room.Code, &room.CreatedBy, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// UpsertParticipant adds or renames a participant.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, p *models.Participant) error {
	if p.JoinedAt == 0 {
		p.JoinedAt = time.Now().UnixMilli()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO participants (room_code, uid, name, joined_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_code, uid) DO UPDATE SET name = excluded.name
		 RETURNING joined_at`,
		p.RoomCode, p.UID, p.Name, p.JoinedAt,
	).Scan(&p.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert participant: %w", err)
	}

	return nil
}

// ListParticipants returns the room's participants in join order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, roomCode string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT room_code, uid, name, joined_at FROM participants WHERE room_code = ? ORDER BY joined_at, rowid",
		roomCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.RoomCode, &p.UID, &p.Name, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}
