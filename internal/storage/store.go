// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitroom/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned (wrapped) when a record with the same key exists.
var ErrConflict = errors.New("already exists")

// Store defines the interface for room storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateRoom persists a new room. room.Code must be set by the caller.
	// Returns ErrConflict if the code is taken.
	CreateRoom(ctx context.Context, room *models.Room) error

	// GetRoom retrieves a room by its code.
	// Returns ErrNotFound if the room does not exist.
	GetRoom(ctx context.Context, code string) (*models.Room, error)

	// UpsertParticipant adds a participant to a room, or updates the display
	// name if the UID already joined. JoinedAt is preserved on update.
	UpsertParticipant(ctx context.Context, p *models.Participant) error

	// ListParticipants returns every participant in the room, in join order.
	ListParticipants(ctx context.Context, roomCode string) ([]models.Participant, error)

	// CreateTransaction appends a transaction to the room's log.
	// The ID and Timestamp fields are populated by the store when empty.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// ListTransactions returns the room's transactions, oldest first.
	ListTransactions(ctx context.Context, roomCode string) ([]models.Transaction, error)

	// Close releases any resources held by the store.
	Close() error
}
