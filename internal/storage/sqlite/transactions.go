package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitroom/internal/models"
)

// CreateTransaction appends a transaction and its participant list atomically.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	// Generate ID and timestamp if not set
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Timestamp == 0 {
		t.Timestamp = time.Now().UnixMilli()
	}

	var description interface{} = nil
	if t.Description != "" {
		description = t.Description
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, room_code, amount_minor, description, payer_uid, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.RoomCode, t.AmountMinor, description, t.PayerUID, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i, uid := range t.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO transaction_participants (transaction_id, position, uid) VALUES (?, ?, ?)",
			t.ID, i, uid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListTransactions returns the room's transactions ordered by timestamp.
// Transactions with equal timestamps keep insertion order.
func (s *SQLiteStore) ListTransactions(ctx context.Context, roomCode string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.room_code, t.amount_minor, t.description, t.payer_uid, t.timestamp, tp.uid
		 FROM transactions t
		 LEFT JOIN transaction_participants tp ON tp.transaction_id = t.id
		 WHERE t.room_code = ?
		 ORDER BY t.timestamp, t.seq, tp.position`,
		roomCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var (
			t           models.Transaction
			description sql.NullString
			uid         sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.RoomCode, &t.AmountMinor, &description, &t.PayerUID, &t.Timestamp, &uid); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		// Rows arrive grouped by transaction; start a new one when the ID changes
		if n := len(transactions); n == 0 || transactions[n-1].ID != t.ID {
			if description.Valid {
				t.Description = description.String
			}
			t.Participants = []string{}
			transactions = append(transactions, t)
		}
		if uid.Valid {
			last := &transactions[len(transactions)-1]
			last.Participants = append(last.Participants, uid.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}
