package models

// Transaction records one shared expense.
// Transactions are append-only: they are never edited or deleted.
type Transaction struct {
	// ID is the unique identifier (UUID format), assigned by the store.
	ID string

	// RoomCode is the room this expense belongs to.
	RoomCode string

	// AmountMinor is the amount in minor currency units (cents). Always > 0.
	AmountMinor int64

	// Description is an optional free-text note ("Groceries", "Taxi").
	Description string

	// PayerUID is the participant who paid.
	PayerUID string

	// Participants are the UIDs sharing the cost equally. Never empty.
	// The payer may or may not be among them.
	Participants []string

	// Timestamp is the Unix time in milliseconds, assigned by the server.
	// Used for ordering only.
	Timestamp int64
}
