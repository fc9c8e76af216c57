// Package models defines the core domain models for splitroom.
//
// # Models
//
//   - Room: a shared expense session, addressed by a short invite code
//   - Participant: a person in a room, identified by an opaque UID
//   - Transaction: one shared expense with a payer and the people sharing it
//   - Summary: derived balances and the settlement plan for a room
//
// Rooms, participants and transactions are persisted. Summaries are never
// stored; they are recomputed from the current participants and transactions
// every time they are requested.
//
// # Design Principles
//
//  1. Transactions are immutable once created (no edit or delete)
//  2. Relationships use ID strings, never pointers
//  3. Amounts are whole minor units (cents) at rest and float64 in the engine
package models
