// Package api declares the wire messages of the splitroom.v1 RPC services.
// Messages are encoded as JSON; see Codec.
package api

// Room is a shared expense session.
type Room struct {
	Code      string `json:"code"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
}

// Participant is a member of a room.
type Participant struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joined_at"` // Unix milliseconds
}

// Transaction is one shared expense.
type Transaction struct {
	ID              string   `json:"id"`
	Amount          float64  `json:"amount"`
	Description     string   `json:"description,omitempty"`
	PayerUID        string   `json:"payer_uid"`
	ParticipantUIDs []string `json:"participant_uids"`
	Timestamp       int64    `json:"timestamp"` // Unix milliseconds
}

// Balance is one participant's net position.
// Positive = owed money, Negative = owes money.
type Balance struct {
	UID     string  `json:"uid"`
	Name    string  `json:"name"`
	Net     float64 `json:"net"`
	Display string  `json:"display"` // Net with exactly two decimals
}

// Settlement is one transfer in the plan that clears all balances.
type Settlement struct {
	FromUID string  `json:"from_uid"`
	ToUID   string  `json:"to_uid"`
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

type SignInAnonymouslyRequest struct{}

type SignInAnonymouslyResponse struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

type CreateRoomRequest struct{}

type CreateRoomResponse struct {
	Room *Room `json:"room"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

type JoinRoomResponse struct {
	Participant *Participant `json:"participant"`
}

type ListParticipantsRequest struct {
	RoomCode string `json:"room_code"`
}

type ListParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type AddTransactionRequest struct {
	RoomCode        string   `json:"room_code"`
	Amount          float64  `json:"amount"`
	Description     string   `json:"description,omitempty"`
	PayerUID        string   `json:"payer_uid"`
	ParticipantUIDs []string `json:"participant_uids"`
}

type AddTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	RoomCode string `json:"room_code"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type GetBalancesRequest struct {
	RoomCode string `json:"room_code"`
}

type GetBalancesResponse struct {
	Balances    []*Balance    `json:"balances"`
	Settlements []*Settlement `json:"settlements"`
}

type WatchRoomRequest struct {
	RoomCode string `json:"room_code"`
}

// RoomSnapshot is everything a client needs to render a room.
type RoomSnapshot struct {
	RoomCode     string         `json:"room_code"`
	Participants []*Participant `json:"participants"`
	Transactions []*Transaction `json:"transactions"`
	Balances     []*Balance     `json:"balances"`
	Settlements  []*Settlement  `json:"settlements"`
}
