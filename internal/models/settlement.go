package models

// MemberBalance is one participant's net position in a room.
type MemberBalance struct {
	UID  string
	Name string // Empty if the UID is referenced by a transaction but has not joined

	// Net is positive when the group owes this participant and negative when
	// the participant owes the group. Rounded to 2 decimals.
	Net float64
}

// Transfer is a payment instruction that settles outstanding balances.
type Transfer struct {
	FromUID string
	ToUID   string
	Amount  float64
}

// Summary is the derived state of a room at one point in time.
type Summary struct {
	RoomCode     string
	Participants []Participant
	Transactions []Transaction
	Balances     []MemberBalance
	Transfers    []Transfer
}
