package models

// Room is a shared expense session.
type Room struct {
	// Code is the invite code, 6 uppercase alphanumeric characters.
	Code string

	// CreatedBy is the UID of the participant who opened the room.
	CreatedBy string

	// CreatedAt is the Unix timestamp in milliseconds.
	CreatedAt int64
}

// Participant is a member of a room.
type Participant struct {
	// UID is the opaque identifier issued at sign-in.
	UID string

	// RoomCode is the room this participant joined.
	RoomCode string

	// Name is the display name chosen when joining. Rejoining updates it.
	Name string

	// JoinedAt is the Unix timestamp in milliseconds of the first join.
	JoinedAt int64
}
