package models

// Participant represents a person who takes part in shared expenses.
//
// The ID never changes once created. Name and Email can be updated.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// Name is the display name of the participant.
	Name string

	// Email is the participant's contact key (unique across participants).
	Email string

	// CreatedAt is the Unix timestamp when the participant was registered.
	CreatedAt int64
}
