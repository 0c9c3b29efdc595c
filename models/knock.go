package models

// KnockStatus is the lifecycle state of a knock. Rejection and cancellation
// delete the knock, so there is no rejected status.
type KnockStatus string

const (
	KnockPending  KnockStatus = "pending"
	KnockAccepted KnockStatus = "accepted"
)

// Contacts is exchanged once a knock is accepted.
type Contacts struct {
	FromEmail string `json:"from_email"`
	ToEmail   string `json:"to_email"`
}

// Knock is a directed swap request from a user to another user's room.
type Knock struct {
	ID         int         `json:"id"`
	FromUser   User        `json:"from_user"`
	ToRoom     Room        `json:"to_room"`
	Status     KnockStatus `json:"status"`
	CreatedAt  string      `json:"created_at"`
	AcceptedAt *string     `json:"accepted_at"`
	Contacts   *Contacts   `json:"contacts,omitempty"`
}

// IsAccepted reports whether the recipient accepted the knock.
func (k Knock) IsAccepted() bool {
	return k.Status == KnockAccepted
}
