// Package chat contains the core concepts of the messaging system.
// Identities are owned by the account store and only read here.
// Rooms are derived values, never persisted.
package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type UserID int64

// Identity is a resolved account as seen by the chat core.
type Identity struct {
	ID       UserID
	Username string
}

// Message is immutable once created. Only the read flag may change
// afterwards, and never through the delivery path.
type Message struct {
	ID        uuid.UUID
	Sender    UserID
	Recipient UserID
	Content   string
	CreatedAt time.Time
	Read      bool
}

// Room returns the room this message belongs to.
func (m Message) Room() RoomID {
	return RoomFor(m.Sender, m.Recipient)
}

type RoomID string

// RoomFor derives the canonical room for an unordered pair of identities.
// The smaller id always comes first, so RoomFor(a, b) == RoomFor(b, a).
func RoomFor(a, b UserID) RoomID {
	if b < a {
		a, b = b, a
	}
	return RoomID(fmt.Sprintf("chat_%d_%d", a, b))
}
