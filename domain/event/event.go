// Package event defines the closed set of domain events carried by the
// fan-out channel. Consumers dispatch with a type switch over these
// variants, so adding a new kind is a compile-time visible change.
package event

import (
	"pairchat/domain/chat"
)

type DomainEvent interface {
	Room() chat.RoomID
}

// MessageCreated is published after a message has been durably stored.
// It carries the fully materialized message, id and timestamp included,
// so every subscriber renders the same payload regardless of which
// ingress path created it.
type MessageCreated struct {
	Message chat.Message
}

func (e MessageCreated) Room() chat.RoomID {
	return e.Message.Room()
}
