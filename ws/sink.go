package ws

import (
	"context"

	"pairchat/domain/event"
)

// Sink buffers fan-out deliveries for one live connection. The session's
// write pump drains it; a delivery that cannot be accepted before the
// broker's timeout is missed, keeping a slow connection from holding up
// its room.
type Sink struct {
	Events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Events: make(chan event.DomainEvent, bufferSize)}
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
