package runtime

import (
	"context"
	"log/slog"
	"time"

	"pairchat/contract"
	"pairchat/domain/chat"
	"pairchat/domain/event"
)

// Fanout is the in-process fan-out channel. Publish enqueues onto a
// buffered channel; a single supervised worker drains it and delivers to
// every sink currently joined to the event's room.
//
// Delivery is best-effort and at-most-once: a full publish queue drops the
// event, and a sink that cannot accept within sinkTimeout misses it. One
// slow or dead connection never blocks the rest of a room.
//
// Fanout is safe for concurrent use by multiple goroutines.
type Fanout struct {
	log         *slog.Logger
	registry    *Registry
	events      chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewFanout(log *slog.Logger, registry *Registry, bufferSize int, sinkTimeout time.Duration) *Fanout {
	return &Fanout{
		log:         log,
		registry:    registry,
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

func (f *Fanout) Join(roomID chat.RoomID, sink contract.EventSink) {
	f.registry.Subscribe(roomID, sink)
}

func (f *Fanout) Leave(roomID chat.RoomID, sink contract.EventSink) {
	f.registry.Unsubscribe(roomID, sink)
}

// Publish enqueues an event for delivery to the members of its room.
func (f *Fanout) Publish(ctx context.Context, e event.DomainEvent) error {
	select {
	case f.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		f.log.Warn("event queue full, dropping event", "room", e.Room())
		return nil
	}
}

// Run drains the publish queue until the context is canceled. Events are
// delivered one at a time, so a room's delivery order follows its publish
// order.
func (f *Fanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			f.log.Debug("context done, stopping fanout")
			return nil
		case evt := <-f.events:
			f.deliver(ctx, evt)
		}
	}
}

func (f *Fanout) deliver(ctx context.Context, e event.DomainEvent) {
	for _, sink := range f.registry.Sinks(e.Room()) {
		deliveryCtx, cancel := context.WithTimeout(ctx, f.sinkTimeout)
		if err := sink.Consume(deliveryCtx, e); err != nil {
			f.log.Debug("sink missed event", "room", e.Room(), "error", err)
		}
		cancel()
	}
}
