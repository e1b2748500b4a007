//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"pairchat/domain/chat"
	"pairchat/domain/event"
)

// Worker doesn't protect itself.
// The supervisor owns restarts and panic recovery.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives fan-out deliveries for one live connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Broker is the fan-out channel collaborator: join a room, leave a room,
// publish an event to every sink currently joined to that room. Delivery
// is at-most-once with best-effort ordering. One instance exists per
// process and is passed explicitly to every component that needs it.
type Broker interface {
	Join(roomID chat.RoomID, sink EventSink)
	Leave(roomID chat.RoomID, sink EventSink)
	Publish(ctx context.Context, e event.DomainEvent) error
}
