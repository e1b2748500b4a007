// Package runtime owns event propagation between live connections.
// It orchestrates delivery without containing domain rules.
package runtime

import (
	"sync"

	"pairchat/contract"
	"pairchat/domain/chat"
)

type set map[contract.EventSink]struct{}

// Registry maps rooms to the sinks currently joined to them. Membership is
// keyed by sink handle, not by user: one identity may hold any number of
// concurrent sessions, each with its own sink in the same room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[chat.RoomID]set
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[chat.RoomID]set)}
}

// Sinks retrieves all active sinks for a room. Returns nil if the room has
// no members.
func (r *Registry) Sinks(roomID chat.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(members))
	for sink := range members {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Subscribe registers a sink as a member of a room, initializing the room
// on first join.
func (r *Registry) Subscribe(roomID chat.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(set)
	}
	r.rooms[roomID][sink] = struct{}{}
}

// Unsubscribe removes a sink from a room. It is idempotent and safe to
// call for a sink that never joined. Empty rooms are removed entirely so
// the map does not grow over time.
func (r *Registry) Unsubscribe(roomID chat.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, sink)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}
