// Package runtime holds the shared connection state and the fan-out
// machinery. It contains no business rules.
package runtime

import (
	"sync"

	"mirror/contract"
)

// Registry maps each online identity to its single live connection.
// It is the only mutable state shared across connection goroutines and
// ingest requests, so every operation takes the lock.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]contract.Connection
}

func NewRegistry() *Registry {
	return &Registry{connections: make(map[string]contract.Connection)}
}

// Register installs the connection for identity, replacing any previous
// entry. The superseded sink is not closed here: last writer wins and
// the old connection's own liveness loop remains responsible for it.
func (r *Registry) Register(identity string, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[identity] = conn
}

// Unregister removes the entry for identity if present.
func (r *Registry) Unregister(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, identity)
}

// Evict removes the entry for identity only when sink is still the
// registered one. A connection that was replaced by a reconnect ends up
// evicting nothing.
func (r *Registry) Evict(identity string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.connections[identity]; ok && current.Sink == sink {
		delete(r.connections, identity)
	}
}

// SnapshotOthers copies every entry except the excluded identity.
// Broadcast iteration runs on the copy, outside the lock, so concurrent
// register and unregister calls never affect an in-flight delivery pass.
func (r *Registry) SnapshotOthers(excluding string) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var snapshot []contract.Connection
	for identity, conn := range r.connections {
		if identity == excluding {
			continue
		}
		snapshot = append(snapshot, conn)
	}
	return snapshot
}
