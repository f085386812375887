package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mirror/contract"
	"mirror/domain/event"
)

type stubSink struct {
	mu       sync.Mutex
	consumed []event.DomainEvent
	fail     error
}

func (s *stubSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.consumed = append(s.consumed, e)
	return nil
}

func (s *stubSink) Close() {}

func (s *stubSink) events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

func connection(identity string, sink contract.EventSink) contract.Connection {
	return contract.Connection{Identity: identity, Sink: sink, EstablishedAt: time.Now()}
}

func TestRegistry_Register_One_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &stubSink{}

	// Given nobody is connected
	req.Empty(registry.SnapshotOthers(""))

	// When alice connects
	registry.Register("alice", connection("alice", sink))

	// Then she is visible to everyone but herself
	req.Len(registry.SnapshotOthers("bob"), 1)
	req.Empty(registry.SnapshotOthers("alice"))
}

func TestRegistry_Register_Replaces_Previous_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := &stubSink{}
	second := &stubSink{}

	// Given alice is connected
	registry.Register("alice", connection("alice", first))

	// When she reconnects
	registry.Register("alice", connection("alice", second))

	// Then a single entry remains and it is the new one
	snapshot := registry.SnapshotOthers("")
	req.Len(snapshot, 1)
	req.Same(second, snapshot[0].Sink)
}

func TestRegistry_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", connection("alice", &stubSink{}))

	registry.Unregister("alice")
	registry.Unregister("alice")
	registry.Unregister("never-connected")

	req.Empty(registry.SnapshotOthers(""))
}

func TestRegistry_Evict_Only_Removes_Own_Entry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	stale := &stubSink{}
	replacement := &stubSink{}

	// Given alice reconnected, replacing her first connection
	registry.Register("alice", connection("alice", stale))
	registry.Register("alice", connection("alice", replacement))

	// When the superseded connection's cleanup fires
	registry.Evict("alice", stale)

	// Then the replacement is untouched
	snapshot := registry.SnapshotOthers("")
	req.Len(snapshot, 1)
	req.Same(replacement, snapshot[0].Sink)

	// And the owning connection can still remove itself
	registry.Evict("alice", replacement)
	req.Empty(registry.SnapshotOthers(""))
}

func TestRegistry_SnapshotOthers_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register("alice", connection("alice", &stubSink{}))
	registry.Register("bob", connection("bob", &stubSink{}))
	registry.Register("carol", connection("carol", &stubSink{}))

	snapshot := registry.SnapshotOthers("alice")

	req.Len(snapshot, 2)
	for _, conn := range snapshot {
		req.NotEqual("alice", conn.Identity)
	}
}

func TestRegistry_Concurrent_Access(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup
	identities := []string{"alice", "bob", "carol", "dave"}

	for i := 0; i < 50; i++ {
		for _, identity := range identities {
			wg.Add(1)
			go func(identity string) {
				defer wg.Done()
				sink := &stubSink{}
				registry.Register(identity, connection(identity, sink))
				registry.SnapshotOthers(identity)
				registry.Evict(identity, sink)
			}(identity)
		}
	}
	wg.Wait()
}
