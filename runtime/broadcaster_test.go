package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mirror/domain"
	"mirror/domain/event"
	"mirror/errors"
	"mirror/mocks"
)

func TestBroadcaster_Delivers_To_Other_Members_Only(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	chats := mocks.NewMockIChatRepository(ctrl)
	broadcaster := NewBroadcaster(log, registry, chats)

	// Given alice, bob and carol are online but carol is not a member
	alice := &stubSink{}
	bob := &stubSink{}
	carol := &stubSink{}
	registry.Register("alice", connection("alice", alice))
	registry.Register("bob", connection("bob", bob))
	registry.Register("carol", connection("carol", carol))

	msg := domain.Message{ChatID: 7, Author: "alice", Content: "hello"}
	chats.EXPECT().GetChat(7).
		Return(domain.Chat{ID: 7, Owner: "alice", Members: []string{"alice", "bob"}}, nil)

	// When alice's message is broadcast
	attempts := broadcaster.Broadcast(context.Background(), msg)

	// Then only bob received it
	req.Len(attempts, 1)
	req.Equal("bob", attempts[0].Recipient)
	req.True(attempts[0].Delivered)
	req.Len(bob.events(), 1)
	req.Empty(alice.events())
	req.Empty(carol.events())

	evt, ok := bob.events()[0].(event.NewMessage)
	req.True(ok)
	req.Equal("new_message", evt.Type)
	req.Equal(7, evt.ChatID)
	req.Equal("hello", evt.Message.Content)
	req.Equal("alice", evt.Message.Username)
}

func TestBroadcaster_Failed_Push_Does_Not_Abort_The_Pass(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	chats := mocks.NewMockIChatRepository(ctrl)
	broadcaster := NewBroadcaster(log, registry, chats)

	// Given bob's connection is dead while carol's is healthy
	bob := &stubSink{fail: errors.ErrDeliveryFailure}
	carol := &stubSink{}
	registry.Register("alice", connection("alice", &stubSink{}))
	registry.Register("bob", connection("bob", bob))
	registry.Register("carol", connection("carol", carol))

	members := []string{"alice", "bob", "carol"}
	chats.EXPECT().GetChat(7).
		Return(domain.Chat{ID: 7, Owner: "alice", Members: members}, nil)

	// When alice's message is broadcast
	attempts := broadcaster.Broadcast(context.Background(), domain.Message{ChatID: 7, Author: "alice"})

	// Then carol still received it
	req.Len(attempts, 2)
	req.Len(carol.events(), 1)

	delivered := map[string]bool{}
	for _, a := range attempts {
		delivered[a.Recipient] = a.Delivered
	}
	req.False(delivered["bob"])
	req.True(delivered["carol"])

	// And bob's dead entry was pruned while carol stayed registered
	snapshot := registry.SnapshotOthers("")
	req.Len(snapshot, 2)
	for _, conn := range snapshot {
		req.NotEqual("bob", conn.Identity)
	}
}

func TestBroadcaster_Unreadable_Chat_Skips_Delivery(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	chats := mocks.NewMockIChatRepository(ctrl)
	broadcaster := NewBroadcaster(log, registry, chats)

	bob := &stubSink{}
	registry.Register("bob", connection("bob", bob))

	chats.EXPECT().GetChat(42).Return(domain.Chat{}, errors.ErrStorage)

	attempts := broadcaster.Broadcast(context.Background(), domain.Message{ChatID: 42, Author: "alice"})

	req.Nil(attempts)
	req.Empty(bob.events())
}
