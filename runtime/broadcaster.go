package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"mirror/contract"
	"mirror/domain"
	"mirror/domain/event"
)

// DeliveryAttempt records the outcome of one recipient's push. It lives
// only for the duration of a single broadcast.
type DeliveryAttempt struct {
	Recipient string
	Delivered bool
}

// Broadcaster delivers a persisted message to every other online member
// of its chat. Delivery is best effort: a failed push is recorded,
// the dead entry is pruned, and nothing is surfaced to the sender.
type Broadcaster struct {
	log      *slog.Logger
	registry contract.IRegistry
	chats    contract.IChatRepository
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, chats contract.IChatRepository) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, chats: chats}
}

// Broadcast pushes msg to the online members of its chat, excluding the
// author. The recipient list is a snapshot taken before any send, so the
// pass is unaffected by concurrent connects and disconnects. Failed
// recipients are evicted from the registry in a second, short pass.
func (b *Broadcaster) Broadcast(ctx context.Context, msg domain.Message) []DeliveryAttempt {
	chat, err := b.chats.GetChat(msg.ChatID)
	if err != nil {
		// The message is already durable; delivery simply cannot
		// resolve the member set right now.
		b.log.Warn("Broadcast skipped, chat unreadable", "chat_id", msg.ChatID, "error", err)
		return nil
	}

	evt := event.NewMessageEvent(msg)
	snapshot := b.registry.SnapshotOthers(msg.Author)

	attempts := make([]DeliveryAttempt, 0, len(snapshot))
	var failed []contract.Connection
	for _, conn := range snapshot {
		if !chat.HasMember(conn.Identity) {
			continue
		}
		err := conn.Sink.Consume(ctx, evt)
		attempts = append(attempts, DeliveryAttempt{Recipient: conn.Identity, Delivered: err == nil})
		if err != nil {
			failed = append(failed, conn)
			b.log.Warn(fmt.Sprintf("Push to %s failed, pruning connection", conn.Identity), "error", err)
		}
	}

	for _, conn := range failed {
		b.registry.Evict(conn.Identity, conn.Sink)
	}
	return attempts
}
