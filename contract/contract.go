//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"time"

	"mirror/domain"
	"mirror/domain/event"
)

// EventSink is one connection's outbound channel.
//
// Consume must never block: a full or closed sink returns an error
// immediately so a slow or dead peer cannot stall a broadcast.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
	Close()
}

// Connection ties an authenticated identity to its live sink.
// It is owned by the registry entry for that identity while active.
type Connection struct {
	Identity      string
	Sink          EventSink
	EstablishedAt time.Time
}

// IRegistry is the process-wide map of online identities.
// At most one connection is registered per identity.
type IRegistry interface {
	// Register unconditionally installs or replaces the entry.
	Register(identity string, conn Connection)
	// Unregister removes the entry if present. Idempotent.
	Unregister(identity string)
	// Evict removes the entry only if sink still owns it, so a stale
	// connection cannot tear down its replacement.
	Evict(identity string, sink EventSink)
	// SnapshotOthers returns a point-in-time copy of every entry
	// except the excluded identity.
	SnapshotOthers(excluding string) []Connection
}

type IMessageRepository interface {
	// AddMessage persists one message in a single transaction and
	// returns the canonical record with store-assigned id and timestamp.
	AddMessage(chatID int, author, content, lang string) (domain.Message, error)
	GetMessages(chatID int, cursor *string) ([]domain.Message, *string, error)
}

type IChatRepository interface {
	CreateChat(title, owner string, members []string) (domain.Chat, error)
	GetChat(chatID int) (domain.Chat, error)
	// IsMember reports false, not an error, when the chat does not exist.
	IsMember(chatID int, identity string) (bool, error)
}

type IUserRepository interface {
	CreateUser(username, email, passwordHash string) (domain.User, error)
	GetUser(username string) (domain.User, error)
}

type SearchQuery struct {
	ChatID int
	Author string // exact identity, empty to skip
	Terms  string // content terms, empty to skip
	Limit  int
}

type ISearchIndex interface {
	Index(msg domain.Message) error
	Find(ctx context.Context, q SearchQuery) ([]domain.Message, error)
}
