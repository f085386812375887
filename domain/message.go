// Package domain contains core concepts of the chat system.
// This file defines the canonical Message record.
// Messages are immutable once the store has assigned their id and timestamp.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one persisted chat message.
type Message struct {
	ID        uuid.UUID // assigned by the store
	ChatID    int
	Author    string // identity of the sender
	Content   string
	Lang      string // ISO 639-1, best effort
	CreatedAt time.Time // assigned by the store
}
