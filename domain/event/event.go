// Package event defines the payloads pushed to live connections.
package event

import (
	"time"

	"mirror/domain"
)

// DomainEvent is implemented by everything the fan-out can deliver.
type DomainEvent interface {
	Kind() string
}

// MessagePayload is the wire shape of a message inside a push or an
// ingest response.
type MessagePayload struct {
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	ChatID    int       `json:"chat_id"`
}

// NewMessage is pushed to every other online member of a chat after a
// message has been persisted.
type NewMessage struct {
	Type    string         `json:"type"`
	ChatID  int            `json:"chat_id"`
	Message MessagePayload `json:"message"`
}

func (NewMessage) Kind() string { return "new_message" }

func NewMessageEvent(msg domain.Message) NewMessage {
	return NewMessage{
		Type:    "new_message",
		ChatID:  msg.ChatID,
		Message: PayloadFrom(msg),
	}
}

func PayloadFrom(msg domain.Message) MessagePayload {
	return MessagePayload{
		Content:   msg.Content,
		Username:  msg.Author,
		Timestamp: msg.CreatedAt,
		ChatID:    msg.ChatID,
	}
}
