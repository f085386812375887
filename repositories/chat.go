package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"mirror/domain"
	"mirror/errors"
)

type ChatRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewChatRepository reserves a Badger sequence for chat ids.
// Close must be called to release unused ids back to the sequence.
func NewChatRepository(db *badger.DB) (*ChatRepository, error) {
	seq, err := db.GetSequence([]byte("seq:chat"), 64)
	if err != nil {
		return nil, err
	}
	return &ChatRepository{db: db, seq: seq}, nil
}

func (c *ChatRepository) Close() error {
	return c.seq.Release()
}

// DiskChat is the stored shape of a chat and its member set.
type DiskChat struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateChat persists a new chat. The owner is always part of the member
// set, and duplicate members are collapsed.
func (c *ChatRepository) CreateChat(title, owner string, members []string) (domain.Chat, error) {
	next, err := c.seq.Next()
	if err != nil {
		return domain.Chat{}, err
	}
	dc := DiskChat{
		// Sequences start at zero; chat ids start at one.
		ID:        int(next) + 1,
		Title:     title,
		Owner:     owner,
		Members:   lo.Uniq(append([]string{owner}, members...)),
		CreatedAt: time.Now().UTC(),
	}
	bytes, err := json.Marshal(dc)
	if err != nil {
		return domain.Chat{}, err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chatKey(dc.ID)), bytes)
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return toDomainChat(dc), nil
}

// GetChat returns ErrNotFound for an unknown chat id.
func (c *ChatRepository) GetChat(chatID int) (domain.Chat, error) {
	var dc DiskChat
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chatKey(chatID)))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dc)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Chat{}, fmt.Errorf("%w: chat %d", errors.ErrNotFound, chatID)
	}
	if err != nil {
		return domain.Chat{}, err
	}
	return toDomainChat(dc), nil
}

// IsMember treats an unknown chat as "not a member" rather than an
// error. Only genuine store failures are returned.
func (c *ChatRepository) IsMember(chatID int, identity string) (bool, error) {
	chat, err := c.GetChat(chatID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return chat.HasMember(identity), nil
}

func chatKey(chatID int) string {
	return fmt.Sprintf("chat:%d", chatID)
}

func toDomainChat(dc DiskChat) domain.Chat {
	return domain.Chat{
		ID:      dc.ID,
		Title:   dc.Title,
		Owner:   dc.Owner,
		Members: dc.Members,
	}
}
