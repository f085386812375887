package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"mirror/domain"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the stored shape of a message.
type DiskMessage struct {
	ID      uuid.UUID `json:"id"`
	ChatID  int       `json:"chat_id"`
	Author  string    `json:"author"`
	Content string    `json:"content"`
	Lang    string    `json:"lang,omitempty"`
	At      time.Time `json:"at"`
}

// AddMessage persists one message inside a single Badger transaction and
// returns the canonical record. The store assigns both the id and the
// timestamp. The key is "msg:{chat_id}:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps keys chronologically sorted
//     (lexicographical order).
//  2. The UUID suffix disambiguates two messages landing on the same
//     nanosecond.
func (m MessageRepository) AddMessage(chatID int, author, content, lang string) (domain.Message, error) {
	dm := DiskMessage{
		ID:      uuid.New(),
		ChatID:  chatID,
		Author:  author,
		Content: content,
		Lang:    lang,
		At:      time.Now().UTC(),
	}
	key := fmt.Sprintf("msg:%d:%019d:%s", dm.ChatID, dm.At.UnixNano(), dm.ID)
	bytes, err := json.Marshal(dm)
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toDomainMessage(dm), nil
}

// GetMessages retrieves messages for a chat, newest first, using a
// reverse prefix scan. Thanks to the padded timestamp in the key the
// iteration order is the chronological one. It stops once the configured
// limitMessages is reached and returns an opaque cursor for the next page.
func (m MessageRepository) GetMessages(chatID int, cursor *string) ([]domain.Message, *string, error) {
	var diskMessages []DiskMessage
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%d:", chatID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(diskMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize the cursor part of the current key.
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				var dm DiskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				diskMessages = append(diskMessages, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return fromDiskMessages(diskMessages), &lastKey, nil
}

func toDomainMessage(dm DiskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		ChatID:    dm.ChatID,
		Author:    dm.Author,
		Content:   dm.Content,
		Lang:      dm.Lang,
		CreatedAt: dm.At,
	}
}

func fromDiskMessages(messages []DiskMessage) []domain.Message {
	return lo.Map(messages, func(item DiskMessage, _ int) domain.Message {
		return toDomainMessage(item)
	})
}
