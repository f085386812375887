package repositories

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"mirror/contract"
	"mirror/domain"
)

const defaultSearchLimit = 10

// SearchIndex is a Bluge secondary index over persisted messages.
// Badger stays the source of truth; the index only answers the
// author/content lookups of the search endpoint.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(path string, log *slog.Logger) (*SearchIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &SearchIndex{writer: writer, log: log}, nil
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}

func (s *SearchIndex) Index(msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("chat_id", strconv.Itoa(msg.ChatID)).StoreValue()).
		AddField(bluge.NewKeywordField("author", msg.Author).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField("at", msg.CreatedAt.Format(time.RFC3339Nano)).StoreValue())
	return s.writer.Update(doc.ID(), doc)
}

// Find matches messages of one chat by exact author and/or content
// terms. Both filters are optional; an empty query returns the chat's
// most relevant documents up to the limit.
func (s *SearchIndex) Find(ctx context.Context, q contract.SearchQuery) ([]domain.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(strconv.Itoa(q.ChatID)).SetField("chat_id"))
	if q.Author != "" {
		query.AddMust(bluge.NewTermQuery(q.Author).SetField("author"))
	}
	if q.Terms != "" {
		query.AddMust(bluge.NewMatchQuery(q.Terms).SetField("content"))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var matches []domain.Message
	match, err := iterator.Next()
	for err == nil && match != nil {
		var msg domain.Message
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				msg.ID, _ = uuid.Parse(string(value))
			case "chat_id":
				msg.ChatID, _ = strconv.Atoi(string(value))
			case "author":
				msg.Author = string(value)
			case "content":
				msg.Content = string(value)
			case "at":
				msg.CreatedAt, _ = time.Parse(time.RFC3339Nano, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		matches = append(matches, msg)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return matches, nil
}
