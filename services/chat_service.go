package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"

	"mirror/contract"
	"mirror/domain"
	"mirror/errors"
	"mirror/moderation"
)

type IChatService interface {
	SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.Message, error)
	IsMember(chatID int, identity string) (bool, error)
	CreateChat(cmd CreateChatCommand) (domain.Chat, error)
	History(chatID int, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, q contract.SearchQuery) ([]domain.Message, error)
}

type SendMessageCommand struct {
	ChatID  int
	Sender  string
	Content string
}

type CreateChatCommand struct {
	Title   string
	Owner   string
	Members []string
}

type ChatService struct {
	log              *slog.Logger
	messages         contract.IMessageRepository
	chats            contract.IChatRepository
	index            contract.ISearchIndex
	moderator        *moderation.Moderator
	maxContentLength int
}

func NewChatService(log *slog.Logger, messages contract.IMessageRepository,
	chats contract.IChatRepository, index contract.ISearchIndex,
	moderator *moderation.Moderator, maxContentLength int) *ChatService {
	return &ChatService{
		log:              log,
		messages:         messages,
		chats:            chats,
		index:            index,
		moderator:        moderator,
		maxContentLength: maxContentLength,
	}
}

// SendMessage runs the ingest pipeline: validate, guard membership,
// moderate, persist. Each step is a precondition for the next, so a
// rejected message never reaches the store. Broadcast is deliberately
// not part of ingestion; persistence succeeds independently of any
// delivery outcome.
func (s *ChatService) SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.Message, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: empty content", errors.ErrInvalidMessage)
	}
	if s.maxContentLength > 0 && len([]rune(content)) > s.maxContentLength {
		return domain.Message{}, fmt.Errorf("%w: content exceeds %d characters",
			errors.ErrInvalidMessage, s.maxContentLength)
	}

	member, err := s.IsMember(cmd.ChatID, cmd.Sender)
	if err != nil {
		return domain.Message{}, err
	}
	if !member {
		return domain.Message{}, fmt.Errorf("%w: %s in chat %d",
			errors.ErrForbidden, cmd.Sender, cmd.ChatID)
	}

	info := whatlanggo.Detect(content)
	lang := info.Lang.Iso6391()
	if s.moderator != nil {
		content = s.moderator.Censor(content)
	}

	msg, err := s.messages.AddMessage(cmd.ChatID, cmd.Sender, content, lang)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	// The search index is a secondary structure; an indexing failure
	// must not fail an already durable write.
	if s.index != nil {
		if err := s.index.Index(msg); err != nil {
			s.log.Warn("Indexing message failed", "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

// IsMember delegates to the store. Not-found is false, never an error;
// a failing store surfaces as ErrStorageUnavailable.
func (s *ChatService) IsMember(chatID int, identity string) (bool, error) {
	member, err := s.chats.IsMember(chatID, identity)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return member, nil
}

func (s *ChatService) CreateChat(cmd CreateChatCommand) (domain.Chat, error) {
	if strings.TrimSpace(cmd.Title) == "" {
		return domain.Chat{}, fmt.Errorf("%w: empty title", errors.ErrInvalidMessage)
	}
	chat, err := s.chats.CreateChat(cmd.Title, cmd.Owner, cmd.Members)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return chat, nil
}

func (s *ChatService) History(chatID int, cursor *string) ([]domain.Message, *string, error) {
	messages, next, err := s.messages.GetMessages(chatID, cursor)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return messages, next, nil
}

func (s *ChatService) Search(ctx context.Context, q contract.SearchQuery) ([]domain.Message, error) {
	if s.index == nil {
		return nil, nil
	}
	matches, err := s.index.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return matches, nil
}
