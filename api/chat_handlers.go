package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"mirror/contract"
	"mirror/domain"
	"mirror/domain/event"
	"mirror/services"
)

type sendMessageRequest struct {
	ChatID  int    `json:"chat_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type sendMessageResponse struct {
	Status  string               `json:"status"`
	Message event.MessagePayload `json:"message"`
}

// sendMessage is the ingest path. The message is persisted first; only
// then is it fanned out to the other online members. The sender always
// gets either the persisted message or an explicit error for its own
// request, never a delivery report for other recipients.
func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	sender := identityOf(c)
	msg, err := s.chats.SendMessage(c.Request.Context(), services.SendMessageCommand{
		ChatID:  req.ChatID,
		Sender:  sender,
		Content: req.Content,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	attempts := s.broadcaster.Broadcast(c.Request.Context(), msg)
	s.log.Debug("Message broadcast",
		"chat_id", msg.ChatID,
		"recipients", len(attempts))

	c.JSON(http.StatusOK, sendMessageResponse{
		Status:  "message_sent",
		Message: event.PayloadFrom(msg),
	})
}

type createChatRequest struct {
	Title   string   `json:"title" binding:"required"`
	Members []string `json:"members"`
}

func (s *Server) createChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	chat, err := s.chats.CreateChat(services.CreateChatCommand{
		Title:   req.Title,
		Owner:   identityOf(c),
		Members: req.Members,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "chat_created",
		"chat": gin.H{
			"id":      chat.ID,
			"title":   chat.Title,
			"members": chat.Members,
		},
	})
}

func (s *Server) history(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid chat id"})
		return
	}

	member, err := s.chats.IsMember(chatID, identityOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"detail": "not a member of this chat"})
		return
	}

	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}
	messages, next, err := s.chats.History(chatID, cursor)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": toPayloads(messages),
		"cursor":   next,
	})
}

func (s *Server) search(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid chat id"})
		return
	}

	member, err := s.chats.IsMember(chatID, identityOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"detail": "not a member of this chat"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	matches, err := s.chats.Search(c.Request.Context(), contract.SearchQuery{
		ChatID: chatID,
		Author: c.Query("author"),
		Terms:  c.Query("q"),
		Limit:  limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": toPayloads(matches)})
}

func toPayloads(messages []domain.Message) []event.MessagePayload {
	return lo.Map(messages, func(msg domain.Message, _ int) event.MessagePayload {
		return event.PayloadFrom(msg)
	})
}
