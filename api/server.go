// Package api exposes the HTTP surface: auth, chat CRUD, the message
// ingest endpoint, and the WebSocket connection endpoint.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mirror/contract"
	"mirror/errors"
	"mirror/runtime"
	"mirror/services"
)

const identityKey = "identity"

type Options struct {
	ConnectionBufferSize int
	WriteTimeout         time.Duration
	PongTimeout          time.Duration
	TokenTTL             time.Duration
}

type Server struct {
	log         *slog.Logger
	auth        services.IAuthService
	chats       services.IChatService
	registry    contract.IRegistry
	broadcaster *runtime.Broadcaster
	engine      *gin.Engine
	opts        Options
}

func NewServer(log *slog.Logger, auth services.IAuthService, chats services.IChatService,
	registry contract.IRegistry, broadcaster *runtime.Broadcaster, opts Options) *Server {
	s := &Server{
		log:         log,
		auth:        auth,
		chats:       chats,
		registry:    registry,
		broadcaster: broadcaster,
		engine:      gin.New(),
		opts:        opts,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery())

	s.engine.POST("/auth/register", s.register)
	s.engine.POST("/auth/login", s.login)
	s.engine.GET("/health", s.health)
	s.engine.GET("/ws/:username", s.connect)

	authed := s.engine.Group("/", s.requireAuth)
	authed.POST("/chats/create", s.createChat)
	authed.POST("/chats/send", s.sendMessage)
	authed.GET("/chats/:id/messages", s.history)
	authed.GET("/chats/:id/messages/search", s.search)
}

// credentialFrom extracts the bearer credential, first from the
// access_token cookie, falling back to the token query parameter.
func credentialFrom(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// requireAuth resolves the request credential to an identity and stores
// it in the request context.
func (s *Server) requireAuth(c *gin.Context) {
	credential, ok := credentialFrom(c)
	if !ok {
		abortWithError(c, errors.ErrUnauthenticated)
		return
	}
	identity, err := s.auth.ResolveIdentity(credential)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func identityOf(c *gin.Context) string {
	return c.GetString(identityKey)
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{"detail": err.Error()})
}
