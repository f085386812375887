package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mirror/contract"
	"mirror/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// connect authenticates a connection attempt and, on success, registers
// it and runs its liveness loop until the peer goes away.
//
// The credential is validated before the upgrade, so a refused attempt
// never reaches the registry: missing or invalid credential is 401,
// a path username that does not match the resolved identity is 403.
func (s *Server) connect(c *gin.Context) {
	claimed := c.Param("username")

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
	if identity != claimed {
		abortWithError(c, errors.ErrIdentityMismatch)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.log.Warn("Upgrade failed", "identity", identity, "error", err)
		return
	}

	conn := newLiveConn(s.log, ws, identity,
		s.opts.ConnectionBufferSize, s.opts.WriteTimeout, s.opts.PongTimeout)

	// Last writer wins: a reconnect silently replaces the previous
	// entry without closing its socket.
	s.registry.Register(identity, contract.Connection{
		Identity:      identity,
		Sink:          conn,
		EstablishedAt: time.Now().UTC(),
	})
	s.log.Info("Connection established", "identity", identity)

	go conn.writePump()
	conn.readPump(func() {
		s.registry.Evict(identity, conn)
		s.log.Info("Connection closed", "identity", identity)
	})
}
