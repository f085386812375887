package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mirror/domain/event"
	"mirror/errors"
)

// Inbound frames carry no chat content; the read side exists only to
// detect the peer going away, so a small limit is enough.
const maxInboundFrameBytes = 512

// liveConn is one identity's WebSocket connection. It implements
// contract.EventSink: the broadcaster hands events to Consume, the
// write pump drains them to the socket.
type liveConn struct {
	log          *slog.Logger
	ws           *websocket.Conn
	identity     string
	out          chan event.DomainEvent
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	pongTimeout  time.Duration
}

func newLiveConn(log *slog.Logger, ws *websocket.Conn, identity string,
	bufferSize int, writeTimeout, pongTimeout time.Duration) *liveConn {
	return &liveConn{
		log:          log,
		ws:           ws,
		identity:     identity,
		out:          make(chan event.DomainEvent, bufferSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
	}
}

// Consume enqueues an event without ever blocking. A closed connection
// or a full buffer fails immediately; the broadcaster treats that as a
// dead peer and prunes the registry entry.
func (c *liveConn) Consume(_ context.Context, e event.DomainEvent) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: connection closed", errors.ErrDeliveryFailure)
	default:
	}
	select {
	case c.out <- e:
		return nil
	default:
		return fmt.Errorf("%w: outbound buffer full", errors.ErrDeliveryFailure)
	}
}

// Close is safe to call from any goroutine and any number of times.
func (c *liveConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// readPump blocks until the peer disconnects or the connection errors
// out. cleanup runs exactly once on every exit path; it is where the
// registry entry is released.
func (c *liveConn) readPump(cleanup func()) {
	defer func() {
		cleanup()
		c.Close()
	}()

	c.ws.SetReadLimit(maxInboundFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("Connection read failed", "identity", c.identity, "error", err)
			}
			return
		}
	}
}

// writePump drains the outbound buffer and keeps the peer alive with
// pings. Any write failure ends the connection; the read pump then
// unblocks and performs the cleanup.
func (c *liveConn) writePump() {
	ticker := time.NewTicker(c.pongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage, nil, time.Now().Add(c.writeTimeout))
			return
		case e := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteJSON(e); err != nil {
				c.log.Warn("Connection write failed", "identity", c.identity, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
