package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"mirror/domain"
	"mirror/domain/event"
	"mirror/errors"
)

func newTestConn(t *testing.T, bufferSize int) *liveConn {
	t.Helper()
	req := require.New(t)

	upgraded := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		req.NoError(err)
		upgraded <- ws
	}))
	t.Cleanup(server.Close)

	url := strings.Replace(server.URL, "http://", "ws://", 1)
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = client.Close() })

	ws := <-upgraded
	conn := newLiveConn(slog.Default(), ws, "alice", bufferSize, time.Second, 5*time.Second)
	t.Cleanup(conn.Close)
	return conn
}

func TestLiveConn_Consume_Never_Blocks(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := newTestConn(t, 2)

	evt := event.NewMessageEvent(domain.Message{ChatID: 7, Author: "bob", Content: "hi"})

	// The buffer accepts events until it is full
	req.NoError(conn.Consume(ctx, evt))
	req.NoError(conn.Consume(ctx, evt))

	// A full buffer fails immediately instead of blocking the broadcast
	err := conn.Consume(ctx, evt)
	req.ErrorIs(err, errors.ErrDeliveryFailure)
}

func TestLiveConn_Consume_After_Close(t *testing.T) {
	req := require.New(t)
	conn := newTestConn(t, 2)

	conn.Close()
	conn.Close() // safe to call twice

	err := conn.Consume(context.Background(), event.NewMessage{})
	req.ErrorIs(err, errors.ErrDeliveryFailure)
}
