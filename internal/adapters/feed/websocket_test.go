package feed_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_DeliversUntilNormalClose(t *testing.T) {
	var subscribed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, sub, err := conn.ReadMessage(); err == nil && string(sub) == `{"subscribe":"TEAM_A"}` {
			subscribed.Store(true)
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"book","side":"buy","price":45,"quantity":10}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"noise"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"clock","time_seconds":2000}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "final"))
		conn.ReadMessage() // wait for the client's close reply
	}))
	defer srv.Close()

	ws := feed.DialWebSocket(context.Background(), feed.WSConfig{
		URL:       wsURL(srv),
		Subscribe: []byte(`{"subscribe":"TEAM_A"}`),
	})
	defer ws.Close()

	msgs := drain(t, ws)
	require.Len(t, msgs, 2)
	assert.Equal(t, ports.MsgBookDelta, msgs[0].Kind)
	assert.Equal(t, ports.MsgClock, msgs[1].Kind)
	assert.True(t, subscribed.Load())
}

func TestWebSocket_ReconnectsAfterDrop(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if conns.Add(1) == 1 {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"clock","time_seconds":100}`))
			return // drop without a close frame
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"clock","time_seconds":90}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.ReadMessage()
	}))
	defer srv.Close()

	ws := feed.DialWebSocket(context.Background(), feed.WSConfig{URL: wsURL(srv), BaseBackoff: time.Millisecond})
	defer ws.Close()

	msgs := drain(t, ws)
	require.Len(t, msgs, 2)
	assert.Equal(t, 100.0, msgs[0].Clock)
	assert.Equal(t, 90.0, msgs[1].Clock)
	assert.Equal(t, int32(2), conns.Load())
}

func TestWebSocket_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	ws := feed.DialWebSocket(context.Background(), feed.WSConfig{URL: url, MaxRetries: 2, BaseBackoff: time.Millisecond})
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := ws.Next(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 2 attempts")
	assert.NotErrorIs(t, err, io.EOF)
}

func TestWebSocket_NextHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage() // hold the connection open
	}))
	defer srv.Close()

	ws := feed.DialWebSocket(context.Background(), feed.WSConfig{URL: wsURL(srv)})
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ws.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
