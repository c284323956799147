package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/courtside/internal/ports"
	"github.com/gorilla/websocket"
)

// WSConfig configures the live websocket source.
type WSConfig struct {
	URL string
	// Subscribe, if set, is sent as a text frame after every connect.
	Subscribe []byte
	// ReadTimeout bounds the silence tolerated before reconnecting.
	ReadTimeout time.Duration
	// MaxRetries is the number of consecutive failed connects before the
	// source gives up; 0 retries forever.
	MaxRetries int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Buffer      int
}

func (c *WSConfig) setDefaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
}

// WebSocket reads feed records from a websocket on its own goroutine and
// hands them out one at a time through Next. Decoding happens on the reader
// goroutine; all agent callbacks still run on the caller's goroutine.
//
// A normal close from the server ends the feed. Any other read error
// reconnects with exponential backoff.
type WebSocket struct {
	cfg    WSConfig
	msgs   chan ports.Message
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	conn *websocket.Conn
	err  error
}

var _ ports.EventSource = (*WebSocket)(nil)

// DialWebSocket starts the connection loop. It returns immediately; connect
// failures surface as retries in the log and, once MaxRetries is exhausted,
// as the error returned by Next.
func DialWebSocket(ctx context.Context, cfg WSConfig) *WebSocket {
	cfg.setDefaults()
	ctx, cancel := context.WithCancel(ctx)
	w := &WebSocket{
		cfg:    cfg,
		msgs:   make(chan ports.Message, cfg.Buffer),
		cancel: cancel,
	}
	w.wg.Add(1)
	go w.run(ctx)
	return w
}

// Next blocks until a record arrives, the feed ends (io.EOF or the terminal
// connect error) or ctx is done.
func (w *WebSocket) Next(ctx context.Context) (ports.Message, error) {
	select {
	case <-ctx.Done():
		return ports.Message{}, ctx.Err()
	case msg, ok := <-w.msgs:
		if !ok {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.err != nil {
				return ports.Message{}, w.err
			}
			return ports.Message{}, io.EOF
		}
		return msg, nil
	}
}

// Close stops the reader and waits for it to exit.
func (w *WebSocket) Close() error {
	w.cancel()
	w.closeConn()
	w.wg.Wait()
	return nil
}

func (w *WebSocket) run(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.msgs)

	retry := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := w.connect(ctx)
		if err != nil {
			retry++
			if w.cfg.MaxRetries > 0 && retry >= w.cfg.MaxRetries {
				w.setErr(fmt.Errorf("feed.WebSocket: giving up after %d attempts: %w", retry, err))
				return
			}
			delay := backoff(w.cfg.BaseBackoff, w.cfg.MaxBackoff, retry-1)
			slog.Warn("feed: websocket connect failed", "url", w.cfg.URL, "retry", retry, "in", delay, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		if done := w.read(ctx, conn); done {
			return
		}
	}
}

func (w *WebSocket) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	if len(w.cfg.Subscribe) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, w.cfg.Subscribe); err != nil {
			conn.Close()
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	slog.Info("feed: websocket connected", "url", w.cfg.URL)
	return conn, nil
}

// read pumps frames until the connection drops. It reports whether the feed
// is over (normal close or shutdown) rather than needing a reconnect.
func (w *WebSocket) read(ctx context.Context, conn *websocket.Conn) bool {
	defer w.closeConn()
	for {
		conn.SetReadDeadline(time.Now().Add(w.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("feed: websocket closed by server")
				return true
			}
			slog.Warn("feed: websocket read failed, reconnecting", "err", err)
			return false
		}

		msg, err := Decode(data)
		if err != nil {
			slog.Warn("feed: skipping frame", "err", err)
			continue
		}
		select {
		case w.msgs <- msg:
		case <-ctx.Done():
			return true
		}
	}
}

func (w *WebSocket) closeConn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}

func (w *WebSocket) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

// backoff doubles base per retry, capped at limit.
func backoff(base, limit time.Duration, retry int) time.Duration {
	if retry < 0 {
		return base
	}
	if retry > 30 {
		return limit
	}
	d := base * time.Duration(1<<retry)
	if d > limit || d <= 0 {
		return limit
	}
	return d
}
