package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/dotmap/dotmap/pkg/streaming"
)

const (
	ackChSize  = 16
	writeWait  = 10 * time.Second
	ackTimeout = 10 * time.Second
)

// retryPolicy bounds reconnect attempts.
type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

var defaultRetry = retryPolicy{attempts: 10, initial: time.Second, max: 30 * time.Second}

// link owns one WebSocket connection. A single writer goroutine drains
// outbound; a reader routes acks to acks.
type link struct {
	mu     sync.Mutex
	conn   *ws.Conn
	closed bool

	outbound chan []byte
	acks     chan streaming.AckMessage
	done     chan struct{}
	dropped  atomic.Uint64

	target string
	retry  retryPolicy

	// start_session replayed after reconnect
	hello []byte

	logger *slog.Logger
}

func newLink(rawURL, secret string, buffer int, retry retryPolicy, logger *slog.Logger) (*link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	if buffer <= 0 {
		buffer = 1024
	}
	return &link{
		outbound: make(chan []byte, buffer),
		acks:     make(chan streaming.AckMessage, ackChSize),
		done:     make(chan struct{}),
		target:   u.String(),
		retry:    retry,
		logger:   logger,
	}, nil
}

// open dials and starts the read and write loops.
func (l *link) open() error {
	conn, _, err := ws.DefaultDialer.Dial(l.target, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	l.attach(conn)
	return nil
}

func (l *link) attach(conn *ws.Conn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	go l.writeLoop(conn)
	go l.readLoop(conn)
}

func (l *link) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-l.done:
			return
		case data := <-l.outbound:
			if err := write(conn, data); err != nil {
				l.logger.Warn("websocket write error", "error", err)
				go l.reconnect(conn)
				return
			}
		}
	}
}

func (l *link) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			l.logger.Warn("websocket read error", "error", err)
			go l.reconnect(conn)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			l.logger.Debug("non-ack message received", "raw", string(message))
			continue
		}
		select {
		case l.acks <- ack:
		default:
			l.logger.Debug("ack channel full, dropping", "for", ack.For)
		}
	}
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// reconnect replaces a failed connection. Both loops may report the same
// failure; only the first caller for a given conn proceeds.
func (l *link) reconnect(failed *ws.Conn) {
	l.mu.Lock()
	if l.closed || l.conn != failed {
		l.mu.Unlock()
		return
	}
	_ = l.conn.Close()
	l.conn = nil
	l.mu.Unlock()

	backoff := l.retry.initial
	for attempt := 1; attempt <= l.retry.attempts; attempt++ {
		select {
		case <-l.done:
			return
		case <-time.After(backoff):
		}

		conn, _, err := ws.DefaultDialer.Dial(l.target, nil)
		if err != nil {
			l.logger.Warn("reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, l.retry.max)
			continue
		}

		l.mu.Lock()
		hello := l.hello
		l.mu.Unlock()
		if hello != nil {
			if err := write(conn, hello); err != nil {
				l.logger.Warn("failed to replay start_session", "error", err)
				_ = conn.Close()
				continue
			}
		}

		l.logger.Info("websocket reconnected", "attempt", attempt)
		l.attach(conn)
		return
	}

	l.logger.Error("websocket reconnect failed", "attempts", l.retry.attempts)
}

// send queues data for the writer. It never blocks; a full queue drops.
func (l *link) send(data []byte) bool {
	select {
	case l.outbound <- data:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// request sends data and waits for an ack naming msgType.
func (l *link) request(data []byte, msgType string, timeout time.Duration) error {
	if !l.send(data) {
		return fmt.Errorf("send queue full for %q", msgType)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-l.acks:
			if ack.For == msgType {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", msgType)
		case <-l.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", msgType)
		}
	}
}

func (l *link) setHello(data []byte) {
	l.mu.Lock()
	l.hello = data
	l.mu.Unlock()
}

// close sends a close frame and stops both loops.
func (l *link) close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.done)
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	return conn.Close()
}
