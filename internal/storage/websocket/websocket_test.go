package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmap/dotmap/pkg/core"
	"github.com/dotmap/dotmap/pkg/streaming"
)

// testServer upgrades to WebSocket, records received envelopes and acks
// start_session and end_session.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				data, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{ID: "s-1", Dots: 10, Hotspots: 2}))
	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[1].Type)

	var p streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &p))
	require.NotNil(t, p.Session)
	assert.Equal(t, "s-1", p.Session.ID)
	assert.Equal(t, 10, p.Session.Dots)

	ml.mu.Lock()
	assert.Equal(t, "test", ml.secret)
	ml.mu.Unlock()
}

func TestFramesArriveBeforeEnd(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&core.Session{ID: "s"}))
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, b.RecordFrame(&core.FrameSnapshot{SessionID: "s", Frame: i}))
	}
	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.Len(t, msgs, 5)
	for i, m := range msgs[1:4] {
		assert.Equal(t, streaming.TypeFrame, m.Type)
		var f core.FrameSnapshot
		require.NoError(t, json.Unmarshal(m.Payload, &f))
		assert.Equal(t, uint64(i+1), f.Frame)
	}
	assert.Equal(t, streaming.TypeEndSession, msgs[4].Type)
	assert.Zero(t, b.Dropped())
}

func TestAckTimeout(t *testing.T) {
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	l, err := newLink(wsURL(srv), "", 4, defaultRetry, testLogger())
	require.NoError(t, err)
	require.NoError(t, l.open())
	defer l.close()

	err = l.request([]byte(`{"type":"start_session"}`), streaming.TypeStartSession, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestNotInitialized(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1"}, nil)
	assert.Error(t, b.StartSession(&core.Session{}))
	assert.Error(t, b.RecordFrame(&core.FrameSnapshot{}))
	assert.NoError(t, b.EndSession())
	assert.NoError(t, b.Close())
}

func TestInitDialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1"}, nil)
	assert.Error(t, b.Init())
}

func TestSendDropsWhenFull(t *testing.T) {
	l, err := newLink("ws://example.invalid/x", "k", 1, defaultRetry, testLogger())
	require.NoError(t, err)
	assert.Contains(t, l.target, "secret=k")

	assert.True(t, l.send([]byte("a")))
	assert.False(t, l.send([]byte("b")))
	assert.Equal(t, uint64(1), l.dropped.Load())
}
