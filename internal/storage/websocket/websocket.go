// Package websocket streams session and frame snapshots to a remote
// renderer or recorder over a WebSocket.
package websocket

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dotmap/dotmap/pkg/core"
	"github.com/dotmap/dotmap/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	// Buffer is the outbound queue length; zero uses a default.
	Buffer int
}

// Backend streams snapshots over WebSocket.
// Session start and end wait for a server ack; frames are fire-and-forget.
type Backend struct {
	cfg    Config
	link   *link
	retry  retryPolicy
	logger *slog.Logger
}

// New creates a new WebSocket storage backend. The connection is made in Init.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, retry: defaultRetry, logger: logger}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	l, err := newLink(b.cfg.URL, b.cfg.Secret, b.cfg.Buffer, b.retry, b.logger)
	if err != nil {
		return err
	}
	if err := l.open(); err != nil {
		return err
	}
	b.link = l
	return nil
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	if b.link == nil {
		return nil
	}
	return b.link.close()
}

// StartSession announces the session and waits for the server ack. The
// message is replayed after a reconnect.
func (b *Backend) StartSession(s *core.Session) error {
	if b.link == nil {
		return errors.New("websocket backend not initialized")
	}
	data, err := streaming.Marshal(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streaming.TypeStartSession, err)
	}
	b.link.setHello(data)
	return b.link.request(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for the server ack.
func (b *Backend) EndSession() error {
	if b.link == nil {
		return nil
	}
	defer b.link.setHello(nil)
	data, err := streaming.Marshal(streaming.TypeEndSession, nil)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streaming.TypeEndSession, err)
	}
	return b.link.request(data, streaming.TypeEndSession, ackTimeout)
}

// RecordFrame queues a snapshot. A full queue drops the frame and counts it.
func (b *Backend) RecordFrame(f *core.FrameSnapshot) error {
	if b.link == nil {
		return errors.New("websocket backend not initialized")
	}
	data, err := streaming.Marshal(streaming.TypeFrame, f)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streaming.TypeFrame, err)
	}
	if !b.link.send(data) {
		b.logger.Warn("websocket send queue full, dropping frame", "frame", f.Frame)
	}
	return nil
}

// Dropped returns the number of messages dropped on a full queue.
func (b *Backend) Dropped() uint64 {
	if b.link == nil {
		return 0
	}
	return b.link.dropped.Load()
}
