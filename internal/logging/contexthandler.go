package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ContextProvider supplies attributes that change while the process runs,
// such as the active session.
type ContextProvider interface {
	Attrs() []slog.Attr
}

// ContextProviderFunc adapts a plain function to ContextProvider.
type ContextProviderFunc func() []slog.Attr

func (f ContextProviderFunc) Attrs() []slog.Attr { return f() }

// ContextHandler appends the provider's current attributes to every record
// before passing it on.
type ContextHandler struct {
	next     slog.Handler
	provider ContextProvider
}

func NewContextHandler(next slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{next: next, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		if attrs := h.provider.Attrs(); len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(attrs...)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.wrap(h.next.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.wrap(h.next.WithGroup(name))
}

func (h *ContextHandler) wrap(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next, provider: h.provider}
}

// FrameContext tracks the current session and frame for log records.
// It is safe for concurrent use.
type FrameContext struct {
	session atomic.Pointer[string]
	frame   atomic.Uint64
}

// SetSession records the active session id; empty clears it.
func (c *FrameContext) SetSession(id string) {
	if id == "" {
		c.session.Store(nil)
		return
	}
	c.session.Store(&id)
}

// SetFrame records the last completed frame.
func (c *FrameContext) SetFrame(n uint64) { c.frame.Store(n) }

// Attrs returns nothing outside a session.
func (c *FrameContext) Attrs() []slog.Attr {
	id := c.session.Load()
	if id == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("session", *id),
		slog.Uint64("frame", c.frame.Load()),
	}
}
