// Package session tracks the currently running map session.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dotmap/dotmap/pkg/core"
)

// Context holds the current session. The zero value has no session.
type Context struct {
	mu      sync.RWMutex
	current *core.Session
	now     func() time.Time
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{now: time.Now}
}

// Start begins a new session and returns it. A running session is
// replaced.
func (c *Context) Start(sources []string, dots, hotspots int) *core.Session {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	s := &core.Session{
		ID:        uuid.NewString(),
		StartTime: now().UTC(),
		Sources:   append([]string(nil), sources...),
		Dots:      dots,
		Hotspots:  hotspots,
	}
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	return s
}

// Current returns a copy of the running session, or nil.
func (c *Context) Current() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// ID returns the running session id, or "".
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

// End clears the running session and returns it, or nil.
func (c *Context) End() *core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.current
	c.current = nil
	return s
}
