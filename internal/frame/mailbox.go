package frame

import (
	"sync"

	"github.com/dotmap/dotmap/pkg/core"
)

// Mailbox is the single-slot hand-off between input events and the tick.
// Position updates overwrite; click and clear requests latch until the
// next Take. Safe for concurrent use.
type Mailbox struct {
	mu sync.Mutex
	s  core.PointerSample
}

// Move records the pointer inside the map at (x, y).
func (m *Mailbox) Move(x, y float64) {
	m.mu.Lock()
	m.s.X, m.s.Y, m.s.Inside = x, y, true
	m.s.Seq++
	m.mu.Unlock()
}

// Leave records that the pointer left the map.
func (m *Mailbox) Leave() {
	m.mu.Lock()
	m.s.Inside = false
	m.s.Seq++
	m.mu.Unlock()
}

// Click records a click at (x, y), which also moves the pointer there.
func (m *Mailbox) Click(x, y float64) {
	m.mu.Lock()
	m.s.X, m.s.Y, m.s.Inside = x, y, true
	m.s.Click = true
	m.s.Seq++
	m.mu.Unlock()
}

// ClearSelection requests that the selection be dropped.
func (m *Mailbox) ClearSelection() {
	m.mu.Lock()
	m.s.ClearSelection = true
	m.s.Seq++
	m.mu.Unlock()
}

// Take returns the latest sample and resets the latched requests.
func (m *Mailbox) Take() core.PointerSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.s
	m.s.Click = false
	m.s.ClearSelection = false
	return s
}

// Peek returns the latest sample without consuming it.
func (m *Mailbox) Peek() core.PointerSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}
