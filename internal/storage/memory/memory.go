// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/pkg/core"
)

// ErrNoSession is returned when frames arrive outside a session.
var ErrNoSession = errors.New("no session started")

// Backend keeps session frames in memory and exports them to JSON when
// the session ends
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	frames  []core.FrameSnapshot
	dropped int

	exportPath string
	exportMeta core.UploadMetadata
	mu         sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session and resets all frames
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.frames = nil
	b.dropped = 0
	b.exportPath = ""
	b.exportMeta = core.UploadMetadata{}
	return nil
}

// RecordFrame appends a snapshot. When MaxFrames is set the oldest frames
// are discarded.
func (b *Backend) RecordFrame(f *core.FrameSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.frames = append(b.frames, *f)
	if limit := b.cfg.MaxFrames; limit > 0 && len(b.frames) > limit {
		n := len(b.frames) - limit
		b.frames = append(b.frames[:0], b.frames[n:]...)
		b.dropped += n
	}
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	return b.exportJSON()
}

// Frames returns a copy of the recorded frames.
func (b *Backend) Frames() []core.FrameSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.FrameSnapshot, len(b.frames))
	copy(out, b.frames)
	return out
}

// ExportedFilePath returns the path of the last export, or "".
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportPath
}

// GetExportMetadata describes the last export.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportMeta
}
