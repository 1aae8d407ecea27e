// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/dotmap/dotmap/pkg/core"
)

// Backend is the interface all snapshot storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// RecordFrame stores one periodic frame snapshot.
	RecordFrame(f *core.FrameSnapshot) error
}

// Exportable is an optional interface for backends that write a file
// when the session ends.
type Exportable interface {
	ExportedFilePath() string
}

// Uploadable is an optional interface for backends whose exports can be
// sent to a session archive.
type Uploadable interface {
	Exportable
	GetExportMetadata() core.UploadMetadata
}

// WriteDurationProvider is an optional interface for backends that batch
// writes and can report how long the last batch took.
type WriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// Nop discards everything. It backs the "none" storage type.
type Nop struct{}

func (Nop) Init() error                           { return nil }
func (Nop) Close() error                          { return nil }
func (Nop) StartSession(*core.Session) error      { return nil }
func (Nop) EndSession() error                     { return nil }
func (Nop) RecordFrame(*core.FrameSnapshot) error { return nil }
