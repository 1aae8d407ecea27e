// Package gormstorage implements the storage.Backend interface on GORM
// with an internal queue and a background DB writer goroutine. The
// postgres and sqlite backends wrap it.
package gormstorage

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/dotmap/dotmap/internal/queue"
	"github.com/dotmap/dotmap/pkg/core"
)

const defaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	frames  *queue.Queue[FrameRow]
	session atomic.Pointer[string]

	flushMu       sync.Mutex
	lastWriteNano atomic.Int64

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB { return b.deps.DB }

// Init creates the queue, migrates the schema and starts the writer. With
// no DB the backend only queues, which tests rely on.
func (b *Backend) Init() error {
	b.frames = queue.New[FrameRow](0)
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.deps.Logger.Info("database schema migrated", "dialect", b.deps.DB.Name())

	go b.writeLoop()
	return nil
}

// Close stops the writer and flushes what is left.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	<-b.done
	return b.Flush()
}

// StartSession inserts the session row.
func (b *Backend) StartSession(s *core.Session) error {
	id := s.ID
	b.session.Store(&id)
	if b.deps.DB == nil {
		return nil
	}
	row, err := sessionRow(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// EndSession flushes pending frames and stamps the end time.
func (b *Backend) EndSession() error {
	if err := b.Flush(); err != nil {
		return err
	}
	id := b.session.Swap(nil)
	if b.deps.DB == nil || id == nil {
		return nil
	}
	now := time.Now()
	return b.deps.DB.Model(&SessionRow{}).Where("id = ?", *id).Update("end_time", now).Error
}

// RecordFrame converts the snapshot and queues it for the writer.
func (b *Backend) RecordFrame(f *core.FrameSnapshot) error {
	row, err := frameRow(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", f.Frame, err)
	}
	if row.SessionID == "" {
		if id := b.session.Load(); id != nil {
			row.SessionID = *id
		}
	}
	b.frames.Push(row)
	return nil
}

// Pending returns the number of queued frames.
func (b *Backend) Pending() int { return b.frames.Len() }

// GetLastDBWriteDuration returns how long the last flush took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// Flush writes every queued frame in one transaction.
func (b *Backend) Flush() error {
	if b.deps.DB == nil || b.frames == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	start := time.Now()
	err := writeQueue(b.deps.DB, b.frames, "frames", b.deps.Logger)
	b.lastWriteNano.Store(int64(time.Since(start)))
	return err
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	if q.Empty() {
		return nil
	}

	tx := db.Begin()
	items := q.Drain()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("failed to write batch", "table", name, "rows", len(items), "error", err)
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return tx.Commit().Error
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}
