// Package worker drains frame snapshots from the outbox into the storage
// backend on an interval.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dotmap/dotmap/internal/dispatcher"
	"github.com/dotmap/dotmap/internal/influx"
	"github.com/dotmap/dotmap/internal/queue"
	"github.com/dotmap/dotmap/internal/storage"
	"github.com/dotmap/dotmap/pkg/core"
)

const defaultInterval = time.Second

// StatsWriter receives one stats point per non-empty flush.
// *influx.Manager satisfies it.
type StatsWriter interface {
	WriteStats(s influx.FrameStats) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Outbox   *queue.Queue[core.FrameSnapshot]
	Stats    StatsWriter
	Logger   *slog.Logger
	Interval time.Duration
}

// Manager moves snapshots from the outbox to the backend.
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	flushMu   sync.Mutex
	written   atomic.Uint64
	lastWrite atomic.Int64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	if backend == nil {
		backend = storage.Nop{}
	}
	return &Manager{deps: deps, backend: backend}
}

// GetLastDBWriteDuration returns the duration of the last write cycle.
// Backends that batch report their own figure.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(storage.WriteDurationProvider); ok {
		if d := p.GetLastDBWriteDuration(); d > 0 {
			return d
		}
	}
	return time.Duration(m.lastWrite.Load())
}

// Written returns the number of snapshots handed to the backend.
func (m *Manager) Written() uint64 { return m.written.Load() }

// Pending returns the outbox length.
func (m *Manager) Pending() int {
	if m.deps.Outbox == nil {
		return 0
	}
	return m.deps.Outbox.Len()
}

// Flush hands every queued snapshot to the backend. A failing snapshot is
// logged and skipped; the joined errors are returned.
func (m *Manager) Flush() (int, error) {
	if m.deps.Outbox == nil {
		return 0, nil
	}
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	batch := m.deps.Outbox.Drain()
	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()
	var errs []error
	n := 0
	for i := range batch {
		if err := m.backend.RecordFrame(&batch[i]); err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", batch[i].Frame, err))
			continue
		}
		n++
	}
	elapsed := time.Since(start)
	m.lastWrite.Store(int64(elapsed))
	m.written.Add(uint64(n))

	if err := errors.Join(errs...); err != nil {
		m.deps.Logger.Error("failed to record frames", "failed", len(errs), "error", err)
	}
	m.writeStats(batch[len(batch)-1], len(batch), elapsed)
	return n, errors.Join(errs...)
}

func (m *Manager) writeStats(last core.FrameSnapshot, count int, elapsed time.Duration) {
	if m.deps.Stats == nil {
		return
	}
	err := m.deps.Stats.WriteStats(influx.FrameStats{
		SessionID:       last.SessionID,
		Frame:           last.Frame,
		Snapshots:       count,
		Dropped:         m.deps.Outbox.Dropped(),
		Quiescent:       last.Quiescent,
		LiftedDots:      last.LiftedDots,
		PeakLift:        last.PeakLift,
		ArcRebuilds:     last.ArcRebuilds,
		WriteDurationMs: float64(elapsed.Microseconds()) / 1000,
		Time:            last.Time,
	})
	if err != nil && !errors.Is(err, influx.ErrDisabled) {
		m.deps.Logger.Warn("failed to write frame stats", "error", err)
	}
}

// Start flushes on the configured interval until Stop or ctx is done.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				m.Flush()
			}
		}
	}()
}

// Stop ends the flush loop and drains what is left.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.running {
		close(m.stop)
		<-m.done
		m.running = false
	}
	m.mu.Unlock()

	if n, _ := m.Flush(); n > 0 {
		m.deps.Logger.Debug("drained outbox", "frames", n)
	}
}

// RegisterHandlers registers the storage commands with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":STORAGE:FLUSH:", m.handleFlush, dispatcher.Logged())
}

func (m *Manager) handleFlush(dispatcher.Event) (any, error) {
	n, err := m.Flush()
	if err != nil {
		return n, fmt.Errorf("failed to flush outbox: %w", err)
	}
	return n, nil
}
