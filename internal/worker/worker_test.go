package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmap/dotmap/internal/dispatcher"
	"github.com/dotmap/dotmap/internal/influx"
	"github.com/dotmap/dotmap/internal/queue"
	"github.com/dotmap/dotmap/internal/storage"
	"github.com/dotmap/dotmap/pkg/core"
)

type recordingBackend struct {
	storage.Nop
	mu     sync.Mutex
	frames []uint64
	failOn uint64
	last   time.Duration
}

func (b *recordingBackend) RecordFrame(f *core.FrameSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.Frame == b.failOn {
		return errors.New("boom")
	}
	b.frames = append(b.frames, f.Frame)
	return nil
}

func (b *recordingBackend) recorded() []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint64(nil), b.frames...)
}

func (b *recordingBackend) GetLastDBWriteDuration() time.Duration { return b.last }

type statsRecorder struct {
	mu    sync.Mutex
	stats []influx.FrameStats
	err   error
}

func (s *statsRecorder) WriteStats(st influx.FrameStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, st)
	return s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func push(q *queue.Queue[core.FrameSnapshot], frames ...uint64) {
	for _, f := range frames {
		q.Push(core.FrameSnapshot{SessionID: "s", Frame: f, LiftedDots: int(f)})
	}
}

func TestFlush(t *testing.T) {
	outbox := queue.New[core.FrameSnapshot](0)
	backend := &recordingBackend{}
	stats := &statsRecorder{}
	m := NewManager(Dependencies{Outbox: outbox, Stats: stats, Logger: quietLogger()}, backend)

	n, err := m.Flush()
	require.NoError(t, err)
	assert.Zero(t, n, "empty outbox is a no-op")
	assert.Empty(t, stats.stats)

	push(outbox, 30, 60, 90)
	n, err = m.Flush()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint64{30, 60, 90}, backend.recorded())
	assert.Equal(t, uint64(3), m.Written())
	assert.Zero(t, m.Pending())

	require.Len(t, stats.stats, 1)
	assert.Equal(t, uint64(90), stats.stats[0].Frame)
	assert.Equal(t, 3, stats.stats[0].Snapshots)
	assert.Equal(t, 90, stats.stats[0].LiftedDots)
}

func TestFlush_SkipsFailedFrames(t *testing.T) {
	outbox := queue.New[core.FrameSnapshot](0)
	backend := &recordingBackend{failOn: 2}
	m := NewManager(Dependencies{Outbox: outbox, Logger: quietLogger()}, backend)

	push(outbox, 1, 2, 3)
	n, err := m.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 2")
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint64{1, 3}, backend.recorded())
}

func TestFlush_StatsErrorsAreNotFatal(t *testing.T) {
	outbox := queue.New[core.FrameSnapshot](0)
	stats := &statsRecorder{err: influx.ErrDisabled}
	m := NewManager(Dependencies{Outbox: outbox, Stats: stats, Logger: quietLogger()}, &recordingBackend{})

	push(outbox, 1)
	_, err := m.Flush()
	assert.NoError(t, err)
}

func TestGetLastDBWriteDuration(t *testing.T) {
	outbox := queue.New[core.FrameSnapshot](0)
	backend := &recordingBackend{}
	m := NewManager(Dependencies{Outbox: outbox, Logger: quietLogger()}, backend)
	assert.Zero(t, m.GetLastDBWriteDuration())

	backend.last = 5 * time.Millisecond
	assert.Equal(t, 5*time.Millisecond, m.GetLastDBWriteDuration(), "backend figure wins")
}

func TestNilBackendUsesNop(t *testing.T) {
	outbox := queue.New[core.FrameSnapshot](0)
	m := NewManager(Dependencies{Outbox: outbox}, nil)
	push(outbox, 1)
	n, err := m.Flush()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStartStop(t *testing.T) {
	outbox := queue.New[core.FrameSnapshot](0)
	backend := &recordingBackend{}
	m := NewManager(Dependencies{Outbox: outbox, Logger: quietLogger(), Interval: 5 * time.Millisecond}, backend)

	m.Start(context.Background())
	m.Start(context.Background())
	push(outbox, 1)
	assert.Eventually(t, func() bool { return len(backend.recorded()) == 1 }, time.Second, 5*time.Millisecond)

	m.Stop()
	push(outbox, 2)
	m.Stop()
	assert.Equal(t, []uint64{1, 2}, backend.recorded(), "stop drains the outbox")
}

func TestRegisterHandlers(t *testing.T) {
	d, err := dispatcher.New(quietLogger())
	require.NoError(t, err)
	defer d.Close()

	outbox := queue.New[core.FrameSnapshot](0)
	backend := &recordingBackend{}
	m := NewManager(Dependencies{Outbox: outbox, Logger: quietLogger()}, backend)
	m.RegisterHandlers(d)
	require.True(t, d.HasHandler(":STORAGE:FLUSH:"))

	push(outbox, 7, 8)
	res, err := d.Dispatch(dispatcher.Event{Command: ":STORAGE:FLUSH:"})
	require.NoError(t, err)
	assert.Equal(t, 2, res)
}
