// Package monitor reports engine and storage state as JSON.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dotmap/dotmap/internal/dispatcher"
	"github.com/dotmap/dotmap/internal/frame"
)

// FrameSource exposes the frame state. *frame.Orchestrator satisfies it.
type FrameSource interface {
	Status() frame.Status
}

// WriterSource exposes storage progress. *worker.Manager satisfies it.
type WriterSource interface {
	Pending() int
	Written() uint64
	GetLastDBWriteDuration() time.Duration
}

// SessionSource exposes the active session id. *session.Context satisfies it.
type SessionSource interface {
	ID() string
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Frames  FrameSource
	Writer  WriterSource
	Session SessionSource
	Logger  *slog.Logger
	// StatusPath enables the status file loop.
	StatusPath string
	Interval   time.Duration
	now        func() time.Time
}

// Report is one status sample.
type Report struct {
	Time                time.Time `json:"time"`
	Session             string    `json:"session,omitempty"`
	Loaded              bool      `json:"loaded"`
	Frames              uint64    `json:"frames"`
	Quiescent           bool      `json:"quiescent"`
	HoveredDot          int       `json:"hoveredDot"`
	Selected            string    `json:"selected,omitempty"`
	Dots                int       `json:"dots"`
	Hotspots            int       `json:"hotspots"`
	Outbox              int       `json:"outbox"`
	Written             uint64    `json:"written"`
	LastWriteDurationMs float64   `json:"lastWriteDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.now == nil {
		deps.now = time.Now
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status file loop is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status samples every source.
func (s *Service) Status() Report {
	r := Report{Time: s.deps.now().UTC(), HoveredDot: -1}
	if s.deps.Frames != nil {
		st := s.deps.Frames.Status()
		r.Loaded = st.Loaded
		r.Frames = st.Frames
		r.Quiescent = st.Quiescent
		r.HoveredDot = st.Hovered
		r.Selected = st.Selected
		r.Dots = st.Dots
		r.Hotspots = st.Hotspots
	}
	if s.deps.Writer != nil {
		r.Outbox = s.deps.Writer.Pending()
		r.Written = s.deps.Writer.Written()
		r.LastWriteDurationMs = float64(s.deps.Writer.GetLastDBWriteDuration().Microseconds()) / 1000
	}
	if s.deps.Session != nil {
		r.Session = s.deps.Session.ID()
	}
	return r
}

// StatusJSON returns Status as indented JSON.
func (s *Service) StatusJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Status(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}
	return data, nil
}

// RegisterHandlers registers the :STATUS: command.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":STATUS:", func(dispatcher.Event) (any, error) {
		data, err := s.StatusJSON()
		if err != nil {
			return nil, err
		}
		return string(data), nil
	})
}

// Start rewrites the status file every interval. It is a no-op without
// a StatusPath or when already running.
func (s *Service) Start() error {
	if s.deps.StatusPath == "" {
		return nil
	}
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	f, err := os.Create(s.deps.StatusPath)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("error creating status file: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer f.Close()
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		logger := s.deps.Logger
		logger.Debug("status monitor started", "path", s.deps.StatusPath)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.writeStatus(f); err != nil {
					logger.Error("error writing status file", "error", err)
				}
			}
		}
	}()
	return nil
}

func (s *Service) writeStatus(f *os.File) error {
	data, err := s.StatusJSON()
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Stop stops the status file loop and waits for it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
