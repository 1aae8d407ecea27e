// Package input turns host commands into pointer samples on the frame
// mailbox. Handlers never touch scene state.
package input

import (
	"fmt"
	"log/slog"

	"github.com/dotmap/dotmap/internal/dispatcher"
	"github.com/dotmap/dotmap/internal/util"
)

// Commands understood by the adapter.
const (
	CmdPointerMove  = ":POINTER:MOVE:"
	CmdPointerClick = ":POINTER:CLICK:"
	CmdPointerLeave = ":POINTER:LEAVE:"
	CmdKeyEscape    = ":KEY:ESCAPE:"
)

// Sink receives pointer input. *frame.Mailbox satisfies it.
type Sink interface {
	Move(x, y float64)
	Leave()
	Click(x, y float64)
	ClearSelection()
}

// Service adapts dispatcher events to a Sink.
type Service struct {
	sink   Sink
	logger *slog.Logger
}

// NewService creates an adapter writing to sink.
func NewService(sink Sink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sink: sink, logger: logger}
}

// RegisterHandlers registers the pointer and keyboard commands. All are
// synchronous; the mailbox write is the whole handler.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdPointerMove, s.handleMove)
	d.Register(CmdPointerClick, s.handleClick, dispatcher.Logged())
	d.Register(CmdPointerLeave, s.handleLeave)
	d.Register(CmdKeyEscape, s.handleEscape, dispatcher.Logged())
}

func (s *Service) handleMove(e dispatcher.Event) (any, error) {
	x, y, err := util.ParseCoords(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pointer move: %w", err)
	}
	s.sink.Move(x, y)
	return nil, nil
}

func (s *Service) handleClick(e dispatcher.Event) (any, error) {
	x, y, err := util.ParseCoords(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pointer click: %w", err)
	}
	s.sink.Click(x, y)
	return nil, nil
}

func (s *Service) handleLeave(dispatcher.Event) (any, error) {
	s.sink.Leave()
	return nil, nil
}

func (s *Service) handleEscape(dispatcher.Event) (any, error) {
	s.logger.Debug("selection clear requested")
	s.sink.ClearSelection()
	return nil, nil
}
