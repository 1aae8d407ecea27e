// Command dotmap-term previews the map in a terminal. Dots are shaded by
// lift, markers are drawn per group and the status line shows the
// selected hotspot's tooltip.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"

	"github.com/dotmap/dotmap/internal/config"
	"github.com/dotmap/dotmap/internal/frame"
	"github.com/dotmap/dotmap/internal/logging"
	"github.com/dotmap/dotmap/internal/scene"
)

const AppName = "dotmap-term"

// preview owns the screen and drives the frame loop from its ticker.
type preview struct {
	screen  tcell.Screen
	orch    *frame.Orchestrator
	view    view
	cue     *cue
	logger  *slog.Logger
	maxLift float64

	start    time.Time
	buttons  tcell.ButtonMask
	selected string
	dirty    bool
}

func newPreview(scr tcell.Screen, orch *frame.Orchestrator, maxLift float64, logger *slog.Logger) *preview {
	p := &preview{screen: scr, orch: orch, maxLift: maxLift, logger: logger, start: time.Now(), dirty: true}
	p.resize()
	return p
}

// resize refits the grid to the screen, keeping the last row for status.
func (p *preview) resize() {
	w, h := p.screen.Size()
	p.orch.View(func(s *scene.Scene) {
		p.view = newView(s.Field.Bounds(), w, h-1)
	})
	p.dirty = true
}

// handleEvent reports false when the preview should exit.
func (p *preview) handleEvent(ev tcell.Event) bool {
	mb := p.orch.Mailbox()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyEscape:
			mb.ClearSelection()
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'r':
			if err := p.reload(); err != nil {
				p.logger.Error("Reload failed", "error", err)
			}
		}

	case *tcell.EventMouse:
		col, row := ev.Position()
		pressed := ev.Buttons()&tcell.Button1 != 0 && p.buttons&tcell.Button1 == 0
		p.buttons = ev.Buttons()
		if !p.view.contains(col, row) {
			mb.Leave()
			break
		}
		x, y := p.view.cellToGrid(col, row)
		if pressed {
			mb.Click(x, y)
		} else {
			mb.Move(x, y)
		}

	case *tcell.EventResize:
		p.screen.Sync()
		p.resize()
	}
	return true
}

func (p *preview) reload() error {
	s, err := buildScene(context.Background(), p.logger)
	if err != nil {
		return err
	}
	if prev := p.orch.SetScene(s); prev != nil {
		prev.Close()
	}
	p.start = time.Now()
	p.selected = ""
	p.resize()
	p.logger.Info("Map reloaded", "dots", s.Field.Len(), "hotspots", s.Registry.Len())
	return nil
}

// tick advances one frame and redraws when anything changed.
func (p *preview) tick(ctx context.Context) {
	res, err := p.orch.Tick(ctx, time.Since(p.start).Seconds())
	if err != nil {
		if !errors.Is(err, frame.ErrNotLoaded) {
			p.logger.Error("tick failed", "error", err)
		}
		return
	}

	st := p.orch.Status()
	if res.SelectionChanged {
		if st.Selected != "" {
			p.cue.play(selectTone)
		} else {
			p.cue.play(releaseTone)
		}
		p.logger.Info("Selection changed", "from", p.selected, "to", st.Selected)
		p.selected = st.Selected
	}

	if !res.Skipped || p.dirty {
		p.orch.View(func(s *scene.Scene) {
			draw(p.screen, s, p.view, st, p.maxLift)
		})
		p.dirty = false
	}
}

func (p *preview) run(ctx context.Context, fps int) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go p.screen.ChannelEvents(events, quit)
	defer close(quit)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || !p.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func buildScene(ctx context.Context, logger *slog.Logger) (*scene.Scene, error) {
	cfg, err := scene.FromConfig()
	if err != nil {
		return nil, err
	}
	return scene.Load(ctx, cfg, logger)
}

func main() {
	flags := pflag.NewFlagSet(AppName, pflag.ExitOnError)
	configDir := flags.StringP("config", "c", ".", "directory holding "+config.FileName)
	mute := flags.Bool("mute", false, "disable selection sounds")
	_ = flags.Parse(os.Args[1:])

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config, using defaults:", err)
	}

	// the screen owns the terminal, so logs only go to file
	lc := config.GetLoggingConfig()
	if err := os.MkdirAll(lc.Dir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create logs dir:", err)
		os.Exit(1)
	}
	logPath := logging.LogFilePath(lc.Dir, AppName, time.Now())
	logFile := logging.NewRotatingFile(logPath, logging.Rotation{
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
	defer logFile.Close()

	sm := logging.NewSlogManager()
	sm.Setup(logging.Options{File: logFile, Level: lc.Level})
	logger := sm.Logger()
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := buildScene(ctx, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load map:", err)
		os.Exit(1)
	}

	fc := config.GetFrameConfig()
	orch, err := frame.New(frame.Config{FPS: fc.FPS}, frame.Dependencies{Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create frame loop:", err)
		os.Exit(1)
	}
	orch.SetScene(s)
	defer orch.Close()

	scr, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create screen:", err)
		os.Exit(1)
	}
	if err := scr.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize screen:", err)
		os.Exit(1)
	}
	defer scr.Fini()
	scr.EnableMouse(tcell.MouseMotionEvents)
	scr.HideCursor()

	var c *cue
	if !*mute {
		if c, err = newCue(); err != nil {
			logger.Warn("Audio initialization failed", "error", err)
		}
		defer c.close()
	}

	p := newPreview(scr, orch, config.GetHoverConfig().MaxLift, logger)
	p.cue = c
	fps := fc.FPS
	if fps <= 0 {
		fps = 60
	}
	p.run(ctx, fps)
}
