// Package frame sequences one map tick: pointer sample, hover, easing,
// marker transforms, arc rebuilds and the hand-off of transforms.
package frame

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dotmap/dotmap/internal/logging"
	"github.com/dotmap/dotmap/internal/queue"
	"github.com/dotmap/dotmap/internal/scene"
	"github.com/dotmap/dotmap/internal/session"
	"github.com/dotmap/dotmap/pkg/core"
)

var (
	ErrNotLoaded      = errors.New("scene not loaded")
	ErrAlreadyRunning = errors.New("frame loop already running")
)

const defaultFPS = 60

// Config controls the tick loop.
type Config struct {
	FPS int
	// SnapshotEvery pushes a snapshot every N ticks; zero disables snapshots.
	SnapshotEvery int
}

// Dependencies are the collaborators of an Orchestrator. Only Mailbox is
// required.
type Dependencies struct {
	Mailbox *Mailbox
	// Picker defaults to a TopDownPicker over the scene's dot spacing.
	Picker     Picker
	Outbox     *queue.Queue[core.FrameSnapshot]
	Session    *session.Context
	LogContext *logging.FrameContext
	Logger     *slog.Logger
}

// Result describes what one tick did.
type Result struct {
	Frame            uint64
	Hovered          int
	LiftChanged      bool
	Moved            int
	ArcRebuilds      int
	SelectionChanged bool
	// Skipped is set when nothing was animating and no input arrived.
	Skipped bool
}

// Orchestrator owns the scene between ticks. Tick, SetScene and the read
// accessors are serialized; the scene itself is only touched inside Tick.
type Orchestrator struct {
	cfg  Config
	deps Dependencies
	log  *slog.Logger
	in   *instruments

	mu      sync.Mutex
	scene   *scene.Scene
	frame   uint64
	elapsed float64
	lastSeq uint64
	dots    []core.Transform
	last    Result

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an orchestrator with no scene.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Mailbox == nil {
		deps.Mailbox = &Mailbox{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = defaultFPS
	}
	in, err := newInstruments()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{cfg: cfg, deps: deps, log: deps.Logger, in: in}, nil
}

// Mailbox returns the input mailbox.
func (o *Orchestrator) Mailbox() *Mailbox { return o.deps.Mailbox }

// SetScene replaces the scene and returns the previous one, which the
// caller owns. A nil scene returns the orchestrator to the empty pre-load
// state.
func (o *Orchestrator) SetScene(s *scene.Scene) *scene.Scene {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.scene
	o.scene = s
	o.frame, o.elapsed, o.lastSeq = 0, 0, 0
	o.dots = nil
	o.last = Result{Hovered: -1}
	return prev
}

// Loaded reports whether a scene is set.
func (o *Orchestrator) Loaded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scene != nil
}

func (o *Orchestrator) picker(s *scene.Scene) Picker {
	if o.deps.Picker != nil {
		return o.deps.Picker
	}
	return TopDownPicker{Spacing: s.Field.Config().Spacing}
}

// Tick advances one frame at elapsed seconds since the loop started.
func (o *Orchestrator) Tick(ctx context.Context, elapsed float64) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.scene
	if s == nil {
		return Result{Hovered: -1}, ErrNotLoaded
	}
	start := time.Now()
	o.elapsed = elapsed
	first := o.frame == 0

	// (1) pointer sample
	sample := o.deps.Mailbox.Take()
	fresh := sample.Seq != o.lastSeq
	o.lastSeq = sample.Seq

	var res Result
	if sample.ClearSelection && s.Registry.ClearSelection() {
		res.SelectionChanged = true
	}

	// (2) hover hit test, plus any pending click
	var (
		ray   core.Ray
		aimed bool
	)
	if sample.Inside {
		ray, aimed = o.picker(s).Ray(sample.X, sample.Y)
	}
	if aimed {
		s.Hover.Observe(s.Field.HitTest(ray))
	} else {
		s.Hover.Observe(-1, false)
	}
	if sample.Click {
		var changed bool
		if aimed {
			changed = s.Registry.Click(ray)
		} else {
			changed = s.Registry.ClearSelection()
		}
		res.SelectionChanged = res.SelectionChanged || changed
	}

	// (3) easing
	res.LiftChanged = s.Hover.Tick()

	// (4) marker transforms, (5) arcs touched by moved markers
	if first || res.LiftChanged || s.Registry.Animating() {
		moved := s.Registry.Update(elapsed)
		res.Moved = len(moved)
		if len(moved) > 0 {
			res.ArcRebuilds = s.Arcs.Rebuild(moved)
		}
	}

	// (6) dot transforms for the renderer
	if first || res.LiftChanged || o.dots == nil {
		o.dots = s.Field.Transforms(o.dots)
	}

	o.frame++
	res.Frame = o.frame
	res.Hovered = s.Hover.Hovered()
	res.Skipped = !fresh && !res.LiftChanged && res.Moved == 0 && s.Hover.Quiescent()
	o.last = res

	if o.deps.LogContext != nil {
		o.deps.LogContext.SetFrame(o.frame)
	}
	if n := o.cfg.SnapshotEvery; n > 0 && o.deps.Outbox != nil && o.frame%uint64(n) == 0 {
		o.pushSnapshot(ctx, s)
	}
	o.record(ctx, res, time.Since(start))
	return res, nil
}

func (o *Orchestrator) record(ctx context.Context, res Result, d time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("skipped", res.Skipped))
	o.in.ticks.Add(ctx, 1, attrs)
	if res.Skipped {
		o.in.skipped.Add(ctx, 1)
	}
	if res.ArcRebuilds > 0 {
		o.in.arcRebuilds.Add(ctx, int64(res.ArcRebuilds))
	}
	o.in.duration.Record(ctx, float64(d.Microseconds())/1000)
}

// snapshot builds the persisted view of the current frame. Callers hold mu.
func (o *Orchestrator) snapshot(s *scene.Scene) core.FrameSnapshot {
	snap := core.FrameSnapshot{
		Frame:       o.frame,
		Time:        time.Now().UTC(),
		Elapsed:     o.elapsed,
		Quiescent:   s.Hover.Quiescent(),
		HoveredDot:  s.Hover.Hovered(),
		ArcRebuilds: o.last.ArcRebuilds,
		Hotspots:    s.Registry.States(),
	}
	if o.deps.Session != nil {
		snap.SessionID = o.deps.Session.ID()
	}
	if h, ok := s.Registry.Selected(); ok {
		snap.Selected = h.ID
	}
	for i := 0; i < s.Field.Len(); i++ {
		if l := s.Field.Dot(i).Lift; l > 0 {
			snap.LiftedDots++
			snap.PeakLift = max(snap.PeakLift, l)
		}
	}
	return snap
}

func (o *Orchestrator) pushSnapshot(ctx context.Context, s *scene.Scene) {
	if evicted := o.deps.Outbox.Push(o.snapshot(s)); evicted > 0 {
		o.log.Warn("outbox full, dropped oldest snapshots", "count", evicted)
	}
	o.in.snapshots.Add(ctx, 1)
}

// Status is a point-in-time view for monitoring.
type Status struct {
	Loaded    bool   `json:"loaded"`
	Frames    uint64 `json:"frames"`
	Quiescent bool   `json:"quiescent"`
	Hovered   int    `json:"hoveredDot"`
	Selected  string `json:"selected,omitempty"`
	Dots      int    `json:"dots"`
	Hotspots  int    `json:"hotspots"`
}

// Status returns the state after the last tick.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{Frames: o.frame, Hovered: -1, Quiescent: true}
	if o.scene == nil {
		return st
	}
	s := o.scene
	st.Loaded = true
	st.Quiescent = s.Hover.Quiescent()
	st.Hovered = s.Hover.Hovered()
	st.Dots = s.Field.Len()
	st.Hotspots = s.Registry.Len()
	if h, ok := s.Registry.Selected(); ok {
		st.Selected = h.ID
	}
	return st
}

// DotTransforms copies the dot instance buffer from the last tick into dst.
func (o *Orchestrator) DotTransforms(dst []core.Transform) []core.Transform {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append(dst[:0], o.dots...)
}

// View runs fn with the scene while no tick is in progress. fn must not
// retain the scene or call back into the orchestrator.
func (o *Orchestrator) View(fn func(s *scene.Scene)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.scene == nil {
		return false
	}
	fn(o.scene)
	return true
}

// Run ticks at the configured rate until ctx is done. Ticks without a
// scene are no-ops.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.acquire() {
		return ErrAlreadyRunning
	}
	defer o.release()
	o.loop(ctx)
	return nil
}

// Start runs the loop in a goroutine until Stop or ctx is done.
func (o *Orchestrator) Start(ctx context.Context) error {
	if !o.acquire() {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	o.runMu.Lock()
	o.cancel, o.done = cancel, done
	o.runMu.Unlock()

	go func() {
		defer close(done)
		defer o.release()
		o.loop(ctx)
	}()
	return nil
}

func (o *Orchestrator) acquire() bool {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) release() {
	o.runMu.Lock()
	o.running = false
	o.runMu.Unlock()
}

func (o *Orchestrator) loop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(o.cfg.FPS))
	defer ticker.Stop()

	o.log.Info("frame loop started", "fps", o.cfg.FPS)
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			o.log.Info("frame loop stopped")
			return
		case now := <-ticker.C:
			if _, err := o.Tick(ctx, now.Sub(start).Seconds()); err != nil && !errors.Is(err, ErrNotLoaded) {
				o.log.Error("tick failed", "error", err)
			}
		}
	}
}

// Stop cancels a loop started by Start and waits for it to exit.
func (o *Orchestrator) Stop() {
	o.runMu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the loop, pushes a final snapshot and drops the scene.
func (o *Orchestrator) Close() {
	o.Stop()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.scene == nil {
		return
	}
	if o.deps.Outbox != nil && o.frame > 0 {
		o.pushSnapshot(context.Background(), o.scene)
	}
	o.scene.Close()
	o.scene = nil
	o.dots = nil
	o.log.Info("frame orchestrator closed", "frames", o.frame)
}
