// Package hover propagates pointer hover into a decaying lift field over
// the dot field.
package hover

import (
	"log/slog"
	"math"

	"github.com/dotmap/dotmap/internal/dotfield"
)

// OuterRadiusFactor scales the configured radius to the cutoff beyond
// which a hover leaves a dot's target untouched.
const OuterRadiusFactor = 1.4

// minThreshold keeps easing from chasing subnormal deltas that no longer
// move the lift.
const minThreshold = 1e-6

// Config holds hover tuning. Radius is in world units.
type Config struct {
	Radius         float64
	MaxLift        float64
	Easing         float64
	Threshold      float64
	CooldownFrames int
	Falloff        float64
}

// Engine owns the hover state machine. It is not safe for concurrent use;
// the frame loop is its only caller.
type Engine struct {
	cfg    Config
	field  *dotfield.Field
	logger *slog.Logger

	hovered   int
	cooldown  int
	quiescent bool
}

// New returns an engine over field. It starts quiescent.
func New(field *dotfield.Field, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Falloff < 0 || cfg.Falloff > 1 {
		cfg.Falloff = math.Max(0, math.Min(1, cfg.Falloff))
	}
	if cfg.Easing <= 0 || cfg.Easing > 1 {
		cfg.Easing = 1
	}
	if !(cfg.Threshold >= minThreshold) {
		cfg.Threshold = minThreshold
	}
	return &Engine{cfg: cfg, field: field, logger: logger, hovered: -1, quiescent: true}
}

// Hovered returns the held hover id, or -1.
func (e *Engine) Hovered() int { return e.hovered }

// Quiescent reports whether the last tick found nothing left to animate.
func (e *Engine) Quiescent() bool { return e.quiescent }

// Observe feeds the hit test result of the current tick. A hit re-arms the
// engine and resets the cooldown; a miss counts the cooldown down and
// releases the held id once it reaches zero.
func (e *Engine) Observe(id int, hit bool) {
	if hit && id >= 0 && id < e.field.Len() {
		if id != e.hovered {
			e.logger.Debug("hover enter", "dot", id, "previous", e.hovered)
		}
		e.hovered = id
		e.cooldown = e.cfg.CooldownFrames
		e.quiescent = false
		return
	}
	if e.hovered < 0 {
		return
	}
	e.cooldown--
	if e.cooldown <= 0 {
		e.logger.Debug("hover release", "dot", e.hovered)
		e.hovered = -1
		e.cooldown = 0
	}
}

// Tick advances one frame: decay, influence from the held id, then
// easing. It reports whether any lift changed. Quiescent engines return
// immediately.
func (e *Engine) Tick() bool {
	if e.quiescent {
		return false
	}
	n := e.field.Len()
	for i := 0; i < n; i++ {
		e.field.Dot(i).TargetLift *= e.cfg.Falloff
	}
	if e.hovered >= 0 {
		e.Influence(e.hovered)
	}

	changed := false
	settled := true
	for i := 0; i < n; i++ {
		d := e.field.Dot(i)
		delta := d.TargetLift - d.Lift
		if math.Abs(delta) > e.cfg.Threshold {
			d.Lift = math.Max(0, d.Lift+delta*e.cfg.Easing)
			changed = true
			settled = false
		} else if d.Lift > e.cfg.Threshold {
			settled = false
		}
	}

	if settled && e.hovered < 0 {
		for i := 0; i < n; i++ {
			d := e.field.Dot(i)
			if d.Lift != 0 {
				changed = true
			}
			d.Lift, d.TargetLift = 0, 0
		}
		e.quiescent = true
		e.logger.Debug("hover quiescent")
	}
	return changed
}

// Influence raises targets around the dot at center. Targets only grow.
func (e *Engine) Influence(center int) {
	r := e.cfg.Radius
	if r <= 0 {
		return
	}
	c := e.field.World(center)
	e.field.Within(c.X, c.Z, r*OuterRadiusFactor, func(i int, dist float64) {
		q := dist / r
		v := e.cfg.MaxLift * math.Exp(-q*q)
		d := e.field.Dot(i)
		if v > d.TargetLift {
			d.TargetLift = v
		}
	})
}

// Reset drops all hover state and lift.
func (e *Engine) Reset() {
	e.hovered, e.cooldown = -1, 0
	e.field.ResetLift()
	e.quiescent = true
}
