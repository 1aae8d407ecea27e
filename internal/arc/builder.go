// Package arc builds the curved connection tubes between hotspot markers.
package arc

import (
	"log/slog"
	"math"

	"github.com/golang/geo/r3"

	"github.com/dotmap/dotmap/pkg/core"
)

const (
	minSegments       = 1
	minRadialSegments = 3
	minThickness      = 0.001
)

// Config selects which arc sets exist and how they look.
type Config struct {
	Enabled        bool
	DrawSequential bool
	Base           core.ArcStyle
	Pairs          []core.ConnectionPair
}

// Endpoints is the view of the hotspot registry the builder reads.
type Endpoints interface {
	Len() int
	Hotspot(i int) *core.Hotspot
	Lookup(id string) (int, bool)
}

// Arc is one built tube. Arcs are replaced on rebuild, never patched.
type Arc struct {
	// Members are the hotspot indices whose movement invalidates the arc.
	Members    []int
	Style      core.ArcStyle
	Points     []r3.Vector
	Mesh       *core.Mesh
	Generation uint64
}

// Builder owns the sequential chain and the manual pair arcs.
type Builder struct {
	cfg    Config
	src    Endpoints
	logger *slog.Logger

	sequential *Arc
	pairs      []*Arc
	generation uint64
	dirty      []bool
}

// NewBuilder returns a builder over src. Call Build before use.
func NewBuilder(src Endpoints, cfg Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, src: src, logger: logger}
}

// Build resolves pairs and builds every arc from scratch.
func (b *Builder) Build() {
	b.sequential, b.pairs = nil, nil
	if !b.cfg.Enabled {
		return
	}
	if b.cfg.DrawSequential && b.src.Len() >= 2 {
		members := make([]int, b.src.Len())
		for i := range members {
			members[i] = i
		}
		b.sequential = b.build(members, b.cfg.Base)
	}
	dropped := 0
	for _, p := range b.cfg.Pairs {
		from, ok1 := b.src.Lookup(p.FromID)
		to, ok2 := b.src.Lookup(p.ToID)
		if !ok1 || !ok2 {
			dropped++
			continue
		}
		b.pairs = append(b.pairs, b.build([]int{from, to}, p.Style(b.cfg.Base)))
	}
	b.logger.Debug("built arcs", "sequential", b.sequential != nil, "pairs", len(b.pairs), "dropped", dropped)
}

// Rebuild replaces every arc with a member in moved and returns how many
// arcs were rebuilt.
func (b *Builder) Rebuild(moved []int) int {
	if len(moved) == 0 || (b.sequential == nil && len(b.pairs) == 0) {
		return 0
	}
	n := b.src.Len()
	if cap(b.dirty) < n {
		b.dirty = make([]bool, n)
	}
	b.dirty = b.dirty[:n]
	clear(b.dirty)
	for _, i := range moved {
		if i >= 0 && i < n {
			b.dirty[i] = true
		}
	}

	rebuilt := 0
	if b.sequential != nil && b.touched(b.sequential) {
		b.sequential = b.build(b.sequential.Members, b.sequential.Style)
		rebuilt++
	}
	for k, a := range b.pairs {
		if b.touched(a) {
			b.pairs[k] = b.build(a.Members, a.Style)
			rebuilt++
		}
	}
	return rebuilt
}

func (b *Builder) touched(a *Arc) bool {
	for _, m := range a.Members {
		if b.dirty[m] {
			return true
		}
	}
	return false
}

// Sequential returns the chain arc, or nil.
func (b *Builder) Sequential() *Arc { return b.sequential }

// Pairs returns the resolved pair arcs in configuration order.
func (b *Builder) Pairs() []*Arc { return b.pairs }

// Reset drops every arc.
func (b *Builder) Reset() {
	b.sequential, b.pairs = nil, nil
}

func (b *Builder) build(members []int, style core.ArcStyle) *Arc {
	ends := make([]r3.Vector, len(members))
	for i, m := range members {
		ends[i] = b.endpoint(m, style)
	}
	pts := ChainPoints(ends, style.Segments, style.ArcHeight)
	b.generation++
	return &Arc{
		Members:    members,
		Style:      style,
		Points:     pts,
		Mesh:       Sweep(pts, style),
		Generation: b.generation,
	}
}

func (b *Builder) endpoint(i int, style core.ArcStyle) r3.Vector {
	return b.src.Hotspot(i).Top().Add(core.Up.Mul(style.HeightOffset))
}

// ChainPoints samples the bowed legs between consecutive ends. Every leg
// after the first skips its start point, which is the previous leg's end.
func ChainPoints(ends []r3.Vector, segments int, arcHeight float64) []r3.Vector {
	if len(ends) < 2 {
		return nil
	}
	if segments < minSegments {
		segments = minSegments
	}
	out := make([]r3.Vector, 0, segments+1+(len(ends)-2)*segments)
	for leg := 0; leg+1 < len(ends); leg++ {
		a, c := ends[leg], ends[leg+1]
		start := 1
		if leg == 0 {
			start = 0
		}
		for k := start; k <= segments; k++ {
			t := float64(k) / float64(segments)
			p := a.Add(c.Sub(a).Mul(t))
			p.Y += math.Sin(math.Pi*t) * arcHeight
			out = append(out, p)
		}
	}
	return out
}

// Sweep fits a spline through points and sweeps a tube along it.
func Sweep(points []r3.Vector, style core.ArcStyle) *core.Mesh {
	if len(points) < 2 {
		return &core.Mesh{}
	}
	radial := style.RadialSegments
	if radial < minRadialSegments {
		radial = minRadialSegments
	}
	radius := math.Max(style.Thickness, minThickness)
	tubular := max(2*(len(points)-1), 2)
	return Tube(NewSpline(points).Sample(tubular), radius, radial)
}
