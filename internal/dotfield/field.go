// Package dotfield owns the base point set of the map and its lift state.
// Dots are stored in an arena and addressed by stable integer index.
package dotfield

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"github.com/dotmap/dotmap/pkg/core"
)

// Config describes dot dimensions in world units.
type Config struct {
	Radius  float64
	Height  float64
	Spacing float64
	// CellSize is the bucket size for radius queries, in world units.
	// Zero picks a size from the spacing.
	CellSize float64
}

type cellKey struct{ x, z int }

// Field is the dot arena plus a bucket grid over world XZ.
type Field struct {
	cfg     Config
	dots    []core.Dot
	buckets map[cellKey][]int
	bounds  orb.Bound
}

// New builds a field from raw grid points.
func New(points []core.GridPoint, cfg Config) *Field {
	if cfg.Spacing <= 0 {
		cfg.Spacing = 1
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = cfg.Spacing * 4
	}
	f := &Field{
		cfg:     cfg,
		dots:    make([]core.Dot, len(points)),
		buckets: make(map[cellKey][]int),
	}
	mp := make(orb.MultiPoint, 0, len(points))
	for i, p := range points {
		f.dots[i] = core.Dot{X: p[0], Y: p[1], HotspotIndex: core.NoHotspot}
		k := f.cellOf(f.planar(i))
		f.buckets[k] = append(f.buckets[k], i)
		mp = append(mp, orb.Point{p[0], p[1]})
	}
	if len(mp) > 0 {
		f.bounds = mp.Bound()
	}
	return f
}

// Config returns the field's dimensions.
func (f *Field) Config() Config { return f.cfg }

// Len returns the number of dots.
func (f *Field) Len() int { return len(f.dots) }

// Dot returns a pointer to the dot at index i.
func (f *Field) Dot(i int) *core.Dot { return &f.dots[i] }

// Bounds returns the grid-space extent of all dots.
func (f *Field) Bounds() orb.Bound { return f.bounds }

func (f *Field) planar(i int) (x, z float64) {
	d := &f.dots[i]
	return d.X * f.cfg.Spacing, d.Y * f.cfg.Spacing
}

// World returns the world position of dot i including its lift.
func (f *Field) World(i int) r3.Vector {
	x, z := f.planar(i)
	return r3.Vector{X: x, Y: f.dots[i].Lift, Z: z}
}

func (f *Field) cellOf(x, z float64) cellKey {
	return cellKey{int(math.Floor(x / f.cfg.CellSize)), int(math.Floor(z / f.cfg.CellSize))}
}

// Within calls fn for every dot whose planar world distance to (cx, cz) is
// at most r.
func (f *Field) Within(cx, cz, r float64, fn func(i int, dist float64)) {
	lo := f.cellOf(cx-r, cz-r)
	hi := f.cellOf(cx+r, cz+r)
	r2 := r * r
	for gx := lo.x; gx <= hi.x; gx++ {
		for gz := lo.z; gz <= hi.z; gz++ {
			for _, i := range f.buckets[cellKey{gx, gz}] {
				x, z := f.planar(i)
				dx, dz := x-cx, z-cz
				if d2 := dx*dx + dz*dz; d2 <= r2 {
					fn(i, math.Sqrt(d2))
				}
			}
		}
	}
}

// Nearest returns the dot minimising squared planar distance to the grid
// coordinate (x, y). Ties keep the first index in scan order.
func (f *Field) Nearest(x, y float64) (int, bool) {
	best, bestD := -1, math.Inf(1)
	for i := range f.dots {
		dx, dy := f.dots[i].X-x, f.dots[i].Y-y
		if d := dx*dx + dy*dy; d < bestD {
			best, bestD = i, d
		}
	}
	return best, best >= 0
}

// SetHotspot records the hotspot back-reference on a dot. The first
// hotspot to claim a dot keeps it; later claims return false.
func (f *Field) SetHotspot(dot, hotspot int) bool {
	d := &f.dots[dot]
	if d.IsHotspot {
		return false
	}
	d.IsHotspot = true
	d.HotspotIndex = hotspot
	return true
}

// Transforms writes one instance transform per dot into dst, reusing its
// storage. Dots carrying a hotspot get zero scale.
func (f *Field) Transforms(dst []core.Transform) []core.Transform {
	if cap(dst) < len(f.dots) {
		dst = make([]core.Transform, len(f.dots))
	}
	dst = dst[:len(f.dots)]
	for i := range f.dots {
		s := 1.0
		if f.dots[i].IsHotspot {
			s = 0
		}
		dst[i] = core.Transform{Position: f.World(i), Scale: s}
	}
	return dst
}

// ResetLift zeroes every lift and target.
func (f *Field) ResetLift() {
	for i := range f.dots {
		f.dots[i].Lift = 0
		f.dots[i].TargetLift = 0
	}
}
