package hotspot

import (
	"math"

	"github.com/dotmap/dotmap/internal/dotfield"
	"github.com/dotmap/dotmap/pkg/core"
)

// Pick returns the hotspot hit by ray. Groups are tried in order; the
// first group with any hit wins and the nearest hit within it is returned.
func (r *Registry) Pick(ray core.Ray) (int, bool) {
	for _, g := range r.groups {
		lo, hi := g.Mesh.Bounds()
		best, bestT := -1, math.Inf(1)
		for slot, tr := range g.Transforms {
			bmin := tr.Position.Add(lo.Mul(tr.Scale))
			bmax := tr.Position.Add(hi.Mul(tr.Scale))
			if t, ok := dotfield.RayBox(ray, bmin, bmax); ok && t < bestT {
				best, bestT = g.Members[slot], t
			}
		}
		if best >= 0 {
			return best, true
		}
	}
	return -1, false
}

// Click applies a click at ray to the selection: hitting the selected
// hotspot deselects it, hitting another selects that one, and a miss
// clears. It reports whether the selection changed.
func (r *Registry) Click(ray core.Ray) bool {
	prev := r.selected
	switch i, ok := r.Pick(ray); {
	case !ok:
		r.selected = -1
	case i == r.selected:
		r.selected = -1
	default:
		r.selected = i
	}
	if r.selected != prev {
		r.logger.Debug("selection changed", "from", prev, "to", r.selected)
	}
	return r.selected != prev
}

// ClearSelection deselects and reports whether anything was selected.
func (r *Registry) ClearSelection() bool {
	had := r.selected >= 0
	r.selected = -1
	return had
}

// Selected returns the selected hotspot, if any.
func (r *Registry) Selected() (*core.Hotspot, bool) {
	if r.selected < 0 || r.selected >= len(r.hotspots) {
		return nil, false
	}
	return &r.hotspots[r.selected], true
}
