package dotfield

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/dotmap/dotmap/pkg/core"
)

// HitTest returns the nearest dot whose column volume the ray enters.
// A dot column spans its radius in XZ and [0, height+lift] in Y.
func (f *Field) HitTest(ray core.Ray) (int, bool) {
	best, bestT := -1, math.Inf(1)
	r := f.cfg.Radius
	for i := range f.dots {
		x, z := f.planar(i)
		lo := r3.Vector{X: x - r, Y: 0, Z: z - r}
		hi := r3.Vector{X: x + r, Y: f.cfg.Height + f.dots[i].Lift, Z: z + r}
		if t, ok := RayBox(ray, lo, hi); ok && t < bestT {
			best, bestT = i, t
		}
	}
	return best, best >= 0
}

// RayBox intersects a ray with an axis aligned box using the slab method.
// It returns the entry distance, or the exit distance when the origin is
// inside the box.
func RayBox(ray core.Ray, lo, hi r3.Vector) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	o := [3]float64{ray.Origin.X, ray.Origin.Y, ray.Origin.Z}
	d := [3]float64{ray.Dir.X, ray.Dir.Y, ray.Dir.Z}
	l := [3]float64{lo.X, lo.Y, lo.Z}
	h := [3]float64{hi.X, hi.Y, hi.Z}
	for a := 0; a < 3; a++ {
		if math.Abs(d[a]) < 1e-12 {
			if o[a] < l[a] || o[a] > h[a] {
				return 0, false
			}
			continue
		}
		t1 := (l[a] - o[a]) / d[a]
		t2 := (h[a] - o[a]) / d[a]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
