package frame

import (
	"github.com/golang/geo/r3"

	"github.com/dotmap/dotmap/pkg/core"
)

// Picker turns a pointer position into a world ray. ok is false when the
// position does not aim at the map.
type Picker interface {
	Ray(x, y float64) (core.Ray, bool)
}

const defaultEyeHeight = 1000

// TopDownPicker looks straight down. Pointer coordinates are grid units,
// scaled by Spacing into world XZ.
type TopDownPicker struct {
	Spacing float64
	// Height is the ray origin above the ground; zero uses a default.
	Height float64
}

// Ray implements Picker.
func (p TopDownPicker) Ray(x, y float64) (core.Ray, bool) {
	s := p.Spacing
	if s <= 0 {
		s = 1
	}
	h := p.Height
	if h <= 0 {
		h = defaultEyeHeight
	}
	return core.Ray{
		Origin: r3.Vector{X: x * s, Y: h, Z: y * s},
		Dir:    r3.Vector{Y: -1},
	}, true
}
