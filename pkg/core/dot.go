// pkg/core/dot.go
package core

// NoHotspot marks a dot without a hotspot back-reference.
const NoHotspot = -1

// Dot is a single liftable point of the base map.
// X and Y are grid coordinates; Lift and TargetLift are never negative.
type Dot struct {
	X, Y         float64
	Lift         float64
	TargetLift   float64
	IsHotspot    bool
	HotspotIndex int
}

// GridPoint is a raw [x, y] pair from the point source.
type GridPoint [2]float64
