// pkg/core/hotspot.go
package core

import "github.com/golang/geo/r3"

// HotspotSource is a hotspot record as read from a source file,
// before it is bound to a dot.
type HotspotSource struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Label   string  `json:"label"`
	Message string  `json:"message"`
}

// Hotspot is a bound marker. DotIndex, Group, Slot and Phase are fixed
// at bind time.
type Hotspot struct {
	ID       string
	Type     string
	Label    string
	Message  string
	Lat, Lon float64

	DotIndex int
	Group    string
	Slot     int
	Height   float64
	Radius   float64
	Phase    float64

	// derived every tick
	IdleLift float64
	Scale    float64
	Position r3.Vector
}

// Top returns the world position of the marker tip.
func (h *Hotspot) Top() r3.Vector {
	return r3.Vector{X: h.Position.X, Y: h.Position.Y + h.Height*h.Scale, Z: h.Position.Z}
}
