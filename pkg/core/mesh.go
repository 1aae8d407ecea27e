// pkg/core/mesh.go
package core

import (
	"math"

	"github.com/golang/geo/r3"
)

// Mesh is an indexed triangle mesh. Normals has one entry per position.
type Mesh struct {
	Positions []r3.Vector
	Normals   []r3.Vector
	Indices   []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds returns the axis aligned bounding box of all positions.
func (m *Mesh) Bounds() (lo, hi r3.Vector) {
	if len(m.Positions) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	lo = r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range m.Positions {
		lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
		lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
		lo.Z, hi.Z = math.Min(lo.Z, p.Z), math.Max(hi.Z, p.Z)
	}
	return lo, hi
}

// Height returns the vertical extent of the mesh.
func (m *Mesh) Height() float64 {
	lo, hi := m.Bounds()
	return hi.Y - lo.Y
}

// Transform is a per-instance placement: translation plus uniform scale.
type Transform struct {
	Position r3.Vector `json:"position"`
	Scale    float64   `json:"scale"`
}

// Up is the world vertical axis.
var Up = r3.Vector{Y: 1}
