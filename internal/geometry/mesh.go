package geometry

import (
	"github.com/golang/geo/r3"

	"github.com/dotmap/dotmap/pkg/core"
)

// Merge concatenates meshes into one, offsetting indices.
func Merge(parts ...*core.Mesh) *core.Mesh {
	var n, m int
	for _, p := range parts {
		n += len(p.Positions)
		m += len(p.Indices)
	}
	out := &core.Mesh{
		Positions: make([]r3.Vector, 0, n),
		Indices:   make([]uint32, 0, m),
	}
	for _, p := range parts {
		off := uint32(len(out.Positions))
		out.Positions = append(out.Positions, p.Positions...)
		for _, i := range p.Indices {
			out.Indices = append(out.Indices, i+off)
		}
	}
	return out
}

// ComputeNormals sets area weighted vertex normals from the triangle winding.
// Vertices touched only by degenerate triangles fall back to +Y.
func ComputeNormals(m *core.Mesh) {
	normals := make([]r3.Vector, len(m.Positions))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		pa, pb, pc := m.Positions[a], m.Positions[b], m.Positions[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Norm2() < 1e-24 {
			normals[i] = r3.Vector{Y: 1}
			continue
		}
		normals[i] = n.Normalize()
	}
	m.Normals = normals
}

// Translate moves all positions by d in place.
func Translate(m *core.Mesh, d r3.Vector) {
	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].Add(d)
	}
}
