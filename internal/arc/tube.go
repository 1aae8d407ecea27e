package arc

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/dotmap/dotmap/pkg/core"
)

// Tube sweeps a circle of radius along path. Frames are carried along
// the path by parallel transport so the tube does not twist. Ends are open.
func Tube(path []r3.Vector, radius float64, radial int) *core.Mesh {
	if radial < 3 {
		radial = 3
	}
	n := len(path)
	if n < 2 {
		return &core.Mesh{}
	}
	tangents := pathTangents(path)
	normals, binormals := transportFrames(tangents)

	ring := radial + 1
	m := &core.Mesh{
		Positions: make([]r3.Vector, 0, n*ring),
		Normals:   make([]r3.Vector, 0, n*ring),
		Indices:   make([]uint32, 0, (n-1)*radial*6),
	}
	for i, p := range path {
		for j := 0; j <= radial; j++ {
			v := float64(j) / float64(radial) * 2 * math.Pi
			dir := normals[i].Mul(-math.Cos(v)).Add(binormals[i].Mul(math.Sin(v))).Normalize()
			m.Normals = append(m.Normals, dir)
			m.Positions = append(m.Positions, p.Add(dir.Mul(radius)))
		}
	}
	for i := 1; i < n; i++ {
		for j := 1; j <= radial; j++ {
			a := uint32(ring*(i-1) + j - 1)
			b := uint32(ring*i + j - 1)
			c := uint32(ring*i + j)
			d := uint32(ring*(i-1) + j)
			m.Indices = append(m.Indices, a, b, d, b, c, d)
		}
	}
	return m
}

func pathTangents(path []r3.Vector) []r3.Vector {
	n := len(path)
	out := make([]r3.Vector, n)
	last := r3.Vector{X: 1}
	for i := range path {
		var d r3.Vector
		switch {
		case i == 0:
			d = path[1].Sub(path[0])
		case i == n-1:
			d = path[n-1].Sub(path[n-2])
		default:
			d = path[i+1].Sub(path[i-1])
		}
		if d.Norm2() < 1e-18 {
			out[i] = last
			continue
		}
		out[i] = d.Normalize()
		last = out[i]
	}
	return out
}

// transportFrames returns normal and binormal per tangent.
func transportFrames(tangents []r3.Vector) (normals, binormals []r3.Vector) {
	n := len(tangents)
	normals = make([]r3.Vector, n)
	binormals = make([]r3.Vector, n)

	t0 := tangents[0]
	// seed with the axis least aligned with the first tangent
	axis := r3.Vector{X: 1}
	least := math.Abs(t0.X)
	if math.Abs(t0.Y) <= least {
		least = math.Abs(t0.Y)
		axis = r3.Vector{Y: 1}
	}
	if math.Abs(t0.Z) <= least {
		axis = r3.Vector{Z: 1}
	}
	normals[0] = t0.Cross(axis).Normalize().Cross(t0).Normalize()
	binormals[0] = t0.Cross(normals[0])

	for i := 1; i < n; i++ {
		normals[i] = normals[i-1]
		k := tangents[i-1].Cross(tangents[i])
		if k.Norm() > 1e-9 {
			k = k.Normalize()
			cos := math.Max(-1, math.Min(1, tangents[i-1].Dot(tangents[i])))
			normals[i] = rotate(normals[i-1], k, math.Acos(cos))
		}
		binormals[i] = tangents[i].Cross(normals[i])
	}
	return normals, binormals
}

// rotate turns v about unit axis k by theta (Rodrigues).
func rotate(v, k r3.Vector, theta float64) r3.Vector {
	c, s := math.Cos(theta), math.Sin(theta)
	return v.Mul(c).Add(k.Cross(v).Mul(s)).Add(k.Mul(k.Dot(v) * (1 - c)))
}
