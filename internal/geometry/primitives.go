package geometry

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/dotmap/dotmap/pkg/core"
)

// part accumulates one primitive. All primitives are built around the
// local Y axis with the base at y=0 unless stated otherwise.
type part struct {
	pos []r3.Vector
	idx []uint32
}

func (p *part) vertex(v r3.Vector) uint32 {
	p.pos = append(p.pos, v)
	return uint32(len(p.pos) - 1)
}

func (p *part) tri(a, b, c uint32) {
	p.idx = append(p.idx, a, b, c)
}

func (p *part) mesh() *core.Mesh {
	return &core.Mesh{Positions: p.pos, Indices: p.idx}
}

func ring(r, y float64, segs int) []r3.Vector {
	out := make([]r3.Vector, segs+1)
	for i := 0; i <= segs; i++ {
		a := 2 * math.Pi * float64(i) / float64(segs)
		out[i] = r3.Vector{X: r * math.Cos(a), Y: y, Z: r * math.Sin(a)}
	}
	return out
}

// frustum builds the open side wall between y0 (radius r0) and y1 (radius r1).
// A top radius at the hard floor collapses into a cone.
func frustum(y0, y1, r0, r1 float64, segs int) *core.Mesh {
	var p part
	bottom := ring(r0, y0, segs)
	if r1 <= MinDimension/2 {
		for i := 0; i < segs; i++ {
			b0 := p.vertex(bottom[i])
			apex := p.vertex(r3.Vector{Y: y1})
			b1 := p.vertex(bottom[i+1])
			p.tri(b0, apex, b1)
		}
		return p.mesh()
	}

	top := ring(r1, y1, segs)
	base := uint32(0)
	for i := 0; i <= segs; i++ {
		p.vertex(bottom[i])
		p.vertex(top[i])
	}
	for i := 0; i < segs; i++ {
		b0, t0 := base+uint32(2*i), base+uint32(2*i+1)
		b1, t1 := base+uint32(2*i+2), base+uint32(2*i+3)
		p.tri(b0, t0, b1)
		p.tri(b1, t0, t1)
	}
	return p.mesh()
}

// cone is a frustum with a point at y1.
func cone(y0, y1, r0 float64, segs int) *core.Mesh {
	return frustum(y0, y1, r0, 0, segs)
}

// disk builds a flat cap at height y facing up or down.
func disk(y, r float64, segs int, up bool) *core.Mesh {
	var p part
	c := p.vertex(r3.Vector{Y: y})
	rim := ring(r, y, segs)
	first := uint32(len(p.pos))
	for _, v := range rim {
		p.vertex(v)
	}
	for i := 0; i < segs; i++ {
		a, b := first+uint32(i), first+uint32(i+1)
		if up {
			p.tri(c, b, a)
		} else {
			p.tri(c, a, b)
		}
	}
	return p.mesh()
}

// sphereCap builds a dome of the given rim radius and height whose rim
// sits at baseY. The apex lands exactly at baseY+height.
func sphereCap(baseY, rimRadius, height float64, segs, rings int) *core.Mesh {
	rho := (rimRadius*rimRadius + height*height) / (2 * height)
	centerY := baseY + height - rho
	thetaMax := math.Acos(math.Max(-1, math.Min(1, (rho-height)/rho)))

	var p part
	rowStart := make([]uint32, rings+1)
	for j := 0; j <= rings; j++ {
		theta := thetaMax * float64(j) / float64(rings)
		r := rho * math.Sin(theta)
		y := centerY + rho*math.Cos(theta)
		if j == rings {
			// pin the rim so it meets the body without a seam
			r, y = rimRadius, baseY
		}
		rowStart[j] = uint32(len(p.pos))
		for _, v := range ring(r, y, segs) {
			p.vertex(v)
		}
	}
	for j := 0; j < rings; j++ {
		t, b := rowStart[j], rowStart[j+1]
		for i := 0; i < segs; i++ {
			t0, t1 := t+uint32(i), t+uint32(i+1)
			b0, b1 := b+uint32(i), b+uint32(i+1)
			p.tri(b0, t0, b1)
			if j > 0 {
				p.tri(b1, t0, t1)
			}
		}
	}
	return p.mesh()
}

// torus builds a ring lying in the XZ plane centred at height y.
func torus(y, major, tube float64, radialSegs, tubularSegs int) *core.Mesh {
	var p part
	for i := 0; i <= tubularSegs; i++ {
		u := 2 * math.Pi * float64(i) / float64(tubularSegs)
		for j := 0; j <= radialSegs; j++ {
			v := 2 * math.Pi * float64(j) / float64(radialSegs)
			w := major + tube*math.Cos(v)
			p.vertex(r3.Vector{X: w * math.Cos(u), Y: y + tube*math.Sin(v), Z: w * math.Sin(u)})
		}
	}
	row := uint32(radialSegs + 1)
	for i := 0; i < tubularSegs; i++ {
		for j := 0; j < radialSegs; j++ {
			a := uint32(i)*row + uint32(j)
			b := uint32(i+1)*row + uint32(j)
			c := uint32(i+1)*row + uint32(j+1)
			d := uint32(i)*row + uint32(j+1)
			p.tri(a, d, b)
			p.tri(b, d, c)
		}
	}
	return p.mesh()
}
