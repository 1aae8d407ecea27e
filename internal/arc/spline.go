package arc

import (
	"math"

	"github.com/golang/geo/r3"
)

// cubic holds the coefficients of one spline segment.
type cubic struct{ c0, c1, c2, c3 r3.Vector }

func (c cubic) at(t float64) r3.Vector {
	t2 := t * t
	return c.c0.Add(c.c1.Mul(t)).Add(c.c2.Mul(t2)).Add(c.c3.Mul(t2 * t))
}

// hermite builds the cubic from endpoints and end tangents.
func hermite(x0, x1, t0, t1 r3.Vector) cubic {
	return cubic{
		c0: x0,
		c1: t0,
		c2: x0.Mul(-3).Add(x1.Mul(3)).Sub(t0.Mul(2)).Sub(t1),
		c3: x0.Mul(2).Sub(x1.Mul(2)).Add(t0).Add(t1),
	}
}

// Spline is an open centripetal Catmull-Rom curve through its points.
type Spline struct {
	points []r3.Vector
}

// NewSpline returns a spline through points. At least two points are
// needed for a curve; fewer yield a constant or empty curve.
func NewSpline(points []r3.Vector) *Spline {
	return &Spline{points: points}
}

// Point evaluates the curve at u in [0, 1]. The parameter advances
// uniformly per control segment.
func (s *Spline) Point(u float64) r3.Vector {
	n := len(s.points)
	switch n {
	case 0:
		return r3.Vector{}
	case 1:
		return s.points[0]
	}
	u = math.Max(0, math.Min(1, u))
	p := float64(n-1) * u
	i := int(math.Floor(p))
	w := p - float64(i)
	if i >= n-1 {
		i, w = n-2, 1
	}

	x1, x2 := s.points[i], s.points[i+1]
	var x0, x3 r3.Vector
	if i > 0 {
		x0 = s.points[i-1]
	} else {
		x0 = x1.Add(x1.Sub(x2))
	}
	if i+2 < n {
		x3 = s.points[i+2]
	} else {
		x3 = x2.Add(x2.Sub(x1))
	}
	return centripetal(x0, x1, x2, x3).at(w)
}

// Sample returns count+1 evenly parameterised points along the curve.
func (s *Spline) Sample(count int) []r3.Vector {
	if count < 1 {
		count = 1
	}
	out := make([]r3.Vector, count+1)
	for i := 0; i <= count; i++ {
		out[i] = s.Point(float64(i) / float64(count))
	}
	return out
}

// centripetal builds the segment between x1 and x2 using knot spacing of
// the square root of chord length.
func centripetal(x0, x1, x2, x3 r3.Vector) cubic {
	dt0 := math.Pow(x0.Sub(x1).Norm2(), 0.25)
	dt1 := math.Pow(x1.Sub(x2).Norm2(), 0.25)
	dt2 := math.Pow(x2.Sub(x3).Norm2(), 0.25)

	// coincident points
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	t1 := x1.Sub(x0).Mul(1 / dt0).Sub(x2.Sub(x0).Mul(1 / (dt0 + dt1))).Add(x2.Sub(x1).Mul(1 / dt1))
	t2 := x2.Sub(x1).Mul(1 / dt1).Sub(x3.Sub(x1).Mul(1 / (dt1 + dt2))).Add(x3.Sub(x2).Mul(1 / dt2))
	return hermite(x1, x2, t1.Mul(dt1), t2.Mul(dt1))
}
