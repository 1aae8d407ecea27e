package arc

import (
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmap/dotmap/pkg/core"
)

type fakeEndpoints struct {
	hs []core.Hotspot
}

func (f *fakeEndpoints) Len() int                   { return len(f.hs) }
func (f *fakeEndpoints) Hotspot(i int) *core.Hotspot { return &f.hs[i] }
func (f *fakeEndpoints) Lookup(id string) (int, bool) {
	for i := range f.hs {
		if strings.EqualFold(f.hs[i].ID, id) {
			return i, true
		}
	}
	return -1, false
}

func markers() *fakeEndpoints {
	return &fakeEndpoints{hs: []core.Hotspot{
		{ID: "hq", Height: 1, Scale: 1, Position: r3.Vector{X: 0}},
		{ID: "Depot", Height: 1, Scale: 1, Position: r3.Vector{X: 4}},
		{ID: "port", Height: 1, Scale: 1, Position: r3.Vector{X: 4, Z: 4}},
		{ID: "yard", Height: 1, Scale: 1, Position: r3.Vector{Z: 4}},
	}}
}

var base = core.ArcStyle{Color: "#fff", Opacity: 1, ArcHeight: 1.5, Segments: 6, Thickness: 0.05, HeightOffset: 0.1, RadialSegments: 5}

func ptr[T any](v T) *T { return &v }

func TestChainPoints_Count(t *testing.T) {
	for n := 2; n <= 6; n++ {
		ends := make([]r3.Vector, n)
		for i := range ends {
			ends[i] = r3.Vector{X: float64(i)}
		}
		for _, s := range []int{1, 4, 24} {
			assert.Len(t, ChainPoints(ends, s, 1), (s+1)+(n-2)*s, "n=%d s=%d", n, s)
		}
	}
	assert.Nil(t, ChainPoints([]r3.Vector{{}}, 4, 1))
}

func TestChainPoints_BowAndJunctions(t *testing.T) {
	ends := []r3.Vector{{X: 0}, {X: 2}, {X: 4}}
	pts := ChainPoints(ends, 4, 2)

	assert.Equal(t, ends[0], pts[0])
	near(t, ends[1], pts[4])
	near(t, ends[2], pts[len(pts)-1])
	assert.InDelta(t, 2.0, pts[2].Y, 1e-12, "peak at mid leg")
	assert.NotEqual(t, pts[4], pts[5], "junction not duplicated")
}

func TestBuild_SequentialAndPairs(t *testing.T) {
	src := markers()
	b := NewBuilder(src, Config{
		Enabled:        true,
		DrawSequential: true,
		Base:           base,
		Pairs: []core.ConnectionPair{
			{FromID: "HQ", ToID: "depot", Color: ptr("#f00"), Segments: ptr(10)},
			{FromID: "hq", ToID: "missing"},
			{FromID: "port", ToID: "yard", ArcHeight: ptr(0.0)},
		},
	}, nil)
	b.Build()

	seq := b.Sequential()
	require.NotNil(t, seq)
	assert.Len(t, seq.Points, 7+2*6)
	assert.NotEmpty(t, seq.Mesh.Positions)

	pairs := b.Pairs()
	require.Len(t, pairs, 2, "unresolved pair dropped")
	assert.Equal(t, []int{0, 1}, pairs[0].Members)
	assert.Equal(t, "#f00", pairs[0].Style.Color)
	assert.Equal(t, 10, pairs[0].Style.Segments)
	assert.Equal(t, base.Thickness, pairs[0].Style.Thickness)
	assert.Len(t, pairs[0].Points, 11)

	start := pairs[0].Points[0]
	assert.InDelta(t, 1.1, start.Y, 1e-12, "top plus height offset")

	for _, p := range pairs[1].Points {
		assert.InDelta(t, 1.1, p.Y, 1e-12, "flat arc")
	}
}

func TestBuild_Disabled(t *testing.T) {
	b := NewBuilder(markers(), Config{Enabled: false, DrawSequential: true, Base: base,
		Pairs: []core.ConnectionPair{{FromID: "hq", ToID: "port"}}}, nil)
	b.Build()
	assert.Nil(t, b.Sequential())
	assert.Empty(t, b.Pairs())
	assert.Zero(t, b.Rebuild([]int{0}))
}

func TestBuild_SequentialNeedsTwo(t *testing.T) {
	src := &fakeEndpoints{hs: markers().hs[:1]}
	b := NewBuilder(src, Config{Enabled: true, DrawSequential: true, Base: base}, nil)
	b.Build()
	assert.Nil(t, b.Sequential())
}

func TestRebuild_SharedEndpoint(t *testing.T) {
	src := markers()
	b := NewBuilder(src, Config{
		Enabled: true,
		Base:    base,
		Pairs: []core.ConnectionPair{
			{FromID: "hq", ToID: "depot"},
			{FromID: "port", ToID: "depot"},
			{FromID: "port", ToID: "yard"},
		},
	}, nil)
	b.Build()
	before := append([]*Arc(nil), b.Pairs()...)

	src.hs[1].Position.Y = 0.7
	assert.Equal(t, 2, b.Rebuild([]int{1}))

	after := b.Pairs()
	assert.NotSame(t, before[0], after[0])
	assert.NotSame(t, before[1], after[1])
	assert.Same(t, before[2], after[2])
	assert.Greater(t, after[0].Generation, before[0].Generation)

	assert.InDelta(t, 1.8, after[0].Points[len(after[0].Points)-1].Y, 1e-12)
	assert.InDelta(t, 1.8, after[1].Points[len(after[1].Points)-1].Y, 1e-12)

	_, hi := before[0].Mesh.Bounds()
	_, hi2 := after[0].Mesh.Bounds()
	assert.Greater(t, hi2.Y, hi.Y)
}

func TestRebuild_NothingMoved(t *testing.T) {
	b := NewBuilder(markers(), Config{Enabled: true, DrawSequential: true, Base: base}, nil)
	b.Build()
	seq := b.Sequential()
	assert.Zero(t, b.Rebuild(nil))
	assert.Same(t, seq, b.Sequential())
	assert.Equal(t, 1, b.Rebuild([]int{3}))
}
