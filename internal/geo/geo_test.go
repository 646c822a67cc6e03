package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestPointDistance(t *testing.T) {
	a := MakePoint(0, 0)
	b := MakePoint(3, 4)
	if d := a.Distance(b); d != 5 {
		t.Fatalf("2d distance %v", d)
	}
	az := MakePointZ(0, 0, 0)
	bz := MakePointZ(1, 2, 2)
	if d := az.Distance(bz); d != 3 {
		t.Fatalf("3d distance %v", d)
	}
}

func TestWKTRoundTrip(t *testing.T) {
	g, err := ParseWKT("POLYGON((3 3, 3 7, 7 7, 7 3, 3 3))", 0)
	require.NoError(t, err)
	require.Equal(t, "Polygon", g.Type())
	back, err := ParseWKT(g.WKT(), 0)
	require.NoError(t, err)
	require.Equal(t, g.G, back.G)
}

func TestWKBRoundTrip(t *testing.T) {
	g := MakeLine([]Point{MakePoint(0, 0), MakePoint(10, 10)}, 4326)
	raw, err := g.WKB()
	require.NoError(t, err)
	back, err := ParseWKB(raw, 4326)
	require.NoError(t, err)
	require.Equal(t, g.G, back.G)
}

func TestContainsPoint(t *testing.T) {
	poly, _ := ParseWKT("POLYGON((0 0, 0 10, 10 10, 10 0, 0 0))", 0)
	require.True(t, poly.ContainsPoint(MakePoint(5, 5)))
	require.False(t, poly.ContainsPoint(MakePoint(15, 5)))
	line, _ := ParseWKT("LINESTRING(0 0, 10 0)", 0)
	require.True(t, line.ContainsPoint(MakePoint(5, 0)))
	require.False(t, line.ContainsPoint(MakePoint(5, 1)))
}

func TestSegSegIntersection(t *testing.T) {
	k, at, tp, _ := SegSegIntersection(
		orb.Point{0, 0}, orb.Point{10, 10},
		orb.Point{0, 10}, orb.Point{10, 0})
	require.Equal(t, SegSegPoint, k)
	require.InDelta(t, 5.0, at[0], 1e-12)
	require.InDelta(t, 5.0, at[1], 1e-12)
	require.InDelta(t, 0.5, tp, 1e-12)

	k, _, _, _ = SegSegIntersection(
		orb.Point{0, 0}, orb.Point{1, 0},
		orb.Point{0, 1}, orb.Point{1, 1})
	require.Equal(t, SegSegNone, k)

	// collinear overlap on [0.5, 1] of the first segment
	k, _, t0, t1 := SegSegIntersection(
		orb.Point{0, 0}, orb.Point{10, 0},
		orb.Point{5, 0}, orb.Point{15, 0})
	require.Equal(t, SegSegOverlap, k)
	require.InDelta(t, 0.5, t0, 1e-12)
	require.InDelta(t, 1.0, t1, 1e-12)
}

func TestLineLocateInterpolate(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	require.InDelta(t, 0.25, LineLocatePoint(ls, orb.Point{5, 0}), 1e-12)
	require.InDelta(t, 0.75, LineLocatePoint(ls, orb.Point{10, 5}), 1e-12)

	p := LineInterpolatePoint(ls, 0.25)
	require.InDelta(t, 5.0, p[0], 1e-12)
	require.InDelta(t, 0.0, p[1], 1e-12)

	sub := LineSubstring(ls, 0.25, 0.75)
	require.Equal(t, 3, len(sub))
	require.Equal(t, orb.Point{10, 0}, sub[1])
}

func TestBoundary(t *testing.T) {
	poly, _ := ParseWKT("POLYGON((0 0, 0 1, 1 1, 1 0, 0 0))", 0)
	b := poly.Boundary()
	require.Equal(t, "MultiLineString", b.Type())
	line, _ := ParseWKT("LINESTRING(0 0, 2 2)", 0)
	require.Equal(t, "MultiPoint", line.Boundary().Type())
}

func TestDistanceToPoint(t *testing.T) {
	poly, _ := ParseWKT("POLYGON((0 0, 0 10, 10 10, 10 0, 0 0))", 0)
	require.Equal(t, 0.0, poly.DistanceToPoint(MakePoint(5, 5)))
	require.InDelta(t, 5.0, poly.DistanceToPoint(MakePoint(15, 5)), 1e-9)
	require.True(t, poly.DWithinPoint(MakePoint(15, 5), 5.0001))
	require.False(t, math.IsInf(poly.DistanceToPoint(MakePoint(0, 0)), 1))
}
