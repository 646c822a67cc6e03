package tpoint

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/temporal"
)

func day(n int) int64 {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC).UnixMicro()
}

func pointSeq(t *testing.T, coords ...float64) *temporal.TSequence {
	t.Helper()
	var insts []temporal.TInstant
	for i := 0; i < len(coords); i += 3 {
		insts = append(insts, temporal.TInstant{
			Val: temporal.GeomPoint(geo.MakePoint(coords[i+1], coords[i+2])),
			T:   day(int(coords[i])),
		})
	}
	s, err := temporal.NewSequence(insts, true, true, temporal.InterpLinear, true)
	require.NoError(t, err)
	return s
}

func TestTrajectory(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 0, 3, 10, 10)
	tr, err := Trajectory(s)
	require.NoError(t, err)
	require.Equal(t, "LineString", tr.Type())

	in := temporal.NewInstant(temporal.GeomPoint(geo.MakePoint(1, 2)), day(1))
	tr, err = Trajectory(in)
	require.NoError(t, err)
	require.Equal(t, "Point", tr.Type())
}

func TestLengthAndCumulative(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 0, 3, 10, 10)
	l, err := Length(s)
	require.NoError(t, err)
	require.InDelta(t, 20.0, l, 1e-9)

	cum, err := CumulativeLength(s)
	require.NoError(t, err)
	v, ok := cum.ValueAt(day(2), true)
	require.True(t, ok)
	require.InDelta(t, 10.0, v.F, 1e-9)
	end, ok := cum.ValueAt(day(3), true)
	require.True(t, ok)
	require.InDelta(t, 20.0, end.F, 1e-9)
}

func TestSpeed(t *testing.T) {
	// 10 units per day, then 20 units per day
	s := pointSeq(t, 1, 0, 0, 2, 10, 0, 3, 30, 0)
	sp, err := Speed(s)
	require.NoError(t, err)
	daySec := 24 * 3600.0
	v, ok := sp.ValueAt(day(1)+1000, true)
	require.True(t, ok)
	require.InDelta(t, 10.0/daySec, v.F, 1e-12)
	v, ok = sp.ValueAt(day(2)+1000, true)
	require.True(t, ok)
	require.InDelta(t, 20.0/daySec, v.F, 1e-12)
}

func TestAzimuth(t *testing.T) {
	// due east, then due north
	s := pointSeq(t, 1, 0, 0, 2, 10, 0, 3, 10, 10)
	az, err := Azimuth(s)
	require.NoError(t, err)
	v, ok := az.ValueAt(day(1)+1000, true)
	require.True(t, ok)
	require.InDelta(t, math.Pi/2, v.F, 1e-12)
	v, ok = az.ValueAt(day(2)+1000, true)
	require.True(t, ok)
	require.InDelta(t, 0.0, v.F, 1e-12)
}

func TestTwCentroid(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 3, 10, 0)
	c, err := TwCentroid(s)
	require.NoError(t, err)
	require.InDelta(t, 5.0, c.X, 1e-9)
	require.InDelta(t, 0.0, c.Y, 1e-9)
}

func TestRoundIdempotent(t *testing.T) {
	s := pointSeq(t, 1, 1.23456, 7.89123, 2, 2.5, 3.5)
	r1, err := Round(s, 2)
	require.NoError(t, err)
	r2, err := Round(r1, 2)
	require.NoError(t, err)
	require.True(t, r1.Equal(r2))
	v, _ := r1.ValueAt(day(1), true)
	require.Equal(t, 1.23, v.P.X)
}

// The seed scenario: a diagonal track restricted to a square polygon enters
// at (3,3) and leaves at (7,7).
func TestAtGeometrySeed(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 10)
	poly, err := geo.ParseWKT("POLYGON((3 3, 3 7, 7 7, 7 3, 3 3))", 0)
	require.NoError(t, err)
	r, err := AtGeometry(context.Background(), s, poly, nil)
	require.NoError(t, err)
	require.NotNil(t, r)

	insts := r.Instants()
	require.Equal(t, 2, len(insts))
	require.True(t, insts[0].Val.P.EqualEps(geo.MakePoint(3, 3), 1e-6))
	require.True(t, insts[1].Val.P.EqualEps(geo.MakePoint(7, 7), 1e-6))

	// the crossing fraction lines up with line_locate_point on the track
	tr, err := Trajectory(s)
	require.NoError(t, err)
	located := geo.LineLocatePoint(tr.G.(orb.LineString), insts[0].Val.P.Orb())
	frac := float64(insts[0].T-day(1)) / float64(day(2)-day(1))
	require.InDelta(t, located, frac, 1e-6)
	require.InDelta(t, 0.3, frac, 1e-6)
}

func TestAtMinusGeometryPartition(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 10)
	poly, err := geo.ParseWKT("POLYGON((3 3, 3 7, 7 7, 7 3, 3 3))", 0)
	require.NoError(t, err)
	at, err := AtGeometry(context.Background(), s, poly, nil)
	require.NoError(t, err)
	minus, err := MinusGeometry(context.Background(), s, poly, nil)
	require.NoError(t, err)
	require.NotNil(t, at)
	require.NotNil(t, minus)
	union, err := at.Timespan().UnionSet(minus.Timespan())
	require.NoError(t, err)
	require.True(t, union.Equal(s.Timespan()))
}

func TestAtGeometryOutside(t *testing.T) {
	s := pointSeq(t, 1, 100, 100, 2, 110, 110)
	poly, err := geo.ParseWKT("POLYGON((3 3, 3 7, 7 7, 7 3, 3 3))", 0)
	require.NoError(t, err)
	r, err := AtGeometry(context.Background(), s, poly, nil)
	require.NoError(t, err)
	require.Nil(t, r)
}

func TestAtGeometryCancellation(t *testing.T) {
	// the context is cancelled before the call; the fragment scan of this
	// multi-sample track reports it
	coords := []float64{1, 0, 0, 2, 10, 0, 3, 5, 5, 4, 5, -5}
	s := pointSeq(t, coords...)
	poly, err := geo.ParseWKT("POLYGON((0 -1, 0 1, 10 1, 10 -1, 0 -1))", 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AtGeometry(ctx, s, poly, nil)
	require.Error(t, err)
}

func TestSimpleFragments(t *testing.T) {
	// a bowtie: the third segment crosses the first
	insts := []temporal.TInstant{
		{Val: temporal.GeomPoint(geo.MakePoint(0, 0)), T: day(1)},
		{Val: temporal.GeomPoint(geo.MakePoint(10, 0)), T: day(2)},
		{Val: temporal.GeomPoint(geo.MakePoint(10, 5)), T: day(3)},
		{Val: temporal.GeomPoint(geo.MakePoint(5, -5)), T: day(4)},
	}
	frags, err := simpleFragments(context.Background(), insts)
	require.NoError(t, err)
	require.Equal(t, 2, len(frags))
}

func TestAtSTBox(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 10)
	b, err := box.MakeSTBox(box.STBox{
		HasX: true, XMin: 3, XMax: 7, YMin: 3, YMax: 7,
	})
	require.NoError(t, err)
	r, err := AtSTBox(context.Background(), s, b)
	require.NoError(t, err)
	require.NotNil(t, r)
	hull, _ := r.Timespan().Hull()
	frac := float64(hull.LowerTS()-day(1)) / float64(day(2)-day(1))
	require.InDelta(t, 0.3, frac, 1e-6)
}

func TestAtSTBoxWithTime(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 10)
	p := span.MustPeriod(day(1), day(1)+(day(2)-day(1))/2, true, true)
	b, err := box.MakeSTBox(box.STBox{
		HasX: true, XMin: 3, XMax: 7, YMin: 3, YMax: 7, Time: &p,
	})
	require.NoError(t, err)
	r, err := AtSTBox(context.Background(), s, b)
	require.NoError(t, err)
	require.NotNil(t, r)
	hull, _ := r.Timespan().Hull()
	// clipped by time at the midpoint (x = 5)
	require.LessOrEqual(t, hull.UpperTS(), day(1)+(day(2)-day(1))/2)
}

func TestMFJSONRoundTrip(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 10)
	data, err := AsMFJSON(s)
	require.NoError(t, err)
	back, err := FromMFJSON(data, false)
	require.NoError(t, err)
	require.True(t, s.Equal(back), "%s vs %s", s, back)
}

func TestMFJSONRoundTripSet(t *testing.T) {
	a := pointSeq(t, 1, 0, 0, 2, 1, 1)
	b := pointSeq(t, 4, 5, 5, 5, 6, 6)
	ss, err := temporal.NewSequenceSet([]*temporal.TSequence{a, b}, false)
	require.NoError(t, err)
	data, err := AsMFJSON(ss)
	require.NoError(t, err)
	back, err := FromMFJSON(data, false)
	require.NoError(t, err)
	require.True(t, ss.Equal(back))
}

func TestMFJSONInstant(t *testing.T) {
	in := temporal.NewPointInstant(temporal.GeomPoint(geo.MakePointZ(1, 2, 3)), day(1), 4326)
	data, err := AsMFJSON(in)
	require.NoError(t, err)
	back, err := FromMFJSON(data, false)
	require.NoError(t, err)
	require.True(t, in.Equal(back))
}
