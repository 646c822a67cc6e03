package spgist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/span"
)

func randPeriod(rng *rand.Rand) span.Span {
	lo := int64(rng.Intn(100000))
	w := int64(rng.Intn(5000) + 1)
	return span.MustPeriod(lo, lo+w, rng.Intn(2) == 0, rng.Intn(2) == 0)
}

func randTBox(t *testing.T, rng *rand.Rand) box.TBox {
	t.Helper()
	vLo := rng.Float64() * 100
	vs, err := span.Make(vLo, vLo+rng.Float64()*20+0.1, true, true, span.Float)
	require.NoError(t, err)
	p := randPeriod(rng)
	b, err := box.MakeTBox(&vs, &p)
	require.NoError(t, err)
	return b
}

func randSTBox(t *testing.T, rng *rand.Rand) box.STBox {
	t.Helper()
	p := randPeriod(rng)
	x := rng.Float64() * 100
	y := rng.Float64() * 100
	b, err := box.MakeSTBox(box.STBox{
		HasX: true,
		XMin: x, XMax: x + rng.Float64()*10 + 0.1,
		YMin: y, YMax: y + rng.Float64()*10 + 0.1,
		Time: &p,
	})
	require.NoError(t, err)
	return b
}

var periodStrategies = []Strategy{
	Overlaps, Contains, Contained, Same, Adjacent,
	Before, After, OverBefore, OverAfter,
}

// Index soundness: for every operator, the index scan must return exactly
// the leaves a sequential scan accepts.
func TestPeriodIndexMatchesSequentialScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ix := NewPeriodIndex()
	keys := make([]span.Span, 0, 500)
	for i := 0; i < 500; i++ {
		p := randPeriod(rng)
		keys = append(keys, p)
		require.NoError(t, ix.Insert(p))
	}
	require.Equal(t, 500, ix.Len())
	for trial := 0; trial < 20; trial++ {
		probe := randPeriod(rng)
		for _, s := range periodStrategies {
			got, err := ix.Search(s, probe)
			require.NoError(t, err)
			var want []span.Span
			for _, k := range keys {
				if MatchPeriod(s, k, probe) {
					want = append(want, k)
				}
			}
			require.Equal(t, countSpans(want), countSpans(got),
				"strategy %d probe %s", s, probe)
		}
	}
}

func countSpans(xs []span.Span) map[span.Span]int {
	m := make(map[span.Span]int)
	for _, x := range xs {
		m[x]++
	}
	return m
}

func TestTBoxIndexMatchesSequentialScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ix := NewTBoxIndex()
	keys := make([]box.TBox, 0, 300)
	for i := 0; i < 300; i++ {
		b := randTBox(t, rng)
		keys = append(keys, b)
		require.NoError(t, ix.Insert(b))
	}
	strategies := []Strategy{
		Overlaps, Contains, Contained, Same, Adjacent,
		Before, After, OverBefore, OverAfter,
		Left, Right, OverLeft, OverRight,
	}
	for trial := 0; trial < 15; trial++ {
		probe := randTBox(t, rng)
		for _, s := range strategies {
			got, err := ix.Search(s, probe)
			require.NoError(t, err)
			count := 0
			for _, k := range keys {
				if MatchTBox(s, k, probe) {
					count++
				}
			}
			require.Equal(t, count, len(got), "strategy %d", s)
			for _, g := range got {
				require.True(t, MatchTBox(s, g, probe), "false positive for strategy %d", s)
			}
		}
	}
}

func TestSTBoxIndexOverlapsProbe(t *testing.T) {
	// entries on either side of the probe: the scan returns exactly the
	// intersecting set
	ix := NewSTBoxIndex(false)
	p := span.MustPeriod(0, 1000, true, true)
	mk := func(x0, x1 float64) box.STBox {
		b, err := box.MakeSTBox(box.STBox{
			HasX: true, XMin: x0, XMax: x1, YMin: 0, YMax: 10, Time: &p,
		})
		if err != nil {
			panic(err)
		}
		return b
	}
	left := mk(0, 10)
	mid := mk(20, 30)
	right := mk(40, 50)
	for _, b := range []box.STBox{left, mid, right} {
		require.NoError(t, ix.Insert(b))
	}
	probe := mk(18, 32)
	got, err := ix.Search(Overlaps, probe)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Equal(mid))
}

func TestSTBoxIndexMatchesSequentialScan(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	ix := NewSTBoxIndex(false)
	keys := make([]box.STBox, 0, 300)
	for i := 0; i < 300; i++ {
		b := randSTBox(t, rng)
		keys = append(keys, b)
		require.NoError(t, ix.Insert(b))
	}
	strategies := []Strategy{
		Overlaps, Contains, Contained, Same, Adjacent,
		Before, After, OverBefore, OverAfter,
		Left, Right, OverLeft, OverRight,
		Below, Above, OverBelow, OverAbove,
	}
	for trial := 0; trial < 10; trial++ {
		probe := randSTBox(t, rng)
		for _, s := range strategies {
			got, err := ix.Search(s, probe)
			require.NoError(t, err)
			count := 0
			for _, k := range keys {
				if MatchSTBox(s, k, probe) {
					count++
				}
			}
			require.Equal(t, count, len(got), "strategy %d", s)
		}
	}
}

func TestDegenerateKeysDoNotLoop(t *testing.T) {
	ix := NewPeriodIndex()
	p := span.MustPeriod(10, 20, true, true)
	for i := 0; i < 100; i++ {
		require.NoError(t, ix.Insert(p))
	}
	got, err := ix.Search(Same, p)
	require.NoError(t, err)
	require.Equal(t, 100, len(got))
}
