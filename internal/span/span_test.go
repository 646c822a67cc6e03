package span

import (
	"errors"
	"testing"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

func mustMake(t *testing.T, lo, hi float64, loInc, hiInc bool, bt Basetype) Span {
	t.Helper()
	s, err := Make(lo, hi, loInc, hiInc, bt)
	if err != nil {
		t.Fatalf("Make(%v,%v): %v", lo, hi, err)
	}
	return s
}

func TestMakeIntCanonical(t *testing.T) {
	// [1,3] becomes [1,4)
	s := mustMake(t, 1, 3, true, true, Int)
	if s.Lower != 1 || s.Upper != 4 || !s.LowerInc || s.UpperInc {
		t.Fatalf("not canonicalized: %v", s)
	}
	// (1,3) becomes [2,3)
	s = mustMake(t, 1, 3, false, false, Int)
	if s.Lower != 2 || s.Upper != 3 {
		t.Fatalf("open bounds not canonicalized: %v", s)
	}
}

func TestMakeErrors(t *testing.T) {
	if _, err := Make(3, 1, true, true, Float); !errors.Is(err, terrors.ErrInvalidArg) {
		t.Fatalf("inverted bounds: %v", err)
	}
	if _, err := Make(1, 1, true, false, Float); !errors.Is(err, terrors.ErrInvalidArg) {
		t.Fatalf("degenerate half-open: %v", err)
	}
	if _, err := Make(0, 1<<32, true, false, Int); !errors.Is(err, terrors.ErrOverflow) {
		t.Fatalf("overflow: %v", err)
	}
}

func TestOverlapsAndContains(t *testing.T) {
	a := mustMake(t, 1, 5, true, false, Float)
	b := mustMake(t, 3, 8, true, true, Float)
	c := mustMake(t, 5, 8, true, true, Float)
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Fatal("a and b overlap")
	}
	if a.Overlaps(c) {
		t.Fatal("a upper is exclusive at 5, c starts at 5 inclusive: no overlap")
	}
	if !b.Contains(c) {
		t.Fatal("b contains c")
	}
	if !c.Contained(b) {
		t.Fatal("c contained in b")
	}
	if !a.ContainsValue(1) || a.ContainsValue(5) {
		t.Fatal("bound inclusivity on values")
	}
}

func TestAdjacency(t *testing.T) {
	// Integer canonical form: [1,3) touches [3,5)
	a := mustMake(t, 1, 2, true, true, Int)
	b := mustMake(t, 3, 4, true, true, Int)
	if !a.Adjacent(b) {
		t.Fatalf("[1,3) and [3,5) are adjacent: %v %v", a, b)
	}
	// Float: exactly one inclusive side at the shared bound.
	c := mustMake(t, 0, 1, true, false, Float)
	d := mustMake(t, 1, 2, true, true, Float)
	e := mustMake(t, 1, 2, false, true, Float)
	if !c.Adjacent(d) {
		t.Fatal("(..,1) next to [1,..) is adjacent")
	}
	if c.Adjacent(e) {
		t.Fatal("(..,1) next to (1,..) leaves a gap")
	}
	f := mustMake(t, 0, 1, true, true, Float)
	if f.Adjacent(d) {
		t.Fatal("[..,1] and [1,..) overlap, not adjacent")
	}
}

func TestUnionStrict(t *testing.T) {
	a := mustMake(t, 1, 3, true, true, Float)
	b := mustMake(t, 5, 7, true, true, Float)
	if _, err := a.Union(b, true); !errors.Is(err, terrors.ErrNotContiguous) {
		t.Fatalf("strict union of disjoint spans: %v", err)
	}
	ss, err := a.Union(b, false)
	if err != nil {
		t.Fatal(err)
	}
	if ss.NumSpans() != 2 {
		t.Fatalf("non-strict union should keep both: %v", ss)
	}
	u, err := a.Union(mustMake(t, 2, 9, true, true, Float), true)
	if err != nil || u.NumSpans() != 1 || u.Spans[0].Lower != 1 || u.Spans[0].Upper != 9 {
		t.Fatalf("overlapping union: %v %v", u, err)
	}
}

func TestIntersectionDifference(t *testing.T) {
	a := mustMake(t, 1, 6, true, true, Float)
	b := mustMake(t, 4, 9, false, true, Float)
	r, ok := a.Intersection(b)
	if !ok || r.Lower != 4 || r.LowerInc || r.Upper != 6 || !r.UpperInc {
		t.Fatalf("intersection: %v", r)
	}
	diff := a.Difference(b)
	if len(diff) != 1 {
		t.Fatalf("difference: %v", diff)
	}
	if diff[0].Lower != 1 || diff[0].Upper != 4 || !diff[0].UpperInc {
		t.Fatalf("left fragment keeps the shared bound: %v", diff[0])
	}
	// subtrahend inside: two fragments
	mid := mustMake(t, 2, 3, true, true, Float)
	diff = a.Difference(mid)
	if len(diff) != 2 {
		t.Fatalf("middle cut: %v", diff)
	}
}

func TestDistance(t *testing.T) {
	a := mustMake(t, 1, 3, true, true, Float)
	b := mustMake(t, 7, 9, true, true, Float)
	if d := a.Distance(b); d != 4 {
		t.Fatalf("distance %v", d)
	}
	if d := a.Distance(mustMake(t, 2, 9, true, true, Float)); d != 0 {
		t.Fatalf("touching distance %v", d)
	}
	if d := a.DistanceValue(10); d != 7 {
		t.Fatalf("value distance %v", d)
	}
}

func TestPositional(t *testing.T) {
	a := mustMake(t, 1, 3, true, true, Float)
	b := mustMake(t, 5, 9, true, true, Float)
	if !a.Before(b) || !b.After(a) {
		t.Fatal("before/after")
	}
	if !a.OverBefore(b) {
		t.Fatal("a does not extend past b's upper")
	}
	if a.OverAfter(b) {
		t.Fatal("a extends before b's lower")
	}
}

func TestPeriodShiftScale(t *testing.T) {
	p := MustPeriod(1000, 3000, true, true)
	q := p.ShiftScale(500, 2)
	if q.LowerTS() != 1500 || q.UpperTS() != 5500 {
		t.Fatalf("shift+scale: %v", q)
	}
	// inverse transform restores the original
	r := q.ShiftScale(-500, 0.5)
	// ShiftScale shifts first and then rescales around the shifted lower bound,
	// so (-500, 0.5) undoes (500, 2).
	if r.Width() != p.Width() {
		t.Fatalf("width not restored: %v vs %v", r.Width(), p.Width())
	}
}
