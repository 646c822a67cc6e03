package temporal

import (
	"testing"
	"time"

	"github.com/banshee-data/trajectory.engine/internal/geo"
)

// day returns the timestamp of 2020-01-<n> UTC in microseconds.
func day(n int) TS {
	return time.Date(2020, 1, n, 0, 0, 0, 0, time.UTC).UnixMicro()
}

func floatSeq(t *testing.T, interp Interp, loInc, hiInc bool, pairs ...float64) *TSequence {
	t.Helper()
	var insts []TInstant
	for i := 0; i < len(pairs); i += 2 {
		insts = append(insts, TInstant{Val: Float(pairs[i+1]), T: day(int(pairs[i]))})
	}
	s, err := NewSequence(insts, loInc, hiInc, interp, true)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	return s
}

func pointSeq(t *testing.T, coords ...float64) *TSequence {
	t.Helper()
	var insts []TInstant
	for i := 0; i < len(coords); i += 3 {
		insts = append(insts, TInstant{
			Val: GeomPoint(geo.MakePoint(coords[i+1], coords[i+2])),
			T:   day(int(coords[i])),
		})
	}
	s, err := NewSequence(insts, true, true, InterpLinear, true)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	return s
}

func TestSequenceValidation(t *testing.T) {
	_, err := NewSequence(nil, true, true, InterpLinear, false)
	if err == nil {
		t.Fatal("empty sequence must fail")
	}
	_, err = NewSequence([]TInstant{
		{Val: Float(1), T: day(2)},
		{Val: Float(2), T: day(1)},
	}, true, true, InterpLinear, false)
	if err == nil {
		t.Fatal("non-increasing timestamps must fail")
	}
	_, err = NewSequence([]TInstant{{Val: Float(1), T: day(1)}}, true, false, InterpLinear, false)
	if err == nil {
		t.Fatal("half-open singleton must fail")
	}
	_, err = NewSequence([]TInstant{{Val: Text("a"), T: day(1)}, {Val: Text("b"), T: day(2)}},
		true, true, InterpLinear, false)
	if err == nil {
		t.Fatal("linear text must fail")
	}
}

func TestNormalizationRemovesCollinear(t *testing.T) {
	// 1 @ d1, 2 @ d2, 3 @ d3 is collinear: the middle instant is redundant
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 2, 2, 3, 3)
	if s.NumInstants() != 2 {
		t.Fatalf("collinear middle not removed: %d instants", s.NumInstants())
	}
	// the function is unchanged
	v, ok := s.ValueAt(day(2), true)
	if !ok || v.F != 2 {
		t.Fatalf("value after normalization: %v %v", v, ok)
	}
}

func TestNormalizationIdempotent(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 2, 2, 3, 3, 4, 10)
	again, err := NewSequence(s.Instants(), s.LowerInc(), s.UpperInc(), InterpLinear, true)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(again) {
		t.Fatalf("normalize twice differs: %s vs %s", s, again)
	}
}

func TestStepNormalization(t *testing.T) {
	insts := []TInstant{
		{Val: Float(5), T: day(1)},
		{Val: Float(5), T: day(2)}, // redundant under step
		{Val: Float(7), T: day(3)},
	}
	s, err := NewSequence(insts, true, true, InterpStep, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.NumInstants() != 2 {
		t.Fatalf("step middle not removed: %d", s.NumInstants())
	}
}

func TestValueAtInterpolation(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3)
	v, ok := s.ValueAt(day(2), true)
	if !ok || v.F != 2 {
		t.Fatalf("linear midpoint: %v", v)
	}
	st := floatSeq(t, InterpStep, true, true, 1, 1, 3, 3)
	v, ok = st.ValueAt(day(2), true)
	if !ok || v.F != 1 {
		t.Fatalf("step carries the left value: %v", v)
	}
	if _, ok := s.ValueAt(day(9), true); ok {
		t.Fatal("outside the period")
	}
}

func TestSequenceSetDisjointness(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3)
	b := floatSeq(t, InterpLinear, true, true, 2, 5, 4, 7)
	if _, err := NewSequenceSet([]*TSequence{a, b}, false); err == nil {
		t.Fatal("overlapping sequences must fail")
	}
}

func TestSequenceSetMergesAdjacent(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, false, 1, 1, 3, 3)
	b := floatSeq(t, InterpLinear, true, true, 3, 3, 5, 5)
	ss, err := NewSequenceSet([]*TSequence{a, b}, true)
	if err != nil {
		t.Fatal(err)
	}
	if ss.NumSequences() != 1 {
		t.Fatalf("adjacent equal-valued sequences must merge: %d", ss.NumSequences())
	}
}

func TestConversionMatrix(t *testing.T) {
	in := NewInstant(Float(4), day(1))
	seq, err := ToSequence(in, InterpLinear)
	if err != nil || seq.NumInstants() != 1 || !seq.LowerInc() || !seq.UpperInc() {
		t.Fatalf("instant to sequence: %v %v", seq, err)
	}
	back, err := ToInstant(seq)
	if err != nil || !back.Equal(in) {
		t.Fatalf("sequence back to instant: %v %v", back, err)
	}
	iset, err := ToInstantSet(floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3))
	if err != nil || iset.NumInstants() != 2 {
		t.Fatalf("sequence to instant set: %v %v", iset, err)
	}
	sset, err := ToSequenceSet(iset, InterpStep)
	if err != nil || sset.NumSequences() != 2 {
		t.Fatalf("instant set to sequence set: %v %v", sset, err)
	}
}

func TestShiftScaleRoundTrip(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3, 5, 9)
	shifted, err := ShiftScale(s, 3_600_000_000, 2)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ShiftScale(shifted, -3_600_000_000, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(back) {
		t.Fatalf("shift+scale round trip: %s vs %s", s, back)
	}
}

func TestStepToLinear(t *testing.T) {
	s := floatSeq(t, InterpStep, true, true, 1, 5, 3, 7, 5, 7)
	lin, err := StepToLinear(s)
	if err != nil {
		t.Fatal(err)
	}
	// piece [5@d1, 5@d3) then [7@d3, 7@d5]
	if lin.NumSequences() != 2 {
		t.Fatalf("expected 2 constant pieces, got %d: %s", lin.NumSequences(), lin)
	}
	first := lin.SequenceN(0)
	if first.UpperInc() {
		t.Fatal("first piece must be right-open at the step")
	}
	v, ok := lin.ValueAt(day(2), true)
	if !ok || v.F != 5 {
		t.Fatalf("value preserved: %v", v)
	}
	v, ok = lin.ValueAt(day(4), true)
	if !ok || v.F != 7 {
		t.Fatalf("value after step: %v", v)
	}
}

func TestMakeGaps(t *testing.T) {
	insts := []TInstant{
		{Val: Float(1), T: day(1)},
		{Val: Float(2), T: day(2)},
		{Val: Float(3), T: day(10)}, // 8-day gap
		{Val: Float(4), T: day(11)},
	}
	ss, err := MakeGaps(insts, InterpLinear, 0, 2*24*3_600_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if ss.NumSequences() != 2 {
		t.Fatalf("time gap must split: %d", ss.NumSequences())
	}
	// distance splitting
	ss, err = MakeGaps(insts, InterpLinear, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ss.NumSequences() != 4 {
		t.Fatalf("every value step exceeds 0.5: %d", ss.NumSequences())
	}
}

func TestAppendPromotes(t *testing.T) {
	in := NewInstant(Float(1), day(1))
	grown, err := Append(in, NewInstant(Float(2), day(2)), InterpLinear)
	if err != nil {
		t.Fatal(err)
	}
	if grown.Subtype() != SubSequence || grown.NumInstants() != 2 {
		t.Fatalf("instant append should promote to sequence: %v", grown)
	}
	disc, err := Append(in, NewInstant(Float(2), day(2)), InterpDiscrete)
	if err != nil {
		t.Fatal(err)
	}
	if disc.Subtype() != SubInstantSet {
		t.Fatalf("discrete append should promote to instant set: %v", disc)
	}
	if _, err := Append(grown, NewInstant(Float(0), day(1)), InterpLinear); err == nil {
		t.Fatal("append before the end must fail")
	}
}

func TestMergeConflict(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3)
	b := floatSeq(t, InterpLinear, true, true, 2, 100, 4, 200)
	if _, err := Merge(a, b); err == nil {
		t.Fatal("conflicting overlap must fail")
	}
	c := floatSeq(t, InterpLinear, true, true, 4, 4, 6, 6)
	m, err := Merge(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if m.Subtype() != SubSequenceSet {
		t.Fatalf("disjoint merge yields a sequence set: %v", m.Subtype())
	}
}

func TestValueAtPoints(t *testing.T) {
	s := pointSeq(t, 1, 0, 0, 2, 10, 10)
	v, ok := s.ValueAt(day(1)+(day(2)-day(1))/2, true)
	if !ok {
		t.Fatal("midpoint evaluation")
	}
	if !v.P.EqualEps(geo.MakePoint(5, 5), 1e-9) {
		t.Fatalf("interpolated point: %v", v.P)
	}
}

func TestTBoxOf(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 2, 3, 8)
	b, err := TBoxOf(s)
	if err != nil {
		t.Fatal(err)
	}
	if b.Value.Lower != 2 || b.Value.Upper != 8 || !b.Value.UpperInc {
		t.Fatalf("value axis: %v", b.Value)
	}
	if b.Time.LowerTS() != day(1) || b.Time.UpperTS() != day(3) {
		t.Fatalf("time axis: %v", b.Time)
	}
	if _, err := TBoxOf(NewInstant(Text("x"), day(1))); err == nil {
		t.Fatal("TBox of text must fail")
	}
}

func TestSTBoxOf(t *testing.T) {
	s := pointSeq(t, 1, 0, 5, 2, 10, -5)
	b, err := STBoxOf(s)
	if err != nil {
		t.Fatal(err)
	}
	if b.XMin != 0 || b.XMax != 10 || b.YMin != -5 || b.YMax != 5 {
		t.Fatalf("spatial axes: %+v", b)
	}
	if b.Time == nil || b.Time.LowerTS() != day(1) {
		t.Fatalf("time axis: %v", b.Time)
	}
}
