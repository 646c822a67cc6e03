package temporal

import (
	"testing"

	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/span"
)

func TestAtValueLinearCrossing(t *testing.T) {
	// at([1@2020-01-01, 3@2020-01-03], 2) is the instant 2@2020-01-02
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3)
	r, err := AtValue(s, Float(2))
	if err != nil {
		t.Fatal(err)
	}
	if r == nil {
		t.Fatal("crossing must be found")
	}
	insts := r.Instants()
	if len(insts) != 1 {
		t.Fatalf("expected a single crossing instant: %v", r)
	}
	if insts[0].T != day(2) {
		t.Fatalf("crossing at %v want %v", insts[0].T, day(2))
	}
	if insts[0].Val.F != 2 {
		t.Fatalf("crossing carries exactly the restrictor value: %v", insts[0].Val)
	}
}

func TestAtValueIdempotent(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3, 5, 1)
	once, err := AtValue(s, Float(2))
	if err != nil || once == nil {
		t.Fatalf("at: %v %v", once, err)
	}
	twice, err := AtValue(once, Float(2))
	if err != nil || twice == nil {
		t.Fatalf("at twice: %v %v", twice, err)
	}
	if !once.Equal(twice) {
		t.Fatalf("idempotence: %s vs %s", once, twice)
	}
}

func TestMinusValuesEmpty(t *testing.T) {
	// minus([1@t1, 1@t2, 1@t3], {1, 2}) is empty
	iset, err := NewInstantSet([]TInstant{
		{Val: Float(1), T: day(1)},
		{Val: Float(1), T: day(2)},
		{Val: Float(1), T: day(3)},
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := MinusValues(iset, []Value{Float(1), Float(2)})
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Fatalf("expected empty result, got %v", r)
	}
}

func TestAtMinusPartition(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 0, 5, 8)
	sp, _ := span.Make(2, 6, true, true, span.Float)
	at, err := AtSpan(s, sp)
	if err != nil || at == nil {
		t.Fatalf("at span: %v %v", at, err)
	}
	minus, err := MinusSpan(s, sp)
	if err != nil || minus == nil {
		t.Fatalf("minus span: %v %v", minus, err)
	}
	// time(at) union time(minus) must cover time(s)
	union, err := at.Timespan().UnionSet(minus.Timespan())
	if err != nil {
		t.Fatal(err)
	}
	if !union.Equal(s.Timespan()) {
		t.Fatalf("partition: %s + %s != %s", at.Timespan(), minus.Timespan(), s.Timespan())
	}
	// and the boundary crossings belong to the at side
	inter := at.Timespan().IntersectSet(minus.Timespan())
	if !inter.IsEmpty() {
		t.Fatalf("at and minus overlap on %s", inter)
	}
}

func TestAtSpanUnionDistributes(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 0, 5, 8)
	sp1, _ := span.Make(1, 3, true, true, span.Float)
	sp2, _ := span.Make(3, 6, false, true, span.Float)
	both, _ := span.MakeSet([]span.Span{sp1, sp2})

	viaSet, err := AtSpanSet(s, both)
	if err != nil || viaSet == nil {
		t.Fatalf("at span set: %v %v", viaSet, err)
	}
	at1, _ := AtSpan(s, sp1)
	at2, _ := AtSpan(s, sp2)
	merged, err := Merge(at1, at2)
	if err != nil {
		t.Fatal(err)
	}
	if !viaSet.Timespan().Equal(merged.Timespan()) {
		t.Fatalf("at distributes over span union: %s vs %s",
			viaSet.Timespan(), merged.Timespan())
	}
}

func TestAtTimestampInterpolates(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3)
	r, err := AtTimestamp(s, day(2))
	if err != nil || r == nil {
		t.Fatalf("at timestamp: %v %v", r, err)
	}
	if v := r.Instants()[0].Val.F; v != 2 {
		t.Fatalf("interpolated value %v", v)
	}
	if r2, _ := AtTimestamp(s, day(9)); r2 != nil {
		t.Fatal("outside period must be empty")
	}
}

func TestMinusTimestampSplits(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 3, 3)
	r, err := MinusTimestamp(s, day(2))
	if err != nil || r == nil {
		t.Fatalf("minus timestamp: %v %v", r, err)
	}
	ss, ok := r.(*TSequenceSet)
	if !ok || ss.NumSequences() != 2 {
		t.Fatalf("cut must split the sequence: %v", r)
	}
	if ss.SequenceN(0).UpperInc() || ss.SequenceN(1).LowerInc() {
		t.Fatal("cut timestamp must be excluded on both sides")
	}
	if ss.Timespan().ContainsTS(day(2)) {
		t.Fatal("cut timestamp still present")
	}
}

func TestAtPeriodBounds(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 1, 5, 9)
	p := span.MustPeriod(day(2), day(4), true, false)
	r, err := AtPeriod(s, p)
	if err != nil || r == nil {
		t.Fatalf("at period: %v %v", r, err)
	}
	seq := r.(*TSequence)
	if !seq.LowerInc() || seq.UpperInc() {
		t.Fatal("restriction preserves the period's inclusivity")
	}
	v, ok := seq.ValueAt(day(2), true)
	if !ok || v.F != 3 {
		t.Fatalf("synthesized boundary value: %v", v)
	}
}

func TestAtTBox(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 0, 5, 8)
	vs, _ := span.Make(2, 6, true, true, span.Float)
	ts := span.MustPeriod(day(1), day(4), true, true)
	b, _ := box.MakeTBox(&vs, &ts)
	r, err := AtTBox(s, b)
	if err != nil || r == nil {
		t.Fatalf("at tbox: %v %v", r, err)
	}
	// values 2..6 are attained on days 2..4; clipped at day 4 by the box time
	hull, _ := r.Timespan().Hull()
	if hull.LowerTS() != day(2) || hull.UpperTS() != day(4) {
		t.Fatalf("tbox restriction window: %s", hull)
	}
}

func TestAtMinMax(t *testing.T) {
	s := floatSeq(t, InterpLinear, true, true, 1, 3, 3, 1, 5, 7)
	atMin, err := AtMin(s)
	if err != nil || atMin == nil {
		t.Fatalf("at min: %v %v", atMin, err)
	}
	if atMin.Instants()[0].T != day(3) {
		t.Fatalf("minimum at day 3: %v", atMin)
	}
	atMax, err := AtMax(s)
	if err != nil || atMax == nil {
		t.Fatalf("at max: %v %v", atMax, err)
	}
	if atMax.Instants()[0].T != day(5) {
		t.Fatalf("maximum at day 5: %v", atMax)
	}
}

func TestStepAtValueBoundaryConvention(t *testing.T) {
	// step [5@d1, 7@d3, 7@d5]: value 5 holds on [d1, d3), 7 on [d3, d5]
	s := floatSeq(t, InterpStep, true, true, 1, 5, 3, 7, 5, 7)
	at5, err := AtValue(s, Float(5))
	if err != nil || at5 == nil {
		t.Fatalf("at 5: %v %v", at5, err)
	}
	hull, _ := at5.Timespan().Hull()
	if hull.UpperTS() != day(3) || hull.UpperInc {
		t.Fatalf("step change at d3 belongs to the new value: %s", hull)
	}
	at7, err := AtValue(s, Float(7))
	if err != nil || at7 == nil {
		t.Fatalf("at 7: %v %v", at7, err)
	}
	hull7, _ := at7.Timespan().Hull()
	if hull7.LowerTS() != day(3) || !hull7.LowerInc {
		t.Fatalf("the right side of the step owns d3: %s", hull7)
	}
}
