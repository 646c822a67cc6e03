package temporal

import (
	"fmt"
	"math"

	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Temporal distance and the within-radius predicate. For linear moving
// points the distance between turning points is treated as piecewise linear;
// the turning point itself is the quadratic-minimum timestamp, so the
// approximation never misses an extremum.

// TDistance returns the temporal distance between two temporals of the same
// base type as a temporal float.
func TDistance(a, b Temporal) (Temporal, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil temporal operand", terrors.ErrInvalidArg)
	}
	op := LiftedOp{
		Apply: func(x, y Value) (Value, error) {
			if x.Type.IsPoint() != y.Type.IsPoint() {
				return Value{}, fmt.Errorf("%w: distance over %s and %s", terrors.ErrTypeMismatch, x.Type, y.Type)
			}
			return Float(x.Distance(y)), nil
		},
		ResType: BTFloat,
	}
	if a.BaseType().IsPoint() {
		op.TurningPoints = tpPointDistance
	} else {
		op.TurningPoints = tpNumberCrossing
	}
	return LiftBinary(op, a, b)
}

// TDistanceValue returns the temporal distance between a temporal and a
// constant value (a number or a fixed point).
func TDistanceValue(t Temporal, v Value) (Temporal, error) {
	c, err := ConstLike(t, v)
	if err != nil {
		return nil, err
	}
	return TDistance(t, c)
}

// ConstLike builds a temporal with t's time structure holding the constant v.
func ConstLike(t Temporal, v Value) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	return MapValues(t, func(Value) Value { return v })
}

// NearestApproachDistance returns the minimum of the temporal distance, or
// +Inf when the time domains are disjoint.
func NearestApproachDistance(a, b Temporal) (float64, error) {
	d, err := TDistance(a, b)
	if err != nil {
		return 0, err
	}
	if d == nil {
		return math.Inf(1), nil
	}
	v, ok := d.MinValue()
	if !ok {
		return 0, terrors.Invariant("nad", "distance result has no order")
	}
	return v.F, nil
}

// NearestApproachInstant returns the first instant realizing the nearest
// approach distance.
func NearestApproachInstant(a, b Temporal) (*TInstant, error) {
	d, err := TDistance(a, b)
	if err != nil || d == nil {
		return nil, err
	}
	at, err := AtMin(d)
	if err != nil || at == nil {
		return nil, err
	}
	return ToInstant(at)
}

// ShortestLine returns the 2-point geometry connecting the positions of two
// temporal points at their nearest approach instant.
func ShortestLine(a, b Temporal) (geo.Geom, error) {
	if a == nil || b == nil || !a.BaseType().IsPoint() || !b.BaseType().IsPoint() {
		return geo.Geom{}, fmt.Errorf("%w: shortest line needs two temporal points", terrors.ErrTypeMismatch)
	}
	nai, err := NearestApproachInstant(a, b)
	if err != nil {
		return geo.Geom{}, err
	}
	if nai == nil {
		return geo.Geom{}, nil
	}
	pa, ok := a.ValueAt(nai.T, true)
	if !ok {
		return geo.Geom{}, terrors.Invariant("shortestline", "NAI outside operand domain")
	}
	pb, ok := b.ValueAt(nai.T, true)
	if !ok {
		return geo.Geom{}, terrors.Invariant("shortestline", "NAI outside operand domain")
	}
	return geo.MakeLine([]geo.Point{pa.P, pb.P}, a.SRID()), nil
}

// TDWithin returns the temporal boolean that is true exactly while the
// distance between two temporal points is within d. The per-segment solver
// yields zero, one or two crossing timestamps; the closed interval between
// two crossings is inside the disk.
func TDWithin(a, b Temporal, d float64) (Temporal, error) {
	if err := checkSameBase(a, b); err != nil {
		return nil, err
	}
	if !a.BaseType().IsPoint() {
		return nil, fmt.Errorf("%w: tdwithin needs temporal points", terrors.ErrTypeMismatch)
	}
	if d < 0 {
		return nil, fmt.Errorf("%w: negative distance %v", terrors.ErrInvalidArg, d)
	}
	if isDiscrete(a) || isDiscrete(b) {
		return LiftBinary(LiftedOp{
			Apply: func(x, y Value) (Value, error) {
				return Bool(x.Distance(y) <= d), nil
			},
			ResType:       BTBool,
			Discontinuous: true,
		}, a, b)
	}
	inter := a.Timespan().IntersectSet(b.Timespan())
	if inter.IsEmpty() {
		return nil, nil
	}
	ra, err := AtPeriodSet(a, inter)
	if err != nil {
		return nil, err
	}
	rb, err := AtPeriodSet(b, inter)
	if err != nil {
		return nil, err
	}
	seqA, err := ToSequenceSet(ra, ra.Interpolation())
	if err != nil {
		return nil, err
	}
	seqB, err := ToSequenceSet(rb, rb.Interpolation())
	if err != nil {
		return nil, err
	}
	var out []*TSequence
	for i := 0; i < seqA.NumSequences(); i++ {
		seqs, err := tdwithinSeqPair(seqA.SequenceN(i), seqB.SequenceN(i), d)
		if err != nil {
			return nil, err
		}
		out = append(out, seqs...)
	}
	if len(out) == 0 {
		return nil, nil
	}
	ss, err := NewSequenceSet(out, true)
	if err != nil {
		return nil, err
	}
	if len(ss.seqs) == 1 {
		return &ss.seqs[0], nil
	}
	return ss, nil
}

// tdwithinSeqPair solves dwithin on every synchronized segment pair of two
// sequences covering the same period.
func tdwithinSeqPair(sa, sb *TSequence, d float64) ([]*TSequence, error) {
	times := mergeTimes(sa, sb)
	if len(times) == 1 {
		av, _ := sa.ValueAt(times[0], true)
		bv, _ := sb.ValueAt(times[0], true)
		seq, err := NewSequence([]TInstant{{Val: Bool(av.Distance(bv) <= d), T: times[0]}},
			true, true, InterpStep, false)
		if err != nil {
			return nil, err
		}
		return []*TSequence{seq}, nil
	}
	var out []*TSequence
	for i := 0; i+1 < len(times); i++ {
		lower, upper := times[i], times[i+1]
		lowerInc := true
		if i == 0 {
			lowerInc = sa.lowerInc
		}
		last := i == len(times)-2
		upperInc := false
		if last {
			upperInc = sa.upperInc
		}
		sv1, _ := sa.ValueAt(lower, true)
		sv2, _ := sb.ValueAt(lower, true)
		ev1, ev2 := sv1, sv2
		if sa.interp == InterpLinear {
			v, _ := sa.ValueAt(upper, true)
			ev1 = v
		}
		if sb.interp == InterpLinear {
			v, _ := sb.ValueAt(upper, true)
			ev2 = v
		}
		t1, t2, n := DWithinSegment(sv1.P, ev1.P, sv2.P, ev2.P, lower, upper, d)
		seqs, err := assembleDWithin(n, lower, upper, lowerInc, upperInc, t1, t2)
		if err != nil {
			return nil, err
		}
		out = append(out, seqs...)
		// a step side changes value exactly at the upper sample
		if last && upperInc && (sa.interp == InterpStep || sb.interp == InterpStep) {
			av, _ := sa.ValueAt(upper, true)
			bv, _ := sb.ValueAt(upper, true)
			endVal := av.Distance(bv) <= d
			prev := out[len(out)-1]
			if prev.EndInstant().Val.B != endVal {
				trimmed, err := NewSequence(prev.insts, prev.lowerInc, false, InterpStep, false)
				if err != nil {
					return nil, err
				}
				endSeq, err := NewSequence([]TInstant{{Val: Bool(endVal), T: upper}},
					true, true, InterpStep, false)
				if err != nil {
					return nil, err
				}
				out[len(out)-1] = trimmed
				out = append(out, endSeq)
			}
		}
	}
	return out, nil
}

// assembleDWithin builds the boolean step sequences for one segment from the
// solver's solution count, honoring the crossing-ownership convention: the
// within side owns the crossing timestamps.
func assembleDWithin(n int, lower, upper TS, lowerInc, upperInc bool, t1, t2 TS) ([]*TSequence, error) {
	f, tr := Bool(false), Bool(true)
	mk := func(insts []TInstant, lo, hi bool) (*TSequence, error) {
		return NewSequence(insts, lo, hi, InterpStep, false)
	}
	// entirely outside, or a touch exactly on an excluded bound
	if n == 0 ||
		(n == 1 && ((t1 == lower && !lowerInc) || (t1 == upper && !upperInc))) {
		s, err := mk([]TInstant{{Val: f, T: lower}, {Val: f, T: upper}}, lowerInc, upperInc)
		if err != nil {
			return nil, err
		}
		return []*TSequence{s}, nil
	}
	if n == 1 {
		t2 = t1
	}
	var out []*TSequence
	var insts []TInstant
	if t1 != lower {
		insts = append(insts, TInstant{Val: f, T: lower})
	}
	insts = append(insts, TInstant{Val: tr, T: t1})
	if n == 2 && t2 != t1 {
		insts = append(insts, TInstant{Val: tr, T: t2})
	}
	firstUpper := upperInc
	if t2 != upper {
		firstUpper = true
	}
	s, err := mk(insts, lowerInc, firstUpper)
	if err != nil {
		return nil, err
	}
	out = append(out, s)
	if t2 != upper {
		rest, err := mk([]TInstant{{Val: f, T: t2}, {Val: f, T: upper}}, false, upperInc)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, nil
}
