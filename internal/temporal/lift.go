package temporal

import (
	"fmt"
	"sort"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// LiftedOp describes a base-type binary function lifted to temporals. The
// framework synchronizes the operands on their shared time domain, inserts
// turning points so piecewise-linear results stay honest, and applies the
// base function at every synchronized instant.
type LiftedOp struct {
	// Apply evaluates the base function.
	Apply func(a, b Value) (Value, error)
	// ResType is the base type of the result.
	ResType BaseType
	// Discontinuous marks operators whose result can jump at a crossing
	// (comparisons); the result then uses step interpolation so a jump never
	// becomes a linear ramp.
	Discontinuous bool
	// TurningPoints returns candidate timestamps strictly inside
	// (lower, upper) at which the lifted result bends, given the operand
	// segment endpoint values.
	TurningPoints func(a1, a2, b1, b2 Value, lower, upper TS) []TS
	// InvertArgs swaps the operands before Apply.
	InvertArgs bool
}

// LiftBinary applies a lifted operator to two temporals. A disjoint time
// domain yields nil.
func LiftBinary(op LiftedOp, a, b Temporal) (Temporal, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil temporal operand", terrors.ErrInvalidArg)
	}
	if err := checkLiftOperands(a, b); err != nil {
		return nil, err
	}
	if op.InvertArgs {
		inner := op.Apply
		op.Apply = func(x, y Value) (Value, error) { return inner(y, x) }
		op.InvertArgs = false
		a, b = b, a
	}
	inter := a.Timespan().IntersectSet(b.Timespan())
	if inter.IsEmpty() {
		return nil, nil
	}

	// discrete result when either side is discrete
	if isDiscrete(a) || isDiscrete(b) {
		return liftDiscrete(op, a, b)
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
	if seqA.NumSequences() != seqB.NumSequences() {
		return nil, terrors.Invariant("lift-sync", "synchronized operands have %d vs %d fragments",
			seqA.NumSequences(), seqB.NumSequences())
	}
	var out []*TSequence
	for i := 0; i < seqA.NumSequences(); i++ {
		r, err := liftSequencePair(op, seqA.SequenceN(i), seqB.SequenceN(i))
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return asSequenceSetResult(out), nil
}

func isDiscrete(t Temporal) bool {
	return t.Subtype() == SubInstant || t.Subtype() == SubInstantSet
}

// liftDiscrete samples the operator at the shared discrete timestamps.
func liftDiscrete(op LiftedOp, a, b Temporal) (Temporal, error) {
	sampler := a
	if !isDiscrete(a) {
		sampler = b
	}
	var out []TInstant
	for _, in := range sampler.Instants() {
		av, ok := a.ValueAt(in.T, true)
		if !ok {
			continue
		}
		bv, ok := b.ValueAt(in.T, true)
		if !ok {
			continue
		}
		rv, err := op.Apply(av, bv)
		if err != nil {
			return nil, err
		}
		out = append(out, TInstant{Val: rv, T: in.T})
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return &TInstant{Val: out[0].Val, T: out[0].T}, nil
	default:
		return NewInstantSet(out)
	}
}

// liftSequencePair applies the operator over two sequences covering the same
// period.
func liftSequencePair(op LiftedOp, sa, sb *TSequence) (*TSequence, error) {
	times := mergeTimes(sa, sb)
	anyLinear := sa.interp == InterpLinear || sb.interp == InterpLinear
	if op.TurningPoints != nil && anyLinear {
		times = insertTurningPoints(op, sa, sb, times)
	}
	insts := make([]TInstant, 0, len(times))
	for _, t := range times {
		av, ok := sa.ValueAt(t, true)
		if !ok {
			return nil, terrors.Invariant("lift-eval", "timestamp %d outside synchronized operand", t)
		}
		bv, ok := sb.ValueAt(t, true)
		if !ok {
			return nil, terrors.Invariant("lift-eval", "timestamp %d outside synchronized operand", t)
		}
		rv, err := op.Apply(av, bv)
		if err != nil {
			return nil, err
		}
		insts = append(insts, TInstant{Val: rv, T: t})
	}
	interp := InterpStep
	if op.ResType.CanLinear() && anyLinear && !op.Discontinuous {
		interp = InterpLinear
	}
	return NewSequence(insts, sa.lowerInc, sa.upperInc, interp, true)
}

// mergeTimes merges the two instants' timestamp sets in ascending order.
func mergeTimes(sa, sb *TSequence) []TS {
	out := make([]TS, 0, len(sa.insts)+len(sb.insts))
	i, j := 0, 0
	for i < len(sa.insts) || j < len(sb.insts) {
		switch {
		case j >= len(sb.insts) || (i < len(sa.insts) && sa.insts[i].T < sb.insts[j].T):
			out = append(out, sa.insts[i].T)
			i++
		case i >= len(sa.insts) || sb.insts[j].T < sa.insts[i].T:
			out = append(out, sb.insts[j].T)
			j++
		default:
			out = append(out, sa.insts[i].T)
			i++
			j++
		}
	}
	return out
}

// insertTurningPoints asks the operator for bend timestamps on every
// synchronized segment and splices them into the timeline. Ties at the same
// timestamp keep input order.
func insertTurningPoints(op LiftedOp, sa, sb *TSequence, times []TS) []TS {
	var added []TS
	for i := 0; i+1 < len(times); i++ {
		lo, hi := times[i], times[i+1]
		a1, _ := sa.ValueAt(lo, true)
		b1, _ := sb.ValueAt(lo, true)
		// a step side holds its left value across the whole segment
		a2 := a1
		if sa.interp == InterpLinear {
			a2, _ = sa.ValueAt(hi, true)
		}
		b2 := b1
		if sb.interp == InterpLinear {
			b2, _ = sb.ValueAt(hi, true)
		}
		for _, tp := range op.TurningPoints(a1, a2, b1, b2, lo, hi) {
			if tp > lo && tp < hi {
				added = append(added, tp)
			}
		}
	}
	if len(added) == 0 {
		return times
	}
	times = append(times, added...)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	// drop duplicates introduced by coincident turning points
	out := times[:1]
	for _, t := range times[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

// checkLiftOperands allows number-with-number mixes and otherwise requires
// identical base types.
func checkLiftOperands(a, b Temporal) error {
	if a.BaseType().IsNumber() && b.BaseType().IsNumber() {
		return nil
	}
	return checkSameBase(a, b)
}

// MapValues lifts a unary base function pointwise, preserving structure and
// interpolation.
func MapValues(t Temporal, f func(Value) Value) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	switch v := t.(type) {
	case *TInstant:
		return &TInstant{Val: f(v.Val), T: v.T, srid: v.srid}, nil
	case *TInstantSet:
		insts := make([]TInstant, len(v.insts))
		for i, in := range v.insts {
			insts[i] = TInstant{Val: f(in.Val), T: in.T, srid: in.srid}
		}
		return NewInstantSet(insts)
	case *TSequence:
		insts := make([]TInstant, len(v.insts))
		for i, in := range v.insts {
			insts[i] = TInstant{Val: f(in.Val), T: in.T, srid: in.srid}
		}
		return NewSequence(insts, v.lowerInc, v.upperInc, v.interp, false)
	case *TSequenceSet:
		seqs := make([]*TSequence, len(v.seqs))
		for i := range v.seqs {
			m, err := MapValues(&v.seqs[i], f)
			if err != nil {
				return nil, err
			}
			seqs[i] = m.(*TSequence)
		}
		return NewSequenceSet(seqs, false)
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// tpNumberCrossing is the turning-point function for operators over numbers
// that bend where the operands cross (distance, absolute difference).
func tpNumberCrossing(a1, a2, b1, b2 Value, lower, upper TS) []TS {
	return tpComparisonCrossing(a1, a2, b1, b2, lower, upper)
}

// tpNumberMult is the turning-point function for the product of two linear
// numbers: the product is quadratic with an extremum at -b/2a.
func tpNumberMult(a1, a2, b1, b2 Value, lower, upper TS) []TS {
	// f = v1 + dv1 u, g = v2 + dv2 u; (fg)' = 0 at u = -(v1 dv2 + v2 dv1) / (2 dv1 dv2)
	v1, w1 := a1.Number(), a2.Number()
	v2, w2 := b1.Number(), b2.Number()
	dv1, dv2 := w1-v1, w2-v2
	den := 2 * dv1 * dv2
	if den == 0 {
		return nil
	}
	u := -(v1*dv2 + v2*dv1) / den
	if u <= 0 || u >= 1 {
		return nil
	}
	return []TS{fracToTS(lower, upper, u)}
}

// tpPointDistance is the turning-point function for the distance of two
// moving points: the squared distance quadratic has its minimum at -b/2a.
func tpPointDistance(a1, a2, b1, b2 Value, lower, upper TS) []TS {
	i1 := TInstant{Val: a1, T: lower}
	i2 := TInstant{Val: a2, T: upper}
	i3 := TInstant{Val: b1, T: lower}
	i4 := TInstant{Val: b2, T: upper}
	if ts, _, ok := distanceTurningPoint(i1, i2, i3, i4, lower, upper); ok {
		return []TS{ts}
	}
	return nil
}

// tpComparisonCrossing is the turning-point function for comparisons of
// linear numbers: the truth value can only flip where the operand segments
// intersect.
func tpComparisonCrossing(a1, a2, b1, b2 Value, lower, upper TS) []TS {
	sg1 := segment{a: TInstant{Val: a1, T: lower}, b: TInstant{Val: a2, T: upper},
		lowerInc: true, upperInc: true, interp: InterpLinear}
	sg2 := segment{a: TInstant{Val: b1, T: lower}, b: TInstant{Val: b2, T: upper},
		lowerInc: true, upperInc: true, interp: InterpLinear}
	ts, kind := sg1.intersectSegment(sg2)
	if kind != segHitAt || ts <= lower || ts >= upper {
		return nil
	}
	return []TS{ts}
}
