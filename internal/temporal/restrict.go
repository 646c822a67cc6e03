package temporal

import (
	"fmt"
	"math"

	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Restriction engine. At* returns the portion of a temporal satisfying the
// restrictor, Minus* the complement within the original time domain. An
// empty or non-matching restriction returns nil, not an error.
//
// Boundary convention for synthesized crossings: the at side owns the
// crossing instant and the minus side excludes it. Step interpolation flips
// the convention at value changes because the right side of a step carries
// the new value; that falls out of the half-open spans the step scan emits.

// AtPeriod restricts to one time span.
func AtPeriod(t Temporal, p span.Span) (Temporal, error) {
	return AtPeriodSet(t, span.FromSpan(p))
}

// AtPeriodSet restricts to a set of time spans.
func AtPeriodSet(t Temporal, ss span.SpanSet) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if ss.IsEmpty() {
		return nil, nil
	}
	switch v := t.(type) {
	case *TInstant:
		if ss.ContainsTS(v.T) {
			return v, nil
		}
		return nil, nil
	case *TInstantSet:
		var keep []TInstant
		for _, in := range v.insts {
			if ss.ContainsTS(in.T) {
				keep = append(keep, in)
			}
		}
		if len(keep) == 0 {
			return nil, nil
		}
		return NewInstantSet(keep)
	case *TSequence:
		return asSequenceSetResult(v.restrictPeriodSet(ss)), nil
	case *TSequenceSet:
		var out []*TSequence
		for i := range v.seqs {
			out = append(out, v.seqs[i].restrictPeriodSet(ss)...)
		}
		return asSequenceSetResult(out), nil
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// MinusPeriod removes one time span.
func MinusPeriod(t Temporal, p span.Span) (Temporal, error) {
	return MinusPeriodSet(t, span.FromSpan(p))
}

// MinusPeriodSet removes a set of time spans.
func MinusPeriodSet(t Temporal, ss span.SpanSet) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	comp := t.Timespan().MinusSet(ss)
	if comp.IsEmpty() {
		return nil, nil
	}
	return AtPeriodSet(t, comp)
}

// AtTimestamp restricts to a single timestamp.
func AtTimestamp(t Temporal, ts TS) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	v, ok := t.ValueAt(ts, true)
	if !ok {
		return nil, nil
	}
	return &TInstant{Val: v, T: ts, srid: t.SRID()}, nil
}

// MinusTimestamp removes a single timestamp, splitting sequences with
// exclusive bounds at the cut.
func MinusTimestamp(t Temporal, ts TS) (Temporal, error) {
	return MinusPeriodSet(t, span.FromSpan(span.Instant(ts)))
}

// AtTimestampSet restricts to a set of timestamps, producing a discrete
// result.
func AtTimestampSet(t Temporal, tss []TS) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	var keep []TInstant
	for _, ts := range tss {
		if v, ok := t.ValueAt(ts, true); ok {
			keep = append(keep, TInstant{Val: v, T: ts, srid: t.SRID()})
		}
	}
	switch len(keep) {
	case 0:
		return nil, nil
	case 1:
		return &TInstant{Val: keep[0].Val, T: keep[0].T, srid: keep[0].srid}, nil
	default:
		return NewInstantSet(keep)
	}
}

// MinusTimestampSet removes every given timestamp.
func MinusTimestampSet(t Temporal, tss []TS) (Temporal, error) {
	spans := make([]span.Span, len(tss))
	for i, ts := range tss {
		spans[i] = span.Instant(ts)
	}
	ss, err := span.MakeSet(spans)
	if err != nil {
		return nil, err
	}
	return MinusPeriodSet(t, ss)
}

// AtValue restricts to the timestamps at which the temporal equals v. Under
// linear interpolation the result may contain synthesized crossing instants
// carrying exactly v.
func AtValue(t Temporal, v Value) (Temporal, error) {
	if err := checkRestrictorType(t, v); err != nil {
		return nil, err
	}
	if t.BaseType() != v.Type {
		// a cross-type number is boxed through Float and matched as a float
		x := v.Number()
		switch {
		case t.BaseType() == BTFloat:
			v = Float(x)
		case x == math.Trunc(x):
			v = Int(int64(x))
		default:
			return nil, nil
		}
	}
	switch tv := t.(type) {
	case *TInstant:
		if tv.Val.Equal(v) {
			return tv, nil
		}
		return nil, nil
	case *TInstantSet:
		var keep []TInstant
		for _, in := range tv.insts {
			if in.Val.Equal(v) {
				keep = append(keep, in)
			}
		}
		if len(keep) == 0 {
			return nil, nil
		}
		return NewInstantSet(keep)
	case *TSequence, *TSequenceSet:
		spans := collectValueSpans(t, func(sg segment) []span.Span { return sg.atValueSpans(v) })
		ss, err := span.MakeSet(spans)
		if err != nil || ss.IsEmpty() {
			return nil, err
		}
		r, err := AtPeriodSet(t, ss)
		if err != nil {
			return nil, err
		}
		return snapValue(r, v), nil
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// MinusValue removes the timestamps at which the temporal equals v.
func MinusValue(t Temporal, v Value) (Temporal, error) {
	at, err := AtValue(t, v)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// AtValues restricts to a set of values.
func AtValues(t Temporal, vs []Value) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	var spans []span.Span
	var kept []TInstant
	discrete := t.Subtype() == SubInstant || t.Subtype() == SubInstantSet
	for _, v := range vs {
		at, err := AtValue(t, v)
		if err != nil {
			return nil, err
		}
		if at == nil {
			continue
		}
		if discrete {
			kept = append(kept, at.Instants()...)
			continue
		}
		spans = append(spans, at.Timespan().Spans...)
	}
	if discrete {
		switch len(kept) {
		case 0:
			return nil, nil
		case 1:
			return &TInstant{Val: kept[0].Val, T: kept[0].T, srid: kept[0].srid}, nil
		default:
			return NewInstantSet(kept)
		}
	}
	ss, err := span.MakeSet(spans)
	if err != nil || ss.IsEmpty() {
		return nil, err
	}
	return AtPeriodSet(t, ss)
}

// MinusValues removes a set of values.
func MinusValues(t Temporal, vs []Value) (Temporal, error) {
	at, err := AtValues(t, vs)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// AtSpan restricts a temporal number to a value span.
func AtSpan(t Temporal, sp span.Span) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if !t.BaseType().IsNumber() {
		return nil, fmt.Errorf("%w: value-span restriction on %s", terrors.ErrTypeMismatch, t.BaseType())
	}
	switch tv := t.(type) {
	case *TInstant:
		if sp.ContainsValue(tv.Val.Number()) {
			return tv, nil
		}
		return nil, nil
	case *TInstantSet:
		var keep []TInstant
		for _, in := range tv.insts {
			if sp.ContainsValue(in.Val.Number()) {
				keep = append(keep, in)
			}
		}
		if len(keep) == 0 {
			return nil, nil
		}
		return NewInstantSet(keep)
	case *TSequence, *TSequenceSet:
		spans := collectValueSpans(t, func(sg segment) []span.Span { return sg.atSpanSpans(sp) })
		ss, err := span.MakeSet(spans)
		if err != nil || ss.IsEmpty() {
			return nil, err
		}
		return AtPeriodSet(t, ss)
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// MinusSpan removes a value span.
func MinusSpan(t Temporal, sp span.Span) (Temporal, error) {
	at, err := AtSpan(t, sp)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// AtSpanSet restricts to a set of value spans.
func AtSpanSet(t Temporal, ss span.SpanSet) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	var spans []span.Span
	var kept []TInstant
	discrete := t.Subtype() == SubInstant || t.Subtype() == SubInstantSet
	for _, sp := range ss.Spans {
		at, err := AtSpan(t, sp)
		if err != nil {
			return nil, err
		}
		if at == nil {
			continue
		}
		if discrete {
			kept = append(kept, at.Instants()...)
			continue
		}
		spans = append(spans, at.Timespan().Spans...)
	}
	if discrete {
		switch len(kept) {
		case 0:
			return nil, nil
		case 1:
			return &TInstant{Val: kept[0].Val, T: kept[0].T, srid: kept[0].srid}, nil
		default:
			return NewInstantSet(kept)
		}
	}
	tss, err := span.MakeSet(spans)
	if err != nil || tss.IsEmpty() {
		return nil, err
	}
	return AtPeriodSet(t, tss)
}

// MinusSpanSet removes a set of value spans.
func MinusSpanSet(t Temporal, ss span.SpanSet) (Temporal, error) {
	at, err := AtSpanSet(t, ss)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// AtTBox restricts a temporal number to a value x time box.
func AtTBox(t Temporal, b box.TBox) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	cur := t
	var err error
	if b.HasTime() {
		cur, err = AtPeriod(cur, *b.Time)
		if err != nil || cur == nil {
			return nil, err
		}
	}
	if b.HasValue() {
		cur, err = AtSpan(cur, *b.Value)
		if err != nil || cur == nil {
			return nil, err
		}
	}
	return cur, nil
}

// MinusTBox removes a value x time box.
func MinusTBox(t Temporal, b box.TBox) (Temporal, error) {
	at, err := AtTBox(t, b)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// AtMin restricts to the timestamps at which the temporal attains its
// minimum value.
func AtMin(t Temporal) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	v, ok := t.MinValue()
	if !ok {
		return nil, fmt.Errorf("%w: base type %s has no order", terrors.ErrTypeMismatch, t.BaseType())
	}
	return AtValue(t, v)
}

// AtMax restricts to the maximum value.
func AtMax(t Temporal) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	v, ok := t.MaxValue()
	if !ok {
		return nil, fmt.Errorf("%w: base type %s has no order", terrors.ErrTypeMismatch, t.BaseType())
	}
	return AtValue(t, v)
}

// MinusMin removes the minimum value's timestamps.
func MinusMin(t Temporal) (Temporal, error) {
	at, err := AtMin(t)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// MinusMax removes the maximum value's timestamps.
func MinusMax(t Temporal) (Temporal, error) {
	at, err := AtMax(t)
	if err != nil {
		return nil, err
	}
	return minusOf(t, at)
}

// minusOf restricts t to the complement of at's time projection.
func minusOf(t Temporal, at Temporal) (Temporal, error) {
	var atTS span.SpanSet
	if at != nil {
		atTS = at.Timespan()
	}
	comp := t.Timespan().MinusSet(atTS)
	if comp.IsEmpty() {
		return nil, nil
	}
	return AtPeriodSet(t, comp)
}

func checkRestrictorType(t Temporal, v Value) error {
	if t == nil {
		return fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if t.BaseType() != v.Type {
		// numbers compare across int/float through Float boxing
		if t.BaseType().IsNumber() && v.Type.IsNumber() {
			return nil
		}
		return fmt.Errorf("%w: %s temporal vs %s restrictor", terrors.ErrTypeMismatch, t.BaseType(), v.Type)
	}
	return nil
}

// collectValueSpans maps a per-segment span generator over all sequences of
// a sequence-like temporal.
func collectValueSpans(t Temporal, f func(segment) []span.Span) []span.Span {
	var seqs []*TSequence
	switch v := t.(type) {
	case *TSequence:
		seqs = []*TSequence{v}
	case *TSequenceSet:
		seqs = v.Sequences()
	}
	var out []span.Span
	for _, s := range seqs {
		for _, sg := range s.segments() {
			out = append(out, f(sg)...)
		}
	}
	return out
}

// atValueSpans returns the time spans (possibly degenerate) on which the
// segment equals v.
func (sg segment) atValueSpans(v Value) []span.Span {
	var out []span.Span
	// under step interpolation the end instant is its own sample
	if sg.interp == InterpStep && sg.a.T != sg.b.T && sg.upperInc && sg.b.Val.Equal(v) {
		out = append(out, span.Instant(sg.b.T))
	}
	ts, kind := sg.intersectValue(v)
	switch kind {
	case segHitWhole:
		upperInc := sg.upperInc
		if sg.interp == InterpStep && sg.a.T != sg.b.T {
			// the right side of a step carries the next value
			upperInc = false
		}
		p, err := span.MakePeriod(sg.a.T, sg.b.T, sg.lowerInc, upperInc || sg.a.T == sg.b.T)
		if err == nil {
			out = append(out, p)
		}
	case segHitAt:
		if !((ts == sg.a.T && !sg.lowerInc) || (ts == sg.b.T && !sg.upperInc)) {
			out = append(out, span.Instant(ts))
		}
	}
	return out
}

// atSpanSpans returns the time spans on which the segment's numeric value
// lies inside sp.
func (sg segment) atSpanSpans(sp span.Span) []span.Span {
	v1 := sg.a.Val.Number()
	v2 := sg.b.Val.Number()
	if sg.interp == InterpStep || v1 == v2 {
		var out []span.Span
		if sg.interp == InterpStep && sg.a.T != sg.b.T && sg.upperInc && sp.ContainsValue(v2) {
			out = append(out, span.Instant(sg.b.T))
		}
		if !sp.ContainsValue(v1) {
			return out
		}
		upperInc := sg.upperInc
		if sg.interp == InterpStep && sg.a.T != sg.b.T {
			upperInc = false
		}
		p, err := span.MakePeriod(sg.a.T, sg.b.T, sg.lowerInc, upperInc || sg.a.T == sg.b.T)
		if err == nil {
			out = append(out, p)
		}
		return out
	}
	// linear, strictly monotone on the segment
	asc := v2 > v1
	segLo, segHi := math.Min(v1, v2), math.Max(v1, v2)
	cutLo, cutHi := math.Max(sp.Lower, segLo), math.Min(sp.Upper, segHi)
	if cutLo > cutHi {
		return nil
	}
	timeOf := func(val float64) TS {
		return fracToTS(sg.a.T, sg.b.T, (val-v1)/(v2-v1))
	}
	// inclusivity of the value cut on each side
	loInc := true
	if cutLo == sp.Lower {
		loInc = sp.LowerInc
	}
	hiInc := true
	if cutHi == sp.Upper {
		hiInc = sp.UpperInc
	}
	var tLo, tHi TS
	var tLoInc, tHiInc bool
	if asc {
		tLo, tLoInc = timeOf(cutLo), loInc
		tHi, tHiInc = timeOf(cutHi), hiInc
	} else {
		tLo, tLoInc = timeOf(cutHi), hiInc
		tHi, tHiInc = timeOf(cutLo), loInc
	}
	// clip to the segment's own bound inclusivity
	if tLo == sg.a.T {
		tLoInc = tLoInc && sg.lowerInc
	}
	if tHi == sg.b.T {
		tHiInc = tHiInc && sg.upperInc
	}
	if tLo == tHi && !(tLoInc && tHiInc) {
		return nil
	}
	p, err := span.MakePeriod(tLo, tHi, tLoInc, tHiInc)
	if err != nil {
		return nil
	}
	return []span.Span{p}
}

// snapValue forces synthesized crossing instants in an at-value result to
// carry exactly v rather than a re-interpolated approximation.
func snapValue(t Temporal, v Value) Temporal {
	switch tv := t.(type) {
	case nil:
		return nil
	case *TInstant:
		return &TInstant{Val: v, T: tv.T, srid: tv.srid}
	case *TSequence:
		return snapSeq(tv, v)
	case *TSequenceSet:
		seqs := make([]*TSequence, len(tv.seqs))
		for i := range tv.seqs {
			seqs[i] = snapSeq(&tv.seqs[i], v)
		}
		ss, err := NewSequenceSet(seqs, false)
		if err != nil {
			return t
		}
		return ss
	}
	return t
}

func snapSeq(s *TSequence, v Value) *TSequence {
	insts := make([]TInstant, len(s.insts))
	for i, in := range s.insts {
		if in.Val.Equal(v) {
			in.Val = v
		}
		insts[i] = in
	}
	return &TSequence{insts: insts, lowerInc: s.lowerInc, upperInc: s.upperInc,
		interp: s.interp, srid: s.srid}
}
