package temporal

import (
	"fmt"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Conversions degenerate (picking a representative) or promote as needed.
// The one conversion that fails is ToSequence of a sequence set with more
// than one sequence, which returns ErrNotContiguous.

// ToInstant converts to an instant. Multi-instant inputs degenerate to their
// start instant.
func ToInstant(t Temporal) (*TInstant, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	in := t.Instants()[0]
	return &TInstant{Val: in.Val, T: in.T, srid: t.SRID()}, nil
}

// ToInstantSet converts to an instant set over the input's samples.
func ToInstantSet(t Temporal) (*TInstantSet, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	return NewInstantSet(t.Instants())
}

// ToSequence converts to a single sequence with the given interpolation.
// An instant promotes to a singleton sequence with inclusive bounds.
func ToSequence(t Temporal, interp Interp) (*TSequence, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	switch v := t.(type) {
	case *TInstant:
		return NewSequence([]TInstant{{Val: v.Val, T: v.T, srid: v.srid}}, true, true, interp, false)
	case *TInstantSet:
		return NewSequence(v.insts, true, true, interp, false)
	case *TSequence:
		if v.interp == interp {
			return v, nil
		}
		return NewSequence(v.insts, v.lowerInc, v.upperInc, interp, false)
	case *TSequenceSet:
		if len(v.seqs) == 1 {
			return ToSequence(&v.seqs[0], interp)
		}
		return nil, fmt.Errorf("%w: sequence set with %d sequences is not contiguous",
			terrors.ErrNotContiguous, len(v.seqs))
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// ToSequenceSet converts to a sequence set. Discrete inputs become singleton
// sequences per sample.
func ToSequenceSet(t Temporal, interp Interp) (*TSequenceSet, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	switch v := t.(type) {
	case *TInstant, *TInstantSet:
		var seqs []*TSequence
		for _, in := range t.Instants() {
			s, err := NewSequence([]TInstant{in}, true, true, interp, false)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, s)
		}
		return NewSequenceSet(seqs, false)
	case *TSequence:
		return NewSequenceSet([]*TSequence{v}, false)
	case *TSequenceSet:
		return v, nil
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// StepToLinear rewrites a step sequence as a linear sequence set: each step
// segment [v@t1, v@t2) becomes a constant linear piece with the same value
// at both ends.
func StepToLinear(s *TSequence) (*TSequenceSet, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil sequence", terrors.ErrInvalidArg)
	}
	if !s.BaseType().CanLinear() {
		return nil, fmt.Errorf("%w: %s does not support linear interpolation",
			terrors.ErrInvalidArg, s.BaseType())
	}
	if s.interp == InterpLinear {
		return NewSequenceSet([]*TSequence{s}, false)
	}
	if len(s.insts) == 1 {
		lin, err := NewSequence(s.insts, true, true, InterpLinear, false)
		if err != nil {
			return nil, err
		}
		return NewSequenceSet([]*TSequence{lin}, false)
	}
	var seqs []*TSequence
	for i := 0; i+1 < len(s.insts); i++ {
		a, b := s.insts[i], s.insts[i+1]
		last := i == len(s.insts)-2
		lowerInc := true
		if i == 0 {
			lowerInc = s.lowerInc
		}
		// the piece holds a's value across the whole segment
		piece := []TInstant{a, {Val: a.Val, T: b.T, srid: s.srid}}
		upperInc := false
		if last && s.upperInc && b.Val.Equal(a.Val) {
			upperInc = true
		}
		seq, err := NewSequence(piece, lowerInc, upperInc, InterpLinear, false)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
		if last && s.upperInc && !b.Val.Equal(a.Val) {
			end, err := NewSequence([]TInstant{b}, true, true, InterpLinear, false)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, end)
		}
	}
	return NewSequenceSet(seqs, true)
}

// MakeGaps splits an instant array into sequences wherever consecutive
// instants are farther apart than maxDist in value space or maxGap in time.
// A zero threshold disables that criterion.
func MakeGaps(insts []TInstant, interp Interp, maxDist float64, maxGap int64) (*TSequenceSet, error) {
	if len(insts) == 0 {
		return nil, fmt.Errorf("%w: empty instant array", terrors.ErrInvalidArg)
	}
	var seqs []*TSequence
	start := 0
	for i := 1; i < len(insts); i++ {
		split := false
		if maxGap > 0 && insts[i].T-insts[i-1].T > maxGap {
			split = true
		}
		if !split && maxDist > 0 && insts[i-1].Val.Distance(insts[i].Val) > maxDist {
			split = true
		}
		if split {
			seq, err := NewSequence(insts[start:i], true, true, interp, true)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, seq)
			start = i
		}
	}
	seq, err := NewSequence(insts[start:], true, true, interp, true)
	if err != nil {
		return nil, err
	}
	seqs = append(seqs, seq)
	return NewSequenceSet(seqs, false)
}

// Append inserts an instant at a timestamp at or after the end of t,
// promoting the subtype as needed: an instant grows into an instant set
// (discrete) or a two-instant sequence (step/linear) per interp.
func Append(t Temporal, in *TInstant, interp Interp) (Temporal, error) {
	if t == nil || in == nil {
		return nil, fmt.Errorf("%w: nil argument to Append", terrors.ErrInvalidArg)
	}
	insts := t.Instants()
	last := insts[len(insts)-1]
	if in.T < last.T {
		return nil, fmt.Errorf("%w: append at %d before end %d", terrors.ErrInvalidArg, in.T, last.T)
	}
	if in.T == last.T {
		if !in.Val.Equal(last.Val) {
			return nil, fmt.Errorf("%w: conflicting value at end timestamp", terrors.ErrInvalidArg)
		}
		return t, nil
	}
	switch v := t.(type) {
	case *TInstant:
		if interp == InterpDiscrete {
			return NewInstantSet([]TInstant{{Val: v.Val, T: v.T, srid: v.srid}, *in})
		}
		return NewSequence([]TInstant{{Val: v.Val, T: v.T, srid: v.srid}, *in}, true, true, interp, false)
	case *TInstantSet:
		return NewInstantSet(append(append([]TInstant{}, v.insts...), *in))
	case *TSequence:
		return NewSequence(append(append([]TInstant{}, v.insts...), *in),
			v.lowerInc, true, v.interp, true)
	case *TSequenceSet:
		lastSeq := &v.seqs[len(v.seqs)-1]
		grown, err := NewSequence(append(append([]TInstant{}, lastSeq.insts...), *in),
			lastSeq.lowerInc, true, lastSeq.interp, true)
		if err != nil {
			return nil, err
		}
		seqs := v.Sequences()
		seqs[len(seqs)-1] = grown
		return NewSequenceSet(seqs, false)
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// Merge combines two temporals of the same subtype and base type. Values
// must agree (within epsilon) wherever the time domains overlap.
func Merge(a, b Temporal) (Temporal, error) {
	if err := checkSameBase(a, b); err != nil {
		return nil, err
	}
	if a.Subtype() != b.Subtype() {
		return nil, fmt.Errorf("%w: merge across subtypes %s and %s",
			terrors.ErrInvalidArg, a.Subtype(), b.Subtype())
	}
	// value agreement on the shared domain
	for _, in := range b.Instants() {
		if v, ok := a.ValueAt(in.T, false); ok && !v.Equal(in.Val) {
			return nil, fmt.Errorf("%w: conflicting values at %d", terrors.ErrInvalidArg, in.T)
		}
	}
	for _, in := range a.Instants() {
		if v, ok := b.ValueAt(in.T, false); ok && !v.Equal(in.Val) {
			return nil, fmt.Errorf("%w: conflicting values at %d", terrors.ErrInvalidArg, in.T)
		}
	}
	switch av := a.(type) {
	case *TInstant:
		bv := b.(*TInstant)
		if av.T == bv.T {
			return av, nil
		}
		return NewInstantSet([]TInstant{*av, *bv})
	case *TInstantSet:
		bv := b.(*TInstantSet)
		return NewInstantSet(append(append([]TInstant{}, av.insts...), bv.insts...))
	case *TSequence:
		bv := b.(*TSequence)
		x, y := av, bv
		if y.Period().Cmp(x.Period()) < 0 {
			x, y = y, x
		}
		// sequences sharing their boundary instant concatenate directly
		if x.EndInstant().T == y.StartInstant().T && x.upperInc && y.lowerInc &&
			x.interp == y.interp {
			insts := append(append([]TInstant{}, x.insts...), y.insts[1:]...)
			return NewSequence(insts, x.lowerInc, y.upperInc, x.interp, true)
		}
		ss, err := NewSequenceSet([]*TSequence{av, bv}, true)
		if err != nil {
			return nil, err
		}
		if len(ss.seqs) == 1 {
			return &ss.seqs[0], nil
		}
		return ss, nil
	case *TSequenceSet:
		bv := b.(*TSequenceSet)
		return NewSequenceSet(append(av.Sequences(), bv.Sequences()...), true)
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}

// ShiftScale shifts the time origin by shift microseconds and rescales the
// duration by scale (ignored when <= 0). Scaling is anchored at the start
// timestamp, so ShiftScale(s, d) followed by ShiftScale(-s, 1/d) is the
// identity.
func ShiftScale(t Temporal, shift int64, scale float64) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	insts := t.Instants()
	origin := insts[0].T
	remap := func(ts TS) TS {
		if scale > 0 {
			return origin + shift + TS(float64(ts-origin)*scale)
		}
		return ts + shift
	}
	mapped := make([]TInstant, len(insts))
	for i, in := range insts {
		mapped[i] = TInstant{Val: in.Val, T: remap(in.T), srid: in.srid}
	}
	switch v := t.(type) {
	case *TInstant:
		return &TInstant{Val: v.Val, T: remap(v.T), srid: v.srid}, nil
	case *TInstantSet:
		return NewInstantSet(mapped)
	case *TSequence:
		return NewSequence(mapped, v.lowerInc, v.upperInc, v.interp, false)
	case *TSequenceSet:
		var seqs []*TSequence
		off := 0
		for i := range v.seqs {
			n := len(v.seqs[i].insts)
			seq, err := NewSequence(mapped[off:off+n], v.seqs[i].lowerInc,
				v.seqs[i].upperInc, v.seqs[i].interp, false)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, seq)
			off += n
		}
		return NewSequenceSet(seqs, false)
	}
	return nil, fmt.Errorf("%w: unknown subtype", terrors.ErrInvalidArg)
}
