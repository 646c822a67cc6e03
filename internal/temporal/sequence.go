package temporal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// TSequence is a contiguous piecewise function on [t_lo, t_hi] with step or
// linear interpolation between its samples.
type TSequence struct {
	insts              []TInstant
	lowerInc, upperInc bool
	interp             Interp
	srid               int32
}

// NewSequence validates and builds a sequence. With normalize set, the middle
// of three collinear instants is removed under linear interpolation, and a
// middle instant equal to its predecessor is removed under step
// interpolation.
func NewSequence(insts []TInstant, lowerInc, upperInc bool, interp Interp, normalize bool) (*TSequence, error) {
	if len(insts) == 0 {
		return nil, fmt.Errorf("%w: empty sequence", terrors.ErrInvalidArg)
	}
	if interp != InterpStep && interp != InterpLinear {
		return nil, fmt.Errorf("%w: sequence interpolation must be step or linear", terrors.ErrInvalidArg)
	}
	bt := insts[0].Val.Type
	if interp == InterpLinear && !bt.CanLinear() {
		return nil, fmt.Errorf("%w: %s does not support linear interpolation", terrors.ErrInvalidArg, bt)
	}
	for i := 1; i < len(insts); i++ {
		if insts[i].Val.Type != bt {
			return nil, fmt.Errorf("%w: mixed base types in sequence", terrors.ErrTypeMismatch)
		}
		if insts[i].T <= insts[i-1].T {
			return nil, fmt.Errorf("%w: timestamps not strictly increasing at %d", terrors.ErrInvalidArg, i)
		}
	}
	if len(insts) == 1 && (!lowerInc || !upperInc) {
		return nil, fmt.Errorf("%w: singleton sequence requires inclusive bounds", terrors.ErrInvalidArg)
	}
	own := make([]TInstant, len(insts))
	copy(own, insts)
	if normalize && len(own) > 2 {
		own = normalizeInstants(own, interp)
	}
	return &TSequence{insts: own, lowerInc: lowerInc, upperInc: upperInc,
		interp: interp, srid: insts[0].srid}, nil
}

// MustSequence is NewSequence for inputs known to be valid.
func MustSequence(insts []TInstant, lowerInc, upperInc bool, interp Interp, normalize bool) *TSequence {
	s, err := NewSequence(insts, lowerInc, upperInc, interp, normalize)
	if err != nil {
		panic(err)
	}
	return s
}

// normalizeInstants drops redundant middles. The first and last instants are
// always kept; bounds are unaffected.
func normalizeInstants(insts []TInstant, interp Interp) []TInstant {
	out := insts[:1]
	for i := 1; i < len(insts)-1; i++ {
		prev := out[len(out)-1]
		cur, next := insts[i], insts[i+1]
		var redundant bool
		if interp == InterpLinear {
			f := float64(cur.T-prev.T) / float64(next.T-prev.T)
			redundant = prev.Val.Collinear(cur.Val, next.Val, f)
		} else {
			redundant = cur.Val.Equal(prev.Val)
		}
		if !redundant {
			out = append(out, cur)
		}
	}
	out = append(out, insts[len(insts)-1])
	res := make([]TInstant, len(out))
	copy(res, out)
	return res
}

func (s *TSequence) Subtype() Subtype      { return SubSequence }
func (s *TSequence) Interpolation() Interp { return s.interp }
func (s *TSequence) BaseType() BaseType    { return s.insts[0].Val.Type }
func (s *TSequence) SRID() int32           { return s.srid }
func (s *TSequence) NumInstants() int      { return len(s.insts) }
func (s *TSequence) Instants() []TInstant  { return s.insts }
func (s *TSequence) LowerInc() bool        { return s.lowerInc }
func (s *TSequence) UpperInc() bool        { return s.upperInc }

func (s *TSequence) StartInstant() TInstant { return s.insts[0] }
func (s *TSequence) EndInstant() TInstant   { return s.insts[len(s.insts)-1] }

func (s *TSequence) Period() span.Span {
	return span.MustPeriod(s.insts[0].T, s.insts[len(s.insts)-1].T, s.lowerInc, s.upperInc)
}

func (s *TSequence) Timespan() span.SpanSet { return span.FromSpan(s.Period()) }

// ValueAt evaluates the sequence at t: linear interpolation for linear
// sequences, the left-hand value for step sequences.
func (s *TSequence) ValueAt(t TS, strict bool) (Value, bool) {
	p := s.Period()
	if !p.ContainsTS(t) {
		if strict {
			return Value{}, false
		}
		// non-strict still has nothing to return outside the period
		return Value{}, false
	}
	i := sort.Search(len(s.insts), func(i int) bool { return s.insts[i].T >= t })
	if i < len(s.insts) && s.insts[i].T == t {
		return s.insts[i].Val, true
	}
	// t lies strictly between insts[i-1] and insts[i]
	a, b := s.insts[i-1], s.insts[i]
	if s.interp == InterpStep {
		return a.Val, true
	}
	f := float64(t-a.T) / float64(b.T-a.T)
	return a.Val.Interpolate(b.Val, f), true
}

func (s *TSequence) MinValue() (Value, bool) { return minValue(s.insts) }
func (s *TSequence) MaxValue() (Value, bool) { return maxValue(s.insts) }

func (s *TSequence) Hash() uint64 {
	var h uint64 = 1469598103934665603
	for _, in := range s.insts {
		h = (h ^ in.Val.Hash() ^ uint64(in.T)) * 1099511628211
	}
	if s.lowerInc {
		h ^= 0x5bd1e995
	}
	if s.upperInc {
		h ^= 0xc2b2ae35
	}
	return h*31 + uint64(s.interp)
}

func (s *TSequence) Equal(o Temporal) bool {
	os, ok := o.(*TSequence)
	if !ok || len(s.insts) != len(os.insts) || s.srid != os.srid ||
		s.lowerInc != os.lowerInc || s.upperInc != os.upperInc || s.interp != os.interp {
		return false
	}
	for i := range s.insts {
		if s.insts[i].T != os.insts[i].T || !s.insts[i].Val.Equal(os.insts[i].Val) {
			return false
		}
	}
	return true
}

func (s *TSequence) String() string {
	lb, rb := "(", ")"
	if s.lowerInc {
		lb = "["
	}
	if s.upperInc {
		rb = "]"
	}
	parts := make([]string, len(s.insts))
	for i, in := range s.insts {
		parts[i] = in.String()
	}
	tag := ""
	if s.interp == InterpStep {
		tag = "Step;"
	}
	return tag + lb + strings.Join(parts, ", ") + rb
}

// restrictPeriod returns the part of the sequence inside p, or nil when the
// intersection is empty. Boundary instants are synthesized by interpolation.
func (s *TSequence) restrictPeriod(p span.Span) *TSequence {
	inter, ok := s.Period().Intersection(p)
	if !ok {
		return nil
	}
	lo, hi := inter.LowerTS(), inter.UpperTS()
	if lo == hi {
		if !inter.LowerInc || !inter.UpperInc {
			return nil
		}
		v, ok := s.ValueAt(lo, true)
		if !ok {
			return nil
		}
		inst := TInstant{Val: v, T: lo, srid: s.srid}
		return MustSequence([]TInstant{inst}, true, true, s.interp, false)
	}
	// bounds are evaluated on an inclusive view so that an end instant the
	// sequence itself excludes still yields its stored value
	closed := &TSequence{insts: s.insts, lowerInc: true, upperInc: true, interp: s.interp, srid: s.srid}
	var out []TInstant
	vLo, _ := closed.ValueAt(lo, true)
	out = append(out, TInstant{Val: vLo, T: lo, srid: s.srid})
	for _, in := range s.insts {
		if in.T > lo && in.T < hi {
			out = append(out, in)
		}
	}
	vHi, _ := closed.ValueAt(hi, true)
	// for a step sequence an exclusive upper bound carries the left value,
	// the one held since the previous instant
	if s.interp == InterpStep && !inter.UpperInc {
		vHi = out[len(out)-1].Val
	}
	out = append(out, TInstant{Val: vHi, T: hi, srid: s.srid})
	return MustSequence(out, inter.LowerInc, inter.UpperInc, s.interp, false)
}

// restrictPeriodSet maps restrictPeriod over a span set.
func (s *TSequence) restrictPeriodSet(ss span.SpanSet) []*TSequence {
	var out []*TSequence
	for _, p := range ss.Spans {
		if r := s.restrictPeriod(p); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// segment is a pair of consecutive instants plus the sequence context.
type segment struct {
	a, b       TInstant
	lowerInc   bool // whether a belongs to the segment
	upperInc   bool // whether b belongs to the segment
	interp     Interp
	srid       int32
}

// segments decomposes the sequence. Segment i spans [insts[i], insts[i+1]];
// interior boundaries belong to the left segment's end and the right
// segment's start, so both flags are inclusive there and the restriction
// layer resolves ownership of synthesized crossings.
func (s *TSequence) segments() []segment {
	if len(s.insts) == 1 {
		return []segment{{a: s.insts[0], b: s.insts[0], lowerInc: true, upperInc: true,
			interp: s.interp, srid: s.srid}}
	}
	out := make([]segment, 0, len(s.insts)-1)
	for i := 0; i+1 < len(s.insts); i++ {
		sg := segment{a: s.insts[i], b: s.insts[i+1], lowerInc: true, upperInc: true,
			interp: s.interp, srid: s.srid}
		if i == 0 {
			sg.lowerInc = s.lowerInc
		}
		if i == len(s.insts)-2 {
			sg.upperInc = s.upperInc
		}
		out = append(out, sg)
	}
	return out
}

// Duration returns the sequence duration.
func (s *TSequence) Duration() int64 {
	return s.insts[len(s.insts)-1].T - s.insts[0].T
}
