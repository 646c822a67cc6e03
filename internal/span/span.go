// Package span implements totally ordered intervals (spans) and normalized
// disjoint unions of them (span sets) over the three orderable base types the
// temporal algebra is parametric on: int, float and timestamp.
//
// Bounds are carried as float64. Integer bounds are whole numbers in the
// int32 range; timestamps are microseconds since the Unix epoch, which stay
// exact in a float64 until well past the year 2200.
package span

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Basetype identifies the ordering domain of a span.
type Basetype uint8

const (
	Int Basetype = iota + 1
	Float
	Timestamp
)

func (b Basetype) String() string {
	switch b {
	case Int:
		return "int"
	case Float:
		return "float"
	case Timestamp:
		return "timestamp"
	}
	return fmt.Sprintf("basetype(%d)", uint8(b))
}

// Span is an interval over a single base type. Integer spans are always in
// canonical half-open [lo, hi) form after construction.
type Span struct {
	Lower, Upper       float64
	LowerInc, UpperInc bool
	Basetype           Basetype
}

const maxInt32 = float64(math.MaxInt32)

// Make builds a validated span. A closed integer upper bound [a,b] is
// canonicalized to [a, b+1); an open integer lower bound is bumped likewise.
func Make(lower, upper float64, lowerInc, upperInc bool, bt Basetype) (Span, error) {
	if bt == Int {
		if lower != math.Trunc(lower) || upper != math.Trunc(upper) {
			return Span{}, fmt.Errorf("%w: non-integer bound for int span", terrors.ErrInvalidArg)
		}
		if !lowerInc {
			lower++
			lowerInc = true
		}
		if upperInc {
			upper++
			upperInc = false
		}
		if lower < -maxInt32-1 || upper > maxInt32 {
			return Span{}, fmt.Errorf("%w: int span bound out of range", terrors.ErrOverflow)
		}
	}
	if lower > upper {
		return Span{}, fmt.Errorf("%w: span lower %v > upper %v", terrors.ErrInvalidArg, lower, upper)
	}
	if lower == upper && bt != Int && (!lowerInc || !upperInc) {
		return Span{}, fmt.Errorf("%w: degenerate span must be inclusive on both bounds", terrors.ErrInvalidArg)
	}
	if bt == Int && lower == upper {
		return Span{}, fmt.Errorf("%w: empty int span", terrors.ErrInvalidArg)
	}
	return Span{Lower: lower, Upper: upper, LowerInc: lowerInc, UpperInc: upperInc, Basetype: bt}, nil
}

// MakePeriod builds a timestamp span from microsecond bounds.
func MakePeriod(lower, upper int64, lowerInc, upperInc bool) (Span, error) {
	return Make(float64(lower), float64(upper), lowerInc, upperInc, Timestamp)
}

// MustPeriod is MakePeriod for bounds known to be valid.
func MustPeriod(lower, upper int64, lowerInc, upperInc bool) Span {
	s, err := MakePeriod(lower, upper, lowerInc, upperInc)
	if err != nil {
		panic(err)
	}
	return s
}

// Instant returns the degenerate period [t, t].
func Instant(t int64) Span {
	return Span{Lower: float64(t), Upper: float64(t), LowerInc: true, UpperInc: true, Basetype: Timestamp}
}

// LowerTS and UpperTS return timestamp bounds in microseconds.
func (s Span) LowerTS() int64 { return int64(s.Lower) }
func (s Span) UpperTS() int64 { return int64(s.Upper) }

// Duration returns the extent of a timestamp span.
func (s Span) Duration() time.Duration {
	return time.Duration(s.UpperTS()-s.LowerTS()) * time.Microsecond
}

// Width returns upper - lower.
func (s Span) Width() float64 { return s.Upper - s.Lower }

func (s Span) String() string {
	lb, rb := "(", ")"
	if s.LowerInc {
		lb = "["
	}
	if s.UpperInc {
		rb = "]"
	}
	if s.Basetype == Timestamp {
		return fmt.Sprintf("%s%s, %s%s", lb,
			time.UnixMicro(s.LowerTS()).UTC().Format(time.RFC3339Nano),
			time.UnixMicro(s.UpperTS()).UTC().Format(time.RFC3339Nano), rb)
	}
	return fmt.Sprintf("%s%v, %v%s", lb, s.Lower, s.Upper, rb)
}

// Hash returns a stable hash of the span.
func (s Span) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Lower))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Upper))
	h.Write(buf[:])
	var fl byte
	if s.LowerInc {
		fl |= 1
	}
	if s.UpperInc {
		fl |= 2
	}
	h.Write([]byte{fl, byte(s.Basetype)})
	return h.Sum64()
}

// Equal reports full structural equality.
func (s Span) Equal(o Span) bool { return s == o }

// cmpBound compares two bounds. lower tells whether each bound is a lower
// bound; at equal values a lower-inclusive sorts before lower-exclusive and
// an upper-exclusive before upper-inclusive.
func cmpBound(v1 float64, inc1, lower1 bool, v2 float64, inc2, lower2 bool) int {
	if v1 != v2 {
		if v1 < v2 {
			return -1
		}
		return 1
	}
	// Equal values: rank by the position each bound denotes on the line.
	// lower inclusive = exactly v; lower exclusive = just after v;
	// upper inclusive = exactly v; upper exclusive = just before v.
	rank := func(inc, lower bool) int {
		switch {
		case lower && inc:
			return 0
		case !lower && !inc:
			return -1
		case !lower && inc:
			return 0
		default: // lower && !inc
			return 1
		}
	}
	r1, r2 := rank(inc1, lower1), rank(inc2, lower2)
	if r1 != r2 {
		if r1 < r2 {
			return -1
		}
		return 1
	}
	return 0
}

// Cmp orders spans by lower bound, then upper bound.
func (s Span) Cmp(o Span) int {
	if c := cmpBound(s.Lower, s.LowerInc, true, o.Lower, o.LowerInc, true); c != 0 {
		return c
	}
	return cmpBound(s.Upper, s.UpperInc, false, o.Upper, o.UpperInc, false)
}

// ContainsValue reports whether v lies inside the span.
func (s Span) ContainsValue(v float64) bool {
	if v < s.Lower || v > s.Upper {
		return false
	}
	if v == s.Lower && !s.LowerInc {
		return false
	}
	if v == s.Upper && !s.UpperInc {
		return false
	}
	return true
}

// ContainsTS reports whether the timestamp lies inside a period.
func (s Span) ContainsTS(t int64) bool { return s.ContainsValue(float64(t)) }

// Contains reports whether o lies fully inside s.
func (s Span) Contains(o Span) bool {
	return cmpBound(s.Lower, s.LowerInc, true, o.Lower, o.LowerInc, true) <= 0 &&
		cmpBound(s.Upper, s.UpperInc, false, o.Upper, o.UpperInc, false) >= 0
}

// Contained reports whether s lies fully inside o.
func (s Span) Contained(o Span) bool { return o.Contains(s) }

// Overlaps reports a non-empty intersection.
func (s Span) Overlaps(o Span) bool {
	return cmpBound(s.Lower, s.LowerInc, true, o.Upper, o.UpperInc, false) <= 0 &&
		cmpBound(o.Lower, o.LowerInc, true, s.Upper, s.UpperInc, false) <= 0
}

// Adjacent reports that the union of the spans is contiguous while their
// intersection is empty. For canonical integer spans that is exact bound
// equality; for float and timestamp spans the shared bound must be inclusive
// on exactly one side.
func (s Span) Adjacent(o Span) bool {
	if s.Basetype != o.Basetype {
		return false
	}
	adj := func(upper float64, upperInc bool, lower float64, lowerInc bool) bool {
		if upper != lower {
			return false
		}
		if s.Basetype == Int {
			// canonical [lo,hi): upper exclusive meeting lower inclusive
			return true
		}
		return upperInc != lowerInc
	}
	return adj(s.Upper, s.UpperInc, o.Lower, o.LowerInc) ||
		adj(o.Upper, o.UpperInc, s.Lower, s.LowerInc)
}

// Before reports s strictly left of o.
func (s Span) Before(o Span) bool {
	return cmpBound(s.Upper, s.UpperInc, false, o.Lower, o.LowerInc, true) < 0
}

// After reports s strictly right of o.
func (s Span) After(o Span) bool { return o.Before(s) }

// OverBefore reports s does not extend to the right of o.
func (s Span) OverBefore(o Span) bool {
	return cmpBound(s.Upper, s.UpperInc, false, o.Upper, o.UpperInc, false) <= 0
}

// OverAfter reports s does not extend to the left of o.
func (s Span) OverAfter(o Span) bool {
	return cmpBound(s.Lower, s.LowerInc, true, o.Lower, o.LowerInc, true) >= 0
}

// Distance returns the gap between two spans, 0 when they overlap or touch.
func (s Span) Distance(o Span) float64 {
	if s.Overlaps(o) || s.Adjacent(o) {
		return 0
	}
	if s.Upper <= o.Lower {
		return o.Lower - s.Upper
	}
	return s.Lower - o.Upper
}

// DistanceValue returns the distance from the span to a value.
func (s Span) DistanceValue(v float64) float64 {
	if s.ContainsValue(v) {
		return 0
	}
	if v < s.Lower {
		return s.Lower - v
	}
	return v - s.Upper
}

// Intersection returns the common part of two spans, reporting ok=false when
// they are disjoint.
func (s Span) Intersection(o Span) (Span, bool) {
	if !s.Overlaps(o) {
		return Span{}, false
	}
	r := s
	if cmpBound(o.Lower, o.LowerInc, true, s.Lower, s.LowerInc, true) > 0 {
		r.Lower, r.LowerInc = o.Lower, o.LowerInc
	}
	if cmpBound(o.Upper, o.UpperInc, false, s.Upper, s.UpperInc, false) < 0 {
		r.Upper, r.UpperInc = o.Upper, o.UpperInc
	}
	return r, true
}

// Union merges two spans. In strict mode a non-contiguous pair is an error;
// otherwise the result is the two-span set.
func (s Span) Union(o Span, strict bool) (SpanSet, error) {
	if s.Basetype != o.Basetype {
		return SpanSet{}, fmt.Errorf("%w: %s vs %s span", terrors.ErrTypeMismatch, s.Basetype, o.Basetype)
	}
	if !s.Overlaps(o) && !s.Adjacent(o) {
		if strict {
			return SpanSet{}, fmt.Errorf("%w: union of %s and %s", terrors.ErrNotContiguous, s, o)
		}
		return MakeSet([]Span{s, o})
	}
	r := s
	if cmpBound(o.Lower, o.LowerInc, true, s.Lower, s.LowerInc, true) < 0 {
		r.Lower, r.LowerInc = o.Lower, o.LowerInc
	}
	if cmpBound(o.Upper, o.UpperInc, false, s.Upper, s.UpperInc, false) > 0 {
		r.Upper, r.UpperInc = o.Upper, o.UpperInc
	}
	return SpanSet{Spans: []Span{r}}, nil
}

// Difference returns s minus o as zero, one or two spans.
func (s Span) Difference(o Span) []Span {
	inter, ok := s.Intersection(o)
	if !ok {
		return []Span{s}
	}
	var out []Span
	if c := cmpBound(s.Lower, s.LowerInc, true, inter.Lower, inter.LowerInc, true); c < 0 {
		left := Span{Lower: s.Lower, LowerInc: s.LowerInc,
			Upper: inter.Lower, UpperInc: !inter.LowerInc, Basetype: s.Basetype}
		if validFragment(left) {
			out = append(out, left)
		}
	}
	if c := cmpBound(inter.Upper, inter.UpperInc, false, s.Upper, s.UpperInc, false); c < 0 {
		right := Span{Lower: inter.Upper, LowerInc: !inter.UpperInc,
			Upper: s.Upper, UpperInc: s.UpperInc, Basetype: s.Basetype}
		if validFragment(right) {
			out = append(out, right)
		}
	}
	return out
}

// validFragment drops degenerate leftovers like (v, v) produced when the
// subtrahend shares a bound with the minuend.
func validFragment(s Span) bool {
	if s.Lower < s.Upper {
		return true
	}
	return s.Lower == s.Upper && s.LowerInc && s.UpperInc
}

// Expand inflates both bounds outward by d.
func (s Span) Expand(d float64) Span {
	r := s
	r.Lower -= d
	r.Upper += d
	return r
}

// ShiftScale shifts a timestamp span's origin and rescales its width so the
// new duration equals the old width times scale. scale <= 0 keeps the width.
func (s Span) ShiftScale(shift int64, scale float64) Span {
	r := s
	r.Lower += float64(shift)
	r.Upper += float64(shift)
	if scale > 0 {
		r.Upper = r.Lower + (r.Upper-r.Lower)*scale
	}
	return r
}
