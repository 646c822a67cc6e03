package temporal

import (
	"fmt"
	"time"

	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// TS is a timestamp: microseconds since the Unix epoch.
type TS = int64

// ParseTS converts a time.Time to the engine's microsecond timestamps.
func ParseTS(t time.Time) TS { return t.UnixMicro() }

// TSTime converts back to time.Time in UTC.
func TSTime(t TS) time.Time { return time.UnixMicro(t).UTC() }

// Subtype tags the four temporal variants.
type Subtype uint8

const (
	SubInstant Subtype = iota + 1
	SubInstantSet
	SubSequence
	SubSequenceSet
)

func (s Subtype) String() string {
	switch s {
	case SubInstant:
		return "Instant"
	case SubInstantSet:
		return "InstantSet"
	case SubSequence:
		return "Sequence"
	case SubSequenceSet:
		return "SequenceSet"
	}
	return fmt.Sprintf("subtype(%d)", uint8(s))
}

// Interp is the interpolation rule of a sequence-like temporal.
type Interp uint8

const (
	InterpDiscrete Interp = iota + 1
	InterpStep
	InterpLinear
)

func (i Interp) String() string {
	switch i {
	case InterpDiscrete:
		return "Discrete"
	case InterpStep:
		return "Step"
	case InterpLinear:
		return "Linear"
	}
	return fmt.Sprintf("interp(%d)", uint8(i))
}

// Temporal is the tagged sum over the four subtypes. Values are immutable
// after construction; every transformation returns a new value.
type Temporal interface {
	Subtype() Subtype
	Interpolation() Interp
	BaseType() BaseType
	SRID() int32

	// Period returns the bounding time span.
	Period() span.Span
	// Timespan returns the exact time projection as a span set.
	Timespan() span.SpanSet
	// Instants returns the underlying instants in time order. The returned
	// slice is shared; callers must not mutate it.
	Instants() []TInstant
	// NumInstants is len(Instants()).
	NumInstants() int

	// ValueAt evaluates the temporal at t. With strict=true, t must lie in
	// the time domain; with strict=false a miss just reports ok=false.
	ValueAt(t TS, strict bool) (Value, bool)
	// MinValue and MaxValue reduce over an ordered base type.
	MinValue() (Value, bool)
	MaxValue() (Value, bool)

	// Hash returns a stable structural hash.
	Hash() uint64
	// Equal reports structural equality with another temporal.
	Equal(Temporal) bool

	String() string
}

// TBoxOf returns the value x time bounding box of a temporal number.
func TBoxOf(t Temporal) (box.TBox, error) {
	if t == nil {
		return box.TBox{}, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if !t.BaseType().IsNumber() {
		return box.TBox{}, fmt.Errorf("%w: TBox of non-numeric temporal %s", terrors.ErrTypeMismatch, t.BaseType())
	}
	insts := t.Instants()
	lo, hi := insts[0].Val.Number(), insts[0].Val.Number()
	for _, in := range insts[1:] {
		v := in.Val.Number()
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	bt := span.Float
	if t.BaseType() == BTInt {
		bt = span.Int
	}
	// closed [lo, hi]; integer spans canonicalize to [lo, hi+1)
	vs, err := span.Make(lo, hi, true, true, bt)
	if err != nil {
		return box.TBox{}, err
	}
	p := t.Period()
	return box.MakeTBox(&vs, &p)
}

// STBoxOf returns the space x time bounding box of a temporal point.
func STBoxOf(t Temporal) (box.STBox, error) {
	if t == nil {
		return box.STBox{}, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if !t.BaseType().IsPoint() {
		return box.STBox{}, fmt.Errorf("%w: STBox of non-point temporal %s", terrors.ErrTypeMismatch, t.BaseType())
	}
	insts := t.Instants()
	p0 := insts[0].Val.P
	b := box.STBox{
		HasX: true, HasZ: p0.HasZ,
		Geodetic: t.BaseType() == BTGeogPoint,
		SRID:     t.SRID(),
		XMin:     p0.X, XMax: p0.X, YMin: p0.Y, YMax: p0.Y, ZMin: p0.Z, ZMax: p0.Z,
	}
	for _, in := range insts[1:] {
		p := in.Val.P
		if p.X < b.XMin {
			b.XMin = p.X
		}
		if p.X > b.XMax {
			b.XMax = p.X
		}
		if p.Y < b.YMin {
			b.YMin = p.Y
		}
		if p.Y > b.YMax {
			b.YMax = p.Y
		}
		if b.HasZ {
			if p.Z < b.ZMin {
				b.ZMin = p.Z
			}
			if p.Z > b.ZMax {
				b.ZMax = p.Z
			}
		}
	}
	per := t.Period()
	b.Time = &per
	return box.MakeSTBox(b)
}

// checkSameBase verifies operand compatibility for a binary operation.
func checkSameBase(a, b Temporal) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: nil temporal operand", terrors.ErrInvalidArg)
	}
	if a.BaseType() != b.BaseType() {
		return fmt.Errorf("%w: %s vs %s", terrors.ErrTypeMismatch, a.BaseType(), b.BaseType())
	}
	if a.BaseType().IsPoint() {
		if a.SRID() != b.SRID() {
			return fmt.Errorf("%w: SRID %d vs %d", terrors.ErrMixedDimensions, a.SRID(), b.SRID())
		}
		az := a.Instants()[0].Val.P.HasZ
		bz := b.Instants()[0].Val.P.HasZ
		if az != bz {
			return fmt.Errorf("%w: 2D vs 3D point", terrors.ErrMixedDimensions)
		}
	}
	return nil
}

// minValue/maxValue reduce a slice of instants over an ordered base type.
func minValue(insts []TInstant) (Value, bool) {
	if len(insts) == 0 || !insts[0].Val.Type.IsOrdered() {
		return Value{}, false
	}
	best := insts[0].Val
	for _, in := range insts[1:] {
		if in.Val.Cmp(best) < 0 {
			best = in.Val
		}
	}
	return best, true
}

func maxValue(insts []TInstant) (Value, bool) {
	if len(insts) == 0 || !insts[0].Val.Type.IsOrdered() {
		return Value{}, false
	}
	best := insts[0].Val
	for _, in := range insts[1:] {
		if in.Val.Cmp(best) > 0 {
			best = in.Val
		}
	}
	return best, true
}
