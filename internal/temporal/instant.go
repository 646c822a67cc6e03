package temporal

import (
	"fmt"

	"github.com/banshee-data/trajectory.engine/internal/span"
)

// TInstant is a single (value, timestamp) sample.
type TInstant struct {
	Val Value
	T   TS

	srid int32
}

// NewInstant builds an instant sample.
func NewInstant(v Value, t TS) *TInstant {
	return &TInstant{Val: v, T: t}
}

// NewPointInstant builds a point instant with an SRID.
func NewPointInstant(v Value, t TS, srid int32) *TInstant {
	return &TInstant{Val: v, T: t, srid: srid}
}

func (i *TInstant) Subtype() Subtype       { return SubInstant }
func (i *TInstant) Interpolation() Interp  { return InterpDiscrete }
func (i *TInstant) BaseType() BaseType     { return i.Val.Type }
func (i *TInstant) SRID() int32            { return i.srid }
func (i *TInstant) NumInstants() int       { return 1 }
func (i *TInstant) Instants() []TInstant   { return []TInstant{*i} }
func (i *TInstant) Period() span.Span      { return span.Instant(i.T) }
func (i *TInstant) Timespan() span.SpanSet { return span.FromSpan(span.Instant(i.T)) }

func (i *TInstant) ValueAt(t TS, strict bool) (Value, bool) {
	if t != i.T {
		return Value{}, false
	}
	return i.Val, true
}

func (i *TInstant) MinValue() (Value, bool) { return minValue(i.Instants()) }
func (i *TInstant) MaxValue() (Value, bool) { return maxValue(i.Instants()) }

func (i *TInstant) Hash() uint64 {
	return i.Val.Hash()*31 ^ uint64(i.T)
}

func (i *TInstant) Equal(o Temporal) bool {
	oi, ok := o.(*TInstant)
	if !ok {
		return false
	}
	return i.T == oi.T && i.Val.Equal(oi.Val) && i.srid == oi.srid
}

func (i *TInstant) String() string {
	return fmt.Sprintf("%s@%s", i.Val, TSTime(i.T).Format(timeLayout))
}

const timeLayout = "2006-01-02T15:04:05.999999Z"
