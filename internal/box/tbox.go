// Package box implements the bounding-box algebra: TBox (value span x time
// span) for temporal numbers and STBox (space x time) for temporal points.
// Boxes are the filter step in front of the exact algorithms and the key type
// of the quad-tree index.
package box

import (
	"fmt"
	"math"

	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// TBox bounds a temporal number on the value and/or time axis. At least one
// axis is present.
type TBox struct {
	Value *span.Span // Int or Float span, nil when absent
	Time  *span.Span // Timestamp span, nil when absent
}

// MakeTBox validates axis presence and base types.
func MakeTBox(value, tm *span.Span) (TBox, error) {
	if value == nil && tm == nil {
		return TBox{}, fmt.Errorf("%w: TBox needs at least one axis", terrors.ErrInvalidArg)
	}
	if value != nil && value.Basetype == span.Timestamp {
		return TBox{}, fmt.Errorf("%w: TBox value axis cannot be a timestamp span", terrors.ErrInvalidArg)
	}
	if tm != nil && tm.Basetype != span.Timestamp {
		return TBox{}, fmt.Errorf("%w: TBox time axis must be a timestamp span", terrors.ErrInvalidArg)
	}
	return TBox{Value: cloneSpan(value), Time: cloneSpan(tm)}, nil
}

func cloneSpan(s *span.Span) *span.Span {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// HasValue and HasTime report axis presence.
func (b TBox) HasValue() bool { return b.Value != nil }
func (b TBox) HasTime() bool  { return b.Time != nil }

func (b TBox) String() string {
	switch {
	case b.HasValue() && b.HasTime():
		return fmt.Sprintf("TBox(%s, %s)", b.Value, b.Time)
	case b.HasValue():
		return fmt.Sprintf("TBox(%s,)", b.Value)
	default:
		return fmt.Sprintf("TBox(, %s)", b.Time)
	}
}

// Equal reports equality on the common representation.
func (b TBox) Equal(o TBox) bool {
	if b.HasValue() != o.HasValue() || b.HasTime() != o.HasTime() {
		return false
	}
	if b.HasValue() && *b.Value != *o.Value {
		return false
	}
	if b.HasTime() && *b.Time != *o.Time {
		return false
	}
	return true
}

// comparableAxes returns which axes both boxes carry; an error when none.
func (b TBox) comparableAxes(o TBox) (value, tm bool, err error) {
	value = b.HasValue() && o.HasValue()
	tm = b.HasTime() && o.HasTime()
	if !value && !tm {
		return false, false, fmt.Errorf("%w: TBoxes share no axis", terrors.ErrInvalidArg)
	}
	return value, tm, nil
}

// Contains reports b containing o on every common axis; axes present in o but
// not in b make containment fail.
func (b TBox) Contains(o TBox) (bool, error) {
	if _, _, err := b.comparableAxes(o); err != nil {
		return false, err
	}
	if o.HasValue() && (!b.HasValue() || !b.Value.Contains(*o.Value)) {
		return false, nil
	}
	if o.HasTime() && (!b.HasTime() || !b.Time.Contains(*o.Time)) {
		return false, nil
	}
	return true, nil
}

// Contained is the converse of Contains.
func (b TBox) Contained(o TBox) (bool, error) { return o.Contains(b) }

// Overlaps reports intersection on every common axis.
func (b TBox) Overlaps(o TBox) (bool, error) {
	value, tm, err := b.comparableAxes(o)
	if err != nil {
		return false, err
	}
	if value && !b.Value.Overlaps(*o.Value) {
		return false, nil
	}
	if tm && !b.Time.Overlaps(*o.Time) {
		return false, nil
	}
	return true, nil
}

// Same reports equality on the common axes.
func (b TBox) Same(o TBox) (bool, error) {
	value, tm, err := b.comparableAxes(o)
	if err != nil {
		return false, err
	}
	if value && *b.Value != *o.Value {
		return false, nil
	}
	if tm && *b.Time != *o.Time {
		return false, nil
	}
	return true, nil
}

// Adjacent reports that the boxes share at least one axis on which they touch
// without overlapping, while every other common axis overlaps or touches.
func (b TBox) Adjacent(o TBox) (bool, error) {
	value, tm, err := b.comparableAxes(o)
	if err != nil {
		return false, err
	}
	touch := false
	if value {
		if b.Value.Adjacent(*o.Value) {
			touch = true
		} else if !b.Value.Overlaps(*o.Value) {
			return false, nil
		}
	}
	if tm {
		if b.Time.Adjacent(*o.Time) {
			touch = true
		} else if !b.Time.Overlaps(*o.Time) {
			return false, nil
		}
	}
	return touch, nil
}

// Positional predicates on the value axis.
func (b TBox) Left(o TBox) (bool, error)      { return b.posValue(o, func(a, c span.Span) bool { return a.Before(c) }) }
func (b TBox) Right(o TBox) (bool, error)     { return b.posValue(o, func(a, c span.Span) bool { return a.After(c) }) }
func (b TBox) OverLeft(o TBox) (bool, error)  { return b.posValue(o, func(a, c span.Span) bool { return a.OverBefore(c) }) }
func (b TBox) OverRight(o TBox) (bool, error) { return b.posValue(o, func(a, c span.Span) bool { return a.OverAfter(c) }) }

// Positional predicates on the time axis.
func (b TBox) Before(o TBox) (bool, error)    { return b.posTime(o, func(a, c span.Span) bool { return a.Before(c) }) }
func (b TBox) After(o TBox) (bool, error)     { return b.posTime(o, func(a, c span.Span) bool { return a.After(c) }) }
func (b TBox) OverBefore(o TBox) (bool, error) { return b.posTime(o, func(a, c span.Span) bool { return a.OverBefore(c) }) }
func (b TBox) OverAfter(o TBox) (bool, error)  { return b.posTime(o, func(a, c span.Span) bool { return a.OverAfter(c) }) }

func (b TBox) posValue(o TBox, f func(a, c span.Span) bool) (bool, error) {
	if !b.HasValue() || !o.HasValue() {
		return false, fmt.Errorf("%w: value axis missing", terrors.ErrInvalidArg)
	}
	return f(*b.Value, *o.Value), nil
}

func (b TBox) posTime(o TBox, f func(a, c span.Span) bool) (bool, error) {
	if !b.HasTime() || !o.HasTime() {
		return false, fmt.Errorf("%w: time axis missing", terrors.ErrInvalidArg)
	}
	return f(*b.Time, *o.Time), nil
}

// Union merges per-axis hulls over the axes common to both inputs.
func (b TBox) Union(o TBox) (TBox, error) {
	value, tm, err := b.comparableAxes(o)
	if err != nil {
		return TBox{}, err
	}
	var r TBox
	if value {
		u, err := b.Value.Union(*o.Value, false)
		if err != nil {
			return TBox{}, err
		}
		hull, _ := u.Hull()
		r.Value = &hull
	}
	if tm {
		u, err := b.Time.Union(*o.Time, false)
		if err != nil {
			return TBox{}, err
		}
		hull, _ := u.Hull()
		r.Time = &hull
	}
	return r, nil
}

// Intersection intersects per axis; ok=false when any common axis is disjoint.
func (b TBox) Intersection(o TBox) (TBox, bool, error) {
	value, tm, err := b.comparableAxes(o)
	if err != nil {
		return TBox{}, false, err
	}
	var r TBox
	if value {
		s, ok := b.Value.Intersection(*o.Value)
		if !ok {
			return TBox{}, false, nil
		}
		r.Value = &s
	}
	if tm {
		s, ok := b.Time.Intersection(*o.Time)
		if !ok {
			return TBox{}, false, nil
		}
		r.Time = &s
	}
	return r, true, nil
}

// ExpandValue inflates the value axis by +-d.
func (b TBox) ExpandValue(d float64) (TBox, error) {
	if !b.HasValue() {
		return TBox{}, fmt.Errorf("%w: no value axis to expand", terrors.ErrInvalidArg)
	}
	r := TBox{Value: cloneSpan(b.Value), Time: cloneSpan(b.Time)}
	*r.Value = r.Value.Expand(d)
	return r, nil
}

// ExpandTime inflates the time axis by +-d microseconds.
func (b TBox) ExpandTime(d int64) (TBox, error) {
	if !b.HasTime() {
		return TBox{}, fmt.Errorf("%w: no time axis to expand", terrors.ErrInvalidArg)
	}
	r := TBox{Value: cloneSpan(b.Value), Time: cloneSpan(b.Time)}
	*r.Time = r.Time.Expand(float64(d))
	return r, nil
}

// NearestApproachDistance returns 0 when the boxes intersect on all present
// axes, +Inf when their time axes are disjoint, and otherwise the gap on the
// value axis.
func (b TBox) NearestApproachDistance(o TBox) (float64, error) {
	value, tm, err := b.comparableAxes(o)
	if err != nil {
		return 0, err
	}
	if tm && !b.Time.Overlaps(*o.Time) {
		return math.Inf(1), nil
	}
	if !value {
		return 0, nil
	}
	return b.Value.Distance(*o.Value), nil
}
