package spgist

import (
	"github.com/banshee-data/trajectory.engine/internal/box"
	"github.com/banshee-data/trajectory.engine/internal/span"
)

// Strategy enumerates the supported index operators.
type Strategy uint8

const (
	Overlaps Strategy = iota + 1
	Contains
	Contained
	Same
	Adjacent
	// time axis
	Before
	After
	OverBefore
	OverAfter
	// value axis (TBox) or x axis (STBox)
	Left
	Right
	OverLeft
	OverRight
	// y axis
	Below
	Above
	OverBelow
	OverAbove
	// z axis
	Front
	Back
	OverFront
	OverBack
)

type positionalMode uint8

const (
	posBefore positionalMode = iota + 1
	posAfter
	posOverBefore
	posOverAfter
)

// positional maps a positional strategy to its axis index under the key
// layout (Period: time; TBox: value, time; STBox: x, y, [z,] time) and its
// comparison mode.
func (s Strategy) positional(axes int) (axis int, mode positionalMode, ok bool) {
	timeAxis := axes - 1
	switch s {
	case Before:
		return timeAxis, posBefore, true
	case After:
		return timeAxis, posAfter, true
	case OverBefore:
		return timeAxis, posOverBefore, true
	case OverAfter:
		return timeAxis, posOverAfter, true
	case Left:
		return 0, posBefore, true
	case Right:
		return 0, posAfter, true
	case OverLeft:
		return 0, posOverBefore, true
	case OverRight:
		return 0, posOverAfter, true
	case Below:
		return 1, posBefore, true
	case Above:
		return 1, posAfter, true
	case OverBelow:
		return 1, posOverBefore, true
	case OverAbove:
		return 1, posOverAfter, true
	case Front:
		return 2, posBefore, true
	case Back:
		return 2, posAfter, true
	case OverFront:
		return 2, posOverBefore, true
	case OverBack:
		return 2, posOverAfter, true
	}
	return 0, 0, false
}

// PeriodCoords flattens a period key.
func PeriodCoords(p span.Span) []float64 { return []float64{p.Lower, p.Upper} }

// PeriodRanges flattens a period probe.
func PeriodRanges(p span.Span) [][2]float64 { return [][2]float64{{p.Lower, p.Upper}} }

// MatchPeriod is the exact leaf predicate for period keys.
func MatchPeriod(s Strategy, leaf, probe span.Span) bool {
	switch s {
	case Overlaps:
		return leaf.Overlaps(probe)
	case Contains:
		return leaf.Contains(probe)
	case Contained:
		return leaf.Contained(probe)
	case Same:
		return leaf.Equal(probe)
	case Adjacent:
		return leaf.Adjacent(probe)
	case Before:
		return leaf.Before(probe)
	case After:
		return leaf.After(probe)
	case OverBefore:
		return leaf.OverBefore(probe)
	case OverAfter:
		return leaf.OverAfter(probe)
	}
	return false
}

// TBoxCoords flattens a TBox key; both axes must be present.
func TBoxCoords(b box.TBox) []float64 {
	return []float64{b.Value.Lower, b.Value.Upper, b.Time.Lower, b.Time.Upper}
}

// TBoxRanges flattens a TBox probe.
func TBoxRanges(b box.TBox) [][2]float64 {
	return [][2]float64{
		{b.Value.Lower, b.Value.Upper},
		{b.Time.Lower, b.Time.Upper},
	}
}

// MatchTBox is the exact leaf predicate for TBox keys.
func MatchTBox(s Strategy, leaf, probe box.TBox) bool {
	var r bool
	var err error
	switch s {
	case Overlaps:
		r, err = leaf.Overlaps(probe)
	case Contains:
		r, err = leaf.Contains(probe)
	case Contained:
		r, err = leaf.Contained(probe)
	case Same:
		r = leaf.Equal(probe)
	case Adjacent:
		r, err = leaf.Adjacent(probe)
	case Before:
		r, err = leaf.Before(probe)
	case After:
		r, err = leaf.After(probe)
	case OverBefore:
		r, err = leaf.OverBefore(probe)
	case OverAfter:
		r, err = leaf.OverAfter(probe)
	case Left:
		r, err = leaf.Left(probe)
	case Right:
		r, err = leaf.Right(probe)
	case OverLeft:
		r, err = leaf.OverLeft(probe)
	case OverRight:
		r, err = leaf.OverRight(probe)
	}
	return err == nil && r
}

// STBoxCoords flattens an STBox key. The layout is x, y, optional z, then
// time; every indexed key must carry the same axes.
func STBoxCoords(b box.STBox) []float64 {
	out := []float64{b.XMin, b.XMax, b.YMin, b.YMax}
	if b.HasZ {
		out = append(out, b.ZMin, b.ZMax)
	}
	out = append(out, b.Time.Lower, b.Time.Upper)
	return out
}

// STBoxRanges flattens an STBox probe.
func STBoxRanges(b box.STBox) [][2]float64 {
	out := [][2]float64{{b.XMin, b.XMax}, {b.YMin, b.YMax}}
	if b.HasZ {
		out = append(out, [2]float64{b.ZMin, b.ZMax})
	}
	out = append(out, [2]float64{b.Time.Lower, b.Time.Upper})
	return out
}

// MatchSTBox is the exact leaf predicate for STBox keys.
func MatchSTBox(s Strategy, leaf, probe box.STBox) bool {
	var r bool
	var err error
	switch s {
	case Overlaps:
		r, err = leaf.Overlaps(probe)
	case Contains:
		r, err = leaf.Contains(probe)
	case Contained:
		r, err = leaf.Contained(probe)
	case Same:
		r = leaf.Equal(probe)
	case Adjacent:
		r, err = leaf.Adjacent(probe)
	case Before:
		r, err = leaf.Before(probe)
	case After:
		r, err = leaf.After(probe)
	case OverBefore:
		r, err = leaf.OverBefore(probe)
	case OverAfter:
		r, err = leaf.OverAfter(probe)
	case Left:
		r, err = leaf.Left(probe)
	case Right:
		r, err = leaf.Right(probe)
	case OverLeft:
		r, err = leaf.OverLeft(probe)
	case OverRight:
		r, err = leaf.OverRight(probe)
	case Below:
		r, err = leaf.Below(probe)
	case Above:
		r, err = leaf.Above(probe)
	case OverBelow:
		r, err = leaf.OverBelow(probe)
	case OverAbove:
		r, err = leaf.OverAbove(probe)
	case Front:
		r, err = leaf.Front(probe)
	case Back:
		r, err = leaf.Back(probe)
	case OverFront:
		r, err = leaf.OverFront(probe)
	case OverBack:
		r, err = leaf.OverBack(probe)
	}
	return err == nil && r
}

// PeriodIndex, TBoxIndex and STBoxIndex wrap Tree with the per-kind
// flattening.

// PeriodIndex indexes timestamp spans.
type PeriodIndex struct{ tree *Tree }

// NewPeriodIndex builds an empty period index.
func NewPeriodIndex() *PeriodIndex {
	t, _ := NewTree(1)
	return &PeriodIndex{tree: t}
}

// Insert adds a period key.
func (ix *PeriodIndex) Insert(p span.Span) error {
	return ix.tree.Insert(PeriodCoords(p), p)
}

// Len returns the number of indexed periods.
func (ix *PeriodIndex) Len() int { return ix.tree.Len() }

// Search returns every indexed period satisfying strategy(leaf, probe).
func (ix *PeriodIndex) Search(s Strategy, probe span.Span) ([]span.Span, error) {
	raw, err := ix.tree.Search(Query{
		Strategy: s,
		Ranges:   PeriodRanges(probe),
		Match:    func(key interface{}) bool { return MatchPeriod(s, key.(span.Span), probe) },
	})
	if err != nil {
		return nil, err
	}
	out := make([]span.Span, len(raw))
	for i, k := range raw {
		out[i] = k.(span.Span)
	}
	return out, nil
}

// TBoxIndex indexes value x time boxes.
type TBoxIndex struct{ tree *Tree }

// NewTBoxIndex builds an empty TBox index.
func NewTBoxIndex() *TBoxIndex {
	t, _ := NewTree(2)
	return &TBoxIndex{tree: t}
}

// Insert adds a TBox key; both axes are required.
func (ix *TBoxIndex) Insert(b box.TBox) error {
	return ix.tree.Insert(TBoxCoords(b), b)
}

// Len returns the number of indexed boxes.
func (ix *TBoxIndex) Len() int { return ix.tree.Len() }

// Search returns every indexed box satisfying strategy(leaf, probe).
func (ix *TBoxIndex) Search(s Strategy, probe box.TBox) ([]box.TBox, error) {
	raw, err := ix.tree.Search(Query{
		Strategy: s,
		Ranges:   TBoxRanges(probe),
		Match:    func(key interface{}) bool { return MatchTBox(s, key.(box.TBox), probe) },
	})
	if err != nil {
		return nil, err
	}
	out := make([]box.TBox, len(raw))
	for i, k := range raw {
		out[i] = k.(box.TBox)
	}
	return out, nil
}

// STBoxIndex indexes space x time boxes.
type STBoxIndex struct {
	tree *Tree
	hasZ bool
}

// NewSTBoxIndex builds an empty STBox index; hasZ fixes the key layout.
func NewSTBoxIndex(hasZ bool) *STBoxIndex {
	axes := 3
	if hasZ {
		axes = 4
	}
	t, _ := NewTree(axes)
	return &STBoxIndex{tree: t, hasZ: hasZ}
}

// Insert adds an STBox key; the x and time axes are required and the z axis
// must match the index layout.
func (ix *STBoxIndex) Insert(b box.STBox) error {
	return ix.tree.Insert(STBoxCoords(b), b)
}

// Len returns the number of indexed boxes.
func (ix *STBoxIndex) Len() int { return ix.tree.Len() }

// Search returns every indexed box satisfying strategy(leaf, probe).
func (ix *STBoxIndex) Search(s Strategy, probe box.STBox) ([]box.STBox, error) {
	raw, err := ix.tree.Search(Query{
		Strategy: s,
		Ranges:   STBoxRanges(probe),
		Match:    func(key interface{}) bool { return MatchSTBox(s, key.(box.STBox), probe) },
	})
	if err != nil {
		return nil, err
	}
	out := make([]box.STBox, len(raw))
	for i, k := range raw {
		out[i] = k.(box.STBox)
	}
	return out, nil
}
