package span

import (
	"fmt"
	"sort"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// SpanSet is a strictly sorted array of pairwise disjoint, non-adjacent
// spans. Construction normalizes: sorting, merging overlaps and coalescing
// adjacent spans.
type SpanSet struct {
	Spans []Span
}

// MakeSet normalizes the given spans into a set. All spans must share a base
// type. An empty input yields an empty set.
func MakeSet(spans []Span) (SpanSet, error) {
	if len(spans) == 0 {
		return SpanSet{}, nil
	}
	bt := spans[0].Basetype
	for _, s := range spans[1:] {
		if s.Basetype != bt {
			return SpanSet{}, fmt.Errorf("%w: mixed base types in span set", terrors.ErrTypeMismatch)
		}
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	out := sorted[:1]
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if last.Overlaps(s) || last.Adjacent(s) {
			u, err := last.Union(s, true)
			if err != nil {
				return SpanSet{}, err
			}
			*last = u.Spans[0]
			continue
		}
		out = append(out, s)
	}
	res := make([]Span, len(out))
	copy(res, out)
	return SpanSet{Spans: res}, nil
}

// FromSpan wraps a single span.
func FromSpan(s Span) SpanSet { return SpanSet{Spans: []Span{s}} }

// IsEmpty reports an empty set.
func (ss SpanSet) IsEmpty() bool { return len(ss.Spans) == 0 }

// NumSpans returns the number of disjoint spans.
func (ss SpanSet) NumSpans() int { return len(ss.Spans) }

// Hull returns the bounding span of the whole set.
func (ss SpanSet) Hull() (Span, bool) {
	if ss.IsEmpty() {
		return Span{}, false
	}
	first, last := ss.Spans[0], ss.Spans[len(ss.Spans)-1]
	return Span{Lower: first.Lower, LowerInc: first.LowerInc,
		Upper: last.Upper, UpperInc: last.UpperInc, Basetype: first.Basetype}, true
}

// Width returns the summed width of the member spans.
func (ss SpanSet) Width() float64 {
	var w float64
	for _, s := range ss.Spans {
		w += s.Width()
	}
	return w
}

func (ss SpanSet) String() string {
	out := "{"
	for i, s := range ss.Spans {
		if i > 0 {
			out += ", "
		}
		out += s.String()
	}
	return out + "}"
}

// Hash folds the member span hashes.
func (ss SpanSet) Hash() uint64 {
	var h uint64 = 1469598103934665603
	for _, s := range ss.Spans {
		h = (h ^ s.Hash()) * 1099511628211
	}
	return h
}

// Equal reports structural equality.
func (ss SpanSet) Equal(o SpanSet) bool {
	if len(ss.Spans) != len(o.Spans) {
		return false
	}
	for i := range ss.Spans {
		if ss.Spans[i] != o.Spans[i] {
			return false
		}
	}
	return true
}

// locate returns the index of the first span whose upper bound is not before
// v, i.e. the candidate containing span.
func (ss SpanSet) locate(v float64) int {
	return sort.Search(len(ss.Spans), func(i int) bool {
		s := ss.Spans[i]
		return v < s.Upper || (v == s.Upper && s.UpperInc)
	})
}

// ContainsValue reports whether v lies in any member span.
func (ss SpanSet) ContainsValue(v float64) bool {
	i := ss.locate(v)
	return i < len(ss.Spans) && ss.Spans[i].ContainsValue(v)
}

// ContainsTS reports whether a timestamp lies in the set.
func (ss SpanSet) ContainsTS(t int64) bool { return ss.ContainsValue(float64(t)) }

// ContainsSpan reports whether s lies fully inside one member span.
func (ss SpanSet) ContainsSpan(s Span) bool {
	i := ss.locate(s.Lower)
	return i < len(ss.Spans) && ss.Spans[i].Contains(s)
}

// ContainsSet reports whether every member of o is covered.
func (ss SpanSet) ContainsSet(o SpanSet) bool {
	for _, s := range o.Spans {
		if !ss.ContainsSpan(s) {
			return false
		}
	}
	return true
}

// Overlaps reports a non-empty intersection with the span.
func (ss SpanSet) Overlaps(s Span) bool {
	for _, m := range ss.Spans {
		if m.Overlaps(s) {
			return true
		}
		if m.After(s) {
			break
		}
	}
	return false
}

// OverlapsSet reports a non-empty intersection of two sets by merge scan.
func (ss SpanSet) OverlapsSet(o SpanSet) bool {
	i, j := 0, 0
	for i < len(ss.Spans) && j < len(o.Spans) {
		a, b := ss.Spans[i], o.Spans[j]
		if a.Overlaps(b) {
			return true
		}
		if a.Before(b) {
			i++
		} else {
			j++
		}
	}
	return false
}

// Adjacent reports the set touches the span without overlap.
func (ss SpanSet) Adjacent(s Span) bool {
	for _, m := range ss.Spans {
		if m.Adjacent(s) {
			return true
		}
	}
	return false
}

// UnionSpan adds a span to the set.
func (ss SpanSet) UnionSpan(s Span) (SpanSet, error) {
	return MakeSet(append(append([]Span{}, ss.Spans...), s))
}

// UnionSet merges two sets with on-the-fly coalescing.
func (ss SpanSet) UnionSet(o SpanSet) (SpanSet, error) {
	return MakeSet(append(append([]Span{}, ss.Spans...), o.Spans...))
}

// IntersectSpan restricts the set to a span.
func (ss SpanSet) IntersectSpan(s Span) SpanSet {
	var out []Span
	for _, m := range ss.Spans {
		if r, ok := m.Intersection(s); ok {
			out = append(out, r)
		} else if m.After(s) {
			break
		}
	}
	return SpanSet{Spans: out}
}

// IntersectSet intersects two sets by merge scan.
func (ss SpanSet) IntersectSet(o SpanSet) SpanSet {
	var out []Span
	i, j := 0, 0
	for i < len(ss.Spans) && j < len(o.Spans) {
		a, b := ss.Spans[i], o.Spans[j]
		if r, ok := a.Intersection(b); ok {
			out = append(out, r)
		}
		// advance the span ending first
		if cmpBound(a.Upper, a.UpperInc, false, b.Upper, b.UpperInc, false) <= 0 {
			i++
		} else {
			j++
		}
	}
	return SpanSet{Spans: out}
}

// MinusSpan removes a span from the set.
func (ss SpanSet) MinusSpan(s Span) SpanSet {
	var out []Span
	for _, m := range ss.Spans {
		out = append(out, m.Difference(s)...)
	}
	return SpanSet{Spans: out}
}

// MinusSet removes every span of o from the set.
func (ss SpanSet) MinusSet(o SpanSet) SpanSet {
	cur := ss
	for _, s := range o.Spans {
		cur = cur.MinusSpan(s)
	}
	return cur
}

// Distance returns the gap between the set and a span, 0 on contact.
func (ss SpanSet) Distance(s Span) float64 {
	best := -1.0
	for _, m := range ss.Spans {
		d := m.Distance(s)
		if d == 0 {
			return 0
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// ShiftScale applies Span.ShiftScale to a timestamp span set, rescaling the
// whole set around its hull origin.
func (ss SpanSet) ShiftScale(shift int64, scale float64) SpanSet {
	hull, ok := ss.Hull()
	if !ok {
		return ss
	}
	origin := hull.Lower
	out := make([]Span, len(ss.Spans))
	for i, m := range ss.Spans {
		r := m
		if scale > 0 {
			r.Lower = origin + (m.Lower-origin)*scale
			r.Upper = origin + (m.Upper-origin)*scale
		}
		r.Lower += float64(shift)
		r.Upper += float64(shift)
		out[i] = r
	}
	return SpanSet{Spans: out}
}
