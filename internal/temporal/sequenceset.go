package temporal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// TSequenceSet is a set of sequences with strictly ordered, non-overlapping
// periods. All member instants live in one contiguous arena owned by the
// set; each sequence views a subslice of it.
type TSequenceSet struct {
	seqs []TSequence
	srid int32
}

// NewSequenceSet validates and builds a sequence set. With normalize set,
// sequences whose periods are adjacent and whose joining instants agree per
// the interpolation rule are merged.
func NewSequenceSet(seqs []*TSequence, normalize bool) (*TSequenceSet, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w: empty sequence set", terrors.ErrInvalidArg)
	}
	bt := seqs[0].BaseType()
	interp := seqs[0].interp
	for _, s := range seqs {
		if s.BaseType() != bt {
			return nil, fmt.Errorf("%w: mixed base types in sequence set", terrors.ErrTypeMismatch)
		}
		if s.interp != interp {
			return nil, fmt.Errorf("%w: mixed interpolation in sequence set", terrors.ErrInvalidArg)
		}
	}
	sorted := make([]*TSequence, len(seqs))
	copy(sorted, seqs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period().Cmp(sorted[j].Period()) < 0 })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Period().Overlaps(sorted[i].Period()) {
			return nil, fmt.Errorf("%w: overlapping sequence periods", terrors.ErrInvalidArg)
		}
	}
	if normalize {
		sorted = mergeAdjacent(sorted)
	}
	// repack into a single instant arena
	total := 0
	for _, s := range sorted {
		total += len(s.insts)
	}
	arena := make([]TInstant, 0, total)
	views := make([]TSequence, len(sorted))
	for i, s := range sorted {
		start := len(arena)
		arena = append(arena, s.insts...)
		views[i] = TSequence{insts: arena[start : start+len(s.insts) : start+len(s.insts)],
			lowerInc: s.lowerInc, upperInc: s.upperInc, interp: s.interp, srid: s.srid}
	}
	return &TSequenceSet{seqs: views, srid: sorted[0].srid}, nil
}

// mergeAdjacent coalesces sequences whose periods touch and whose joining
// instants carry the same value under the set's interpolation.
func mergeAdjacent(seqs []*TSequence) []*TSequence {
	out := []*TSequence{seqs[0]}
	for _, s := range seqs[1:] {
		last := out[len(out)-1]
		if canJoin(last, s) {
			insts := append(append([]TInstant{}, last.insts...), s.insts[1:]...)
			merged := &TSequence{insts: insts, lowerInc: last.lowerInc,
				upperInc: s.upperInc, interp: s.interp, srid: s.srid}
			out[len(out)-1] = merged
			continue
		}
		out = append(out, s)
	}
	return out
}

func canJoin(a, b *TSequence) bool {
	if !a.Period().Adjacent(b.Period()) {
		return false
	}
	ea, sb := a.EndInstant(), b.StartInstant()
	if ea.T != sb.T {
		return false
	}
	return ea.Val.Equal(sb.Val)
}

// FromSequences builds a normalized set from the given sequences.
func FromSequences(seqs ...*TSequence) (*TSequenceSet, error) {
	return NewSequenceSet(seqs, true)
}

func (s *TSequenceSet) Subtype() Subtype      { return SubSequenceSet }
func (s *TSequenceSet) Interpolation() Interp { return s.seqs[0].interp }
func (s *TSequenceSet) BaseType() BaseType    { return s.seqs[0].BaseType() }
func (s *TSequenceSet) SRID() int32           { return s.srid }
func (s *TSequenceSet) NumSequences() int     { return len(s.seqs) }

// SequenceN returns a view of the n-th member sequence.
func (s *TSequenceSet) SequenceN(n int) *TSequence { return &s.seqs[n] }

// Sequences returns views of all member sequences.
func (s *TSequenceSet) Sequences() []*TSequence {
	out := make([]*TSequence, len(s.seqs))
	for i := range s.seqs {
		out[i] = &s.seqs[i]
	}
	return out
}

func (s *TSequenceSet) NumInstants() int {
	n := 0
	for i := range s.seqs {
		n += len(s.seqs[i].insts)
	}
	return n
}

func (s *TSequenceSet) Instants() []TInstant {
	out := make([]TInstant, 0, s.NumInstants())
	for i := range s.seqs {
		out = append(out, s.seqs[i].insts...)
	}
	return out
}

func (s *TSequenceSet) Period() span.Span {
	first, last := s.seqs[0].Period(), s.seqs[len(s.seqs)-1].Period()
	return span.Span{Lower: first.Lower, LowerInc: first.LowerInc,
		Upper: last.Upper, UpperInc: last.UpperInc, Basetype: span.Timestamp}
}

func (s *TSequenceSet) Timespan() span.SpanSet {
	spans := make([]span.Span, len(s.seqs))
	for i := range s.seqs {
		spans[i] = s.seqs[i].Period()
	}
	ss, _ := span.MakeSet(spans)
	return ss
}

func (s *TSequenceSet) ValueAt(t TS, strict bool) (Value, bool) {
	for i := range s.seqs {
		if v, ok := s.seqs[i].ValueAt(t, strict); ok {
			return v, true
		}
	}
	return Value{}, false
}

func (s *TSequenceSet) MinValue() (Value, bool) { return minValue(s.Instants()) }
func (s *TSequenceSet) MaxValue() (Value, bool) { return maxValue(s.Instants()) }

func (s *TSequenceSet) Hash() uint64 {
	var h uint64 = 1469598103934665603
	for i := range s.seqs {
		h = (h ^ s.seqs[i].Hash()) * 1099511628211
	}
	return h
}

func (s *TSequenceSet) Equal(o Temporal) bool {
	os, ok := o.(*TSequenceSet)
	if !ok || len(s.seqs) != len(os.seqs) {
		return false
	}
	for i := range s.seqs {
		if !s.seqs[i].Equal(&os.seqs[i]) {
			return false
		}
	}
	return true
}

func (s *TSequenceSet) String() string {
	parts := make([]string, len(s.seqs))
	for i := range s.seqs {
		parts[i] = s.seqs[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Duration returns the summed duration of the member sequences.
func (s *TSequenceSet) Duration() int64 {
	var d int64
	for i := range s.seqs {
		d += s.seqs[i].Duration()
	}
	return d
}

// asSequenceSetResult packs restriction output: nil for empty, the single
// sequence itself for one fragment, a set otherwise.
func asSequenceSetResult(seqs []*TSequence) Temporal {
	switch len(seqs) {
	case 0:
		return nil
	case 1:
		return seqs[0]
	default:
		ss, err := NewSequenceSet(seqs, true)
		if err != nil {
			return nil
		}
		return ss
	}
}
