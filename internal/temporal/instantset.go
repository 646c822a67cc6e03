package temporal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// TInstantSet is a non-empty set of instants at strictly increasing
// timestamps with discrete interpolation: the value is undefined between
// samples.
type TInstantSet struct {
	insts []TInstant
	srid  int32
}

// NewInstantSet validates and builds an instant set. Input instants are
// sorted; duplicate timestamps with equal values collapse, with conflicting
// values they are an error.
func NewInstantSet(insts []TInstant) (*TInstantSet, error) {
	if len(insts) == 0 {
		return nil, fmt.Errorf("%w: empty instant set", terrors.ErrInvalidArg)
	}
	bt := insts[0].Val.Type
	srid := insts[0].srid
	sorted := make([]TInstant, len(insts))
	copy(sorted, insts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	out := sorted[:1]
	for _, in := range sorted[1:] {
		if in.Val.Type != bt {
			return nil, fmt.Errorf("%w: mixed base types in instant set", terrors.ErrTypeMismatch)
		}
		last := out[len(out)-1]
		if in.T == last.T {
			if !in.Val.Equal(last.Val) {
				return nil, fmt.Errorf("%w: two values at timestamp %d", terrors.ErrInvalidArg, in.T)
			}
			continue
		}
		out = append(out, in)
	}
	res := make([]TInstant, len(out))
	copy(res, out)
	return &TInstantSet{insts: res, srid: srid}, nil
}

func (s *TInstantSet) Subtype() Subtype      { return SubInstantSet }
func (s *TInstantSet) Interpolation() Interp { return InterpDiscrete }
func (s *TInstantSet) BaseType() BaseType    { return s.insts[0].Val.Type }
func (s *TInstantSet) SRID() int32           { return s.srid }
func (s *TInstantSet) NumInstants() int      { return len(s.insts) }
func (s *TInstantSet) Instants() []TInstant  { return s.insts }

func (s *TInstantSet) Period() span.Span {
	return span.MustPeriod(s.insts[0].T, s.insts[len(s.insts)-1].T, true, true)
}

func (s *TInstantSet) Timespan() span.SpanSet {
	spans := make([]span.Span, len(s.insts))
	for i, in := range s.insts {
		spans[i] = span.Instant(in.T)
	}
	ss, _ := span.MakeSet(spans)
	return ss
}

func (s *TInstantSet) ValueAt(t TS, strict bool) (Value, bool) {
	i := sort.Search(len(s.insts), func(i int) bool { return s.insts[i].T >= t })
	if i < len(s.insts) && s.insts[i].T == t {
		return s.insts[i].Val, true
	}
	return Value{}, false
}

func (s *TInstantSet) MinValue() (Value, bool) { return minValue(s.insts) }
func (s *TInstantSet) MaxValue() (Value, bool) { return maxValue(s.insts) }

func (s *TInstantSet) Hash() uint64 {
	var h uint64 = 1469598103934665603
	for _, in := range s.insts {
		h = (h ^ in.Val.Hash() ^ uint64(in.T)) * 1099511628211
	}
	return h
}

func (s *TInstantSet) Equal(o Temporal) bool {
	os, ok := o.(*TInstantSet)
	if !ok || len(s.insts) != len(os.insts) || s.srid != os.srid {
		return false
	}
	for i := range s.insts {
		if s.insts[i].T != os.insts[i].T || !s.insts[i].Val.Equal(os.insts[i].Val) {
			return false
		}
	}
	return true
}

func (s *TInstantSet) String() string {
	parts := make([]string, len(s.insts))
	for i, in := range s.insts {
		parts[i] = in.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
