package temporal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAlignsTimelines(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 0, 5, 8)
	b := floatSeq(t, InterpLinear, true, true, 3, 10, 7, 10)
	sum, err := Add(a, b)
	require.NoError(t, err)
	require.NotNil(t, sum)
	// shared domain is [d3, d5]
	hull, _ := sum.Timespan().Hull()
	require.Equal(t, day(3), hull.LowerTS())
	require.Equal(t, day(5), hull.UpperTS())
	v, ok := sum.ValueAt(day(4), true)
	require.True(t, ok)
	require.InDelta(t, 16.0, v.F, 1e-9) // 6 + 10
}

func TestAddDisjointIsNil(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 0, 2, 1)
	b := floatSeq(t, InterpLinear, true, true, 4, 0, 5, 1)
	sum, err := Add(a, b)
	require.NoError(t, err)
	require.Nil(t, sum)
}

func TestSubAgainstConstant(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 5, 3, 9)
	c, err := ConstLike(a, Float(5))
	require.NoError(t, err)
	diff, err := Sub(a, c)
	require.NoError(t, err)
	v, ok := diff.ValueAt(day(2), true)
	require.True(t, ok)
	require.InDelta(t, 2.0, v.F, 1e-9)
}

func TestMultTurningPoint(t *testing.T) {
	// f = t going 0..4, g = 4-t going 4..0 over four days; fg peaks at the
	// midpoint with value 4, which sampling endpoints alone would miss
	a := floatSeq(t, InterpLinear, true, true, 1, 0, 5, 4)
	b := floatSeq(t, InterpLinear, true, true, 1, 4, 5, 0)
	prod, err := Mult(a, b)
	require.NoError(t, err)
	maxV, ok := prod.MaxValue()
	require.True(t, ok)
	require.InDelta(t, 4.0, maxV.F, 1e-6)
	require.Equal(t, InterpLinear, prod.Interpolation())
}

func TestComparisonAddsCrossing(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 0, 5, 8)
	b := floatSeq(t, InterpLinear, true, true, 1, 8, 5, 0)
	lt, err := TLt(a, b)
	require.NoError(t, err)
	require.Equal(t, InterpStep, lt.Interpolation())
	// a < b until they cross at d3
	v, ok := lt.ValueAt(day(2), true)
	require.True(t, ok)
	require.True(t, v.B)
	v, ok = lt.ValueAt(day(3), true)
	require.True(t, ok)
	require.False(t, v.B)
	v, ok = lt.ValueAt(day(4), true)
	require.True(t, ok)
	require.False(t, v.B)
	// the crossing instant is a sample
	when, err := WhenTrue(lt)
	require.NoError(t, err)
	hull, _ := when.Timespan().Hull()
	require.Equal(t, day(3), hull.UpperTS())
}

func TestLiftDiscrete(t *testing.T) {
	iset, err := NewInstantSet([]TInstant{
		{Val: Float(1), T: day(1)},
		{Val: Float(2), T: day(2)},
		{Val: Float(3), T: day(9)},
	})
	require.NoError(t, err)
	seq := floatSeq(t, InterpLinear, true, true, 1, 10, 3, 30)
	sum, err := Add(iset, seq)
	require.NoError(t, err)
	require.Equal(t, SubInstantSet, sum.Subtype())
	// d9 falls outside the sequence, so only two samples survive
	require.Equal(t, 2, sum.NumInstants())
	require.InDelta(t, 11.0, sum.Instants()[0].Val.F, 1e-9)
	require.InDelta(t, 22.0, sum.Instants()[1].Val.F, 1e-9)
}

func TestTAndTOr(t *testing.T) {
	a := MustSequence([]TInstant{
		{Val: Bool(true), T: day(1)},
		{Val: Bool(false), T: day(3)},
	}, true, true, InterpStep, false)
	b := MustSequence([]TInstant{
		{Val: Bool(true), T: day(1)},
		{Val: Bool(true), T: day(3)},
	}, true, true, InterpStep, false)
	and, err := TAnd(a, b)
	require.NoError(t, err)
	v, ok := and.ValueAt(day(2), true)
	require.True(t, ok)
	require.True(t, v.B)
	v, ok = and.ValueAt(day(3), true)
	require.True(t, ok)
	require.False(t, v.B)
	or, err := TOr(a, b)
	require.NoError(t, err)
	v, ok = or.ValueAt(day(3), true)
	require.True(t, ok)
	require.True(t, v.B)
	not, err := TNot(and)
	require.NoError(t, err)
	v, ok = not.ValueAt(day(3), true)
	require.True(t, ok)
	require.True(t, v.B)
}

func TestTConcat(t *testing.T) {
	a := MustSequence([]TInstant{
		{Val: Text("ab"), T: day(1)},
		{Val: Text("cd"), T: day(3)},
	}, true, true, InterpStep, false)
	b, err := ConstLike(a, Text("!"))
	require.NoError(t, err)
	cat, err := TConcat(a, b)
	require.NoError(t, err)
	v, ok := cat.ValueAt(day(1), true)
	require.True(t, ok)
	require.Equal(t, "ab!", v.S)
}

func TestTypeMismatch(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 0, 3, 1)
	b := MustSequence([]TInstant{
		{Val: Text("x"), T: day(1)},
		{Val: Text("y"), T: day(3)},
	}, true, true, InterpStep, false)
	_, err := Add(a, b)
	require.Error(t, err)
}
