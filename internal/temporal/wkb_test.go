package temporal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.engine/internal/geo"
)

func roundTrip(t *testing.T, in Temporal) Temporal {
	t.Helper()
	raw, err := WKB(in)
	require.NoError(t, err)
	out, err := ParseWKB(raw)
	require.NoError(t, err)
	require.True(t, in.Equal(out), cmp.Diff(in.String(), out.String()))
	return out
}

func TestWKBRoundTripInstant(t *testing.T) {
	roundTrip(t, NewInstant(Float(3.25), day(1)))
	roundTrip(t, NewInstant(Bool(true), day(1)))
	roundTrip(t, NewInstant(Text("hello"), day(2)))
	roundTrip(t, NewInstant(Int(-7), day(2)))
	roundTrip(t, NewPointInstant(GeomPoint(geo.MakePointZ(1, 2, 3)), day(1), 4326))
}

func TestWKBRoundTripInstantSet(t *testing.T) {
	iset, err := NewInstantSet([]TInstant{
		{Val: Float(1), T: day(1)},
		{Val: Float(2), T: day(3)},
	})
	require.NoError(t, err)
	roundTrip(t, iset)
}

func TestWKBRoundTripSequence(t *testing.T) {
	roundTrip(t, floatSeq(t, InterpLinear, true, false, 1, 1, 3, 9))
	roundTrip(t, floatSeq(t, InterpStep, false, true, 1, 1, 3, 9))
	roundTrip(t, pointSeq(t, 1, 0, 0, 2, 10, 10))
}

func TestWKBRoundTripSequenceSet(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 1, 2, 2)
	b := floatSeq(t, InterpLinear, true, true, 4, 4, 6, 8)
	ss, err := NewSequenceSet([]*TSequence{a, b}, false)
	require.NoError(t, err)
	roundTrip(t, ss)
}

func TestHexWKBUppercase(t *testing.T) {
	h, err := HexWKB(floatSeq(t, InterpLinear, true, true, 1, 1, 3, 9))
	require.NoError(t, err)
	require.Equal(t, strings.ToUpper(h), h)
	require.NotContains(t, h, " ")
	back, err := ParseHexWKB(h)
	require.NoError(t, err)
	require.Equal(t, SubSequence, back.Subtype())
}

func TestWKBRejectsGarbage(t *testing.T) {
	_, err := ParseWKB([]byte{0xff, 0x01})
	require.Error(t, err)
	_, err = ParseWKB(nil)
	require.Error(t, err)
	_, err = ParseHexWKB("zz")
	require.Error(t, err)
}
