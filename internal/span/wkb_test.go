package span

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSpanWKBRoundTrip(t *testing.T) {
	cases := []Span{
		mustMake(t, 1, 5, true, false, Float),
		mustMake(t, -3, 9, false, true, Float),
		mustMake(t, 1, 4, true, true, Int),
		MustPeriod(1_000_000, 2_000_000, true, false),
	}
	for _, s := range cases {
		back, err := ParseWKB(s.WKB())
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		if diff := cmp.Diff(s, back); diff != "" {
			t.Fatalf("round trip %s: %s", s, diff)
		}
	}
}

func TestSpanSetWKBRoundTrip(t *testing.T) {
	ss := makeFloatSet(t, 1, 2, 4, 6, 9, 12)
	back, err := ParseSetWKB(ss.WKB())
	if err != nil {
		t.Fatal(err)
	}
	if !ss.Equal(back) {
		t.Fatalf("round trip: %s vs %s", ss, back)
	}
}

func TestHexWKBIsUppercaseHex(t *testing.T) {
	s := mustMake(t, 1, 5, true, false, Float)
	h := s.HexWKB()
	if h != strings.ToUpper(h) || strings.Contains(h, " ") {
		t.Fatalf("hexwkb format: %q", h)
	}
	back, err := ParseHexWKB(h)
	if err != nil || back != s {
		t.Fatalf("hex round trip: %v %v", back, err)
	}
}

func TestWKBRejectsGarbage(t *testing.T) {
	if _, err := ParseWKB([]byte{0x7f}); err == nil {
		t.Fatal("bad tag accepted")
	}
	if _, err := ParseSetHexWKB("nothex"); err == nil {
		t.Fatal("bad hex accepted")
	}
}
