package span

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Versioned binary frame for spans and span sets. Layout is little endian:
// a tag byte, a version byte, then the payload. HexWKB is the uppercase hex
// of WKB with no whitespace.

const (
	wkbTagSpan    = 0x01
	wkbTagSpanSet = 0x02
	wkbVersion    = 0x01
)

func putSpanPayload(buf *bytes.Buffer, s Span) {
	var fl byte
	if s.LowerInc {
		fl |= 1
	}
	if s.UpperInc {
		fl |= 2
	}
	buf.WriteByte(byte(s.Basetype))
	buf.WriteByte(fl)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(s.Lower))
	buf.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(s.Upper))
	buf.Write(b[:])
}

func readSpanPayload(r *bytes.Reader) (Span, error) {
	bt, err := r.ReadByte()
	if err != nil {
		return Span{}, fmt.Errorf("%w: truncated span payload", terrors.ErrInvalidArg)
	}
	fl, err := r.ReadByte()
	if err != nil {
		return Span{}, fmt.Errorf("%w: truncated span payload", terrors.ErrInvalidArg)
	}
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return Span{}, fmt.Errorf("%w: truncated span payload", terrors.ErrInvalidArg)
	}
	lower := math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
	if _, err := r.Read(b[:]); err != nil {
		return Span{}, fmt.Errorf("%w: truncated span payload", terrors.ErrInvalidArg)
	}
	upper := math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
	return Span{Lower: lower, Upper: upper,
		LowerInc: fl&1 != 0, UpperInc: fl&2 != 0, Basetype: Basetype(bt)}, nil
}

// WKB serializes the span.
func (s Span) WKB() []byte {
	var buf bytes.Buffer
	buf.WriteByte(wkbTagSpan)
	buf.WriteByte(wkbVersion)
	putSpanPayload(&buf, s)
	return buf.Bytes()
}

// HexWKB serializes the span as uppercase hex.
func (s Span) HexWKB() string { return strings.ToUpper(hex.EncodeToString(s.WKB())) }

// ParseWKB decodes a span frame.
func ParseWKB(data []byte) (Span, error) {
	r := bytes.NewReader(data)
	if err := expectHeader(r, wkbTagSpan); err != nil {
		return Span{}, err
	}
	return readSpanPayload(r)
}

// WKB serializes the span set.
func (ss SpanSet) WKB() []byte {
	var buf bytes.Buffer
	buf.WriteByte(wkbTagSpanSet)
	buf.WriteByte(wkbVersion)
	bt := byte(0)
	if len(ss.Spans) > 0 {
		bt = byte(ss.Spans[0].Basetype)
	}
	buf.WriteByte(bt)
	var cnt [4]byte
	binary.LittleEndian.PutUint32(cnt[:], uint32(len(ss.Spans)))
	buf.Write(cnt[:])
	for _, s := range ss.Spans {
		putSpanPayload(&buf, s)
	}
	return buf.Bytes()
}

// HexWKB serializes the span set as uppercase hex.
func (ss SpanSet) HexWKB() string { return strings.ToUpper(hex.EncodeToString(ss.WKB())) }

// ParseSetWKB decodes a span set frame.
func ParseSetWKB(data []byte) (SpanSet, error) {
	r := bytes.NewReader(data)
	if err := expectHeader(r, wkbTagSpanSet); err != nil {
		return SpanSet{}, err
	}
	if _, err := r.ReadByte(); err != nil { // base type, informative
		return SpanSet{}, fmt.Errorf("%w: truncated span set", terrors.ErrInvalidArg)
	}
	var cnt [4]byte
	if _, err := r.Read(cnt[:]); err != nil {
		return SpanSet{}, fmt.Errorf("%w: truncated span set", terrors.ErrInvalidArg)
	}
	n := binary.LittleEndian.Uint32(cnt[:])
	spans := make([]Span, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := readSpanPayload(r)
		if err != nil {
			return SpanSet{}, err
		}
		spans = append(spans, s)
	}
	return MakeSet(spans)
}

// ParseHexWKB decodes an uppercase-hex span frame.
func ParseHexWKB(s string) (Span, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Span{}, fmt.Errorf("%w: bad hex: %v", terrors.ErrInvalidArg, err)
	}
	return ParseWKB(raw)
}

// ParseSetHexWKB decodes an uppercase-hex span set frame.
func ParseSetHexWKB(s string) (SpanSet, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return SpanSet{}, fmt.Errorf("%w: bad hex: %v", terrors.ErrInvalidArg, err)
	}
	return ParseSetWKB(raw)
}

func expectHeader(r *bytes.Reader, tag byte) error {
	got, err := r.ReadByte()
	if err != nil || got != tag {
		return fmt.Errorf("%w: bad frame tag", terrors.ErrInvalidArg)
	}
	ver, err := r.ReadByte()
	if err != nil || ver != wkbVersion {
		return fmt.Errorf("%w: unsupported frame version", terrors.ErrInvalidArg)
	}
	return nil
}
