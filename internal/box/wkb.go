package box

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/trajectory.engine/internal/span"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Versioned binary frames for boxes, little endian, mirroring the span
// frame conventions.

const (
	wkbTagTBox  = 0x03
	wkbTagSTBox = 0x04
	wkbVersion  = 0x01
)

func putF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func getF64(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated box frame", terrors.ErrInvalidArg)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

func putSpan(buf *bytes.Buffer, s span.Span) {
	raw := s.WKB()
	buf.Write(raw[2:]) // strip the span frame header, keep the payload
}

func getSpan(r *bytes.Reader) (span.Span, error) {
	var payload [18]byte
	if _, err := r.Read(payload[:]); err != nil {
		return span.Span{}, fmt.Errorf("%w: truncated box frame", terrors.ErrInvalidArg)
	}
	framed := append([]byte{0x01, wkbVersion}, payload[:]...)
	return span.ParseWKB(framed)
}

// WKB serializes the TBox.
func (b TBox) WKB() []byte {
	var buf bytes.Buffer
	buf.WriteByte(wkbTagTBox)
	buf.WriteByte(wkbVersion)
	var fl byte
	if b.HasValue() {
		fl |= 1
	}
	if b.HasTime() {
		fl |= 2
	}
	buf.WriteByte(fl)
	if b.HasValue() {
		putSpan(&buf, *b.Value)
	}
	if b.HasTime() {
		putSpan(&buf, *b.Time)
	}
	return buf.Bytes()
}

// HexWKB serializes the TBox as uppercase hex.
func (b TBox) HexWKB() string { return strings.ToUpper(hex.EncodeToString(b.WKB())) }

// ParseTBoxWKB decodes a TBox frame.
func ParseTBoxWKB(data []byte) (TBox, error) {
	r := bytes.NewReader(data)
	if err := expectHeader(r, wkbTagTBox); err != nil {
		return TBox{}, err
	}
	fl, err := r.ReadByte()
	if err != nil {
		return TBox{}, fmt.Errorf("%w: truncated TBox frame", terrors.ErrInvalidArg)
	}
	var value, tm *span.Span
	if fl&1 != 0 {
		s, err := getSpan(r)
		if err != nil {
			return TBox{}, err
		}
		value = &s
	}
	if fl&2 != 0 {
		s, err := getSpan(r)
		if err != nil {
			return TBox{}, err
		}
		tm = &s
	}
	return MakeTBox(value, tm)
}

// ParseTBoxHexWKB decodes an uppercase-hex TBox frame.
func ParseTBoxHexWKB(s string) (TBox, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return TBox{}, fmt.Errorf("%w: bad hex: %v", terrors.ErrInvalidArg, err)
	}
	return ParseTBoxWKB(raw)
}

// WKB serializes the STBox.
func (b STBox) WKB() []byte {
	var buf bytes.Buffer
	buf.WriteByte(wkbTagSTBox)
	buf.WriteByte(wkbVersion)
	var fl byte
	if b.HasX {
		fl |= 1
	}
	if b.HasZ {
		fl |= 2
	}
	if b.HasTime() {
		fl |= 4
	}
	if b.Geodetic {
		fl |= 8
	}
	buf.WriteByte(fl)
	var srid [4]byte
	binary.LittleEndian.PutUint32(srid[:], uint32(b.SRID))
	buf.Write(srid[:])
	if b.HasX {
		putF64(&buf, b.XMin)
		putF64(&buf, b.XMax)
		putF64(&buf, b.YMin)
		putF64(&buf, b.YMax)
	}
	if b.HasZ {
		putF64(&buf, b.ZMin)
		putF64(&buf, b.ZMax)
	}
	if b.HasTime() {
		putSpan(&buf, *b.Time)
	}
	return buf.Bytes()
}

// HexWKB serializes the STBox as uppercase hex.
func (b STBox) HexWKB() string { return strings.ToUpper(hex.EncodeToString(b.WKB())) }

// ParseSTBoxWKB decodes an STBox frame.
func ParseSTBoxWKB(data []byte) (STBox, error) {
	r := bytes.NewReader(data)
	if err := expectHeader(r, wkbTagSTBox); err != nil {
		return STBox{}, err
	}
	fl, err := r.ReadByte()
	if err != nil {
		return STBox{}, fmt.Errorf("%w: truncated STBox frame", terrors.ErrInvalidArg)
	}
	var srid [4]byte
	if _, err := r.Read(srid[:]); err != nil {
		return STBox{}, fmt.Errorf("%w: truncated STBox frame", terrors.ErrInvalidArg)
	}
	out := STBox{
		HasX:     fl&1 != 0,
		HasZ:     fl&2 != 0,
		Geodetic: fl&8 != 0,
		SRID:     int32(binary.LittleEndian.Uint32(srid[:])),
	}
	var ferr error
	read := func() float64 {
		if ferr != nil {
			return 0
		}
		var v float64
		v, ferr = getF64(r)
		return v
	}
	if out.HasX {
		out.XMin, out.XMax = read(), read()
		out.YMin, out.YMax = read(), read()
	}
	if out.HasZ {
		out.ZMin, out.ZMax = read(), read()
	}
	if ferr != nil {
		return STBox{}, ferr
	}
	if fl&4 != 0 {
		s, err := getSpan(r)
		if err != nil {
			return STBox{}, err
		}
		out.Time = &s
	}
	return MakeSTBox(out)
}

// ParseSTBoxHexWKB decodes an uppercase-hex STBox frame.
func ParseSTBoxHexWKB(s string) (STBox, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return STBox{}, fmt.Errorf("%w: bad hex: %v", terrors.ErrInvalidArg, err)
	}
	return ParseSTBoxWKB(raw)
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
