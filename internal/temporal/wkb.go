package temporal

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Versioned binary frame for temporal values, little endian:
//
//	tag byte (0x05), version byte,
//	flags uint16: basetype (bits 0-3), interp (bits 4-5), hasZ (bit 6),
//	              geodetic (bit 7), hasBBox (bit 8),
//	subtype byte, srid int32,
//	optional bbox blob: uint32 size + frame from the box package,
//	payload packed per subtype.
//
// Every serializer round-trips through its parser on non-error input.

const (
	wkbTagTemporal = 0x05
	wkbVersion     = 0x01

	flagInterpShift = 4
	flagHasZ        = 1 << 6
	flagGeodetic    = 1 << 7
	flagHasBBox     = 1 << 8
)

// WKB serializes a temporal value.
func WKB(t Temporal) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	var buf bytes.Buffer
	buf.WriteByte(wkbTagTemporal)
	buf.WriteByte(wkbVersion)

	bt := t.BaseType()
	flags := uint16(bt)
	flags |= uint16(t.Interpolation()) << flagInterpShift
	if bt.IsPoint() && t.Instants()[0].Val.P.HasZ {
		flags |= flagHasZ
	}
	if bt == BTGeogPoint {
		flags |= flagGeodetic
	}
	bbox := bboxBlob(t)
	if bbox != nil {
		flags |= flagHasBBox
	}
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], flags)
	buf.Write(u16[:])
	buf.WriteByte(byte(t.Subtype()))
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(t.SRID()))
	buf.Write(u32[:])
	if bbox != nil {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(bbox)))
		buf.Write(u32[:])
		buf.Write(bbox)
	}

	switch v := t.(type) {
	case *TInstant:
		putInstant(&buf, *v)
	case *TInstantSet:
		putInstants(&buf, v.insts)
	case *TSequence:
		putSequence(&buf, v)
	case *TSequenceSet:
		binary.LittleEndian.PutUint32(u32[:], uint32(len(v.seqs)))
		buf.Write(u32[:])
		for i := range v.seqs {
			putSequence(&buf, &v.seqs[i])
		}
	}
	return buf.Bytes(), nil
}

// HexWKB serializes a temporal value as uppercase hex.
func HexWKB(t Temporal) (string, error) {
	raw, err := WKB(t)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// bboxBlob serializes the bounding box, computed from the instants, for
// subtypes that carry one in the frame.
func bboxBlob(t Temporal) []byte {
	if t.Subtype() == SubInstant {
		return nil
	}
	if t.BaseType().IsNumber() {
		b, err := TBoxOf(t)
		if err != nil {
			return nil
		}
		return b.WKB()
	}
	if t.BaseType().IsPoint() {
		b, err := STBoxOf(t)
		if err != nil {
			return nil
		}
		return b.WKB()
	}
	return nil
}

func putInstant(buf *bytes.Buffer, in TInstant) {
	putValue(buf, in.Val)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(in.T))
	buf.Write(b[:])
}

func putInstants(buf *bytes.Buffer, insts []TInstant) {
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(insts)))
	buf.Write(u32[:])
	for _, in := range insts {
		putInstant(buf, in)
	}
}

func putSequence(buf *bytes.Buffer, s *TSequence) {
	var fl byte
	if s.lowerInc {
		fl |= 1
	}
	if s.upperInc {
		fl |= 2
	}
	buf.WriteByte(fl)
	putInstants(buf, s.insts)
}

func putValue(buf *bytes.Buffer, v Value) {
	var b [8]byte
	switch v.Type {
	case BTBool:
		if v.B {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case BTInt:
		binary.LittleEndian.PutUint64(b[:], uint64(v.I))
		buf.Write(b[:])
	case BTFloat:
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.F))
		buf.Write(b[:])
	case BTText:
		binary.LittleEndian.PutUint32(b[:4], uint32(len(v.S)))
		buf.Write(b[:4])
		buf.WriteString(v.S)
	case BTGeomPoint, BTGeogPoint:
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.P.X))
		buf.Write(b[:])
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.P.Y))
		buf.Write(b[:])
		if v.P.HasZ {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.P.Z))
			buf.Write(b[:])
		}
	}
}

type wkbHeader struct {
	basetype BaseType
	interp   Interp
	hasZ     bool
	subtype  Subtype
	srid     int32
}

// ParseWKB decodes a temporal frame.
func ParseWKB(data []byte) (Temporal, error) {
	r := bytes.NewReader(data)
	tag, err := r.ReadByte()
	if err != nil || tag != wkbTagTemporal {
		return nil, fmt.Errorf("%w: bad temporal frame tag", terrors.ErrInvalidArg)
	}
	ver, err := r.ReadByte()
	if err != nil || ver != wkbVersion {
		return nil, fmt.Errorf("%w: unsupported temporal frame version", terrors.ErrInvalidArg)
	}
	var u16 [2]byte
	if _, err := r.Read(u16[:]); err != nil {
		return nil, truncated()
	}
	flags := binary.LittleEndian.Uint16(u16[:])
	sub, err := r.ReadByte()
	if err != nil {
		return nil, truncated()
	}
	var u32 [4]byte
	if _, err := r.Read(u32[:]); err != nil {
		return nil, truncated()
	}
	h := wkbHeader{
		basetype: BaseType(flags & 0x0f),
		interp:   Interp((flags >> flagInterpShift) & 0x03),
		hasZ:     flags&flagHasZ != 0,
		subtype:  Subtype(sub),
		srid:     int32(binary.LittleEndian.Uint32(u32[:])),
	}
	if flags&flagHasBBox != 0 {
		if _, err := r.Read(u32[:]); err != nil {
			return nil, truncated()
		}
		skip := binary.LittleEndian.Uint32(u32[:])
		// the bbox is derived from the instants, so the parser skips it
		if _, err := r.Seek(int64(skip), 1); err != nil {
			return nil, truncated()
		}
	}
	switch h.subtype {
	case SubInstant:
		in, err := readInstant(r, h)
		if err != nil {
			return nil, err
		}
		return &TInstant{Val: in.Val, T: in.T, srid: h.srid}, nil
	case SubInstantSet:
		insts, err := readInstants(r, h)
		if err != nil {
			return nil, err
		}
		return NewInstantSet(insts)
	case SubSequence:
		return readSequence(r, h)
	case SubSequenceSet:
		if _, err := r.Read(u32[:]); err != nil {
			return nil, truncated()
		}
		n := binary.LittleEndian.Uint32(u32[:])
		seqs := make([]*TSequence, 0, n)
		for i := uint32(0); i < n; i++ {
			s, err := readSequence(r, h)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, s)
		}
		return NewSequenceSet(seqs, false)
	}
	return nil, fmt.Errorf("%w: unknown subtype tag %d", terrors.ErrInvalidArg, sub)
}

// ParseHexWKB decodes an uppercase-hex temporal frame.
func ParseHexWKB(s string) (Temporal, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad hex: %v", terrors.ErrInvalidArg, err)
	}
	return ParseWKB(raw)
}

func truncated() error {
	return fmt.Errorf("%w: truncated temporal frame", terrors.ErrInvalidArg)
}

func readInstant(r *bytes.Reader, h wkbHeader) (TInstant, error) {
	v, err := readValue(r, h)
	if err != nil {
		return TInstant{}, err
	}
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return TInstant{}, truncated()
	}
	return TInstant{Val: v, T: int64(binary.LittleEndian.Uint64(b[:])), srid: h.srid}, nil
}

func readInstants(r *bytes.Reader, h wkbHeader) ([]TInstant, error) {
	var u32 [4]byte
	if _, err := r.Read(u32[:]); err != nil {
		return nil, truncated()
	}
	n := binary.LittleEndian.Uint32(u32[:])
	insts := make([]TInstant, 0, n)
	for i := uint32(0); i < n; i++ {
		in, err := readInstant(r, h)
		if err != nil {
			return nil, err
		}
		insts = append(insts, in)
	}
	return insts, nil
}

func readSequence(r *bytes.Reader, h wkbHeader) (*TSequence, error) {
	fl, err := r.ReadByte()
	if err != nil {
		return nil, truncated()
	}
	insts, err := readInstants(r, h)
	if err != nil {
		return nil, err
	}
	return NewSequence(insts, fl&1 != 0, fl&2 != 0, h.interp, false)
}

func readValue(r *bytes.Reader, h wkbHeader) (Value, error) {
	var b [8]byte
	switch h.basetype {
	case BTBool:
		c, err := r.ReadByte()
		if err != nil {
			return Value{}, truncated()
		}
		return Bool(c != 0), nil
	case BTInt:
		if _, err := r.Read(b[:]); err != nil {
			return Value{}, truncated()
		}
		return Int(int64(binary.LittleEndian.Uint64(b[:]))), nil
	case BTFloat:
		if _, err := r.Read(b[:]); err != nil {
			return Value{}, truncated()
		}
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(b[:]))), nil
	case BTText:
		if _, err := r.Read(b[:4]); err != nil {
			return Value{}, truncated()
		}
		n := binary.LittleEndian.Uint32(b[:4])
		s := make([]byte, n)
		if _, err := r.Read(s); err != nil {
			return Value{}, truncated()
		}
		return Text(string(s)), nil
	case BTGeomPoint, BTGeogPoint:
		var p geo.Point
		if _, err := r.Read(b[:]); err != nil {
			return Value{}, truncated()
		}
		p.X = math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
		if _, err := r.Read(b[:]); err != nil {
			return Value{}, truncated()
		}
		p.Y = math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
		if h.hasZ {
			if _, err := r.Read(b[:]); err != nil {
				return Value{}, truncated()
			}
			p.Z = math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
			p.HasZ = true
		}
		v := GeomPoint(p)
		if h.basetype == BTGeogPoint {
			v = GeogPoint(p)
		}
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: unknown base type tag %d", terrors.ErrInvalidArg, h.basetype)
}
