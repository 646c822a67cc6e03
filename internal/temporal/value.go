// Package temporal implements the temporal value model: time-indexed values
// in four subtypes (instant, instant set, sequence, sequence set) with
// discrete, step or linear interpolation, the restriction engine (at/minus),
// the lifting framework for pointwise binary operators, temporal distance
// and the similarity measures.
package temporal

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/banshee-data/trajectory.engine/internal/geo"
	"github.com/banshee-data/trajectory.engine/internal/numeric"
)

// BaseType enumerates the base types the model is parametric over.
type BaseType uint8

const (
	BTBool BaseType = iota + 1
	BTInt
	BTFloat
	BTText
	BTGeomPoint
	BTGeogPoint
)

func (b BaseType) String() string {
	switch b {
	case BTBool:
		return "bool"
	case BTInt:
		return "int"
	case BTFloat:
		return "float"
	case BTText:
		return "text"
	case BTGeomPoint:
		return "geompoint"
	case BTGeogPoint:
		return "geogpoint"
	}
	return fmt.Sprintf("basetype(%d)", uint8(b))
}

// CanLinear reports whether the base type supports linear interpolation.
func (b BaseType) CanLinear() bool {
	switch b {
	case BTFloat, BTGeomPoint, BTGeogPoint:
		return true
	}
	return false
}

// IsPoint reports the point-like bit enabling geometric operators.
func (b BaseType) IsPoint() bool { return b == BTGeomPoint || b == BTGeogPoint }

// IsNumber reports an orderable numeric base type.
func (b BaseType) IsNumber() bool { return b == BTInt || b == BTFloat }

// IsOrdered reports whether the base type has a total order.
func (b BaseType) IsOrdered() bool {
	switch b {
	case BTBool, BTInt, BTFloat, BTText:
		return true
	}
	return false
}

// Value is the tagged base value carried by temporal instants.
type Value struct {
	Type BaseType
	B    bool
	I    int64
	F    float64
	S    string
	P    geo.Point
}

func Bool(v bool) Value          { return Value{Type: BTBool, B: v} }
func Int(v int64) Value          { return Value{Type: BTInt, I: v} }
func Float(v float64) Value      { return Value{Type: BTFloat, F: v} }
func Text(v string) Value        { return Value{Type: BTText, S: v} }
func GeomPoint(p geo.Point) Value { return Value{Type: BTGeomPoint, P: p} }
func GeogPoint(p geo.Point) Value { return Value{Type: BTGeogPoint, P: p} }

func (v Value) String() string {
	switch v.Type {
	case BTBool:
		return strconv.FormatBool(v.B)
	case BTInt:
		return strconv.FormatInt(v.I, 10)
	case BTFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case BTText:
		return strconv.Quote(v.S)
	case BTGeomPoint, BTGeogPoint:
		return v.P.String()
	}
	return "?"
}

// Number returns the numeric content of an int or float value as float64.
// Numeric restrictors are always boxed through Float, never via an int path.
func (v Value) Number() float64 {
	if v.Type == BTInt {
		return float64(v.I)
	}
	return v.F
}

// Equal reports equality within the shared epsilon for float and point
// values, exact equality otherwise.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case BTBool:
		return v.B == o.B
	case BTInt:
		return v.I == o.I
	case BTFloat:
		return numeric.Float8Eq(v.F, o.F)
	case BTText:
		return v.S == o.S
	case BTGeomPoint, BTGeogPoint:
		return v.P.EqualEps(o.P, numeric.Epsilon)
	}
	return false
}

// Cmp totally orders two values of the same ordered base type.
func (v Value) Cmp(o Value) int {
	switch v.Type {
	case BTBool:
		switch {
		case v.B == o.B:
			return 0
		case !v.B:
			return -1
		default:
			return 1
		}
	case BTInt:
		switch {
		case v.I < o.I:
			return -1
		case v.I > o.I:
			return 1
		}
		return 0
	case BTFloat:
		switch {
		case v.F < o.F:
			return -1
		case v.F > o.F:
			return 1
		}
		return 0
	case BTText:
		switch {
		case v.S < o.S:
			return -1
		case v.S > o.S:
			return 1
		}
		return 0
	}
	return 0
}

// Distance returns the metric distance between two values of the same base
// type: absolute difference for numbers, Euclidean (or great-circle, for
// geography) for points, unit discrete metric for bool/text.
func (v Value) Distance(o Value) float64 {
	switch v.Type {
	case BTInt, BTFloat:
		return math.Abs(v.Number() - o.Number())
	case BTGeomPoint:
		return v.P.Distance(o.P)
	case BTGeogPoint:
		return v.P.DistanceGeodetic(o.P)
	default:
		if v.Equal(o) {
			return 0
		}
		return 1
	}
}

// Interpolate returns the value at fraction f between v and o for a base
// type with linear semantics.
func (v Value) Interpolate(o Value, f float64) Value {
	switch v.Type {
	case BTFloat:
		return Float(v.F + f*(o.F-v.F))
	case BTGeomPoint, BTGeogPoint:
		r := v
		r.P = geo.InterpolatePoint(v.P, o.P, f)
		return r
	}
	// step semantics: left value
	return v
}

// Collinear reports whether mid equals the interpolation of (v, o) at
// fraction f within epsilon. Used by sequence normalization.
func (v Value) Collinear(mid, o Value, f float64) bool {
	switch v.Type {
	case BTFloat:
		return numeric.Float8Eq(mid.F, v.F+f*(o.F-v.F))
	case BTGeomPoint, BTGeogPoint:
		return mid.P.EqualEps(geo.InterpolatePoint(v.P, o.P, f), numeric.Epsilon)
	}
	return false
}

// Hash returns a stable hash of the value.
func (v Value) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(v.Type)})
	var buf [8]byte
	switch v.Type {
	case BTBool:
		if v.B {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case BTInt:
		binary.LittleEndian.PutUint64(buf[:], uint64(v.I))
		h.Write(buf[:])
	case BTFloat:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.F))
		h.Write(buf[:])
	case BTText:
		h.Write([]byte(v.S))
	case BTGeomPoint, BTGeogPoint:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.P.X))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.P.Y))
		h.Write(buf[:])
		if v.P.HasZ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.P.Z))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
