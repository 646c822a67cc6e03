package temporal

import (
	"fmt"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Temporal arithmetic, comparisons and text concatenation, all built on the
// lifting framework.

func numericApply(name string, f func(x, y float64) (float64, error)) func(a, b Value) (Value, error) {
	return func(a, b Value) (Value, error) {
		if !a.Type.IsNumber() || !b.Type.IsNumber() {
			return Value{}, fmt.Errorf("%w: %s over %s and %s", terrors.ErrTypeMismatch, name, a.Type, b.Type)
		}
		r, err := f(a.Number(), b.Number())
		if err != nil {
			return Value{}, err
		}
		return Float(r), nil
	}
}

// Add returns the temporal sum a + b.
func Add(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply:   numericApply("add", func(x, y float64) (float64, error) { return x + y, nil }),
		ResType: BTFloat,
	}, a, b)
}

// Sub returns the temporal difference a - b.
func Sub(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply:   numericApply("sub", func(x, y float64) (float64, error) { return x - y, nil }),
		ResType: BTFloat,
	}, a, b)
}

// Mult returns the temporal product. The product of two linear operands is
// quadratic, so the extremum timestamp is inserted as a turning point.
func Mult(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply:         numericApply("mult", func(x, y float64) (float64, error) { return x * y, nil }),
		ResType:       BTFloat,
		TurningPoints: tpNumberMult,
	}, a, b)
}

// Div returns the temporal quotient. Division by zero at any synchronized
// instant is an error.
func Div(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply: numericApply("div", func(x, y float64) (float64, error) {
			if y == 0 {
				return 0, fmt.Errorf("%w: division by zero", terrors.ErrInvalidArg)
			}
			return x / y, nil
		}),
		ResType:       BTFloat,
		TurningPoints: tpComparisonCrossing,
	}, a, b)
}

func comparisonOp(cmp func(a, b Value) bool) LiftedOp {
	return LiftedOp{
		Apply: func(a, b Value) (Value, error) {
			return Bool(cmp(a, b)), nil
		},
		ResType:       BTBool,
		Discontinuous: true,
		TurningPoints: tpComparisonCrossing,
	}
}

// TEq is the temporal equality comparison.
func TEq(a, b Temporal) (Temporal, error) {
	op := comparisonOp(func(x, y Value) bool { return x.Equal(y) })
	if a.BaseType().IsPoint() {
		op.TurningPoints = nil
	}
	return LiftBinary(op, a, b)
}

// TNe is the temporal inequality comparison.
func TNe(a, b Temporal) (Temporal, error) {
	op := comparisonOp(func(x, y Value) bool { return !x.Equal(y) })
	if a.BaseType().IsPoint() {
		op.TurningPoints = nil
	}
	return LiftBinary(op, a, b)
}

// TLt, TLe, TGt, TGe compare ordered base types over time.
func TLt(a, b Temporal) (Temporal, error) {
	return LiftBinary(comparisonOp(func(x, y Value) bool { return cmpNumberOrValue(x, y) < 0 }), a, b)
}

func TLe(a, b Temporal) (Temporal, error) {
	return LiftBinary(comparisonOp(func(x, y Value) bool { return cmpNumberOrValue(x, y) <= 0 }), a, b)
}

func TGt(a, b Temporal) (Temporal, error) {
	return LiftBinary(comparisonOp(func(x, y Value) bool { return cmpNumberOrValue(x, y) > 0 }), a, b)
}

func TGe(a, b Temporal) (Temporal, error) {
	return LiftBinary(comparisonOp(func(x, y Value) bool { return cmpNumberOrValue(x, y) >= 0 }), a, b)
}

// cmpNumberOrValue compares across the int/float divide through float
// boxing, and falls back to the base-type total order otherwise.
func cmpNumberOrValue(a, b Value) int {
	if a.Type.IsNumber() && b.Type.IsNumber() {
		x, y := a.Number(), b.Number()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return a.Cmp(b)
}

// TAnd and TOr lift the boolean connectives.
func TAnd(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply: func(x, y Value) (Value, error) {
			if x.Type != BTBool || y.Type != BTBool {
				return Value{}, fmt.Errorf("%w: boolean operator over %s and %s", terrors.ErrTypeMismatch, x.Type, y.Type)
			}
			return Bool(x.B && y.B), nil
		},
		ResType:       BTBool,
		Discontinuous: true,
	}, a, b)
}

func TOr(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply: func(x, y Value) (Value, error) {
			if x.Type != BTBool || y.Type != BTBool {
				return Value{}, fmt.Errorf("%w: boolean operator over %s and %s", terrors.ErrTypeMismatch, x.Type, y.Type)
			}
			return Bool(x.B || y.B), nil
		},
		ResType:       BTBool,
		Discontinuous: true,
	}, a, b)
}

// TNot negates a temporal boolean pointwise.
func TNot(t Temporal) (Temporal, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil temporal", terrors.ErrInvalidArg)
	}
	if t.BaseType() != BTBool {
		return nil, fmt.Errorf("%w: not over %s", terrors.ErrTypeMismatch, t.BaseType())
	}
	return MapValues(t, func(v Value) Value { return Bool(!v.B) })
}

// TConcat lifts text concatenation.
func TConcat(a, b Temporal) (Temporal, error) {
	return LiftBinary(LiftedOp{
		Apply: func(x, y Value) (Value, error) {
			if x.Type != BTText || y.Type != BTText {
				return Value{}, fmt.Errorf("%w: concat over %s and %s", terrors.ErrTypeMismatch, x.Type, y.Type)
			}
			return Text(x.S + y.S), nil
		},
		ResType: BTText,
	}, a, b)
}

// WhenTrue restricts a temporal boolean to the times at which it is true
// (nil when it never is).
func WhenTrue(t Temporal) (Temporal, error) {
	if t == nil {
		return nil, nil
	}
	return AtValue(t, Bool(true))
}
