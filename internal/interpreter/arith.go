package interpreter

import (
	"math"

	"github.com/svmlang/svmc/internal/report"
)

// binaryArith implements ADDG/SUBG/MULG/DIVG/MODG/LTG/GTG/LEG/GEG:
// numeric operands compute in float64 unless both sides are int, in
// which case integer arithmetic is used (except DIVG, which always
// yields a float); ADDG additionally allows
// string concatenation; the ordering comparisons additionally allow
// lexicographic string comparison. Any other operand-kind pairing is
// a type-mismatch runtime error.
func binaryArith(name string, left, right Value, fn func(a, b float64) float64, intFn func(a, b int64) (int64, error)) (Value, error) {
	if left.Kind == KindInt && right.Kind == KindInt && intFn != nil {
		r, err := intFn(left.Int, right.Int)
		if err != nil {
			return Value{}, err
		}
		return IntValue(r), nil
	}
	if left.IsNumeric() && right.IsNumeric() {
		return FloatValue(fn(left.AsFloat64(), right.AsFloat64())), nil
	}
	return Value{}, report.NewRuntimeError(report.UnsupportedOperandType,
		"%s: unsupported operand types %s and %s", name, left.Kind, right.Kind)
}

func opAdd(left, right Value) (Value, error) {
	if left.Kind == KindString && right.Kind == KindString {
		return StringValue(left.Str + right.Str), nil
	}
	return binaryArith("ADDG", left, right,
		func(a, b float64) float64 { return a + b },
		func(a, b int64) (int64, error) { return a + b, nil })
}

func opSub(left, right Value) (Value, error) {
	return binaryArith("SUBG", left, right,
		func(a, b float64) float64 { return a - b },
		func(a, b int64) (int64, error) { return a - b, nil })
}

func opMul(left, right Value) (Value, error) {
	return binaryArith("MULG", left, right,
		func(a, b float64) float64 { return a * b },
		func(a, b int64) (int64, error) { return a * b, nil })
}

func opDiv(left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, report.NewRuntimeError(report.UnsupportedOperandType,
			"DIVG: unsupported operand types %s and %s", left.Kind, right.Kind)
	}
	if right.AsFloat64() == 0 {
		return Value{}, report.NewRuntimeError(report.DivisionByZero, "division by zero")
	}
	return FloatValue(left.AsFloat64() / right.AsFloat64()), nil
}

func opMod(left, right Value) (Value, error) {
	if left.Kind == KindInt && right.Kind == KindInt {
		if right.Int == 0 {
			return Value{}, report.NewRuntimeError(report.ModuloByZero, "modulo by zero")
		}
		return IntValue(left.Int % right.Int), nil
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, report.NewRuntimeError(report.UnsupportedOperandType,
			"MODG: unsupported operand types %s and %s", left.Kind, right.Kind)
	}
	if right.AsFloat64() == 0 {
		return Value{}, report.NewRuntimeError(report.ModuloByZero, "modulo by zero")
	}
	return FloatValue(math.Mod(left.AsFloat64(), right.AsFloat64())), nil
}

// compare implements the four ordering comparisons over numbers
// (widened to float64) or strings (lexicographic), returning -1, 0 or
// 1, or an error for any other operand pairing.
func compare(name string, left, right Value) (int, error) {
	if left.IsNumeric() && right.IsNumeric() {
		a, b := left.AsFloat64(), right.AsFloat64()
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if left.Kind == KindString && right.Kind == KindString {
		switch {
		case left.Str < right.Str:
			return -1, nil
		case left.Str > right.Str:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, report.NewRuntimeError(report.UnsupportedOperandType,
		"%s: unsupported operand types %s and %s", name, left.Kind, right.Kind)
}

func opNeg(v Value) (Value, error) {
	switch v.Kind {
	case KindInt:
		return IntValue(-v.Int), nil
	case KindFloat:
		return FloatValue(-v.Float), nil
	default:
		return Value{}, report.NewRuntimeError(report.UnsupportedOperandType,
			"NEGG: unsupported operand type %s", v.Kind)
	}
}
