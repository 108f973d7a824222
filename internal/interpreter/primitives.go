package interpreter

import (
	"math"

	"github.com/svmlang/svmc/internal/primitive"
	"github.com/svmlang/svmc/internal/report"
)

// callPrimitive dispatches CALLP/CALLTP by primitive index. Arity is
// already validated at compile time for fixed-arity primitives when
// the callee is statically known to be a primitive, but the
// interpreter re-checks it here since a hand-assembled binary is not
// bound by the compiler's guarantees.
func (it *Interpreter) callPrimitive(idx primitive.Index, args []Value) (Value, error) {
	arity, ok := primitive.Arity(idx)
	if !ok {
		return Value{}, report.NewRuntimeError(report.UnknownPrimitive, "unknown primitive index %d", idx)
	}
	if arity >= 0 && len(args) != arity {
		return Value{}, report.NewRuntimeError(report.ArityMismatch,
			"%s expects %d arguments, got %d", primitive.Name(idx), arity, len(args))
	}

	switch idx {
	case primitive.Print:
		return it.primPrint(args)
	case primitive.Abs:
		return primUnary(args[0], math.Abs, func(i int64) int64 {
			if i < 0 {
				return -i
			}
			return i
		})
	case primitive.Sqrt:
		return primFloatUnary(args[0], math.Sqrt)
	case primitive.Floor:
		return primFloatUnary(args[0], math.Floor)
	case primitive.Ceil:
		return primFloatUnary(args[0], math.Ceil)
	case primitive.Round:
		return primFloatUnary(args[0], math.Round)
	case primitive.Pow:
		if !args[0].IsNumeric() || !args[1].IsNumeric() {
			return Value{}, report.NewRuntimeError(report.UnsupportedOperandType, "pow: non-numeric argument")
		}
		return FloatValue(math.Pow(args[0].AsFloat64(), args[1].AsFloat64())), nil
	case primitive.Min:
		return primExtremum(args, true)
	case primitive.Max:
		return primExtremum(args, false)
	default:
		return Value{}, report.NewRuntimeError(report.UnknownPrimitive, "unknown primitive index %d", idx)
	}
}

func (it *Interpreter) primPrint(args []Value) (Value, error) {
	for i, a := range args {
		if i > 0 {
			it.stdout.WriteByte(' ')
		}
		it.stdout.WriteString(a.String())
	}
	it.stdout.WriteByte('\n')
	return UndefinedValue(), nil
}

func primUnary(v Value, floatFn func(float64) float64, intFn func(int64) int64) (Value, error) {
	switch v.Kind {
	case KindInt:
		return IntValue(intFn(v.Int)), nil
	case KindFloat:
		return FloatValue(floatFn(v.Float)), nil
	default:
		return Value{}, report.NewRuntimeError(report.UnsupportedOperandType, "abs: non-numeric argument")
	}
}

func primFloatUnary(v Value, fn func(float64) float64) (Value, error) {
	if !v.IsNumeric() {
		return Value{}, report.NewRuntimeError(report.UnsupportedOperandType, "non-numeric argument")
	}
	return FloatValue(fn(v.AsFloat64())), nil
}

func primExtremum(args []Value, wantMin bool) (Value, error) {
	if len(args) == 0 {
		return Value{}, report.NewRuntimeError(report.ArityMismatch, "min/max requires at least one argument")
	}
	best := args[0]
	if !best.IsNumeric() {
		return Value{}, report.NewRuntimeError(report.UnsupportedOperandType, "min/max: non-numeric argument")
	}
	for _, a := range args[1:] {
		if !a.IsNumeric() {
			return Value{}, report.NewRuntimeError(report.UnsupportedOperandType, "min/max: non-numeric argument")
		}
		better := a.AsFloat64() < best.AsFloat64()
		if !wantMin {
			better = a.AsFloat64() > best.AsFloat64()
		}
		if better {
			best = a
		}
	}
	return best, nil
}
