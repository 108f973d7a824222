// Package interpreter implements C6: the stack-based virtual machine
// that executes an assembled or freshly compiled SVMProgram. Each call
// frame owns its own operand stack; the environment chain, closures
// and memoization follow the runtime model of spec §3/§4.6.
package interpreter

import (
	"fmt"
	"strconv"
)

// Kind tags the runtime value union.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindNull
	KindUndefined
	KindClosure
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindClosure:
		return "closure"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is the tagged union every SVML value is represented as: an
// integer, a double, a boolean, a string, null, undefined, a closure
// or an array. Only the field matching Kind is meaningful.
type Value struct {
	Kind    Kind
	Int     int64
	Float   float64
	Bool    bool
	Str     string
	Closure *Closure
	Array   *Array
}

func IntValue(i int64) Value       { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value   { return Value{Kind: KindFloat, Float: f} }
func BoolValue(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func StringValue(s string) Value   { return Value{Kind: KindString, Str: s} }
func NullValue() Value             { return Value{Kind: KindNull} }
func UndefinedValue() Value        { return Value{Kind: KindUndefined} }
func ClosureValue(c *Closure) Value { return Value{Kind: KindClosure, Closure: c} }
func ArrayValue(a *Array) Value    { return Value{Kind: KindArray, Array: a} }

// IsTruthy implements the language's boolean-coercion rule, consulted
// by BRT/BRF: null, undefined, false, zero and the empty string are
// falsy; everything else (including empty arrays and closures) is
// truthy.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull, KindUndefined:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	default:
		return true
	}
}

// IsNumeric reports whether v is an int or a float.
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// AsFloat64 widens an int or float value to float64. It must only be
// called after IsNumeric has been checked.
func (v Value) AsFloat64() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// String renders v for the print primitive and for disassembly.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindClosure:
		return fmt.Sprintf("<closure fn%d>", v.Closure.FunctionIndex)
	case KindArray:
		return v.Array.String()
	default:
		return "?"
	}
}

// Equal implements EQG/NEQG: values of different kinds are never
// equal (no implicit numeric-to-string coercion), except int and
// float compare by numeric value.
func (v Value) Equal(other Value) bool {
	switch {
	case v.IsNumeric() && other.IsNumeric():
		return v.AsFloat64() == other.AsFloat64()
	case v.Kind != other.Kind:
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindString:
		return v.Str == other.Str
	case KindNull, KindUndefined:
		return true
	case KindClosure:
		return v.Closure == other.Closure
	case KindArray:
		return v.Array == other.Array
	default:
		return false
	}
}
