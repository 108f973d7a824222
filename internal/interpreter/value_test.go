package interpreter

import "testing"

func TestValueEqualCrossNumericKind(t *testing.T) {
	if !IntValue(3).Equal(FloatValue(3.0)) {
		t.Error("int 3 should equal float 3.0")
	}
	if IntValue(3).Equal(FloatValue(3.5)) {
		t.Error("int 3 should not equal float 3.5")
	}
	if IntValue(1).Equal(BoolValue(true)) {
		t.Error("int and bool should never compare equal")
	}
	if !StringValue("x").Equal(StringValue("x")) {
		t.Error("equal strings should compare equal")
	}
}

func TestValueIsTruthy(t *testing.T) {
	falsy := []Value{
		NullValue(), UndefinedValue(), BoolValue(false),
		IntValue(0), FloatValue(0), StringValue(""),
	}
	for _, v := range falsy {
		if v.IsTruthy() {
			t.Errorf("%s (%s) should be falsy", v.String(), v.Kind)
		}
	}

	truthy := []Value{
		BoolValue(true), IntValue(1), FloatValue(0.1), StringValue("x"),
		ArrayValue(NewArray(0)),
	}
	for _, v := range truthy {
		if !v.IsTruthy() {
			t.Errorf("%s (%s) should be truthy", v.String(), v.Kind)
		}
	}
}

func TestArrayBounds(t *testing.T) {
	arr := NewArray(3)
	if _, ok := arr.Get(3); ok {
		t.Error("index 3 should be out of bounds for a length-3 array")
	}
	if _, ok := arr.Get(-1); ok {
		t.Error("negative index should be out of bounds")
	}
	if !arr.Set(1, IntValue(9)) {
		t.Fatal("Set(1, ...) should succeed")
	}
	v, ok := arr.Get(1)
	if !ok || v.Int != 9 {
		t.Errorf("got %v, ok=%v, want 9, true", v, ok)
	}
}

func TestClosureMemoization(t *testing.T) {
	c := NewClosure(0, nil, true)
	args := []Value{IntValue(5)}
	if _, ok := c.Lookup(args); ok {
		t.Fatal("empty cache should miss")
	}
	c.Store(args, IntValue(120))
	v, ok := c.Lookup(args)
	if !ok || v.Int != 120 {
		t.Errorf("got %v, ok=%v, want 120, true", v, ok)
	}

	arrayArgs := []Value{ArrayValue(NewArray(1))}
	c.Store(arrayArgs, IntValue(1))
	if _, ok := c.Lookup(arrayArgs); ok {
		t.Error("array-typed arguments must never be cacheable")
	}
}
