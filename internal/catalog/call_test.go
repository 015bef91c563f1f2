package catalog_test

import (
	"testing"

	"github.com/animator/pfa/internal/catalog"
	"github.com/animator/pfa/internal/types"
)

func call(t *testing.T, name string, argTypes []types.Type, args ...interface{}) interface{} {
	t.Helper()
	v, err := catalog.Call(name, argTypes, args)
	if err != nil {
		t.Fatalf("Call(%q, %v): %v", name, argTypes, err)
	}
	return v
}

func TestAddIntOverflows(t *testing.T) {
	_, err := catalog.Call("+", []types.Type{types.Int, types.Int}, []interface{}{int32(2147483647), int32(1)})
	if err == nil {
		t.Fatal("expected int overflow at math.MaxInt32 + 1")
	}
}

func TestAddIntAtBoundaryOK(t *testing.T) {
	v := call(t, "+", []types.Type{types.Int, types.Int}, int32(2147483646), int32(1))
	if v.(int32) != 2147483647 {
		t.Fatalf("expected 2147483647, got %v", v)
	}
}

func TestAddLongOverflows(t *testing.T) {
	_, err := catalog.Call("+", []types.Type{types.Long, types.Long}, []interface{}{int64(9223372036854775807), int64(1)})
	if err == nil {
		t.Fatal("expected long overflow at math.MaxInt64 + 1")
	}
}

func TestMulLongOverflows(t *testing.T) {
	_, err := catalog.Call("*", []types.Type{types.Long, types.Long}, []interface{}{int64(9223372036854775807), int64(2)})
	if err == nil {
		t.Fatal("expected long overflow multiplying math.MaxInt64 by 2")
	}
}

func TestSubLongUnderflows(t *testing.T) {
	_, err := catalog.Call("-", []types.Type{types.Long, types.Long}, []interface{}{int64(-9223372036854775808), int64(1)})
	if err == nil {
		t.Fatal("expected long underflow at math.MinInt64 - 1")
	}
}

func TestFloorDivideRoundsTowardNegativeInfinity(t *testing.T) {
	v := call(t, "//", []types.Type{types.Int, types.Int}, int32(-7), int32(2))
	if v.(int32) != -4 {
		t.Fatalf("expected floor(-7/2) == -4, got %v", v)
	}
}

func TestFloorDivideByZero(t *testing.T) {
	_, err := catalog.Call("//", []types.Type{types.Int, types.Int}, []interface{}{int32(1), int32(0)})
	if err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestModuloTakesSignOfDivisor(t *testing.T) {
	v := call(t, "%", []types.Type{types.Int, types.Int}, int32(-7), int32(3))
	if v.(int32) != 2 {
		t.Fatalf("expected -7 %% 3 == 2 (sign of divisor), got %v", v)
	}
	v = call(t, "%", []types.Type{types.Int, types.Int}, int32(7), int32(-3))
	if v.(int32) != -2 {
		t.Fatalf("expected 7 %% -3 == -2 (sign of divisor), got %v", v)
	}
}

func TestRemainderTakesSignOfDividend(t *testing.T) {
	v := call(t, "%%", []types.Type{types.Int, types.Int}, int32(-7), int32(3))
	if v.(int32) != -1 {
		t.Fatalf("expected -7 %%%% 3 == -1 (sign of dividend), got %v", v)
	}
}

func TestCompareOperators(t *testing.T) {
	if !call(t, "<", []types.Type{types.Int, types.Int}, int32(1), int32(2)).(bool) {
		t.Fatal("expected 1 < 2")
	}
	if call(t, "==", []types.Type{types.String, types.String}, "a", "b").(bool) {
		t.Fatal("expected \"a\" != \"b\"")
	}
}

func TestBooleanOperators(t *testing.T) {
	if !call(t, "xor", nil, true, false).(bool) {
		t.Fatal("expected true xor false == true")
	}
	if call(t, "xor", nil, true, true).(bool) {
		t.Fatal("expected true xor true == false")
	}
}

func TestBitwiseOperators(t *testing.T) {
	v := call(t, "&", []types.Type{types.Int, types.Int}, int32(0b1100), int32(0b1010))
	if v.(int32) != 0b1000 {
		t.Fatalf("expected 0b1100 & 0b1010 == 0b1000, got %b", v)
	}
}

func TestPowerIntOverflow(t *testing.T) {
	_, err := catalog.Call("**", []types.Type{types.Int, types.Int}, []interface{}{int32(2), int32(31)})
	if err == nil {
		t.Fatal("expected int overflow computing 2**31")
	}
}
