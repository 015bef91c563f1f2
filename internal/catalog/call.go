package catalog

import (
	"math"
	"math/big"

	"github.com/animator/pfa/internal/types"
)

// arithOp identifies which of +,-,* is being performed, since detecting
// int64 overflow precisely requires knowing which operation wrapped.
type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
)

// Call dispatches to Core's receiver-less Call function, so an
// internal/evaluator caller holding Core only through the generic
// signature.Catalog interface can still invoke it via a local
// Call(name, argTypes, args) capability interface.
func (Core) Call(name string, argTypes []types.Type, args []interface{}) (interface{}, error) {
	return Call(name, argTypes, args)
}

// Call evaluates one of Core's built-ins given its argument types and its
// already-evaluated arguments. Semantics
// follow original_source/pfa/lib1/core.py function-by-function.
func Call(name string, argTypes []types.Type, args []interface{}) (interface{}, error) {
	switch name {
	case "+":
		return arith(argTypes[0], args[0], args[1], opAdd, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case "-":
		return arith(argTypes[0], args[0], args[1], opSub, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case "*":
		return arith(argTypes[0], args[0], args[1], opMul, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case "u-":
		return arithUnary(argTypes[0], args[0], func(a int64) int64 { return -a }, func(a float64) float64 { return -a })
	case "/":
		x, y := toFloat64(args[0]), toFloat64(args[1])
		return x / y, nil
	case "//":
		return floorDivide(argTypes[0], args[0], args[1])
	case "%":
		return modulo(argTypes[0], args[0], args[1])
	case "%%":
		return remainder(argTypes[0], args[0], args[1])
	case "**":
		return power(argTypes[0], args[0], args[1])

	case "cmp":
		c, err := compare(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return int32(c), nil
	case "==":
		c, err := compare(args[0], args[1])
		return err == nil && c == 0, err
	case "!=":
		c, err := compare(args[0], args[1])
		return c != 0, err
	case "<":
		c, err := compare(args[0], args[1])
		return c < 0, err
	case "<=":
		c, err := compare(args[0], args[1])
		return c <= 0, err
	case ">":
		c, err := compare(args[0], args[1])
		return c > 0, err
	case ">=":
		c, err := compare(args[0], args[1])
		return c >= 0, err

	case "max":
		c, err := compare(args[0], args[1])
		if err != nil {
			return nil, err
		}
		if c >= 0 {
			return args[0], nil
		}
		return args[1], nil
	case "min":
		c, err := compare(args[0], args[1])
		if err != nil {
			return nil, err
		}
		if c <= 0 {
			return args[0], nil
		}
		return args[1], nil

	case "and":
		return args[0].(bool) && args[1].(bool), nil
	case "or":
		return args[0].(bool) || args[1].(bool), nil
	case "xor":
		x, y := args[0].(bool), args[1].(bool)
		return (x || y) && !(x && y), nil
	case "not":
		return !args[0].(bool), nil

	case "&":
		return bitwise(argTypes[0], args[0], args[1], func(a, b int64) int64 { return a & b })
	case "|":
		return bitwise(argTypes[0], args[0], args[1], func(a, b int64) int64 { return a | b })
	case "^":
		return bitwise(argTypes[0], args[0], args[1], func(a, b int64) int64 { return a ^ b })
	case "~":
		return bitwiseNot(argTypes[0], args[0])

	default:
		return nil, runtimeErr("catalog: unimplemented built-in %q", name)
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func reboxInt(kind types.Kind, n int64) interface{} {
	if kind == types.KindInt {
		return int32(n)
	}
	return n
}

func reboxFloat(kind types.Kind, f float64) interface{} {
	if kind == types.KindFloat {
		return float32(f)
	}
	return f
}

func arith(t types.Type, x, y interface{}, op arithOp, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (interface{}, error) {
	switch t.Kind() {
	case types.KindInt, types.KindLong:
		a, b := toInt64(x), toInt64(y)
		out := intOp(a, b)
		if t.Kind() == types.KindInt {
			if out < intMin || out > intMax {
				return nil, runtimeErr("int overflow")
			}
			return int32(out), nil
		}
		// Go wraps silently on int64 overflow; re-derive the exact result
		// with arbitrary precision (mirroring the Python source's check
		// against LONG_MIN_VALUE/LONG_MAX_VALUE) to detect wraparound.
		if overflowsLong(op, a, b) {
			return nil, runtimeErr("long overflow")
		}
		return out, nil
	default:
		return reboxFloat(t.Kind(), floatOp(toFloat64(x), toFloat64(y))), nil
	}
}

var (
	bigLongMin = big.NewInt(math.MinInt64)
	bigLongMax = big.NewInt(math.MaxInt64)
)

func overflowsLong(op arithOp, x, y int64) bool {
	bx, by := big.NewInt(x), big.NewInt(y)
	var result big.Int
	switch op {
	case opAdd:
		result.Add(bx, by)
	case opSub:
		result.Sub(bx, by)
	case opMul:
		result.Mul(bx, by)
	}
	return result.Cmp(bigLongMin) < 0 || result.Cmp(bigLongMax) > 0
}

func arithUnary(t types.Type, x interface{}, intOp func(a int64) int64, floatOp func(a float64) float64) (interface{}, error) {
	switch t.Kind() {
	case types.KindInt:
		out := intOp(toInt64(x))
		if out < intMin || out > intMax {
			return nil, runtimeErr("int overflow")
		}
		return int32(out), nil
	case types.KindLong:
		return intOp(toInt64(x)), nil
	default:
		return reboxFloat(t.Kind(), floatOp(toFloat64(x))), nil
	}
}

func floorDivide(t types.Type, x, y interface{}) (interface{}, error) {
	a, b := toInt64(x), toInt64(y)
	if b == 0 {
		return nil, runtimeErr("division by zero")
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return reboxInt(t.Kind(), q), nil
}

func modulo(t types.Type, x, y interface{}) (interface{}, error) {
	switch t.Kind() {
	case types.KindInt, types.KindLong:
		a, b := toInt64(x), toInt64(y)
		if b == 0 {
			return nil, runtimeErr("division by zero")
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return reboxInt(t.Kind(), m), nil
	default:
		a, b := toFloat64(x), toFloat64(y)
		m := mathMod(a, b)
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return reboxFloat(t.Kind(), m), nil
	}
}

// remainder implements spec.md §9's resolution of the "%%" open question:
// sign-of-dividend remainder (the Python source raises NotImplementedError
// for this case; we implement the documented resolution instead).
func remainder(t types.Type, x, y interface{}) (interface{}, error) {
	switch t.Kind() {
	case types.KindInt, types.KindLong:
		a, b := toInt64(x), toInt64(y)
		if b == 0 {
			return nil, runtimeErr("division by zero")
		}
		return reboxInt(t.Kind(), a%b), nil
	default:
		a, b := toFloat64(x), toFloat64(y)
		return reboxFloat(t.Kind(), mathMod(a, b)), nil
	}
}

func power(t types.Type, x, y interface{}) (interface{}, error) {
	switch t.Kind() {
	case types.KindInt, types.KindLong:
		base, exp := toInt64(x), toInt64(y)
		if exp < 0 {
			return nil, runtimeErr("negative exponent for integer power")
		}
		var out int64 = 1
		for i := int64(0); i < exp; i++ {
			next := out * base
			if t.Kind() == types.KindInt {
				if next < intMin || next > intMax {
					return nil, runtimeErr("int overflow")
				}
			} else if overflowsLong(opMul, out, base) {
				return nil, runtimeErr("long overflow")
			}
			out = next
		}
		return reboxInt(t.Kind(), out), nil
	default:
		return reboxFloat(t.Kind(), mathPow(toFloat64(x), toFloat64(y))), nil
	}
}

func bitwise(t types.Type, x, y interface{}, op func(a, b int64) int64) (interface{}, error) {
	return reboxInt(t.Kind(), op(toInt64(x), toInt64(y))), nil
}

func bitwiseNot(t types.Type, x interface{}) (interface{}, error) {
	return reboxInt(t.Kind(), ^toInt64(x)), nil
}

// compare implements cmp(x,y) -> -1|0|1 (spec.md §9) over the wildcard-typed
// comparable values PFA hands the comparison catalog entries. It handles
// int32, int64, float32, float64, string and bool values; any other value
// (including records, arrays, maps and union values, also for ==/!=) is a
// runtime error.
func compare(x, y interface{}) (int, error) {
	switch a := x.(type) {
	case int32:
		b := y.(int32)
		return sign(int64(a) - int64(b)), nil
	case int64:
		b := y.(int64)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	case float32:
		b := y.(float32)
		return signf(float64(a) - float64(b)), nil
	case float64:
		b := y.(float64)
		return signf(a - b), nil
	case string:
		b := y.(string)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		b := y.(bool)
		if a == b {
			return 0, nil
		}
		if !a && b {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, runtimeErr("cmp: uncomparable type %T", x)
	}
}

func sign(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func signf(d float64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func mathMod(a, b float64) float64 {
	return math.Mod(a, b)
}

func mathPow(a, b float64) float64 {
	return math.Pow(a, b)
}
