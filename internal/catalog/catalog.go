// Package catalog implements spec.md §4.7's built-in arithmetic,
// comparison, boolean and bitwise operators, grounded line-for-line on
// original_source/pfa/lib1/core.py (the Python reference's lib1/core
// module). Everything else the standard function library would provide
// (string/array/map manipulation, stats, model scoring) is the external
// collaborator spec.md §1 places out of scope; hosts compose their own
// signature.Catalog with Core via signature.Chain.
package catalog

import (
	"fmt"

	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/types"
)

// RuntimeError is spec.md §7's PFARuntimeException: well-typed but fails
// during execution.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

func runtimeErr(format string, args ...interface{}) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

var anyNumber = []types.Type{types.Int, types.Long, types.Float, types.Double}
var intOrLong = []types.Type{types.Int, types.Long}

func wildcardSig(name string, bound []types.Type, arity int) signature.Signature {
	params := make([]signature.Param, arity)
	for i := range params {
		p := signature.Param{Name: fmt.Sprintf("x%d", i), Wildcard: "A"}
		if i == 0 {
			p.Bound = bound
		}
		params[i] = p
	}
	return signature.Signature{Params: params, Return: signature.Ret{Wildcard: "A"}}
}

func boolSig(arity int) signature.Signature {
	params := make([]signature.Param, arity)
	for i := range params {
		params[i] = signature.Param{Name: fmt.Sprintf("x%d", i), Concrete: types.Boolean}
	}
	return signature.Signature{Params: params, Return: signature.Ret{Concrete: types.Boolean}}
}

func cmpSig() signature.Signature {
	return signature.Signature{
		Params: []signature.Param{
			{Name: "x", Wildcard: "A"},
			{Name: "y", Wildcard: "A"},
		},
		Return: signature.Ret{Concrete: types.Int},
	}
}

func intOrLongPair(ret func(types.Type) types.Type) []signature.Signature {
	mk := func(t types.Type) signature.Signature {
		return signature.Signature{
			Params: []signature.Param{
				{Name: "x", Concrete: t},
				{Name: "y", Concrete: t},
			},
			Return: signature.Ret{Concrete: ret(t)},
		}
	}
	return []signature.Signature{mk(types.Int), mk(types.Long)}
}

// Core is the built-in catalog. Zero value is ready to use.
type Core struct{}

var coreSignatures = map[string][]signature.Signature{
	"+":  {wildcardSig("+", anyNumber, 2)},
	"-":  {wildcardSig("-", anyNumber, 2)},
	"*":  {wildcardSig("*", anyNumber, 2)},
	"u-": {wildcardSig("u-", anyNumber, 1)},
	"/": {{
		Params: []signature.Param{{Name: "x", Concrete: types.Double}, {Name: "y", Concrete: types.Double}},
		Return: signature.Ret{Concrete: types.Double},
	}},
	"//": {wildcardSig("//", intOrLong, 2)},
	"%":  {wildcardSig("%", anyNumber, 2)},
	"%%": {wildcardSig("%%", anyNumber, 2)},
	"**": {wildcardSig("**", anyNumber, 2)},

	"cmp": {cmpSig()},
	"==":  {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Concrete: types.Boolean}}},
	"!=":  {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Concrete: types.Boolean}}},
	"<":   {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Concrete: types.Boolean}}},
	"<=":  {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Concrete: types.Boolean}}},
	">":   {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Concrete: types.Boolean}}},
	">=":  {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Concrete: types.Boolean}}},

	"max": {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Wildcard: "A"}}},
	"min": {{Params: []signature.Param{{Name: "x", Wildcard: "A"}, {Name: "y", Wildcard: "A"}}, Return: signature.Ret{Wildcard: "A"}}},

	"and": {boolSig(2)},
	"or":  {boolSig(2)},
	"xor": {boolSig(2)},
	"not": {boolSig(1)},

	"&": intOrLongPair(func(t types.Type) types.Type { return t }),
	"|": intOrLongPair(func(t types.Type) types.Type { return t }),
	"^": intOrLongPair(func(t types.Type) types.Type { return t }),
	"~": {
		{Params: []signature.Param{{Name: "x", Concrete: types.Int}}, Return: signature.Ret{Concrete: types.Int}},
		{Params: []signature.Param{{Name: "x", Concrete: types.Long}}, Return: signature.Ret{Concrete: types.Long}},
	},
}

func (Core) Signatures(name string) ([]signature.Signature, bool) {
	sigs, ok := coreSignatures[name]
	return sigs, ok
}

const (
	intMin = -2147483648
	intMax = 2147483647
)
