// Package signature implements spec.md §4.2's signature resolver: a small
// unifier over parameter patterns that may be concrete types or wildcards,
// optionally bounded to a fixed set of candidate types. Grounded in
// original_source/pfa/lib1/core.py's Sig/Sigs/P.Wildcard classes (e.g.
// `Sig([{"x": P.Wildcard("A", anyNumber)}, {"y": P.Wildcard("A")}],
// P.Wildcard("A"))` for "+").
package signature

import (
	"fmt"

	"github.com/animator/pfa/internal/types"
)

// Param is one parameter pattern in a Signature.
type Param struct {
	Name string
	// Concrete is non-nil for a fixed-type parameter (no wildcard).
	Concrete types.Type
	// Wildcard is non-empty for a wildcard parameter; Bound, if non-nil,
	// restricts the set of types the wildcard may bind to (P.Wildcard("A",
	// anyNumber) in the Python source).
	Wildcard string
	Bound    []types.Type
}

// Ret is the return-type pattern: either Concrete or a reference back to
// a Wildcard bound while matching Params.
type Ret struct {
	Concrete types.Type
	Wildcard string
}

// Signature is one parameter-list/return-type pattern of a function.
type Signature struct {
	Params []Param
	Return Ret
}

// ResolvedCall is what Resolve returns on a match: the chosen signature's
// return type with wildcards substituted, plus the wildcard bindings (some
// catalogs need these, e.g. to specialize overflow-checking by paramTypes
// the way checkForOverflow(paramTypes, out) does in the Python source).
type ResolvedCall struct {
	Return   types.Type
	Bindings map[string]types.Type
}

// NoApplicableSignatureError is the spec.md §4.2 failure mode.
type NoApplicableSignatureError struct {
	FuncName string
	ArgTypes []types.Type
}

func (e *NoApplicableSignatureError) Error() string {
	argStrs := make([]string, len(e.ArgTypes))
	for i, t := range e.ArgTypes {
		argStrs[i] = t.String()
	}
	return fmt.Sprintf("no applicable signature for %q with argument types %v", e.FuncName, argStrs)
}

// boundContains reports whether t is in bound (by types.Equal), used for
// P.Wildcard("A", someSet) membership checks.
func boundContains(bound []types.Type, t types.Type) bool {
	if bound == nil {
		return true
	}
	for _, b := range bound {
		if types.Equal(b, t) {
			return true
		}
	}
	return false
}

// Match attempts to unify sig's parameters against argTypes left to right,
// threading wildcard → type bindings per spec.md §4.2: "A wildcard W binds
// to the first actual type encountered; subsequent occurrences must equal
// the binding." Returns ok=false (no bindings) on any mismatch.
func Match(sig Signature, argTypes []types.Type) (map[string]types.Type, bool) {
	if len(sig.Params) != len(argTypes) {
		return nil, false
	}
	bindings := make(map[string]types.Type)
	for i, p := range sig.Params {
		actual := argTypes[i]
		if p.Wildcard != "" {
			if bound, ok := bindings[p.Wildcard]; ok {
				if !types.Equal(bound, actual) {
					return nil, false
				}
			} else {
				if !boundContains(p.Bound, actual) {
					return nil, false
				}
				bindings[p.Wildcard] = actual
			}
			continue
		}
		if !types.Accepts(p.Concrete, actual) {
			return nil, false
		}
	}
	return bindings, true
}

// Resolve implements "iterate signatures ... first match wins" (spec.md
// §4.2).
func Resolve(funcName string, sigs []Signature, argTypes []types.Type) (*ResolvedCall, error) {
	for _, sig := range sigs {
		bindings, ok := Match(sig, argTypes)
		if !ok {
			continue
		}
		var ret types.Type
		if sig.Return.Wildcard != "" {
			bound, ok := bindings[sig.Return.Wildcard]
			if !ok {
				// A return-only wildcard with no parameter occurrence is
				// not resolvable; treat as non-matching rather than panic.
				continue
			}
			ret = bound
		} else {
			ret = sig.Return.Concrete
		}
		return &ResolvedCall{Return: ret, Bindings: bindings}, nil
	}
	return nil, &NoApplicableSignatureError{FuncName: funcName, ArgTypes: argTypes}
}

// Catalog is the seam the external standard function library (spec.md §1,
// "out of scope... the core only needs the catalog interface") plugs into.
// The core ships one implementation, internal/catalog, covering spec.md
// §4.7.
type Catalog interface {
	// Signatures returns name's declared signatures, or ok=false if the
	// catalog does not provide name at all.
	Signatures(name string) (sigs []Signature, ok bool)
}

// Chain composes catalogs in order: the first catalog that declares the
// name at all is used (spec.md §4.2's first-match-wins rule applied one
// level up, across catalogs rather than across one catalog's signature
// list).
type Chain []Catalog

func (c Chain) Signatures(name string) ([]Signature, bool) {
	for _, cat := range c {
		if sigs, ok := cat.Signatures(name); ok {
			return sigs, true
		}
	}
	return nil, false
}

// caller is the capability a Catalog optionally provides to actually
// evaluate a resolved call (internal/catalog.Core implements it); a
// host-supplied Catalog that only declares Signatures but has no Call
// method cannot be chained into execution, only into type-checking.
type caller interface {
	Call(name string, argTypes []types.Type, args []interface{}) (interface{}, error)
}

// Call dispatches name to the first catalog in the chain that declares it,
// per the same first-match-wins order Signatures uses. If that catalog
// does not implement Call, the call fails; later catalogs are not tried.
func (c Chain) Call(name string, argTypes []types.Type, args []interface{}) (interface{}, error) {
	for _, cat := range c {
		if _, ok := cat.Signatures(name); !ok {
			continue
		}
		if ca, ok := cat.(caller); ok {
			return ca.Call(name, argTypes, args)
		}
		return nil, &NoApplicableSignatureError{FuncName: name, ArgTypes: argTypes}
	}
	return nil, &NoApplicableSignatureError{FuncName: name, ArgTypes: argTypes}
}

// ResolveIn resolves name against whichever catalog in the chain declares
// it, applying spec.md §4.2 within that catalog's signature list.
func ResolveIn(cat Catalog, name string, argTypes []types.Type) (*ResolvedCall, error) {
	sigs, ok := cat.Signatures(name)
	if !ok {
		return nil, &NoApplicableSignatureError{FuncName: name, ArgTypes: argTypes}
	}
	return Resolve(name, sigs, argTypes)
}
