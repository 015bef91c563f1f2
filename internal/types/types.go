// Package types implements the Avro-style type system of spec.md §3/§4.1:
// a closed sum of primitives, fixed, enum, array, map, record and union,
// with structural equality for anonymous types and nominal equality for
// named ones.
package types

import (
	"fmt"
	"strings"
)

// Kind distinguishes the variants of Type without requiring a type switch
// at every call site.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindArray
	KindMap
	KindRecord
	KindUnion
	KindFixed
	KindEnum
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindFixed:
		return "fixed"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	default:
		return "?"
	}
}

// Type is implemented by every member of the closed sum. Unlike the
// teacher's Hindley-Milner Type (which carries free type variables and a
// substitution-apply method), PFA's type system has no type variables of
// its own — wildcards live one layer up, in the signature resolver — so
// Type only needs identity, a printable form and a Kind tag.
type Type interface {
	Kind() Kind
	String() string
}

// Primitive is one of null/boolean/int/long/float/double/bytes/string.
type Primitive struct {
	K Kind
}

func (p Primitive) Kind() Kind { return p.K }
func (p Primitive) String() string {
	return p.K.String()
}

var (
	Null    Type = Primitive{KindNull}
	Boolean Type = Primitive{KindBoolean}
	Int     Type = Primitive{KindInt}
	Long    Type = Primitive{KindLong}
	Float   Type = Primitive{KindFloat}
	Double  Type = Primitive{KindDouble}
	Bytes   Type = Primitive{KindBytes}
	String  Type = Primitive{KindString}
)

// IsNumeric reports whether t is one of int/long/float/double.
func IsNumeric(t Type) bool {
	switch t.Kind() {
	case KindInt, KindLong, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// Array is array<Items>.
type Array struct {
	Items Type
}

func (a Array) Kind() Kind     { return KindArray }
func (a Array) String() string { return fmt.Sprintf("array<%s>", a.Items.String()) }

// Map is map<Values> (string-keyed, per Avro).
type Map struct {
	Values Type
}

func (m Map) Kind() Kind     { return KindMap }
func (m Map) String() string { return fmt.Sprintf("map<%s>", m.Values.String()) }

// Field is one record field.
type Field struct {
	Name    string
	Type    Type
	Default interface{} // optional, nil if absent
	HasDflt bool
}

// Record is a named type; two Record values are equal (per Equal) iff their
// FullName matches, regardless of field identity — names must still carry
// matching structure at intern time (DuplicateTypeName otherwise).
type Record struct {
	FullName string
	Fields   []Field
	Doc      string
}

func (r *Record) Kind() Kind     { return KindRecord }
func (r *Record) String() string { return r.FullName }

// FieldByName returns the field named n, or ok=false.
func (r *Record) FieldByName(n string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == n {
			return f, true
		}
	}
	return Field{}, false
}

// Enum is a named type over a closed set of symbols.
type Enum struct {
	FullName string
	Symbols  []string
	Doc      string
}

func (e *Enum) Kind() Kind     { return KindEnum }
func (e *Enum) String() string { return e.FullName }

func (e *Enum) HasSymbol(s string) bool {
	for _, sym := range e.Symbols {
		if sym == s {
			return true
		}
	}
	return false
}

// Fixed is a named type of a declared byte size.
type Fixed struct {
	FullName string
	Size     int
}

func (f *Fixed) Kind() Kind     { return KindFixed }
func (f *Fixed) String() string { return f.FullName }

// Union is an unordered set of distinct, non-nested branch types.
type Union struct {
	Branches []Type
}

func (u Union) Kind() Kind { return KindUnion }
func (u Union) String() string {
	parts := make([]string, len(u.Branches))
	for i, b := range u.Branches {
		parts[i] = b.String()
	}
	return "union[" + strings.Join(parts, ",") + "]"
}

// AcceptsNull reports whether the union has a null branch.
func (u Union) AcceptsNull() bool {
	for _, b := range u.Branches {
		if b.Kind() == KindNull {
			return true
		}
	}
	return false
}

// WithoutNull returns the union of all non-null branches, collapsing to
// the single remaining branch's type if only one remains (used by
// IfNotNull per spec.md §4.4: "bindings are rebound to union minus null").
func (u Union) WithoutNull() Type {
	rest := make([]Type, 0, len(u.Branches))
	for _, b := range u.Branches {
		if b.Kind() != KindNull {
			rest = append(rest, b)
		}
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return Union{Branches: rest}
}

// Function is the type of a fcnref/fcndef value — used only where spec.md
// §4.4 requires a "to" target be a function of signature T -> T (AttrTo/
// CellTo/PoolTo) or a fcnref is passed as a higher-order argument. It is
// not part of the Avro document type system proper; no document field may
// declare type "function".
type Function struct {
	Params []Type
	Return Type
}

func (f Function) Kind() Kind { return KindFunction }
func (f Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ",") + ")->" + f.Return.String()
}

// NewFunction constructs a Function type.
func NewFunction(params []Type, ret Type) Type {
	return Function{Params: params, Return: ret}
}

// BranchFor returns the union branch matching t (by Equal), or ok=false.
func (u Union) BranchFor(t Type) (Type, bool) {
	for _, b := range u.Branches {
		if Equal(b, t) {
			return b, true
		}
	}
	return nil, false
}
