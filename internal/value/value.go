// Package value defines the runtime representation of typed PFA values.
// Plain Go types stand in for Avro primitives directly (int32 for "int",
// int64 for "long", float32 for "float", float64 for "double", bool,
// string, []byte for "bytes", []interface{} for array, map[string]
// interface{} for map); named/union shapes get small wrapper structs so
// the evaluator can recover their declared type without a side table.
package value

import "github.com/animator/pfa/internal/types"

// Record is a runtime record value: a named type plus its field values,
// keyed by field name (order is recovered from the type's Fields when
// re-serializing).
type Record struct {
	Type   *types.Record
	Fields map[string]interface{}
}

// Enum is a runtime enum value: one of the named type's declared symbols.
type Enum struct {
	Type   *types.Enum
	Symbol string
}

// Fixed is a runtime fixed value: exactly Type.Size bytes.
type Fixed struct {
	Type *types.Fixed
	Data []byte
}

// Tagged is a runtime union value: the branch type the value was
// constructed or decoded as, plus the underlying value of that branch.
// Branch is always a member of the static union type, never a Union
// itself (spec.md §3: unions are never nested).
type Tagged struct {
	Branch types.Type
	Value  interface{}
}

// DeepEqual compares two runtime values for equality, used by tests. Array/map/record values compare element-wise; Tagged
// values compare branch type then underlying value.
func DeepEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true

	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bw, ok := bv[k]
			if !ok || !DeepEqual(v, bw) {
				return false
			}
		}
		return true

	case *Record:
		bv, ok := b.(*Record)
		if !ok || av.Type.FullName != bv.Type.FullName {
			return false
		}
		for k, v := range av.Fields {
			if !DeepEqual(v, bv.Fields[k]) {
				return false
			}
		}
		return true

	case Enum:
		bv, ok := b.(Enum)
		return ok && av.Type.FullName == bv.Type.FullName && av.Symbol == bv.Symbol

	case Fixed:
		bv, ok := b.(Fixed)
		if !ok || av.Type.FullName != bv.Type.FullName || len(av.Data) != len(bv.Data) {
			return false
		}
		for i := range av.Data {
			if av.Data[i] != bv.Data[i] {
				return false
			}
		}
		return true

	case Tagged:
		bv, ok := b.(Tagged)
		return ok && types.Equal(av.Branch, bv.Branch) && DeepEqual(av.Value, bv.Value)

	default:
		return a == b
	}
}

// Clone produces an independent copy of v deep enough that mutating the
// copy's array/map/record contents never touches v — the building block
// private cells/pools use for copy-on-write.
func Clone(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case *Record:
		out := &Record{Type: t.Type, Fields: make(map[string]interface{}, len(t.Fields))}
		for k, e := range t.Fields {
			out.Fields[k] = Clone(e)
		}
		return out
	case Fixed:
		out := make([]byte, len(t.Data))
		copy(out, t.Data)
		return Fixed{Type: t.Type, Data: out}
	case Tagged:
		return Tagged{Branch: t.Branch, Value: Clone(t.Value)}
	default:
		return v
	}
}
