package value

import (
	"fmt"

	"github.com/animator/pfa/internal/types"
	"github.com/animator/pfa/internal/wireformat"
)

// DecodeError reports a generic-tree value that does not match its
// declared Avro type — a PFASemanticException if found while decoding a
// literal at type-check time, a PFARuntimeException if found while
// decoding a record streamed in at runtime.
type DecodeError struct {
	Type types.Type
	Msg  string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("cannot decode %s: %s", e.Type, e.Msg) }

func decodeErr(t types.Type, format string, args ...interface{}) error {
	return &DecodeError{Type: t, Msg: fmt.Sprintf(format, args...)}
}

// Decode turns a generic JSON/YAML-shaped tree (nil/bool/float64/string/
// []interface{}/map[string]interface{}, per internal/docsurface's output)
// into t's runtime representation (this package's types), recursively.
// It is the single place spec.md §3's literal data, cell/pool init values,
// and fold's zero all go through, so every entry point into the engine's
// state agrees on one decoding of the Avro JSON encoding.
func Decode(t types.Type, raw interface{}) (interface{}, error) {
	switch tt := t.(type) {
	case types.Primitive:
		return decodePrimitive(tt, raw)

	case types.Array:
		items, ok := raw.([]interface{})
		if !ok {
			return nil, decodeErr(t, "expected a JSON array, got %T", raw)
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			v, err := Decode(tt.Items, item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case types.Map:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, decodeErr(t, "expected a JSON object, got %T", raw)
		}
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			dv, err := Decode(tt.Values, v)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil

	case *types.Record:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, decodeErr(t, "expected a JSON object, got %T", raw)
		}
		fields := make(map[string]interface{}, len(tt.Fields))
		for _, f := range tt.Fields {
			fv, present := m[f.Name]
			if !present {
				if f.HasDflt {
					fields[f.Name] = f.Default
					continue
				}
				return nil, decodeErr(t, "missing required field %q", f.Name)
			}
			dv, err := Decode(f.Type, fv)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = dv
		}
		return &Record{Type: tt, Fields: fields}, nil

	case *types.Enum:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(t, "enum value must be a JSON string, got %T", raw)
		}
		found := false
		for _, sym := range tt.Symbols {
			if sym == s {
				found = true
				break
			}
		}
		if !found {
			return nil, decodeErr(t, "%q is not a symbol of enum %s", s, tt.FullName)
		}
		return Enum{Type: tt, Symbol: s}, nil

	case *types.Fixed:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(t, "fixed value must be a JSON string, got %T", raw)
		}
		data, err := wireformat.ValidateFixed(tt.FullName, []byte(s), tt.Size)
		if err != nil {
			return nil, err
		}
		return Fixed{Type: tt, Data: data}, nil

	case types.Union:
		if raw == nil {
			if !tt.AcceptsNull() {
				return nil, decodeErr(t, "null is not a member of this union")
			}
			return Tagged{Branch: types.Null, Value: nil}, nil
		}
		m, ok := raw.(map[string]interface{})
		if !ok || len(m) != 1 {
			return nil, decodeErr(t, "union value must be a single-key JSON object naming its branch")
		}
		for branchName, v := range m {
			branch, ok := branchByDocName(tt, branchName)
			if !ok {
				return nil, decodeErr(t, "%q is not a branch of this union", branchName)
			}
			dv, err := Decode(branch, v)
			if err != nil {
				return nil, err
			}
			return Tagged{Branch: branch, Value: dv}, nil
		}
		return nil, decodeErr(t, "empty union value")

	default:
		return nil, decodeErr(t, "type %s has no document encoding", t)
	}
}

func branchByDocName(u types.Union, name string) (types.Type, bool) {
	for _, b := range u.Branches {
		if docTypeName(b) == name {
			return b, true
		}
	}
	return nil, false
}

// docTypeName is the Avro JSON encoding's branch discriminator: a named
// type's full name, or a primitive/complex type's Avro type-name keyword.
func docTypeName(t types.Type) string {
	switch tt := t.(type) {
	case *types.Record:
		return tt.FullName
	case *types.Enum:
		return tt.FullName
	case *types.Fixed:
		return tt.FullName
	case types.Array:
		return "array"
	case types.Map:
		return "map"
	default:
		return t.Kind().String()
	}
}

func decodePrimitive(t types.Primitive, raw interface{}) (interface{}, error) {
	switch t.Kind() {
	case types.KindNull:
		if raw != nil {
			return nil, decodeErr(t, "expected null, got %T", raw)
		}
		return nil, nil
	case types.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, decodeErr(t, "expected a JSON boolean, got %T", raw)
		}
		return b, nil
	case types.KindInt:
		f, ok := raw.(float64)
		if !ok {
			return nil, decodeErr(t, "expected a JSON number, got %T", raw)
		}
		return int32(f), nil
	case types.KindLong:
		f, ok := raw.(float64)
		if !ok {
			return nil, decodeErr(t, "expected a JSON number, got %T", raw)
		}
		return int64(f), nil
	case types.KindFloat:
		f, ok := raw.(float64)
		if !ok {
			return nil, decodeErr(t, "expected a JSON number, got %T", raw)
		}
		return float32(f), nil
	case types.KindDouble:
		f, ok := raw.(float64)
		if !ok {
			return nil, decodeErr(t, "expected a JSON number, got %T", raw)
		}
		return f, nil
	case types.KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(t, "expected a JSON string, got %T", raw)
		}
		return s, nil
	case types.KindBytes:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(t, "expected a JSON string, got %T", raw)
		}
		return []byte(s), nil
	default:
		return nil, decodeErr(t, "unhandled primitive kind")
	}
}

// Encode is Decode's inverse, turning a runtime value back into a generic
// JSON/YAML-shaped tree for output (emitted records, map method results,
// and NDJSON log serialization of tally on demand).
func Encode(t types.Type, v interface{}) (interface{}, error) {
	switch tt := t.(type) {
	case types.Primitive:
		return encodePrimitive(tt, v)

	case types.Array:
		arr, _ := v.([]interface{})
		out := make([]interface{}, len(arr))
		for i, item := range arr {
			ev, err := Encode(tt.Items, item)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil

	case types.Map:
		m, _ := v.(map[string]interface{})
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ev, err := Encode(tt.Values, val)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil

	case *types.Record:
		rec, ok := v.(*Record)
		if !ok {
			return nil, decodeErr(t, "expected a record value, got %T", v)
		}
		out := make(map[string]interface{}, len(tt.Fields))
		for _, f := range tt.Fields {
			ev, err := Encode(f.Type, rec.Fields[f.Name])
			if err != nil {
				return nil, err
			}
			out[f.Name] = ev
		}
		return out, nil

	case *types.Enum:
		en, ok := v.(Enum)
		if !ok {
			return nil, decodeErr(t, "expected an enum value, got %T", v)
		}
		return en.Symbol, nil

	case *types.Fixed:
		fx, ok := v.(Fixed)
		if !ok {
			return nil, decodeErr(t, "expected a fixed value, got %T", v)
		}
		return string(fx.Data), nil

	case types.Union:
		tg, ok := v.(Tagged)
		if !ok {
			if v == nil {
				return nil, nil
			}
			return nil, decodeErr(t, "expected a union value, got %T", v)
		}
		if tg.Branch.Kind() == types.KindNull {
			return nil, nil
		}
		ev, err := Encode(tg.Branch, tg.Value)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{docTypeName(tg.Branch): ev}, nil

	default:
		return nil, decodeErr(t, "type %s has no document encoding", t)
	}
}

func encodePrimitive(t types.Primitive, v interface{}) (interface{}, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return vv, nil
	case int32:
		return float64(vv), nil
	case int64:
		return float64(vv), nil
	case float32:
		return float64(vv), nil
	case float64:
		return vv, nil
	case []byte:
		return string(vv), nil
	default:
		return nil, decodeErr(t, "unsupported runtime value %T", v)
	}
}
