package types

import (
	"fmt"
	"sort"
)

// ParseError wraps a schema-parsing failure with the JSON path at which it
// occurred, surfaced to callers as part of a PFASemanticException (schema
// parsing happens during AST construction, before type checking proper).
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Parse walks the generic JSON-like tree produced by internal/docsurface
// (maps keyed by string, []interface{}, string, float64/int, bool, nil)
// into a Type, interning named types in reg. This covers the Avro type
// surface spec.md §3 names: "null"|"boolean"|"int"|"long"|"float"|
// "double"|"bytes"|"string" as bare strings; {"type":"array","items":T} or
// the shorthand {"type":"array","items":...}; {"type":"map","values":T};
// {"type":"record","name":N,"fields":[...]}; {"type":"enum","name":N,
// "symbols":[...]}; {"type":"fixed","name":N,"size":n}; and a bare JSON
// array for a union.
func Parse(reg *Registry, path string, v interface{}) (Type, error) {
	switch node := v.(type) {
	case string:
		return parsePrimitiveOrRef(reg, path, node)

	case []interface{}:
		return parseUnion(reg, path, node)

	case map[string]interface{}:
		return parseObject(reg, path, node)

	default:
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("cannot parse type from %T", v)}
	}
}

func parsePrimitiveOrRef(reg *Registry, path, name string) (Type, error) {
	switch name {
	case "null":
		return Null, nil
	case "boolean":
		return Boolean, nil
	case "int":
		return Int, nil
	case "long":
		return Long, nil
	case "float":
		return Float, nil
	case "double":
		return Double, nil
	case "bytes":
		return Bytes, nil
	case "string":
		return String, nil
	}
	if t, ok := reg.Lookup(name); ok {
		return t, nil
	}
	return nil, &ParseError{Path: path, Msg: fmt.Sprintf("unknown type reference %q", name)}
}

func parseUnion(reg *Registry, path string, items []interface{}) (Type, error) {
	branches := make([]Type, 0, len(items))
	for i, item := range items {
		t, err := Parse(reg, fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		if _, nested := t.(Union); nested {
			return nil, &ParseError{Path: path, Msg: "union branches must not be nested unions"}
		}
		for _, b := range branches {
			if Equal(b, t) {
				return nil, &ParseError{Path: path, Msg: fmt.Sprintf("duplicate union branch %s", t.String())}
			}
		}
		branches = append(branches, t)
	}
	return Union{Branches: branches}, nil
}

func parseObject(reg *Registry, path string, obj map[string]interface{}) (Type, error) {
	kind, _ := obj["type"].(string)
	switch kind {
	case "array":
		items, err := Parse(reg, path+".items", obj["items"])
		if err != nil {
			return nil, err
		}
		return Array{Items: items}, nil

	case "map":
		values, err := Parse(reg, path+".values", obj["values"])
		if err != nil {
			return nil, err
		}
		return Map{Values: values}, nil

	case "record":
		return parseRecord(reg, path, obj)

	case "enum":
		return parseEnum(reg, path, obj)

	case "fixed":
		return parseFixed(reg, path, obj)

	case "":
		return nil, &ParseError{Path: path, Msg: "missing \"type\" key"}

	default:
		// A bare {"type": "int"} etc. (primitive wrapped in an object, as
		// PFA documents sometimes write it).
		return parsePrimitiveOrRef(reg, path, kind)
	}
}

func fullName(obj map[string]interface{}) string {
	name, _ := obj["name"].(string)
	if ns, ok := obj["namespace"].(string); ok && ns != "" {
		return ns + "." + name
	}
	return name
}

func parseRecord(reg *Registry, path string, obj map[string]interface{}) (Type, error) {
	name := fullName(obj)
	rec := reg.ForwardRecord(name)

	rawFields, _ := obj["fields"].([]interface{})
	fields := make([]Field, 0, len(rawFields))
	seen := make(map[string]bool, len(rawFields))
	for i, rf := range rawFields {
		fobj, ok := rf.(map[string]interface{})
		if !ok {
			return nil, &ParseError{Path: fmt.Sprintf("%s.fields[%d]", path, i), Msg: "field must be an object"}
		}
		fname, _ := fobj["name"].(string)
		if seen[fname] {
			return nil, &ParseError{Path: path, Msg: fmt.Sprintf("duplicate field name %q", fname)}
		}
		seen[fname] = true
		ftype, err := Parse(reg, fmt.Sprintf("%s.fields[%d].type", path, i), fobj["type"])
		if err != nil {
			return nil, err
		}
		dflt, hasDflt := fobj["default"]
		fields = append(fields, Field{Name: fname, Type: ftype, Default: dflt, HasDflt: hasDflt})
	}

	filled := &Record{FullName: name, Fields: fields, Doc: docOf(obj)}
	if err := reg.Declare(filled); err != nil {
		return nil, err
	}
	// rec is the forward handle seen by any self-referencing field parsed
	// above; make it carry the final structure too.
	rec.Fields = fields
	rec.Doc = filled.Doc
	return rec, nil
}

func parseEnum(reg *Registry, path string, obj map[string]interface{}) (Type, error) {
	name := fullName(obj)
	en := reg.ForwardEnum(name)

	rawSyms, _ := obj["symbols"].([]interface{})
	symbols := make([]string, 0, len(rawSyms))
	seen := make(map[string]bool, len(rawSyms))
	for _, rs := range rawSyms {
		s, _ := rs.(string)
		if seen[s] {
			return nil, &ParseError{Path: path, Msg: fmt.Sprintf("duplicate enum symbol %q", s)}
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	filled := &Enum{FullName: name, Symbols: symbols, Doc: docOf(obj)}
	if err := reg.Declare(filled); err != nil {
		return nil, err
	}
	en.Symbols = symbols
	en.Doc = filled.Doc
	return en, nil
}

func parseFixed(reg *Registry, path string, obj map[string]interface{}) (Type, error) {
	name := fullName(obj)
	size := intOf(obj["size"])
	fx := reg.ForwardFixed(name)
	filled := &Fixed{FullName: name, Size: size}
	if err := reg.Declare(filled); err != nil {
		return nil, err
	}
	fx.Size = size
	return fx, nil
}

func docOf(obj map[string]interface{}) string {
	d, _ := obj["doc"].(string)
	return d
}

func intOf(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// SortedKeys returns m's keys in sorted order, for iterating a generic
// tree deterministically.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
