// Package docsurface loads spec.md §6's document surface — a single JSON
// or YAML object — into the generic tree internal/ast.BuildConfig expects:
// nested map[string]interface{}/[]interface{}/string/float64/bool/nil,
// numbers always float64 regardless of source format. Grounded on the
// teacher's internal/evaluator/builtins_yaml.go (yaml.v3 decode, then a
// normalizing walk since yaml.v3 hands back int/int64 where encoding/json
// would hand back float64).
package docsurface

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects the document's encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Load reads r in the given format and returns the generic tree.
func Load(r io.Reader, format Format) (interface{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("docsurface: read: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes data in the given format into the generic tree.
func Parse(data []byte, format Format) (interface{}, error) {
	switch format {
	case FormatJSON:
		var tree interface{}
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("docsurface: invalid JSON: %w", err)
		}
		return tree, nil
	case FormatYAML:
		var tree interface{}
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("docsurface: invalid YAML: %w", err)
		}
		return normalize(tree), nil
	default:
		return nil, fmt.Errorf("docsurface: unknown format %d", format)
	}
}

// Write encodes tree (the generic shape Parse/Load produce, or
// internal/ast.Serialize's output) back out in the given format.
func Write(w io.Writer, tree interface{}, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(tree)
	default:
		return fmt.Errorf("docsurface: unknown format %d", format)
	}
}

// normalize walks a yaml.v3-decoded tree into JSON-shaped Go values: ints
// become float64 (matching encoding/json's number representation, which
// internal/ast.BuildConfig assumes throughout) and map[interface{}]
// interface{} (possible from untyped YAML keys) collapses to
// map[string]interface{}.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
