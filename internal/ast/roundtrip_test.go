package ast_test

import (
	"testing"

	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/types"
)

func mustBuild(t *testing.T, tree interface{}) *ast.EngineConfig {
	t.Helper()
	cfg, err := ast.BuildConfig(tree)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	return cfg
}

// TestSerializeIsBuildConfigInverse exercises the round-trip property:
// parsing Serialize's output reproduces the original document's shape.
func TestSerializeIsBuildConfigInverse(t *testing.T) {
	doc := map[string]interface{}{
		"name":   "roundtrip",
		"method": "map",
		"input":  "int",
		"output": "int",
		"action": []interface{}{
			map[string]interface{}{"+": []interface{}{"input", float64(1)}},
		},
	}
	cfg := mustBuild(t, doc)

	reDoc := ast.Serialize(cfg)
	cfg2 := mustBuild(t, reDoc)

	if cfg2.Name != cfg.Name {
		t.Fatalf("name mismatch after round trip: %q vs %q", cfg2.Name, cfg.Name)
	}
	if cfg2.Method != cfg.Method {
		t.Fatalf("method mismatch after round trip: %q vs %q", cfg2.Method, cfg.Method)
	}
	if !types.Equal(cfg2.InputType, cfg.InputType) {
		t.Fatalf("input type mismatch after round trip: %s vs %s", cfg2.InputType, cfg.InputType)
	}
	if !types.Equal(cfg2.OutputType, cfg.OutputType) {
		t.Fatalf("output type mismatch after round trip: %s vs %s", cfg2.OutputType, cfg.OutputType)
	}
	if len(cfg2.Action) != len(cfg.Action) {
		t.Fatalf("action length mismatch after round trip: %d vs %d", len(cfg2.Action), len(cfg.Action))
	}
	call, ok := cfg2.Action[0].(ast.Call)
	if !ok {
		t.Fatalf("expected the round-tripped action to still be a Call node, got %T", cfg2.Action[0])
	}
	if call.FcnName != "+" {
		t.Fatalf("expected the round-tripped call to still be \"+\", got %q", call.FcnName)
	}
}

// TestSerializeRecordTypeRoundTrips exercises ToDoc on a named record type
// nested inside input/output, which must re-parse to an equal type.
func TestSerializeRecordTypeRoundTrips(t *testing.T) {
	doc := map[string]interface{}{
		"name":   "recordroundtrip",
		"method": "map",
		"input": map[string]interface{}{
			"type": "record",
			"name": "Widget",
			"fields": []interface{}{
				map[string]interface{}{"name": "count", "type": "int"},
			},
		},
		"output": "int",
		"action": []interface{}{
			map[string]interface{}{"attr": "input", "path": []interface{}{
				map[string]interface{}{"string": "count"},
			}},
		},
	}
	cfg := mustBuild(t, doc)

	reDoc := ast.Serialize(cfg)
	cfg2 := mustBuild(t, reDoc)

	if !types.Equal(cfg2.InputType, cfg.InputType) {
		t.Fatalf("record input type mismatch after round trip: %s vs %s", cfg2.InputType, cfg.InputType)
	}
}
