package analyzer_test

import (
	"testing"

	"github.com/animator/pfa/internal/analyzer"
	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/catalog"
	"github.com/animator/pfa/internal/types"
)

func build(t *testing.T, doc map[string]interface{}) *ast.EngineConfig {
	t.Helper()
	cfg, err := ast.BuildConfig(doc)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	return cfg
}

func TestAnalyzeConfigAcceptsMatchingOutputType(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"input":  "int",
		"output": "int",
		"action": []interface{}{
			map[string]interface{}{"+": []interface{}{"input", float64(1)}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err != nil {
		t.Fatalf("AnalyzeConfig: %v", err)
	}
}

func TestAnalyzeConfigRejectsMismatchedOutputType(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"input":  "int",
		"output": "string",
		"action": []interface{}{
			map[string]interface{}{"+": []interface{}{"input", float64(1)}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err == nil {
		t.Fatal("expected a SemanticError: action produces int, output declared string")
	}
}

func TestAnalyzeConfigFoldRequiresZero(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"method": "fold",
		"input":  "double",
		"output": "double",
		"action": []interface{}{
			map[string]interface{}{"+": []interface{}{"input", "tally"}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err == nil {
		t.Fatal("expected fold without a zero value to fail to type-check")
	}
}

func TestAnalyzeConfigRejectsUnknownFunction(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"input":  "int",
		"output": "int",
		"action": []interface{}{
			map[string]interface{}{"nope.doesnotexist": []interface{}{"input"}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err == nil {
		t.Fatal("expected a SemanticError for a call to an undeclared function")
	}
}

func TestAnalyzeConfigRejectsUndeclaredVariable(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"input":  "null",
		"output": "int",
		"action": []interface{}{
			map[string]interface{}{"+": []interface{}{"undeclared", float64(1)}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err == nil {
		t.Fatal("expected a SemanticError referencing an undeclared variable")
	}
}

func TestAnalyzeConfigLetThenSetTypeChecks(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"input":  "null",
		"output": "null",
		"action": []interface{}{
			map[string]interface{}{"let": map[string]interface{}{"x": float64(0)}},
			map[string]interface{}{"set": map[string]interface{}{"x": map[string]interface{}{
				"+": []interface{}{"x", float64(1)},
			}}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err != nil {
		t.Fatalf("AnalyzeConfig: %v", err)
	}
}

func TestAnalyzeConfigRejectsSetOfUndeclaredVariable(t *testing.T) {
	cfg := build(t, map[string]interface{}{
		"input":  "null",
		"output": "null",
		"action": []interface{}{
			map[string]interface{}{"set": map[string]interface{}{"x": float64(1)}},
		},
	})
	a := analyzer.New(types.NewRegistry(), catalog.Core{})
	if _, err := a.AnalyzeConfig(cfg); err == nil {
		t.Fatal("expected a SemanticError: \"set\" on a variable that was never \"let\"")
	}
}
