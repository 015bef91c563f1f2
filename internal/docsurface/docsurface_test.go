package docsurface_test

import (
	"bytes"
	"testing"

	"github.com/animator/pfa/internal/docsurface"
)

func TestParseJSONNumbersAreFloat64(t *testing.T) {
	tree, err := docsurface.Parse([]byte(`{"a": 1, "b": [2, 3.5]}`), docsurface.FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obj := tree.(map[string]interface{})
	if _, ok := obj["a"].(float64); !ok {
		t.Fatalf("expected JSON integers to decode as float64, got %T", obj["a"])
	}
}

func TestParseYAMLNumbersNormalizeToFloat64(t *testing.T) {
	tree, err := docsurface.Parse([]byte("a: 1\nb:\n  - 2\n  - 3.5\n"), docsurface.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obj, ok := tree.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a map[string]interface{} tree, got %T", tree)
	}
	if _, ok := obj["a"].(float64); !ok {
		t.Fatalf("expected YAML integers to normalize to float64 like JSON, got %T", obj["a"])
	}
	list, ok := obj["b"].([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("expected a 2-element list, got %v", obj["b"])
	}
	if _, ok := list[0].(float64); !ok {
		t.Fatalf("expected nested YAML integers to normalize too, got %T", list[0])
	}
}

func TestParseInvalidJSONErrors(t *testing.T) {
	if _, err := docsurface.Parse([]byte(`{not valid`), docsurface.FormatJSON); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestWriteJSONThenParseRoundTrips(t *testing.T) {
	tree := map[string]interface{}{"name": "x", "action": []interface{}{float64(1), nil, true}}

	var buf bytes.Buffer
	if err := docsurface.Write(&buf, tree, docsurface.FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}
	reparsed, err := docsurface.Parse(buf.Bytes(), docsurface.FormatJSON)
	if err != nil {
		t.Fatalf("Parse after Write: %v", err)
	}
	obj := reparsed.(map[string]interface{})
	if obj["name"].(string) != "x" {
		t.Fatalf("expected name to round trip, got %v", obj["name"])
	}
}

func TestWriteYAMLThenParseRoundTrips(t *testing.T) {
	tree := map[string]interface{}{"method": "map", "zero": float64(0)}

	var buf bytes.Buffer
	if err := docsurface.Write(&buf, tree, docsurface.FormatYAML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	reparsed, err := docsurface.Parse(buf.Bytes(), docsurface.FormatYAML)
	if err != nil {
		t.Fatalf("Parse after Write: %v", err)
	}
	obj := reparsed.(map[string]interface{})
	if obj["method"].(string) != "map" {
		t.Fatalf("expected method to round trip, got %v", obj["method"])
	}
}
