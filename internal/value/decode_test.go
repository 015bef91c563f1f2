package value_test

import (
	"testing"

	"github.com/animator/pfa/internal/types"
	"github.com/animator/pfa/internal/value"
)

func TestDecodePrimitives(t *testing.T) {
	v, err := value.Decode(types.Int, float64(42))
	if err != nil {
		t.Fatalf("Decode int: %v", err)
	}
	if v.(int32) != 42 {
		t.Fatalf("expected int32(42), got %v", v)
	}

	v, err = value.Decode(types.String, "hi")
	if err != nil {
		t.Fatalf("Decode string: %v", err)
	}
	if v.(string) != "hi" {
		t.Fatalf("expected %q, got %v", "hi", v)
	}
}

func TestDecodeWrongShapeErrors(t *testing.T) {
	if _, err := value.Decode(types.Int, "not a number"); err == nil {
		t.Fatal("expected a DecodeError for a string where int was expected")
	}
}

func TestDecodeArrayAndMap(t *testing.T) {
	arrType := types.Array{Items: types.Int}
	v, err := value.Decode(arrType, []interface{}{float64(1), float64(2), float64(3)})
	if err != nil {
		t.Fatalf("Decode array: %v", err)
	}
	arr := v.([]interface{})
	if len(arr) != 3 || arr[1].(int32) != 2 {
		t.Fatalf("unexpected decoded array: %v", arr)
	}

	mapType := types.Map{Values: types.String}
	v, err = value.Decode(mapType, map[string]interface{}{"a": "x"})
	if err != nil {
		t.Fatalf("Decode map: %v", err)
	}
	m := v.(map[string]interface{})
	if m["a"].(string) != "x" {
		t.Fatalf("unexpected decoded map: %v", m)
	}
}

func TestDecodeRecordAppliesDefaults(t *testing.T) {
	rec := &types.Record{
		FullName: "test.Rec",
		Fields: []types.Field{
			{Name: "x", Type: types.Int},
			{Name: "y", Type: types.String, Default: "fallback", HasDflt: true},
		},
	}
	v, err := value.Decode(rec, map[string]interface{}{"x": float64(7)})
	if err != nil {
		t.Fatalf("Decode record with missing defaulted field: %v", err)
	}
	r := v.(*value.Record)
	if r.Fields["x"].(int32) != 7 {
		t.Fatalf("expected x=7, got %v", r.Fields["x"])
	}
	if r.Fields["y"].(string) != "fallback" {
		t.Fatalf("expected default value for missing field y, got %v", r.Fields["y"])
	}
}

func TestDecodeRecordMissingRequiredFieldErrors(t *testing.T) {
	rec := &types.Record{
		FullName: "test.Rec",
		Fields:   []types.Field{{Name: "x", Type: types.Int}},
	}
	if _, err := value.Decode(rec, map[string]interface{}{}); err == nil {
		t.Fatal("expected an error for a missing required field with no default")
	}
}

func TestDecodeEnumRejectsUnknownSymbol(t *testing.T) {
	en := &types.Enum{FullName: "test.Color", Symbols: []string{"RED", "GREEN"}}
	if _, err := value.Decode(en, "BLUE"); err == nil {
		t.Fatal("expected an error for a symbol not in the enum")
	}
	v, err := value.Decode(en, "RED")
	if err != nil {
		t.Fatalf("Decode valid enum symbol: %v", err)
	}
	if v.(value.Enum).Symbol != "RED" {
		t.Fatalf("unexpected enum value: %v", v)
	}
}

func TestDecodeFixedRejectsWrongSize(t *testing.T) {
	fx := &types.Fixed{FullName: "test.MD5", Size: 4}
	if _, err := value.Decode(fx, "abc"); err == nil {
		t.Fatal("expected a size error for a 3-byte string against a size-4 fixed")
	}
	v, err := value.Decode(fx, "abcd")
	if err != nil {
		t.Fatalf("Decode correctly sized fixed: %v", err)
	}
	if len(v.(value.Fixed).Data) != 4 {
		t.Fatalf("unexpected fixed length: %v", v)
	}
}

func TestDecodeUnionNullBranch(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Null, types.Int}}
	v, err := value.Decode(u, nil)
	if err != nil {
		t.Fatalf("Decode null union branch: %v", err)
	}
	tg := v.(value.Tagged)
	if tg.Branch.Kind() != types.KindNull {
		t.Fatalf("expected null branch, got %s", tg.Branch)
	}
}

func TestDecodeUnionRejectsNullWithoutNullBranch(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Int, types.String}}
	if _, err := value.Decode(u, nil); err == nil {
		t.Fatal("expected an error decoding null against a union with no null branch")
	}
}

func TestDecodeUnionNamedBranch(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Null, types.Int}}
	v, err := value.Decode(u, map[string]interface{}{"int": float64(5)})
	if err != nil {
		t.Fatalf("Decode union int branch: %v", err)
	}
	tg := v.(value.Tagged)
	if tg.Branch.Kind() != types.KindInt || tg.Value.(int32) != 5 {
		t.Fatalf("unexpected tagged value: %+v", tg)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := &types.Record{
		FullName: "test.Rec",
		Fields: []types.Field{
			{Name: "x", Type: types.Int},
			{Name: "tags", Type: types.Array{Items: types.String}},
		},
	}
	doc := map[string]interface{}{
		"x":    float64(3),
		"tags": []interface{}{"a", "b"},
	}
	decoded, err := value.Decode(rec, doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	encoded, err := value.Encode(rec, decoded)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	redecoded, err := value.Decode(rec, encoded)
	if err != nil {
		t.Fatalf("Decode(Encode(...)): %v", err)
	}
	if !value.DeepEqual(decoded, redecoded) {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, redecoded)
	}
}

func TestEncodeUnionNullBranch(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Null, types.String}}
	encoded, err := value.Encode(u, value.Tagged{Branch: types.Null, Value: nil})
	if err != nil {
		t.Fatalf("Encode null branch: %v", err)
	}
	if encoded != nil {
		t.Fatalf("expected a bare null for the null branch, got %v", encoded)
	}
}
