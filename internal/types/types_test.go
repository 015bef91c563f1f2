package types_test

import (
	"testing"

	"github.com/animator/pfa/internal/types"
)

func TestAcceptsPrimitivesInvariant(t *testing.T) {
	if types.Accepts(types.Int, types.Long) {
		t.Fatal("int must not accept long: Avro primitives are invariant under Accepts")
	}
	if !types.Accepts(types.Long, types.Long) {
		t.Fatal("long must accept long")
	}
}

func TestAcceptsUnionMember(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Null, types.Int}}
	if !types.Accepts(u, types.Int) {
		t.Fatal("union[null,int] must accept int")
	}
	if !types.Accepts(u, types.Null) {
		t.Fatal("union[null,int] must accept null")
	}
	if types.Accepts(u, types.String) {
		t.Fatal("union[null,int] must not accept string")
	}
}

func TestAcceptsValueUnionRequiresAllBranches(t *testing.T) {
	valueUnion := types.Union{Branches: []types.Type{types.Int, types.String}}
	if types.Accepts(types.Int, valueUnion) {
		t.Fatal("plain int must not accept a union value unless every branch accepts")
	}
	wideUnion := types.Union{Branches: []types.Type{types.Int, types.String}}
	if !types.Accepts(wideUnion, valueUnion) {
		t.Fatal("union[int,string] must accept a value of union[int,string]")
	}
}

func TestAcceptsNamedTypesByFullName(t *testing.T) {
	a := &types.Record{FullName: "a.Foo", Fields: nil}
	b := &types.Record{FullName: "a.Foo", Fields: []types.Field{{Name: "x", Type: types.Int}}}
	c := &types.Record{FullName: "a.Bar"}
	if !types.Accepts(a, b) {
		t.Fatal("records with the same FullName must accept one another regardless of field identity")
	}
	if types.Accepts(a, c) {
		t.Fatal("records with different FullNames must not accept one another")
	}
}

func TestEqualArrayAndMapAreStructural(t *testing.T) {
	a1 := types.Array{Items: types.Int}
	a2 := types.Array{Items: types.Int}
	if !types.Equal(a1, a2) {
		t.Fatal("array<int> must equal array<int> structurally")
	}
	if types.Equal(a1, types.Array{Items: types.Long}) {
		t.Fatal("array<int> must not equal array<long>")
	}
}

func TestLubSameTypeCollapses(t *testing.T) {
	got := types.Lub(types.Int, types.Int, types.Int)
	if !types.Equal(got, types.Int) {
		t.Fatalf("lub of identical types must collapse to that type, got %s", got)
	}
}

func TestLubFlattensNestedUnions(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Int, types.String}}
	got := types.Lub(u, types.Boolean)
	union, ok := got.(types.Union)
	if !ok {
		t.Fatalf("expected a union, got %T", got)
	}
	if len(union.Branches) != 3 {
		t.Fatalf("expected 3 flattened branches, got %d: %s", len(union.Branches), got)
	}
	for _, b := range union.Branches {
		if _, nested := b.(types.Union); nested {
			t.Fatal("lub must never nest a union inside a union branch")
		}
	}
}

func TestLubDedupesEqualBranches(t *testing.T) {
	got := types.Lub(types.Int, types.String, types.Int)
	union, ok := got.(types.Union)
	if !ok {
		t.Fatalf("expected a union, got %T", got)
	}
	if len(union.Branches) != 2 {
		t.Fatalf("expected duplicate int branch to be dropped, got %d branches: %s", len(union.Branches), got)
	}
}

func TestUnionWithoutNullCollapsesSingleBranch(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Null, types.Int}}
	got := u.WithoutNull()
	if !types.Equal(got, types.Int) {
		t.Fatalf("union[null,int] minus null must collapse to plain int, got %s", got)
	}
}

func TestUnionWithoutNullKeepsUnionWithMultipleBranches(t *testing.T) {
	u := types.Union{Branches: []types.Type{types.Null, types.Int, types.String}}
	got := u.WithoutNull()
	union, ok := got.(types.Union)
	if !ok {
		t.Fatalf("expected a union with 2 branches remaining, got %T", got)
	}
	if len(union.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(union.Branches))
	}
}

func TestRoundTripTypeThroughParseAndToDoc(t *testing.T) {
	reg := types.NewRegistry()
	original := map[string]interface{}{
		"type": "record",
		"name": "test.Rec",
		"fields": []interface{}{
			map[string]interface{}{"name": "x", "type": "int"},
			map[string]interface{}{"name": "y", "type": []interface{}{"null", "string"}},
		},
	}
	parsed, err := types.Parse(reg, "", original)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	doc := types.ToDoc(parsed)
	reg2 := types.NewRegistry()
	reparsed, err := types.Parse(reg2, "", doc)
	if err != nil {
		t.Fatalf("Parse(ToDoc(parsed)): %v", err)
	}
	if !types.Equal(parsed, reparsed) {
		t.Fatalf("round-tripped type does not equal the original: %s vs %s", parsed, reparsed)
	}
}
