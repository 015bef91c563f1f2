package signature_test

import (
	"testing"

	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/types"
)

func TestMatchWildcardBindsAndRepeats(t *testing.T) {
	sig := signature.Signature{
		Params: []signature.Param{
			{Name: "x", Wildcard: "A"},
			{Name: "y", Wildcard: "A"},
		},
		Return: signature.Ret{Wildcard: "A"},
	}
	bindings, ok := signature.Match(sig, []types.Type{types.Int, types.Int})
	if !ok {
		t.Fatal("expected a match for (int, int) against (A, A)")
	}
	if !types.Equal(bindings["A"], types.Int) {
		t.Fatalf("expected A bound to int, got %s", bindings["A"])
	}
}

func TestMatchWildcardRejectsInconsistentBinding(t *testing.T) {
	sig := signature.Signature{
		Params: []signature.Param{
			{Name: "x", Wildcard: "A"},
			{Name: "y", Wildcard: "A"},
		},
		Return: signature.Ret{Wildcard: "A"},
	}
	_, ok := signature.Match(sig, []types.Type{types.Int, types.String})
	if ok {
		t.Fatal("expected no match: the second occurrence of A does not equal the first binding")
	}
}

func TestMatchWildcardBound(t *testing.T) {
	sig := signature.Signature{
		Params: []signature.Param{{Name: "x", Wildcard: "A", Bound: []types.Type{types.Int, types.Long}}},
		Return: signature.Ret{Wildcard: "A"},
	}
	if _, ok := signature.Match(sig, []types.Type{types.String}); ok {
		t.Fatal("expected no match: string is not in the bound set {int, long}")
	}
	if _, ok := signature.Match(sig, []types.Type{types.Long}); !ok {
		t.Fatal("expected a match: long is in the bound set {int, long}")
	}
}

func TestMatchConcreteParamUsesAccepts(t *testing.T) {
	sig := signature.Signature{
		Params: []signature.Param{{Name: "x", Concrete: types.Union{Branches: []types.Type{types.Null, types.Int}}}},
		Return: signature.Ret{Concrete: types.Boolean},
	}
	if _, ok := signature.Match(sig, []types.Type{types.Int}); !ok {
		t.Fatal("expected int to match a concrete union[null,int] parameter via Accepts")
	}
	if _, ok := signature.Match(sig, []types.Type{types.String}); ok {
		t.Fatal("expected string not to match union[null,int]")
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	sigs := []signature.Signature{
		{
			Params: []signature.Param{{Name: "x", Concrete: types.Int}},
			Return: signature.Ret{Concrete: types.Int},
		},
		{
			Params: []signature.Param{{Name: "x", Wildcard: "A"}},
			Return: signature.Ret{Wildcard: "A"},
		},
	}
	resolved, err := signature.Resolve("f", sigs, []types.Type{types.Int})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !types.Equal(resolved.Return, types.Int) {
		t.Fatalf("expected the first (concrete int) signature to win, got return %s", resolved.Return)
	}
}

func TestResolveNoApplicableSignature(t *testing.T) {
	sigs := []signature.Signature{
		{Params: []signature.Param{{Name: "x", Concrete: types.Int}}, Return: signature.Ret{Concrete: types.Int}},
	}
	_, err := signature.Resolve("f", sigs, []types.Type{types.String})
	if err == nil {
		t.Fatal("expected NoApplicableSignatureError for a string argument against an int-only signature")
	}
	if _, ok := err.(*signature.NoApplicableSignatureError); !ok {
		t.Fatalf("expected *NoApplicableSignatureError, got %T", err)
	}
}

type fakeCatalog struct {
	name string
	sigs []signature.Signature
}

func (f fakeCatalog) Signatures(name string) ([]signature.Signature, bool) {
	if name == f.name {
		return f.sigs, true
	}
	return nil, false
}

func TestChainSignaturesFirstCatalogWins(t *testing.T) {
	a := fakeCatalog{name: "f", sigs: []signature.Signature{{Return: signature.Ret{Concrete: types.Int}}}}
	b := fakeCatalog{name: "f", sigs: []signature.Signature{{Return: signature.Ret{Concrete: types.String}}}}
	chain := signature.Chain{a, b}
	sigs, ok := chain.Signatures("f")
	if !ok || !types.Equal(sigs[0].Return.Concrete, types.Int) {
		t.Fatal("expected Chain.Signatures to return the first catalog declaring the name")
	}
}

func TestChainSignaturesFallsThroughToSecondCatalog(t *testing.T) {
	a := fakeCatalog{name: "f", sigs: nil}
	b := fakeCatalog{name: "g", sigs: []signature.Signature{{Return: signature.Ret{Concrete: types.Boolean}}}}
	chain := signature.Chain{a, b}
	if _, ok := chain.Signatures("g"); !ok {
		t.Fatal("expected Chain.Signatures to fall through to a later catalog that declares the name")
	}
}
