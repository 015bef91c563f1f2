package symbols_test

import (
	"testing"

	"github.com/animator/pfa/internal/symbols"
	"github.com/animator/pfa/internal/types"
)

func TestDeclareThenLookupFindsBinding(t *testing.T) {
	root := symbols.NewRoot()
	if err := root.Declare("x", types.Int, true); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	b, ok := root.Lookup("x")
	if !ok {
		t.Fatal("expected to find x")
	}
	if !types.Equal(b.Type, types.Int) {
		t.Fatalf("expected x: int, got %s", b.Type)
	}
}

func TestDeclareDuplicateInSameFrameErrors(t *testing.T) {
	root := symbols.NewRoot()
	_ = root.Declare("x", types.Int, true)
	if err := root.Declare("x", types.String, true); err == nil {
		t.Fatal("expected a DuplicateError redeclaring x in the same frame")
	}
}

func TestChildScopeCanShadowOuterName(t *testing.T) {
	root := symbols.NewRoot()
	_ = root.Declare("x", types.Int, true)
	child := symbols.NewChild(root, symbols.ScopeBlock)
	if err := child.Declare("x", types.String, true); err != nil {
		t.Fatalf("expected shadowing in a fresh child scope to be allowed, got %v", err)
	}
	b, _ := child.Lookup("x")
	if !types.Equal(b.Type, types.String) {
		t.Fatalf("expected the child's own binding to win, got %s", b.Type)
	}
	outerB, _ := root.Lookup("x")
	if !types.Equal(outerB.Type, types.Int) {
		t.Fatalf("expected the outer binding to be unaffected by shadowing, got %s", outerB.Type)
	}
}

func TestSetOnUnknownNameErrors(t *testing.T) {
	root := symbols.NewRoot()
	if err := root.Set("nope", types.Int); err == nil {
		t.Fatal("expected an UnknownNameError")
	}
}

func TestSetOnImmutableNameErrors(t *testing.T) {
	root := symbols.NewRoot()
	_ = root.Declare("x", types.Int, false)
	if err := root.Set("x", types.Int); err == nil {
		t.Fatal("expected a NotMutableError for an immutable name")
	}
}

func TestSetRejectsNonEqualType(t *testing.T) {
	root := symbols.NewRoot()
	_ = root.Declare("x", types.Int, true)
	if err := root.Set("x", types.Long); err == nil {
		t.Fatal("expected a TypeMismatchError: set requires equal types, not merely accepts")
	}
}

func TestSetAcceptsMatchingType(t *testing.T) {
	root := symbols.NewRoot()
	_ = root.Declare("x", types.Int, true)
	if err := root.Set("x", types.Int); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestInActionStopsAtFunctionBoundary(t *testing.T) {
	root := symbols.NewRoot()
	action := symbols.NewChild(root, symbols.ScopeAction)
	if !action.InAction() {
		t.Fatal("expected an action scope to report InAction")
	}
	fn := symbols.NewChild(action, symbols.ScopeFunction)
	if fn.InAction() {
		t.Fatal("expected a function scope nested under action to NOT report InAction")
	}
}

func TestRebindNarrowsTypeInInnermostScopeOnly(t *testing.T) {
	root := symbols.NewRoot()
	union := types.Union{Branches: []types.Type{types.Null, types.Int}}
	_ = root.Declare("x", union, false)
	child := symbols.NewChild(root, symbols.ScopeBlock)
	child.Rebind("x", types.Int, false)

	b, _ := child.Lookup("x")
	if !types.Equal(b.Type, types.Int) {
		t.Fatalf("expected the rebind to narrow x to int within the child scope, got %s", b.Type)
	}
	outerB, _ := root.Lookup("x")
	if !types.Equal(outerB.Type, union) {
		t.Fatalf("expected the outer scope's binding to remain the union, got %s", outerB.Type)
	}
}
