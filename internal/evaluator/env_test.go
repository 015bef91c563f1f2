package evaluator

import "testing"

func TestEnvLookupWalksOuterFrames(t *testing.T) {
	root := newEnv(nil)
	root.declare("x", int32(1))
	child := root.child()
	child.declare("y", int32(2))

	if v, ok := child.lookup("x"); !ok || v.(int32) != 1 {
		t.Fatalf("expected child to see outer-frame x=1, got %v, %v", v, ok)
	}
	if v, ok := child.lookup("y"); !ok || v.(int32) != 2 {
		t.Fatalf("expected child to see its own y=2, got %v, %v", v, ok)
	}
	if _, ok := root.lookup("y"); ok {
		t.Fatal("expected an outer frame not to see an inner frame's own binding")
	}
}

func TestEnvSetMutatesTheDeclaringFrame(t *testing.T) {
	root := newEnv(nil)
	root.declare("x", int32(1))
	child := root.child()

	if ok := child.set("x", int32(99)); !ok {
		t.Fatal("expected set to find x in an outer frame")
	}
	if v, _ := root.lookup("x"); v.(int32) != 99 {
		t.Fatalf("expected set from a child frame to mutate the declaring frame, got %v", v)
	}
}

func TestEnvSetOnUndeclaredNameFails(t *testing.T) {
	root := newEnv(nil)
	if ok := root.set("nope", int32(1)); ok {
		t.Fatal("expected set on an undeclared name to report failure")
	}
}

func TestEnvChildShadowsOuterBinding(t *testing.T) {
	root := newEnv(nil)
	root.declare("x", int32(1))
	child := root.child()
	child.declare("x", int32(2))

	if v, _ := child.lookup("x"); v.(int32) != 2 {
		t.Fatalf("expected the inner declaration to shadow the outer one, got %v", v)
	}
	if v, _ := root.lookup("x"); v.(int32) != 1 {
		t.Fatalf("expected the outer frame's own binding to be unaffected by shadowing, got %v", v)
	}
}
