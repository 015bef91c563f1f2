package state_test

import (
	"sync"
	"testing"

	"github.com/animator/pfa/internal/state"
)

func TestCellGetSetRoundTrip(t *testing.T) {
	c := state.NewCell(int32(1), false)
	v, err := c.Get(nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.(int32) != 1 {
		t.Fatalf("expected 1, got %v", v)
	}

	err = c.Update(nil, func(old interface{}) (interface{}, error) { return old.(int32) + 1, nil })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, _ = c.Get(nil)
	if v.(int32) != 2 {
		t.Fatalf("expected 2 after update, got %v", v)
	}
}

func TestCellPathUpdateDoesNotAliasOriginal(t *testing.T) {
	orig := map[string]interface{}{"x": int32(1)}
	c := state.NewCell(orig, false)

	err := c.Update([]state.Key{"x"}, func(interface{}) (interface{}, error) { return int32(99), nil })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if orig["x"].(int32) != 1 {
		t.Fatal("copy-on-write update must not mutate the value the cell was constructed with")
	}
	v, err := c.Get([]state.Key{"x"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.(int32) != 99 {
		t.Fatalf("expected the cell's own copy to reflect the update, got %v", v)
	}
}

func TestCellArrayIndexOutOfRange(t *testing.T) {
	c := state.NewCell([]interface{}{int32(1), int32(2)}, false)
	if _, err := c.Get([]state.Key{5}); err == nil {
		t.Fatal("expected a RuntimeError for an out-of-range array index")
	}
}

func TestPoolAbsentKeyWithoutInitErrors(t *testing.T) {
	p := state.NewPool(false)
	if _, err := p.Get("missing", nil); err == nil {
		t.Fatal("expected a RuntimeError reading an absent pool key")
	}
	err := p.Update("missing", nil, func(interface{}) (interface{}, error) { return int32(1), nil }, nil, false)
	if err == nil {
		t.Fatal("expected a RuntimeError updating an absent pool key with no init supplied")
	}
}

func TestPoolUpdateCreatesFromInit(t *testing.T) {
	p := state.NewPool(false)
	err := p.Update("k", nil, func(cur interface{}) (interface{}, error) {
		return cur.(int32) + 10, nil
	}, int32(5), true)
	if err != nil {
		t.Fatalf("Update with init: %v", err)
	}
	v, err := p.Get("k", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.(int32) != 15 {
		t.Fatalf("expected init(5)+10=15, got %v", v)
	}
}

func TestPrivatePoolsAreIndependent(t *testing.T) {
	a := state.NewPool(false)
	b := state.NewPool(false)

	if err := a.Update("k", nil, func(interface{}) (interface{}, error) { return int32(1), nil }, int32(0), true); err != nil {
		t.Fatalf("Update a: %v", err)
	}
	if _, err := b.Get("k", nil); err == nil {
		t.Fatal("a separate private pool must not see keys written into another private pool")
	}
}

func TestSharedPoolSerializesConcurrentUpdatesPerKey(t *testing.T) {
	p := state.NewPool(true)
	if err := p.Update("counter", nil, func(interface{}) (interface{}, error) { return int32(0), nil }, int32(0), true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Update("counter", nil, func(cur interface{}) (interface{}, error) {
				return cur.(int32) + 1, nil
			}, int32(0), true)
		}()
	}
	wg.Wait()

	v, err := p.Get("counter", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.(int32) != n {
		t.Fatalf("expected %d concurrent increments to all land, got %v", n, v)
	}
}

func TestPoolKeysReflectsWrites(t *testing.T) {
	p := state.NewPool(false)
	_ = p.Update("a", nil, func(interface{}) (interface{}, error) { return int32(1), nil }, int32(0), true)
	_ = p.Update("b", nil, func(interface{}) (interface{}, error) { return int32(2), nil }, int32(0), true)
	keys := p.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}
