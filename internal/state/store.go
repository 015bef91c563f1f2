// Package state implements spec.md §4.5's cell/pool store: singleton
// cells and keyed pools, each private (copy-on-write) or shared (atomic
// read-modify-write serialized per cell / per pool-key). Path reads and
// updates walk the runtime value spine (internal/value's representation)
// a segment at a time, grounded in the teacher's own note that a
// PersistentMap (internal/evaluator/persistent_map.go) backs copy-on-write
// collection updates; here it backs pool storage, and a simpler
// shallow-clone-the-spine lens (rather than deep value.Clone) backs path
// descent into arrays/maps/records/unions, per spec.md §9's design note.
package state

import (
	"sync"

	"github.com/animator/pfa/internal/value"
)

// RuntimeError is spec.md §7's PFARuntimeException for state-store
// failures (absent pool key with no init, path index out of range, etc).
type RuntimeError struct{ Msg string }

func (e *RuntimeError) Error() string { return e.Msg }

func runtimeErr(msg string) error { return &RuntimeError{Msg: msg} }

// Key is one resolved path element at run time: int for an array index,
// string for a map key, record field name, or union discriminator.
type Key interface{}

// pathUpdate walks head along path, shallow-cloning only the nodes on the
// spine (siblings are shared with the pre-update value), and replaces the
// leaf with fn's result. It is the building block both private state
// (whose copy-on-write IS this shallow clone) and shared state (which
// additionally wraps the whole call in a lock) use.
func pathUpdate(head interface{}, path []Key, fn func(interface{}) (interface{}, error)) (interface{}, error) {
	if len(path) == 0 {
		return fn(head)
	}
	key := path[0]

	switch h := head.(type) {
	case []interface{}:
		idx, ok := key.(int)
		if !ok || idx < 0 || idx >= len(h) {
			return nil, runtimeErr("array index out of range")
		}
		out := append([]interface{}(nil), h...)
		child, err := pathUpdate(h[idx], path[1:], fn)
		if err != nil {
			return nil, err
		}
		out[idx] = child
		return out, nil

	case map[string]interface{}:
		k, ok := key.(string)
		if !ok {
			return nil, runtimeErr("map path element must be string")
		}
		out := make(map[string]interface{}, len(h))
		for kk, vv := range h {
			out[kk] = vv
		}
		child, err := pathUpdate(h[k], path[1:], fn)
		if err != nil {
			return nil, err
		}
		out[k] = child
		return out, nil

	case *value.Record:
		k, ok := key.(string)
		if !ok {
			return nil, runtimeErr("record path element must be string")
		}
		cur, ok := h.Fields[k]
		if !ok {
			return nil, runtimeErr("record has no field " + k)
		}
		out := make(map[string]interface{}, len(h.Fields))
		for kk, vv := range h.Fields {
			out[kk] = vv
		}
		child, err := pathUpdate(cur, path[1:], fn)
		if err != nil {
			return nil, err
		}
		out[k] = child
		return &value.Record{Type: h.Type, Fields: out}, nil

	case value.Tagged:
		child, err := pathUpdate(h.Value, path[1:], fn)
		if err != nil {
			return nil, err
		}
		return value.Tagged{Branch: h.Branch, Value: child}, nil

	default:
		return nil, runtimeErr("cannot path into a leaf value")
	}
}

// pathGet is pathUpdate's read-only counterpart.
func pathGet(head interface{}, path []Key) (interface{}, error) {
	if len(path) == 0 {
		return head, nil
	}
	key := path[0]
	switch h := head.(type) {
	case []interface{}:
		idx, ok := key.(int)
		if !ok || idx < 0 || idx >= len(h) {
			return nil, runtimeErr("array index out of range")
		}
		return pathGet(h[idx], path[1:])
	case map[string]interface{}:
		k, ok := key.(string)
		if !ok {
			return nil, runtimeErr("map path element must be string")
		}
		return pathGet(h[k], path[1:])
	case *value.Record:
		k, ok := key.(string)
		if !ok {
			return nil, runtimeErr("record path element must be string")
		}
		cur, ok := h.Fields[k]
		if !ok {
			return nil, runtimeErr("record has no field " + k)
		}
		return pathGet(cur, path[1:])
	case value.Tagged:
		return pathGet(h.Value, path[1:])
	default:
		return nil, runtimeErr("cannot path into a leaf value")
	}
}

// Cell is a singleton mutable slot (spec.md §4.5). Shared cells serialize
// writers under mu; private cells need no lock since an actor's state is
// never touched by more than one goroutine at a time.
type Cell struct {
	shared bool
	mu     sync.Mutex
	value  interface{}
}

// NewCell creates a cell initialized to v.
func NewCell(v interface{}, shared bool) *Cell {
	return &Cell{shared: shared, value: v}
}

// Get returns the cell's current value (or the value at path within it).
func (c *Cell) Get(path []Key) (interface{}, error) {
	if c.shared {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	return pathGet(c.value, path)
}

// Update replaces the value at path with fn(oldValue). Private cells
// copy-on-write via pathUpdate's spine cloning; shared cells additionally
// hold mu for the whole read-modify-write so concurrent actors serialize.
func (c *Cell) Update(path []Key, fn func(interface{}) (interface{}, error)) error {
	if c.shared {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	newVal, err := pathUpdate(c.value, path, fn)
	if err != nil {
		return err
	}
	c.value = newVal
	return nil
}

// Pool is a keyed collection of mutable slots (spec.md §4.5). A shared
// pool locks per key (created lazily) so unrelated keys never contend;
// the map of per-key locks and the persistent map pointer are each
// guarded by their own mutex since both can be touched by concurrent
// actors on different keys.
type Pool struct {
	shared   bool
	mapMu    sync.RWMutex
	m        *PersistentMap
	lockMu   sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewPool creates an empty pool.
func NewPool(shared bool) *Pool {
	return &Pool{shared: shared, m: EmptyPersistentMap(), keyLocks: make(map[string]*sync.Mutex)}
}

func (p *Pool) lockFor(key string) *sync.Mutex {
	p.lockMu.Lock()
	defer p.lockMu.Unlock()
	l, ok := p.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		p.keyLocks[key] = l
	}
	return l
}

// Get reads key's value, optionally descending path within it.
// PFARuntimeException (via RuntimeError) if key is absent.
func (p *Pool) Get(key string, path []Key) (interface{}, error) {
	if p.shared {
		p.mapMu.RLock()
		defer p.mapMu.RUnlock()
	}
	v, ok := p.m.Get(key)
	if !ok {
		return nil, runtimeErr("pool key absent: " + key)
	}
	return pathGet(v, path)
}

// Update applies fn at path within key's value. If key is absent and
// initIfAbsent is supplied (hasInit), the key is created from init first;
// if absent without init, fails with RuntimeError (spec.md §4.5).
func (p *Pool) Update(key string, path []Key, fn func(interface{}) (interface{}, error), initIfAbsent interface{}, hasInit bool) error {
	lock := p.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	var current interface{}
	var present bool
	if p.shared {
		p.mapMu.RLock()
		current, present = p.m.Get(key)
		p.mapMu.RUnlock()
	} else {
		current, present = p.m.Get(key)
	}

	if !present {
		if !hasInit {
			return runtimeErr("pool key absent: " + key)
		}
		current = value.Clone(initIfAbsent)
	}

	newVal, err := pathUpdate(current, path, fn)
	if err != nil {
		return err
	}

	if p.shared {
		p.mapMu.Lock()
		p.m = p.m.Put(key, newVal)
		p.mapMu.Unlock()
	} else {
		p.m = p.m.Put(key, newVal)
	}
	return nil
}

// Keys returns the pool's current key set.
func (p *Pool) Keys() []string {
	if p.shared {
		p.mapMu.RLock()
		defer p.mapMu.RUnlock()
	}
	return p.m.Keys()
}
