package evaluator

// env is the runtime counterpart of internal/symbols.Table: a chain of
// name -> value frames. Mutability was already enforced statically by
// the analyzer, so env itself makes no mutable/immutable distinction —
// it only needs to know which frame owns a name so SetVar/loop
// increments write to the right place.
type env struct {
	outer *env
	vars  map[string]interface{}
}

func newEnv(outer *env) *env {
	return &env{outer: outer, vars: make(map[string]interface{})}
}

func (e *env) child() *env { return newEnv(e) }

func (e *env) declare(name string, v interface{}) { e.vars[name] = v }

// declareMutable exists only to mirror symbols.Table's Declare(...,
// mutable) call shape at the use site; at runtime it behaves exactly
// like declare.
func (e *env) declareMutable(name string, v interface{}) { e.vars[name] = v }

func (e *env) lookup(name string) (interface{}, bool) {
	for f := e; f != nil; f = f.outer {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// set assigns name in the frame that declared it (outer frames included),
// matching symbols.Table.Set's "look up then mutate in place" semantics.
func (e *env) set(name string, v interface{}) bool {
	for f := e; f != nil; f = f.outer {
		if _, ok := f.vars[name]; ok {
			f.vars[name] = v
			return true
		}
	}
	return false
}
