// Package symbols implements spec.md §4.3's symbol table: nested scopes of
// name -> Binding, with let/set discipline. Grounded on the teacher's
// internal/symbols package (SymbolTable/ScopeType/outer-chain shape),
// trimmed to PFA's much smaller scoping surface (no traits, no generics,
// no modules).
package symbols

import "github.com/animator/pfa/internal/types"

// ScopeType records why a scope was opened, used only for the "tally is
// readable only in action" and "loop/function scopes are fresh" rules.
type ScopeType int

const (
	ScopeGlobal ScopeType = iota
	ScopeAction
	ScopeBeginEnd
	ScopeFunction
	ScopeBlock
)

// Binding is one symbol's declared type and mutability.
type Binding struct {
	Name    string
	Type    types.Type
	Mutable bool
}

// Table is one lexical scope. Lookup walks outward through Outer; Declare
// only ever affects the innermost table.
type Table struct {
	store     map[string]Binding
	outer     *Table
	scopeType ScopeType
}

// NewRoot creates the outermost scope, under which the begin/action/end
// and function scopes nest.
func NewRoot() *Table {
	return &Table{store: make(map[string]Binding), scopeType: ScopeGlobal}
}

// NewChild opens a fresh nested scope, per spec.md §4.3's "loop-body scopes
// are fresh" and "function bodies have fresh scopes" rules.
func NewChild(outer *Table, scopeType ScopeType) *Table {
	return &Table{store: make(map[string]Binding), outer: outer, scopeType: scopeType}
}

// Outer returns the enclosing scope, or nil at the root.
func (t *Table) Outer() *Table { return t.outer }

// ScopeType reports why this scope was opened.
func (t *Table) ScopeType() ScopeType { return t.scopeType }

// InAction reports whether this scope or any enclosing scope up to the
// nearest function boundary is an action scope — the test spec.md §4.4
// uses to forbid reading tally outside action. A function scope blocks the
// search: a user function called from action does not itself read tally
// unless action-ness is re-established, matching spec.md's point that
// fcns don't implicitly see kept-around actor state beyond cells/pools.
func (t *Table) InAction() bool {
	for s := t; s != nil; s = s.outer {
		if s.scopeType == ScopeAction {
			return true
		}
		if s.scopeType == ScopeFunction {
			return false
		}
	}
	return false
}

// DuplicateError is spec.md §4.3's "redeclaration via let of a name already
// present in the same enclosing lexical frame" semantic error.
type DuplicateError struct{ Name string }

func (e *DuplicateError) Error() string { return "redeclared name: " + e.Name }

// UnknownNameError backs both "set on unknown name" and plain unbound-name
// lookups.
type UnknownNameError struct{ Name string }

func (e *UnknownNameError) Error() string { return "unknown name: " + e.Name }

// NotMutableError backs "set" targeting an immutable name (one declared
// with mutable=false, such as input or a function parameter).
type NotMutableError struct{ Name string }

func (e *NotMutableError) Error() string { return "name is not mutable: " + e.Name }

// TypeMismatchError backs "set" with a type that doesn't equal the
// declared type (spec.md §4.3: "no widening").
type TypeMismatchError struct {
	Name     string
	Declared types.Type
	Got      types.Type
}

func (e *TypeMismatchError) Error() string {
	return "cannot set " + e.Name + ": declared " + e.Declared.String() + ", got " + e.Got.String()
}

// Declare introduces name as a new binding in the innermost scope only.
// Redeclaring a name already present in this exact frame is an error, but
// shadowing a name from an enclosing frame is allowed (a fresh loop/function
// scope may reuse an outer name).
func (t *Table) Declare(name string, typ types.Type, mutable bool) error {
	if _, ok := t.store[name]; ok {
		return &DuplicateError{Name: name}
	}
	t.store[name] = Binding{Name: name, Type: typ, Mutable: mutable}
	return nil
}

// Lookup finds name in this scope or any enclosing scope.
func (t *Table) Lookup(name string) (Binding, bool) {
	for s := t; s != nil; s = s.outer {
		if b, ok := s.store[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// Set validates a `set` assignment: name must already be bound, mutable,
// and the assigned type must equal (not merely be accepted by) the
// declared type.
func (t *Table) Set(name string, assigned types.Type) error {
	b, ok := t.Lookup(name)
	if !ok {
		return &UnknownNameError{Name: name}
	}
	if !b.Mutable {
		return &NotMutableError{Name: name}
	}
	if !types.Equal(b.Type, assigned) {
		return &TypeMismatchError{Name: name, Declared: b.Type, Got: assigned}
	}
	return nil
}

// Rebind narrows an existing binding's declared type in the innermost
// scope without affecting outer scopes, e.g. rebinding a union-typed name
// to the union minus null (spec.md §4.4).
func (t *Table) Rebind(name string, typ types.Type, mutable bool) {
	t.store[name] = Binding{Name: name, Type: typ, Mutable: mutable}
}
