package types

import "fmt"

// DuplicateTypeNameError fires when the same fully-qualified name is
// declared twice with different structure (spec.md §3).
type DuplicateTypeNameError struct {
	Name string
}

func (e *DuplicateTypeNameError) Error() string {
	return fmt.Sprintf("DuplicateTypeName: %q declared more than once with different structure", e.Name)
}

// Registry interns named types (record/enum/fixed) by fully-qualified
// name, supporting the two-pass "intern handle, resolve body later" walk
// spec.md §9 describes for cyclic type graphs (a record may contain a
// field of its own type).
type Registry struct {
	named    map[string]Type
	resolved map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{named: make(map[string]Type), resolved: make(map[string]bool)}
}

// Declare interns t under its FullName. If the name only holds a handle
// reserved by ForwardRecord/ForwardEnum/ForwardFixed, that first Declare
// is accepted and the caller fills the handle in place. Once a name has
// been declared, any later Declare must match its structure
// (SameStructure) or DuplicateTypeNameError is returned.
func (r *Registry) Declare(t Type) error {
	name := t.String()
	if existing, ok := r.named[name]; ok {
		if !r.resolved[name] {
			r.resolved[name] = true
			return nil
		}
		if !SameStructure(existing, t) {
			return &DuplicateTypeNameError{Name: name}
		}
		return nil
	}
	r.named[name] = t
	r.resolved[name] = true
	return nil
}

// Lookup returns the interned type for name, or ok=false.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.named[name]
	return t, ok
}

// Forward reserves a handle for a named type before its body is known,
// for records that refer to themselves (spec.md §9). The returned
// *Record/*Enum/*Fixed pointer is shared: resolving the body in place
// (rather than re-Declaring a new value) makes all earlier references
// see the final structure once parsing completes.
func (r *Registry) ForwardRecord(fullName string) *Record {
	if existing, ok := r.named[fullName]; ok {
		if rec, ok := existing.(*Record); ok {
			return rec
		}
	}
	rec := &Record{FullName: fullName}
	r.named[fullName] = rec
	return rec
}

func (r *Registry) ForwardEnum(fullName string) *Enum {
	if existing, ok := r.named[fullName]; ok {
		if en, ok := existing.(*Enum); ok {
			return en
		}
	}
	en := &Enum{FullName: fullName}
	r.named[fullName] = en
	return en
}

func (r *Registry) ForwardFixed(fullName string) *Fixed {
	if existing, ok := r.named[fullName]; ok {
		if fx, ok := existing.(*Fixed); ok {
			return fx
		}
	}
	fx := &Fixed{FullName: fullName}
	r.named[fullName] = fx
	return fx
}
