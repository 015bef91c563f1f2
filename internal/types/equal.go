package types

// Equal implements spec.md §4.1: structural equality except for named
// types (record/enum/fixed), which compare nominally by fully-qualified
// name.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Primitive:
		return true // same Kind already checked

	case Array:
		bv := b.(Array)
		return Equal(av.Items, bv.Items)

	case Map:
		bv := b.(Map)
		return Equal(av.Values, bv.Values)

	case *Record:
		bv := b.(*Record)
		return av.FullName == bv.FullName

	case *Enum:
		bv := b.(*Enum)
		return av.FullName == bv.FullName

	case *Fixed:
		bv := b.(*Fixed)
		return av.FullName == bv.FullName

	case Union:
		bv := b.(Union)
		if len(av.Branches) != len(bv.Branches) {
			return false
		}
		for _, ab := range av.Branches {
			found := false
			for _, bb := range bv.Branches {
				if Equal(ab, bb) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	case Function:
		bv := b.(Function)
		if len(av.Params) != len(bv.Params) || !Equal(av.Return, bv.Return) {
			return false
		}
		for i, p := range av.Params {
			if !Equal(p, bv.Params[i]) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// SameStructure checks that two types interned under the same name carry
// identical structure, used when a named type is declared more than once
// (DuplicateTypeName fires when this returns false). Unlike Equal, this
// recurses into record fields and enum symbols rather than stopping at the
// name.
func SameStructure(a, b Type) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *Record:
		bv := b.(*Record)
		if av.FullName != bv.FullName || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for i, f := range av.Fields {
			g := bv.Fields[i]
			if f.Name != g.Name || !Equal(f.Type, g.Type) {
				return false
			}
		}
		return true
	case *Enum:
		bv := b.(*Enum)
		if av.FullName != bv.FullName || len(av.Symbols) != len(bv.Symbols) {
			return false
		}
		for i, s := range av.Symbols {
			if s != bv.Symbols[i] {
				return false
			}
		}
		return true
	case *Fixed:
		bv := b.(*Fixed)
		return av.FullName == bv.FullName && av.Size == bv.Size
	default:
		return Equal(a, b)
	}
}
