package types

// Accepts implements spec.md §4.1: does a value of static type u satisfy
// an expected type t? Unions accept any member; concrete primitives are
// invariant (int does NOT accept long); named types match by
// fully-qualified name; array/map accept only when their item/value types
// are themselves mutually accepting in both directions (Avro schema
// resolution is symmetric for these composite shapes in PFA — there is no
// covariance on array<T>).
func Accepts(t, u Type) bool {
	if t == nil || u == nil {
		return false
	}

	if uu, ok := u.(Union); ok {
		// A union value satisfies the expected type only if every
		// possible branch does.
		for _, branch := range uu.Branches {
			if !Accepts(t, branch) {
				return false
			}
		}
		return len(uu.Branches) > 0
	}

	if tu, ok := t.(Union); ok {
		for _, branch := range tu.Branches {
			if Accepts(branch, u) {
				return true
			}
		}
		return false
	}

	if t.Kind() != u.Kind() {
		return false
	}

	switch tv := t.(type) {
	case Primitive:
		return true

	case Array:
		return Accepts(tv.Items, u.(Array).Items) && Accepts(u.(Array).Items, tv.Items)

	case Map:
		return Accepts(tv.Values, u.(Map).Values) && Accepts(u.(Map).Values, tv.Values)

	case *Record:
		return tv.FullName == u.(*Record).FullName

	case *Enum:
		return tv.FullName == u.(*Enum).FullName

	case *Fixed:
		return tv.FullName == u.(*Fixed).FullName

	case Function:
		uv := u.(Function)
		if len(tv.Params) != len(uv.Params) || !Equal(tv.Return, uv.Return) {
			return false
		}
		for i, p := range tv.Params {
			if !Equal(p, uv.Params[i]) {
				return false
			}
		}
		return true

	default:
		return false
	}
}
