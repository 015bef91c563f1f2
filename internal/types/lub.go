package types

// Lub implements spec.md §4.1's least-upper-bound, used by If/Cond branch
// typing and CastBlock. If every type is Equal, that is the lub; otherwise
// a union of the distinct members is synthesized, flattening any operand
// that is itself already a union (a union's lub with another type is the
// union of their members, never a union nested inside a union — spec.md
// §3's "union branches must be ... non-nested" invariant applies here too).
func Lub(ts ...Type) Type {
	if len(ts) == 0 {
		return Null
	}
	flat := make([]Type, 0, len(ts))
	for _, t := range ts {
		if u, ok := t.(Union); ok {
			flat = append(flat, u.Branches...)
		} else {
			flat = append(flat, t)
		}
	}

	distinct := make([]Type, 0, len(flat))
	for _, t := range flat {
		found := false
		for _, d := range distinct {
			if Equal(d, t) {
				found = true
				break
			}
		}
		if !found {
			distinct = append(distinct, t)
		}
	}

	if len(distinct) == 1 {
		return distinct[0]
	}
	return Union{Branches: distinct}
}
