package types

// ToDoc is Parse's inverse: it renders t back into the generic JSON/YAML
// tree shape a document would have declared it in. Named types (record/
// enum/fixed) are rendered as full declarations every time they're
// reached, rather than tracking which ones were already declared and
// emitting a bare-name reference on repeat — callers that need the
// dedicated-on-repeat form (re-serializing a whole document so it
// round-trips through Parse's registry) should track seen names
// themselves and substitute a bare FullName string for a repeat.
func ToDoc(t Type) interface{} {
	switch tt := t.(type) {
	case Primitive:
		return tt.Kind().String()

	case Array:
		return map[string]interface{}{
			"type":  "array",
			"items": ToDoc(tt.Items),
		}

	case Map:
		return map[string]interface{}{
			"type":   "map",
			"values": ToDoc(tt.Values),
		}

	case *Record:
		fields := make([]interface{}, len(tt.Fields))
		for i, f := range tt.Fields {
			fobj := map[string]interface{}{
				"name": f.Name,
				"type": ToDoc(f.Type),
			}
			if f.HasDflt {
				fobj["default"] = f.Default
			}
			fields[i] = fobj
		}
		obj := map[string]interface{}{
			"type":   "record",
			"name":   tt.FullName,
			"fields": fields,
		}
		if tt.Doc != "" {
			obj["doc"] = tt.Doc
		}
		return obj

	case *Enum:
		syms := make([]interface{}, len(tt.Symbols))
		for i, s := range tt.Symbols {
			syms[i] = s
		}
		obj := map[string]interface{}{
			"type":    "enum",
			"name":    tt.FullName,
			"symbols": syms,
		}
		if tt.Doc != "" {
			obj["doc"] = tt.Doc
		}
		return obj

	case *Fixed:
		return map[string]interface{}{
			"type": "fixed",
			"name": tt.FullName,
			"size": float64(tt.Size),
		}

	case Union:
		branches := make([]interface{}, len(tt.Branches))
		for i, b := range tt.Branches {
			branches[i] = ToDoc(b)
		}
		return branches

	default:
		return t.String()
	}
}
