package ast

import (
	"encoding/base64"

	"github.com/animator/pfa/internal/types"
)

// Serialize is BuildConfig's inverse, per spec.md §8's round-trip property
// parse(serialize(ast)) == ast: it turns a *EngineConfig back into the
// generic JSON/YAML-shaped tree internal/docsurface.Parse and
// internal/docsurface.Write operate on. Grounded on internal/types.ToDoc
// for every type reference a node carries, and on the exact object-key
// vocabulary BuildConfig's buildExprObject switch reads.
func Serialize(cfg *EngineConfig) map[string]interface{} {
	doc := map[string]interface{}{
		"name":   cfg.Name,
		"method": string(cfg.Method),
		"input":  types.ToDoc(cfg.InputType),
		"output": types.ToDoc(cfg.OutputType),
		"action": serializeList(cfg.Action),
	}
	if len(cfg.Begin) > 0 {
		doc["begin"] = serializeList(cfg.Begin)
	}
	if len(cfg.End) > 0 {
		doc["end"] = serializeList(cfg.End)
	}
	if cfg.HasZero {
		doc["zero"] = cfg.Zero
	}
	if len(cfg.Cells) > 0 {
		cells := map[string]interface{}{}
		for name, c := range cfg.Cells {
			cobj := map[string]interface{}{
				"type": types.ToDoc(c.Type),
				"init": c.InitRaw,
			}
			if c.Shared {
				cobj["shared"] = true
			}
			cells[name] = cobj
		}
		doc["cells"] = cells
	}
	if len(cfg.Pools) > 0 {
		pools := map[string]interface{}{}
		for name, p := range cfg.Pools {
			pobj := map[string]interface{}{
				"type": types.ToDoc(p.Type),
			}
			if len(p.InitMap) > 0 {
				init := map[string]interface{}{}
				for k, v := range p.InitMap {
					init[k] = v
				}
				pobj["init"] = init
			}
			if p.Shared {
				pobj["shared"] = true
			}
			pools[name] = pobj
		}
		doc["pools"] = pools
	}
	if len(cfg.Fcns) > 0 {
		fcns := map[string]interface{}{}
		for name, fd := range cfg.Fcns {
			params := make([]interface{}, len(fd.Params))
			for i, p := range fd.Params {
				params[i] = map[string]interface{}{p.Name: types.ToDoc(p.Type)}
			}
			fcns[name] = map[string]interface{}{
				"params": params,
				"ret":    types.ToDoc(fd.ReturnType),
				"do":     serializeList(fd.Body),
			}
		}
		doc["fcns"] = fcns
	}
	if cfg.RandSeed != nil {
		doc["randseed"] = float64(*cfg.RandSeed)
	}
	if cfg.Doc != "" {
		doc["doc"] = cfg.Doc
	}
	if len(cfg.Metadata) > 0 {
		md := map[string]interface{}{}
		for k, v := range cfg.Metadata {
			md[k] = v
		}
		doc["metadata"] = md
	}
	if len(cfg.Options) > 0 {
		doc["options"] = cfg.Options
	}
	return doc
}

func serializeList(body []Expr) []interface{} {
	out := make([]interface{}, len(body))
	for i, e := range body {
		out[i] = SerializeExpr(e)
	}
	return out
}

func serializePath(path []PathElem) []interface{} {
	out := make([]interface{}, len(path))
	for i, p := range path {
		out[i] = SerializeExpr(p.Expr)
	}
	return out
}

func serializeAssign(assign map[string]Expr, order []string) map[string]interface{} {
	out := make(map[string]interface{}, len(order))
	for _, name := range order {
		out[name] = SerializeExpr(assign[name])
	}
	return out
}

// SerializeExpr renders a single expression node back to its document
// form. A plain Ref becomes a bare string and null/boolean/int literals
// become bare JSON scalars; every other form is an object keyed by the
// form name BuildConfig's buildExprObject switch reads, matching PFA's
// document syntax.
func SerializeExpr(e Expr) interface{} {
	switch n := e.(type) {
	case LiteralNull:
		return nil
	case LiteralBoolean:
		return n.Value
	case LiteralInt:
		return float64(n.Value)
	case LiteralLong:
		return map[string]interface{}{"long": float64(n.Value)}
	case LiteralFloat:
		return map[string]interface{}{"float": float64(n.Value)}
	case LiteralDouble:
		return map[string]interface{}{"double": n.Value}
	case LiteralString:
		return map[string]interface{}{"string": n.Value}
	case LiteralBase64:
		return map[string]interface{}{"base64": base64.StdEncoding.EncodeToString(n.Value)}
	case Literal:
		return map[string]interface{}{"type": types.ToDoc(n.Type), "value": n.ValueJSON}

	case NewObject:
		fields := map[string]interface{}{}
		for k, v := range n.Fields {
			fields[k] = SerializeExpr(v)
		}
		return map[string]interface{}{"new": fields, "type": types.ToDoc(n.Type)}
	case NewArray:
		return map[string]interface{}{"new": serializeList(n.Items), "type": types.ToDoc(n.Type)}

	case Do:
		return map[string]interface{}{"do": serializeList(n.Body)}
	case Let:
		return map[string]interface{}{"let": serializeAssign(n.Assign, n.Order)}
	case SetVar:
		return map[string]interface{}{"set": serializeAssign(n.Assign, n.Order)}
	case If:
		obj := map[string]interface{}{
			"if":   SerializeExpr(n.Cond),
			"then": serializeList(n.Then),
		}
		if n.Else != nil {
			obj["else"] = serializeList(n.Else)
		}
		return obj
	case Cond:
		clauses := make([]interface{}, len(n.Clauses))
		for i, c := range n.Clauses {
			clauses[i] = map[string]interface{}{
				"if":   SerializeExpr(c.If),
				"then": serializeList(c.Then),
			}
		}
		obj := map[string]interface{}{"cond": clauses}
		if n.Else != nil {
			obj["else"] = serializeList(n.Else)
		}
		return obj
	case While:
		return map[string]interface{}{"while": SerializeExpr(n.Cond), "do": serializeList(n.Body)}
	case DoUntil:
		return map[string]interface{}{"do": serializeList(n.Body), "until": SerializeExpr(n.Cond)}
	case For:
		obj := map[string]interface{}{
			"for":   serializeAssign(n.Init, n.Order),
			"until": SerializeExpr(n.Until),
			"step":  serializeAssign(n.Step, assignKeys(n.Step)),
			"do":    serializeList(n.Body),
		}
		if n.Seq {
			obj["seq"] = true
		}
		return obj
	case Foreach:
		obj := map[string]interface{}{
			"foreach": n.Name,
			"in":      SerializeExpr(n.In),
			"do":      serializeList(n.Body),
		}
		if n.Seq {
			obj["seq"] = true
		}
		return obj
	case Forkeyval:
		return map[string]interface{}{
			"forkey": n.Key,
			"forval": n.Val,
			"in":     SerializeExpr(n.In),
			"do":     serializeList(n.Body),
		}
	case CastBlock:
		cases := make([]interface{}, len(n.Cases))
		for i, c := range n.Cases {
			cobj := map[string]interface{}{
				"as": types.ToDoc(c.As),
				"do": serializeList(c.Body),
			}
			if c.Named != "" {
				cobj["named"] = c.Named
			}
			cases[i] = cobj
		}
		obj := map[string]interface{}{"cast": SerializeExpr(n.Expr), "cases": cases}
		if n.Partial {
			obj["partial"] = true
		}
		return obj
	case IfNotNull:
		bindings := map[string]interface{}{}
		for _, b := range n.Bindings {
			bindings[b.Name] = SerializeExpr(b.Expr)
		}
		obj := map[string]interface{}{"ifnotnull": bindings, "then": serializeList(n.Then)}
		if n.Else != nil {
			obj["else"] = serializeList(n.Else)
		}
		return obj
	case Upcast:
		return map[string]interface{}{"upcast": SerializeExpr(n.Expr), "as": types.ToDoc(n.AsType)}

	case Ref:
		return n.Name

	case AttrGet:
		return map[string]interface{}{"attr": SerializeExpr(n.Expr), "path": serializePath(n.Path)}
	case AttrTo:
		return map[string]interface{}{
			"attr": SerializeExpr(n.Expr),
			"path": serializePath(n.Path),
			"to":   SerializeExpr(n.To),
		}
	case CellGet:
		obj := map[string]interface{}{"cell": n.Name}
		if len(n.Path) > 0 {
			obj["path"] = serializePath(n.Path)
		}
		return obj
	case CellTo:
		obj := map[string]interface{}{"cell": n.Name, "to": SerializeExpr(n.To)}
		if len(n.Path) > 0 {
			obj["path"] = serializePath(n.Path)
		}
		return obj
	case PoolGet:
		return map[string]interface{}{"pool": n.Name, "path": serializePath(n.Path)}
	case PoolTo:
		obj := map[string]interface{}{
			"pool": n.Name,
			"path": serializePath(n.Path),
			"to":   SerializeExpr(n.To),
		}
		if n.Init != nil {
			obj["init"] = SerializeExpr(n.Init)
		}
		return obj

	case Call:
		return map[string]interface{}{n.FcnName: serializeList(n.Args)}
	case FcnRef:
		return map[string]interface{}{"fcnref": n.Name}

	case Doc:
		return map[string]interface{}{"doc": n.Text}
	case Error:
		obj := map[string]interface{}{"error": n.Msg}
		if n.Code != nil {
			obj["code"] = float64(*n.Code)
		}
		return obj
	case Log:
		obj := map[string]interface{}{"log": serializeList(n.Args)}
		if n.Namespace != "" {
			obj["namespace"] = n.Namespace
		}
		return obj
	case Emit:
		return map[string]interface{}{"emit": serializeList(n.Args)}

	default:
		return nil
	}
}

func assignKeys(m map[string]Expr) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
