package ast

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/animator/pfa/internal/types"
)

// SyntaxError is spec.md §7's PFASyntaxException: the document cannot be
// parsed into an AST.
type SyntaxError struct {
	Path string
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func synErr(path, format string, args ...interface{}) error {
	return &SyntaxError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// builder threads the type registry through a document parse so named
// types referenced across cells/pools/fcns/action share one namespace, per
// spec.md §3's interning-by-fully-qualified-name rule.
type builder struct {
	reg *types.Registry
}

// BuildConfig parses the generic tree produced by internal/docsurface into
// an *EngineConfig, per spec.md §6's document surface. It does not type
// check (that is internal/analyzer's job) — only recognizes canonical AST
// shapes and Avro schema shapes.
func BuildConfig(tree interface{}) (*EngineConfig, error) {
	obj, ok := tree.(map[string]interface{})
	if !ok {
		return nil, synErr("", "top-level document must be an object")
	}
	b := &builder{reg: types.NewRegistry()}

	cfg := &EngineConfig{
		Cells: map[string]*Cell{},
		Pools: map[string]*Pool{},
		Fcns:  map[string]*FcnDef{},
	}

	cfg.Name, _ = obj["name"].(string)

	method, _ := obj["method"].(string)
	switch Method(method) {
	case MethodMap, MethodEmit, MethodFold, "":
		if method == "" {
			cfg.Method = MethodMap
		} else {
			cfg.Method = Method(method)
		}
	default:
		return nil, synErr("method", "unknown method %q", method)
	}

	inputRaw, ok := obj["input"]
	if !ok {
		return nil, synErr("input", "missing required key")
	}
	inputType, err := types.Parse(b.reg, "input", inputRaw)
	if err != nil {
		return nil, err
	}
	cfg.InputType = inputType

	outputRaw, ok := obj["output"]
	if !ok {
		return nil, synErr("output", "missing required key")
	}
	outputType, err := types.Parse(b.reg, "output", outputRaw)
	if err != nil {
		return nil, err
	}
	cfg.OutputType = outputType

	if cellsRaw, ok := obj["cells"].(map[string]interface{}); ok {
		for name, raw := range cellsRaw {
			cellObj, ok := raw.(map[string]interface{})
			if !ok {
				return nil, synErr("cells."+name, "cell must be an object")
			}
			ct, err := types.Parse(b.reg, "cells."+name+".type", cellObj["type"])
			if err != nil {
				return nil, err
			}
			shared, _ := cellObj["shared"].(bool)
			cfg.Cells[name] = &Cell{Type: ct, InitRaw: cellObj["init"], Shared: shared}
		}
	}

	if poolsRaw, ok := obj["pools"].(map[string]interface{}); ok {
		for name, raw := range poolsRaw {
			poolObj, ok := raw.(map[string]interface{})
			if !ok {
				return nil, synErr("pools."+name, "pool must be an object")
			}
			pt, err := types.Parse(b.reg, "pools."+name+".type", poolObj["type"])
			if err != nil {
				return nil, err
			}
			shared, _ := poolObj["shared"].(bool)
			initMap := map[string]interface{}{}
			if im, ok := poolObj["init"].(map[string]interface{}); ok {
				initMap = im
			}
			cfg.Pools[name] = &Pool{Type: pt, InitMap: initMap, Shared: shared}
		}
	}

	if fcnsRaw, ok := obj["fcns"].(map[string]interface{}); ok {
		for name, raw := range fcnsRaw {
			fcnObj, ok := raw.(map[string]interface{})
			if !ok {
				return nil, synErr("fcns."+name, "function must be an object")
			}
			fd, err := b.buildFcnDef("fcns."+name, fcnObj)
			if err != nil {
				return nil, err
			}
			cfg.Fcns[name] = fd
		}
	}

	if begin, ok := obj["begin"]; ok {
		exprs, err := b.buildExprList("begin", begin)
		if err != nil {
			return nil, err
		}
		cfg.Begin = exprs
	}

	action, ok := obj["action"]
	if !ok {
		return nil, synErr("action", "missing required key")
	}
	actionExprs, err := b.buildExprList("action", action)
	if err != nil {
		return nil, err
	}
	cfg.Action = actionExprs

	if end, ok := obj["end"]; ok {
		exprs, err := b.buildExprList("end", end)
		if err != nil {
			return nil, err
		}
		cfg.End = exprs
	}

	if zero, ok := obj["zero"]; ok {
		cfg.Zero = zero
		cfg.HasZero = true
	}

	if rs, ok := obj["randseed"]; ok {
		if f, ok := rs.(float64); ok {
			v := int64(f)
			cfg.RandSeed = &v
		}
	}

	cfg.Doc, _ = obj["doc"].(string)

	if md, ok := obj["metadata"].(map[string]interface{}); ok {
		cfg.Metadata = map[string]string{}
		for k, v := range md {
			if s, ok := v.(string); ok {
				cfg.Metadata[k] = s
			}
		}
	}

	if opts, ok := obj["options"].(map[string]interface{}); ok {
		cfg.Options = opts
	} else {
		cfg.Options = map[string]interface{}{}
	}

	return cfg, nil
}

func (b *builder) buildFcnDef(path string, obj map[string]interface{}) (*FcnDef, error) {
	fd := &FcnDef{}
	if paramsRaw, ok := obj["params"].([]interface{}); ok {
		for i, pRaw := range paramsRaw {
			pObj, ok := pRaw.(map[string]interface{})
			if !ok || len(pObj) != 1 {
				return nil, synErr(fmt.Sprintf("%s.params[%d]", path, i), "parameter must be a single-key object")
			}
			for pname, ptypeRaw := range pObj {
				pt, err := types.Parse(b.reg, fmt.Sprintf("%s.params[%d]", path, i), ptypeRaw)
				if err != nil {
					return nil, err
				}
				fd.Params = append(fd.Params, FcnParam{Name: pname, Type: pt})
			}
		}
	}
	retRaw, ok := obj["ret"]
	if !ok {
		return nil, synErr(path, "missing \"ret\"")
	}
	rt, err := types.Parse(b.reg, path+".ret", retRaw)
	if err != nil {
		return nil, err
	}
	fd.ReturnType = rt

	body, err := b.buildExprList(path+".do", obj["do"])
	if err != nil {
		return nil, err
	}
	fd.Body = body
	return fd, nil
}

func (b *builder) buildExprList(path string, raw interface{}) ([]Expr, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, synErr(path, "expected a list of expressions")
	}
	out := make([]Expr, 0, len(items))
	for i, item := range items {
		e, err := b.buildExpr(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// orderedKeys returns m's keys sorted, so Let/SetVar/For bindings are
// processed in a deterministic order regardless of Go's randomized map
// iteration (the canonical document itself has no ordering requirement on
// these object keys, but deterministic traversal keeps error messages and
// round-tripped output stable).
func orderedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *builder) buildExpr(path string, raw interface{}) (Expr, error) {
	switch node := raw.(type) {
	case nil:
		return LiteralNull{base: base{Location(path)}}, nil
	case bool:
		return LiteralBoolean{base: base{Location(path)}, Value: node}, nil
	case float64:
		if node == float64(int64(node)) {
			return LiteralInt{base: base{Location(path)}, Value: int32(node)}, nil
		}
		return LiteralDouble{base: base{Location(path)}, Value: node}, nil
	case string:
		return Ref{base: base{Location(path)}, Name: node}, nil
	case []interface{}:
		return b.buildStringLiteralOrSeqError(path, node)
	case map[string]interface{}:
		return b.buildExprObject(path, node)
	default:
		return nil, synErr(path, "cannot parse expression from %T", raw)
	}
}

// buildStringLiteralOrSeqError handles the legacy doubly-wrapped string
// literal form [["text"]] noted in spec.md §6; any other bare array in
// expression position is a syntax error (expressions are always either a
// scalar, a Ref, or a single-key object keyed by form name).
func (b *builder) buildStringLiteralOrSeqError(path string, arr []interface{}) (Expr, error) {
	if len(arr) == 1 {
		if inner, ok := arr[0].([]interface{}); ok && len(inner) == 1 {
			if s, ok := inner[0].(string); ok {
				return LiteralString{base: base{Location(path)}, Value: s}, nil
			}
		}
	}
	return nil, synErr(path, "unexpected array in expression position")
}

func (b *builder) buildExprObject(path string, obj map[string]interface{}) (Expr, error) {
	loc := base{Location(path)}

	switch {
	case has(obj, "long"):
		return LiteralLong{base: loc, Value: int64(asFloat(obj["long"]))}, nil
	case has(obj, "float"):
		return LiteralFloat{base: loc, Value: float32(asFloat(obj["float"]))}, nil
	case has(obj, "double"):
		return LiteralDouble{base: loc, Value: asFloat(obj["double"])}, nil
	case has(obj, "string"):
		s, _ := obj["string"].(string)
		return LiteralString{base: loc, Value: s}, nil
	case has(obj, "base64"):
		s, _ := obj["base64"].(string)
		data, err := decodeBase64(s)
		if err != nil {
			return nil, synErr(path, "bad base64: %v", err)
		}
		return LiteralBase64{base: loc, Value: data}, nil

	case has(obj, "new"):
		return b.buildNew(path, obj)

	case has(obj, "do") && has(obj, "until") && !has(obj, "for"):
		return b.buildDoUntil(path, obj)
	case has(obj, "do") && len(obj) == 1:
		body, err := b.buildExprList(path+".do", obj["do"])
		if err != nil {
			return nil, err
		}
		return Do{base: loc, Body: body}, nil

	case has(obj, "let"):
		return b.buildLet(path, obj)
	case has(obj, "set"):
		return b.buildSetVar(path, obj)

	case has(obj, "if") && has(obj, "then"):
		return b.buildIf(path, obj)

	case has(obj, "cond"):
		return b.buildCond(path, obj)

	case has(obj, "while"):
		return b.buildWhile(path, obj)

	case has(obj, "for"):
		return b.buildFor(path, obj)

	case has(obj, "foreach"):
		return b.buildForeach(path, obj)

	case has(obj, "forkey") && has(obj, "forval"):
		return b.buildForkeyval(path, obj)

	case has(obj, "cast"):
		return b.buildCastBlock(path, obj)

	case has(obj, "ifnotnull"):
		return b.buildIfNotNull(path, obj)

	case has(obj, "upcast"):
		return b.buildUpcast(path, obj)

	case has(obj, "attr"):
		return b.buildAttr(path, obj)

	case has(obj, "cell"):
		return b.buildCellRef(path, obj)

	case has(obj, "pool"):
		return b.buildPoolRef(path, obj)

	case has(obj, "fcnref"):
		name, _ := obj["fcnref"].(string)
		return FcnRef{base: loc, Name: name}, nil

	case has(obj, "doc"):
		text, _ := obj["doc"].(string)
		return Doc{base: loc, Text: text}, nil

	case has(obj, "error"):
		msg, _ := obj["error"].(string)
		e := Error{base: loc, Msg: msg}
		if c, ok := obj["code"]; ok {
			n := int32(asFloat(c))
			e.Code = &n
		}
		return e, nil

	case has(obj, "log"):
		return b.buildLog(path, obj)

	case has(obj, "emit"):
		args, err := b.buildExprList(path+".emit", obj["emit"])
		if err != nil {
			return nil, err
		}
		return Emit{base: loc, Args: args}, nil

	case has(obj, "type") && has(obj, "value"):
		t, err := types.Parse(b.reg, path+".type", obj["type"])
		if err != nil {
			return nil, err
		}
		return Literal{base: loc, Type: t, ValueJSON: obj["value"]}, nil
	}

	// The only remaining shape is a function call: {"fcnName": [args...]}.
	if len(obj) == 1 {
		for name, argsRaw := range obj {
			if _, ok := argsRaw.([]interface{}); !ok {
				return nil, synErr(path, "call arguments must be a list")
			}
			args, err := b.buildExprList(path+"."+name, argsRaw)
			if err != nil {
				return nil, err
			}
			return Call{base: loc, FcnName: name, Args: args}, nil
		}
	}

	return nil, synErr(path, "unrecognized expression form with keys %v", keysOf(obj))
}

func has(obj map[string]interface{}, key string) bool {
	_, ok := obj[key]
	return ok
}

func keysOf(obj map[string]interface{}) []string {
	return orderedKeys(obj)
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func (b *builder) buildNew(path string, obj map[string]interface{}) (Expr, error) {
	t, err := types.Parse(b.reg, path+".type", obj["type"])
	if err != nil {
		return nil, err
	}
	switch n := obj["new"].(type) {
	case []interface{}:
		items, err := b.buildExprList(path+".new", n)
		if err != nil {
			return nil, err
		}
		return NewArray{base: base{Location(path)}, Items: items, Type: t}, nil
	case map[string]interface{}:
		fields := map[string]Expr{}
		for _, k := range orderedKeys(n) {
			e, err := b.buildExpr(path+".new."+k, n[k])
			if err != nil {
				return nil, err
			}
			fields[k] = e
		}
		return NewObject{base: base{Location(path)}, Fields: fields, Type: t}, nil
	default:
		return nil, synErr(path, "\"new\" must be an array or object")
	}
}

func (b *builder) buildDoUntil(path string, obj map[string]interface{}) (Expr, error) {
	body, err := b.buildExprList(path+".do", obj["do"])
	if err != nil {
		return nil, err
	}
	cond, err := b.buildExpr(path+".until", obj["until"])
	if err != nil {
		return nil, err
	}
	return DoUntil{base: base{Location(path)}, Body: body, Cond: cond}, nil
}

func (b *builder) buildAssignMap(path string, raw interface{}) (map[string]Expr, []string, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil, synErr(path, "expected an object of name -> expression")
	}
	out := map[string]Expr{}
	order := orderedKeys(obj)
	for _, name := range order {
		e, err := b.buildExpr(path+"."+name, obj[name])
		if err != nil {
			return nil, nil, err
		}
		out[name] = e
	}
	return out, order, nil
}

func (b *builder) buildLet(path string, obj map[string]interface{}) (Expr, error) {
	assign, order, err := b.buildAssignMap(path+".let", obj["let"])
	if err != nil {
		return nil, err
	}
	return Let{base: base{Location(path)}, Assign: assign, Order: order}, nil
}

func (b *builder) buildSetVar(path string, obj map[string]interface{}) (Expr, error) {
	assign, order, err := b.buildAssignMap(path+".set", obj["set"])
	if err != nil {
		return nil, err
	}
	return SetVar{base: base{Location(path)}, Assign: assign, Order: order}, nil
}

func (b *builder) buildIf(path string, obj map[string]interface{}) (Expr, error) {
	cond, err := b.buildExpr(path+".if", obj["if"])
	if err != nil {
		return nil, err
	}
	then, err := b.buildExprList(path+".then", obj["then"])
	if err != nil {
		return nil, err
	}
	node := If{base: base{Location(path)}, Cond: cond, Then: then}
	if elseRaw, ok := obj["else"]; ok {
		elseBody, err := b.buildExprList(path+".else", elseRaw)
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (b *builder) buildCond(path string, obj map[string]interface{}) (Expr, error) {
	clausesRaw, ok := obj["cond"].([]interface{})
	if !ok {
		return nil, synErr(path, "\"cond\" must be a list")
	}
	node := Cond{base: base{Location(path)}}
	for i, cRaw := range clausesRaw {
		cObj, ok := cRaw.(map[string]interface{})
		if !ok {
			return nil, synErr(fmt.Sprintf("%s.cond[%d]", path, i), "clause must be an object")
		}
		cond, err := b.buildExpr(fmt.Sprintf("%s.cond[%d].if", path, i), cObj["if"])
		if err != nil {
			return nil, err
		}
		then, err := b.buildExprList(fmt.Sprintf("%s.cond[%d].then", path, i), cObj["then"])
		if err != nil {
			return nil, err
		}
		node.Clauses = append(node.Clauses, CondClause{If: cond, Then: then})
	}
	if elseRaw, ok := obj["else"]; ok {
		elseBody, err := b.buildExprList(path+".else", elseRaw)
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (b *builder) buildWhile(path string, obj map[string]interface{}) (Expr, error) {
	cond, err := b.buildExpr(path+".while", obj["while"])
	if err != nil {
		return nil, err
	}
	body, err := b.buildExprList(path+".do", obj["do"])
	if err != nil {
		return nil, err
	}
	return While{base: base{Location(path)}, Cond: cond, Body: body}, nil
}

func (b *builder) buildFor(path string, obj map[string]interface{}) (Expr, error) {
	init, order, err := b.buildAssignMap(path+".for", obj["for"])
	if err != nil {
		return nil, err
	}
	until, err := b.buildExpr(path+".until", obj["until"])
	if err != nil {
		return nil, err
	}
	step, _, err := b.buildAssignMap(path+".step", obj["step"])
	if err != nil {
		return nil, err
	}
	body, err := b.buildExprList(path+".do", obj["do"])
	if err != nil {
		return nil, err
	}
	seq, _ := obj["seq"].(bool)
	return For{base: base{Location(path)}, Init: init, Order: order, Until: until, Step: step, Body: body, Seq: seq}, nil
}

func (b *builder) buildForeach(path string, obj map[string]interface{}) (Expr, error) {
	name, _ := obj["foreach"].(string)
	in, err := b.buildExpr(path+".in", obj["in"])
	if err != nil {
		return nil, err
	}
	body, err := b.buildExprList(path+".do", obj["do"])
	if err != nil {
		return nil, err
	}
	seq, _ := obj["seq"].(bool)
	return Foreach{base: base{Location(path)}, Name: name, In: in, Body: body, Seq: seq}, nil
}

func (b *builder) buildForkeyval(path string, obj map[string]interface{}) (Expr, error) {
	key, _ := obj["forkey"].(string)
	val, _ := obj["forval"].(string)
	in, err := b.buildExpr(path+".in", obj["in"])
	if err != nil {
		return nil, err
	}
	body, err := b.buildExprList(path+".do", obj["do"])
	if err != nil {
		return nil, err
	}
	return Forkeyval{base: base{Location(path)}, Key: key, Val: val, In: in, Body: body}, nil
}

func (b *builder) buildCastBlock(path string, obj map[string]interface{}) (Expr, error) {
	expr, err := b.buildExpr(path+".cast", obj["cast"])
	if err != nil {
		return nil, err
	}
	casesRaw, ok := obj["cases"].([]interface{})
	if !ok {
		return nil, synErr(path, "\"cases\" must be a list")
	}
	node := CastBlock{base: base{Location(path)}, Expr: expr}
	for i, cRaw := range casesRaw {
		cObj, ok := cRaw.(map[string]interface{})
		if !ok {
			return nil, synErr(fmt.Sprintf("%s.cases[%d]", path, i), "case must be an object")
		}
		asType, err := types.Parse(b.reg, fmt.Sprintf("%s.cases[%d].as", path, i), cObj["as"])
		if err != nil {
			return nil, err
		}
		named, _ := cObj["named"].(string)
		body, err := b.buildExprList(fmt.Sprintf("%s.cases[%d].do", path, i), cObj["do"])
		if err != nil {
			return nil, err
		}
		node.Cases = append(node.Cases, CastCase{As: asType, Named: named, Body: body})
	}
	if partial, ok := obj["partial"].(bool); ok {
		node.Partial = partial
	}
	return node, nil
}

func (b *builder) buildIfNotNull(path string, obj map[string]interface{}) (Expr, error) {
	bindingsRaw, ok := obj["ifnotnull"].(map[string]interface{})
	if !ok {
		return nil, synErr(path, "\"ifnotnull\" must be an object")
	}
	node := IfNotNull{base: base{Location(path)}}
	for _, name := range orderedKeys(bindingsRaw) {
		e, err := b.buildExpr(path+".ifnotnull."+name, bindingsRaw[name])
		if err != nil {
			return nil, err
		}
		node.Bindings = append(node.Bindings, IfNotNullBinding{Name: name, Expr: e})
	}
	then, err := b.buildExprList(path+".then", obj["then"])
	if err != nil {
		return nil, err
	}
	node.Then = then
	if elseRaw, ok := obj["else"]; ok {
		elseBody, err := b.buildExprList(path+".else", elseRaw)
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (b *builder) buildUpcast(path string, obj map[string]interface{}) (Expr, error) {
	expr, err := b.buildExpr(path+".upcast", obj["upcast"])
	if err != nil {
		return nil, err
	}
	asType, err := types.Parse(b.reg, path+".as", obj["as"])
	if err != nil {
		return nil, err
	}
	return Upcast{base: base{Location(path)}, Expr: expr, AsType: asType}, nil
}

func (b *builder) buildPath(path string, raw interface{}) ([]PathElem, error) {
	items, ok := raw.([]interface{})
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, synErr(path, "\"path\" must be a list")
	}
	out := make([]PathElem, 0, len(items))
	for i, item := range items {
		e, err := b.buildExpr(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, PathElem{Expr: e})
	}
	return out, nil
}

func (b *builder) buildAttr(path string, obj map[string]interface{}) (Expr, error) {
	expr, err := b.buildExpr(path+".attr", obj["attr"])
	if err != nil {
		return nil, err
	}
	p, err := b.buildPath(path+".path", obj["path"])
	if err != nil {
		return nil, err
	}
	if toRaw, ok := obj["to"]; ok {
		to, err := b.buildExpr(path+".to", toRaw)
		if err != nil {
			return nil, err
		}
		return AttrTo{base: base{Location(path)}, Expr: expr, Path: p, To: to}, nil
	}
	return AttrGet{base: base{Location(path)}, Expr: expr, Path: p}, nil
}

func (b *builder) buildCellRef(path string, obj map[string]interface{}) (Expr, error) {
	name, _ := obj["cell"].(string)
	p, err := b.buildPath(path+".path", obj["path"])
	if err != nil {
		return nil, err
	}
	if toRaw, ok := obj["to"]; ok {
		to, err := b.buildExpr(path+".to", toRaw)
		if err != nil {
			return nil, err
		}
		return CellTo{base: base{Location(path)}, Name: name, Path: p, To: to}, nil
	}
	return CellGet{base: base{Location(path)}, Name: name, Path: p}, nil
}

func (b *builder) buildPoolRef(path string, obj map[string]interface{}) (Expr, error) {
	name, _ := obj["pool"].(string)
	p, err := b.buildPath(path+".path", obj["path"])
	if err != nil {
		return nil, err
	}
	if toRaw, ok := obj["to"]; ok {
		to, err := b.buildExpr(path+".to", toRaw)
		if err != nil {
			return nil, err
		}
		node := PoolTo{base: base{Location(path)}, Name: name, Path: p, To: to}
		if initRaw, ok := obj["init"]; ok {
			init, err := b.buildExpr(path+".init", initRaw)
			if err != nil {
				return nil, err
			}
			node.Init = init
		}
		return node, nil
	}
	return PoolGet{base: base{Location(path)}, Name: name, Path: p}, nil
}

func (b *builder) buildLog(path string, obj map[string]interface{}) (Expr, error) {
	args, err := b.buildExprList(path+".log", obj["log"])
	if err != nil {
		return nil, err
	}
	node := Log{base: base{Location(path)}, Args: args}
	if ns, ok := obj["namespace"].(string); ok {
		node.Namespace = ns
	}
	return node, nil
}
