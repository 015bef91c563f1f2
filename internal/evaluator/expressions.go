package evaluator

import (
	"context"
	"strings"

	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/state"
	"github.com/animator/pfa/internal/types"
	"github.com/animator/pfa/internal/value"
)

// evalCtx threads the actor and the host's context.Context through one
// Begin/Action/End call, mirroring the teacher's Evaluator carrying a
// context.Context for a host-facing cancellation bound alongside the
// deadline-based cooperative timeout (spec.md §4.6: a host cancels
// through ctx, the engine's own timeout budget is checked separately
// at loop back-edges and call entries since nothing interrupts a
// running Go call mid-expression).
type evalCtx struct {
	actor *Actor
	ctx   context.Context
}

func (ev *evalCtx) checkCancel() error {
	select {
	case <-ev.ctx.Done():
		return ev.ctx.Err()
	default:
	}
	return ev.actor.checkDeadline()
}

// evalBody sequences exprs in e, returning the last one's value (types.Null
// equivalent, nil, if body is empty).
func (ev *evalCtx) evalBody(e *env, body []ast.Expr) (interface{}, error) {
	var result interface{}
	for _, expr := range body {
		v, err := ev.eval(e, expr)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (ev *evalCtx) typeOf(e ast.Expr) types.Type {
	return ev.actor.Engine.TypeMap[e]
}

func (ev *evalCtx) eval(e *env, expr ast.Expr) (interface{}, error) {
	switch n := expr.(type) {

	case ast.LiteralNull:
		return nil, nil
	case ast.LiteralBoolean:
		return n.Value, nil
	case ast.LiteralInt:
		return n.Value, nil
	case ast.LiteralLong:
		return n.Value, nil
	case ast.LiteralFloat:
		return n.Value, nil
	case ast.LiteralDouble:
		return n.Value, nil
	case ast.LiteralString:
		return n.Value, nil
	case ast.LiteralBase64:
		return n.Value, nil
	case ast.Literal:
		return decodeLiteral(n.Type, n.ValueJSON)

	case ast.NewObject:
		return ev.evalNewObject(e, n)
	case ast.NewArray:
		return ev.evalNewArray(e, n)

	case ast.Do:
		return ev.evalBody(e.child(), n.Body)

	case ast.Let:
		child := e
		for _, name := range n.Order {
			v, err := ev.eval(child, n.Assign[name])
			if err != nil {
				return nil, err
			}
			child.declare(name, v)
		}
		return nil, nil

	case ast.SetVar:
		for _, name := range n.Order {
			v, err := ev.eval(e, n.Assign[name])
			if err != nil {
				return nil, err
			}
			e.set(name, v)
		}
		return nil, nil

	case ast.If:
		cond, err := ev.eval(e, n.Cond)
		if err != nil {
			return nil, err
		}
		if cond.(bool) {
			return ev.evalBody(e.child(), n.Then)
		}
		if n.Else != nil {
			return ev.evalBody(e.child(), n.Else)
		}
		return nil, nil

	case ast.Cond:
		for _, clause := range n.Clauses {
			cond, err := ev.eval(e, clause.If)
			if err != nil {
				return nil, err
			}
			if cond.(bool) {
				return ev.evalBody(e.child(), clause.Then)
			}
		}
		if n.Else != nil {
			return ev.evalBody(e.child(), n.Else)
		}
		return nil, nil

	case ast.While:
		for {
			cond, err := ev.eval(e, n.Cond)
			if err != nil {
				return nil, err
			}
			if !cond.(bool) {
				return nil, nil
			}
			if _, err := ev.evalBody(e.child(), n.Body); err != nil {
				return nil, err
			}
			if err := ev.checkCancel(); err != nil {
				return nil, err
			}
		}

	case ast.DoUntil:
		for {
			if _, err := ev.evalBody(e.child(), n.Body); err != nil {
				return nil, err
			}
			cond, err := ev.eval(e, n.Cond)
			if err != nil {
				return nil, err
			}
			if cond.(bool) {
				return nil, nil
			}
			if err := ev.checkCancel(); err != nil {
				return nil, err
			}
		}

	case ast.For:
		loopEnv := e.child()
		for _, name := range n.Order {
			v, err := ev.eval(loopEnv, n.Init[name])
			if err != nil {
				return nil, err
			}
			loopEnv.declare(name, v)
		}
		for {
			cond, err := ev.eval(loopEnv, n.Until)
			if err != nil {
				return nil, err
			}
			if cond.(bool) {
				return nil, nil
			}
			if _, err := ev.evalBody(loopEnv.child(), n.Body); err != nil {
				return nil, err
			}
			for _, name := range n.Order {
				v, err := ev.eval(loopEnv, n.Step[name])
				if err != nil {
					return nil, err
				}
				loopEnv.set(name, v)
			}
			if err := ev.checkCancel(); err != nil {
				return nil, err
			}
		}

	case ast.Foreach:
		in, err := ev.eval(e, n.In)
		if err != nil {
			return nil, err
		}
		arr, _ := in.([]interface{})
		for _, item := range arr {
			iterEnv := e.child()
			iterEnv.declare(n.Name, item)
			if _, err := ev.evalBody(iterEnv, n.Body); err != nil {
				return nil, err
			}
			if err := ev.checkCancel(); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case ast.Forkeyval:
		in, err := ev.eval(e, n.In)
		if err != nil {
			return nil, err
		}
		m, _ := in.(map[string]interface{})
		for k, v := range m {
			iterEnv := e.child()
			iterEnv.declare(n.Key, k)
			iterEnv.declare(n.Val, v)
			if _, err := ev.evalBody(iterEnv, n.Body); err != nil {
				return nil, err
			}
			if err := ev.checkCancel(); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case ast.CastBlock:
		return ev.evalCastBlock(e, n)

	case ast.IfNotNull:
		return ev.evalIfNotNull(e, n)

	case ast.Upcast:
		return ev.eval(e, n.Expr)

	case ast.Ref:
		v, ok := e.lookup(n.Name)
		if !ok {
			return nil, runtimeErr(ev.actor.callStack, "reference to undeclared name %q", n.Name)
		}
		return v, nil

	case ast.AttrGet:
		return ev.evalAttrGet(e, n)
	case ast.AttrTo:
		return ev.evalAttrTo(e, n)
	case ast.CellGet:
		return ev.evalCellGet(e, n)
	case ast.CellTo:
		return ev.evalCellTo(e, n)
	case ast.PoolGet:
		return ev.evalPoolGet(e, n)
	case ast.PoolTo:
		return ev.evalPoolTo(e, n)

	case ast.Call:
		return ev.evalCall(e, n)
	case ast.FcnRef:
		return closureValue{name: n.Name}, nil

	case ast.Doc:
		return nil, nil
	case ast.Error:
		return nil, &UserError{Msg: n.Msg, Code: n.Code, Stack: append([]CallFrame(nil), ev.actor.callStack...)}
	case ast.Log:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			v, err := ev.eval(e, a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		if ev.actor.Logger != nil {
			ev.actor.Logger(n.Namespace, args)
		}
		return nil, nil
	case ast.Emit:
		if len(n.Args) != 1 {
			return nil, runtimeErr(ev.actor.callStack, "emit takes exactly one argument")
		}
		v, err := ev.eval(e, n.Args[0])
		if err != nil {
			return nil, err
		}
		if ev.actor.Emit != nil {
			if err := ev.actor.Emit(v); err != nil {
				return nil, runtimeErr(ev.actor.callStack, "emit: %v", err)
			}
		}
		return nil, nil

	default:
		return nil, runtimeErr(ev.actor.callStack, "evaluator: unhandled node type %T", expr)
	}
}

// closureValue is a fcnref's runtime value: the evaluator resolves it
// lazily by name at each to-target call site (AttrTo/CellTo/PoolTo),
// rather than capturing an environment, since user functions never close
// over their caller's scope (spec.md §4.4: function bodies see only their
// own parameters).
type closureValue struct{ name string }

func (ev *evalCtx) evalNewObject(e *env, n ast.NewObject) (interface{}, error) {
	rec, _ := n.Type.(*types.Record)
	fields := make(map[string]interface{}, len(n.Fields))
	if rec != nil {
		for _, f := range rec.Fields {
			if expr, ok := n.Fields[f.Name]; ok {
				v, err := ev.eval(e, expr)
				if err != nil {
					return nil, err
				}
				fields[f.Name] = v
			} else {
				fields[f.Name] = f.Default
			}
		}
	}
	return &value.Record{Type: rec, Fields: fields}, nil
}

func (ev *evalCtx) evalNewArray(e *env, n ast.NewArray) (interface{}, error) {
	out := make([]interface{}, len(n.Items))
	for i, item := range n.Items {
		v, err := ev.eval(e, item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev *evalCtx) evalCastBlock(e *env, n ast.CastBlock) (interface{}, error) {
	scrutinee, err := ev.eval(e, n.Expr)
	if err != nil {
		return nil, err
	}
	tagged, ok := scrutinee.(value.Tagged)
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "cast: scrutinee is not a union value")
	}
	for _, c := range n.Cases {
		if types.Equal(c.As, tagged.Branch) {
			child := e.child()
			if c.Named != "" {
				child.declare(c.Named, tagged.Value)
			}
			return ev.evalBody(child, c.Body)
		}
	}
	if n.Partial {
		return nil, nil
	}
	return nil, runtimeErr(ev.actor.callStack, "cast: no case matched branch %s", tagged.Branch)
}

func (ev *evalCtx) evalIfNotNull(e *env, n ast.IfNotNull) (interface{}, error) {
	child := e.child()
	for _, b := range n.Bindings {
		v, err := ev.eval(e, b.Expr)
		if err != nil {
			return nil, err
		}
		tagged, ok := v.(value.Tagged)
		if !ok || tagged.Branch == nil || tagged.Branch.Kind() == types.KindNull {
			if n.Else != nil {
				return ev.evalBody(e.child(), n.Else)
			}
			return nil, nil
		}
		child.declare(b.Name, tagged.Value)
	}
	return ev.evalBody(child, n.Then)
}

// resolvePath evaluates each path element expression to a run-time key:
// an array index (int), or a map-key/record-field/union-discriminator
// (string).
func (ev *evalCtx) resolvePath(e *env, path []ast.PathElem) ([]state.Key, error) {
	out := make([]state.Key, len(path))
	for i, p := range path {
		v, err := ev.eval(e, p.Expr)
		if err != nil {
			return nil, err
		}
		switch k := v.(type) {
		case int32:
			out[i] = int(k)
		case int64:
			out[i] = int(k)
		case string:
			out[i] = k
		default:
			return nil, runtimeErr(ev.actor.callStack, "path element of unsupported type %T", v)
		}
	}
	return out, nil
}

func (ev *evalCtx) evalAttrGet(e *env, n ast.AttrGet) (interface{}, error) {
	head, err := ev.eval(e, n.Expr)
	if err != nil {
		return nil, err
	}
	path, err := ev.resolvePath(e, n.Path)
	if err != nil {
		return nil, err
	}
	return pathGetValue(head, path)
}

func (ev *evalCtx) evalAttrTo(e *env, n ast.AttrTo) (interface{}, error) {
	head, err := ev.eval(e, n.Expr)
	if err != nil {
		return nil, err
	}
	path, err := ev.resolvePath(e, n.Path)
	if err != nil {
		return nil, err
	}
	fn, err := ev.toFunc(e, n.To)
	if err != nil {
		return nil, err
	}
	return pathUpdateValue(head, path, fn)
}

// toFunc turns a To expression (a fcnref or a plain replacement value)
// into a T->T updater, matching spec.md
// §4.4's "to is either a value or a function of signature T->T".
func (ev *evalCtx) toFunc(e *env, to ast.Expr) (func(interface{}) (interface{}, error), error) {
	if ref, ok := to.(ast.FcnRef); ok {
		name := ref.Name
		return func(cur interface{}) (interface{}, error) {
			return ev.callUserFcn(name, []interface{}{cur})
		}, nil
	}
	v, err := ev.eval(e, to)
	if err != nil {
		return nil, err
	}
	return func(interface{}) (interface{}, error) { return v, nil }, nil
}

func pathGetValue(head interface{}, path []state.Key) (interface{}, error) {
	tmp := state.NewCell(head, false)
	return tmp.Get(path)
}

func pathUpdateValue(head interface{}, path []state.Key, fn func(interface{}) (interface{}, error)) (interface{}, error) {
	tmp := state.NewCell(head, false)
	if err := tmp.Update(path, fn); err != nil {
		return nil, err
	}
	return tmp.Get(nil)
}

func (ev *evalCtx) evalCellGet(e *env, n ast.CellGet) (interface{}, error) {
	path, err := ev.resolvePath(e, n.Path)
	if err != nil {
		return nil, err
	}
	c := ev.actor.cell(n.Name)
	if c == nil {
		return nil, runtimeErr(ev.actor.callStack, "unknown cell %q", n.Name)
	}
	return c.Get(path)
}

func (ev *evalCtx) evalCellTo(e *env, n ast.CellTo) (interface{}, error) {
	path, err := ev.resolvePath(e, n.Path)
	if err != nil {
		return nil, err
	}
	fn, err := ev.toFunc(e, n.To)
	if err != nil {
		return nil, err
	}
	c := ev.actor.cell(n.Name)
	if c == nil {
		return nil, runtimeErr(ev.actor.callStack, "unknown cell %q", n.Name)
	}
	if err := c.Update(path, fn); err != nil {
		return nil, err
	}
	return c.Get(nil)
}

func (ev *evalCtx) evalPoolGet(e *env, n ast.PoolGet) (interface{}, error) {
	if len(n.Path) == 0 {
		return nil, runtimeErr(ev.actor.callStack, "pool access requires a key")
	}
	keyVal, err := ev.eval(e, n.Path[0].Expr)
	if err != nil {
		return nil, err
	}
	key, ok := keyVal.(string)
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "pool key must be a string")
	}
	path, err := ev.resolvePath(e, n.Path[1:])
	if err != nil {
		return nil, err
	}
	p := ev.actor.pool(n.Name)
	if p == nil {
		return nil, runtimeErr(ev.actor.callStack, "unknown pool %q", n.Name)
	}
	return p.Get(key, path)
}

func (ev *evalCtx) evalPoolTo(e *env, n ast.PoolTo) (interface{}, error) {
	if len(n.Path) == 0 {
		return nil, runtimeErr(ev.actor.callStack, "pool access requires a key")
	}
	keyVal, err := ev.eval(e, n.Path[0].Expr)
	if err != nil {
		return nil, err
	}
	key, ok := keyVal.(string)
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "pool key must be a string")
	}
	path, err := ev.resolvePath(e, n.Path[1:])
	if err != nil {
		return nil, err
	}
	fn, err := ev.toFunc(e, n.To)
	if err != nil {
		return nil, err
	}
	var initVal interface{}
	hasInit := n.Init != nil
	if hasInit {
		v, err := ev.eval(e, n.Init)
		if err != nil {
			return nil, err
		}
		initVal = v
	}
	p := ev.actor.pool(n.Name)
	if p == nil {
		return nil, runtimeErr(ev.actor.callStack, "unknown pool %q", n.Name)
	}
	if err := p.Update(key, path, fn, initVal, hasInit); err != nil {
		return nil, err
	}
	return p.Get(key, nil)
}

func (ev *evalCtx) evalCall(e *env, n ast.Call) (interface{}, error) {
	if (n.FcnName == "and" || n.FcnName == "or") && len(n.Args) == 2 {
		return ev.evalShortCircuit(e, n)
	}

	argVals := make([]interface{}, len(n.Args))
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(e, a)
		if err != nil {
			return nil, err
		}
		argVals[i] = v
		argTypes[i] = ev.typeOf(a)
	}

	if strings.HasPrefix(n.FcnName, "u.") {
		return ev.callUserFcn(n.FcnName, argVals)
	}

	sigs, ok := ev.actor.Engine.Catalog.Signatures(n.FcnName)
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "unknown function %q", n.FcnName)
	}
	if _, err := signature.Resolve(n.FcnName, sigs, argTypes); err != nil {
		return nil, runtimeErr(ev.actor.callStack, "%v", err)
	}
	if caller, ok := ev.actor.Engine.Catalog.(interface {
		Call(name string, argTypes []types.Type, args []interface{}) (interface{}, error)
	}); ok {
		return caller.Call(n.FcnName, argTypes, argVals)
	}
	return nil, runtimeErr(ev.actor.callStack, "catalog has no caller for %q", n.FcnName)
}

// evalShortCircuit evaluates "and"/"or" short-circuit: the second operand
// is never evaluated once the first already determines the result (spec.md
// §4.7). The analyzer already resolved "and"/"or" against the catalog's
// boolean,boolean -> boolean signature at type-check time, so there is
// nothing left to resolve here beyond evaluating operands in order.
func (ev *evalCtx) evalShortCircuit(e *env, n ast.Call) (interface{}, error) {
	left, err := ev.eval(e, n.Args[0])
	if err != nil {
		return nil, err
	}
	lb, ok := left.(bool)
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "%q operand is not boolean", n.FcnName)
	}
	if n.FcnName == "and" && !lb {
		return false, nil
	}
	if n.FcnName == "or" && lb {
		return true, nil
	}

	right, err := ev.eval(e, n.Args[1])
	if err != nil {
		return nil, err
	}
	rb, ok := right.(bool)
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "%q operand is not boolean", n.FcnName)
	}
	return rb, nil
}

// callUserFcn invokes a user-defined function by its "u."-prefixed name,
// pushing a CallFrame for diagnostics and checking the cooperative
// deadline at entry (spec.md §4.6).
func (ev *evalCtx) callUserFcn(name string, argVals []interface{}) (interface{}, error) {
	if err := ev.checkCancel(); err != nil {
		return nil, err
	}
	fd, ok := ev.actor.Engine.Cfg.Fcns[strings.TrimPrefix(name, "u.")]
	if !ok {
		return nil, runtimeErr(ev.actor.callStack, "call to unknown user function %q", name)
	}
	if len(argVals) != len(fd.Params) {
		return nil, runtimeErr(ev.actor.callStack, "function %q expects %d arguments, got %d", name, len(fd.Params), len(argVals))
	}

	ev.actor.callStack = append(ev.actor.callStack, CallFrame{FcnName: name})
	defer func() { ev.actor.callStack = ev.actor.callStack[:len(ev.actor.callStack)-1] }()

	callEnv := newEnv(nil)
	for i, p := range fd.Params {
		callEnv.declare(p.Name, argVals[i])
	}
	return ev.evalBody(callEnv, fd.Body)
}

// decodeLiteral turns a Literal node's generic JSON tree into a runtime
// value, for forms (fixed/enum/record/array/map/union literals, or any
// Avro-typed value the builder couldn't reduce to a narrower LiteralXxx
// node) that need the declared type to disambiguate their shape. This is
// the same decode internal/value.Decode applies to streamed-in records,
// cell/pool init values, and fold's zero.
func decodeLiteral(t types.Type, raw interface{}) (interface{}, error) {
	return value.Decode(t, raw)
}
