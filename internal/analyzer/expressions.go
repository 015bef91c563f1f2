package analyzer

import (
	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/symbols"
	"github.com/animator/pfa/internal/types"
)

// check type-checks a single expression node in scope, decorates it into
// a.TypeMap, and returns its type.
func (a *Analyzer) check(scope *symbols.Table, e ast.Expr) (types.Type, error) {
	switch n := e.(type) {

	case ast.LiteralNull:
		return a.set(e, types.Null), nil
	case ast.LiteralBoolean:
		return a.set(e, types.Boolean), nil
	case ast.LiteralInt:
		return a.set(e, types.Int), nil
	case ast.LiteralLong:
		return a.set(e, types.Long), nil
	case ast.LiteralFloat:
		return a.set(e, types.Float), nil
	case ast.LiteralDouble:
		return a.set(e, types.Double), nil
	case ast.LiteralString:
		return a.set(e, types.String), nil
	case ast.LiteralBase64:
		return a.set(e, types.Bytes), nil
	case ast.Literal:
		return a.set(e, n.Type), nil

	case ast.NewObject:
		return a.checkNewObject(scope, n)
	case ast.NewArray:
		return a.checkNewArray(scope, n)

	case ast.Do:
		t, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), n.Body)
		if err != nil {
			return nil, err
		}
		return a.set(e, t), nil

	case ast.Let:
		return a.checkLet(scope, n)
	case ast.SetVar:
		return a.checkSetVar(scope, n)

	case ast.If:
		return a.checkIf(scope, n)
	case ast.Cond:
		return a.checkCond(scope, n)

	case ast.While:
		return a.checkWhile(scope, n)
	case ast.DoUntil:
		return a.checkDoUntil(scope, n)
	case ast.For:
		return a.checkFor(scope, n)
	case ast.Foreach:
		return a.checkForeach(scope, n)
	case ast.Forkeyval:
		return a.checkForkeyval(scope, n)

	case ast.CastBlock:
		return a.checkCastBlock(scope, n)
	case ast.IfNotNull:
		return a.checkIfNotNull(scope, n)
	case ast.Upcast:
		return a.checkUpcast(scope, n)

	case ast.Ref:
		b, ok := scope.Lookup(n.Name)
		if !ok {
			return nil, semErr(e.Loc(), "use of undeclared name %q", n.Name)
		}
		return a.set(e, b.Type), nil

	case ast.AttrGet:
		return a.checkAttrGet(scope, n)
	case ast.AttrTo:
		return a.checkAttrTo(scope, n)
	case ast.CellGet:
		return a.checkCellGet(scope, n)
	case ast.CellTo:
		return a.checkCellTo(scope, n)
	case ast.PoolGet:
		return a.checkPoolGet(scope, n)
	case ast.PoolTo:
		return a.checkPoolTo(scope, n)

	case ast.Call:
		return a.checkCall(scope, n)
	case ast.FcnRef:
		return a.checkFcnRef(e, n)

	case ast.Doc:
		return a.set(e, types.Null), nil
	case ast.Error:
		return a.set(e, types.Null), nil
	case ast.Log:
		for _, arg := range n.Args {
			if _, err := a.check(scope, arg); err != nil {
				return nil, err
			}
		}
		return a.set(e, types.Null), nil
	case ast.Emit:
		if n.Args == nil || len(n.Args) != 1 {
			return nil, semErr(e.Loc(), "emit takes exactly one argument")
		}
		argType, err := a.check(scope, n.Args[0])
		if err != nil {
			return nil, err
		}
		if !types.Accepts(a.cfg.OutputType, argType) {
			return nil, semErr(e.Loc(), "emit argument %s does not match output type %s", argType, a.cfg.OutputType)
		}
		return a.set(e, types.Null), nil

	default:
		return nil, semErr(e.Loc(), "analyzer: unhandled node type %T", e)
	}
}

func (a *Analyzer) checkNewObject(scope *symbols.Table, n ast.NewObject) (types.Type, error) {
	rec, ok := n.Type.(*types.Record)
	if !ok {
		return nil, semErr(n.Loc(), "\"new\" with an object body requires a record type, got %s", n.Type)
	}
	for _, f := range rec.Fields {
		fe, ok := n.Fields[f.Name]
		if !ok {
			if f.HasDflt {
				continue
			}
			return nil, semErr(n.Loc(), "missing field %q in new %s", f.Name, rec.FullName)
		}
		ft, err := a.check(scope, fe)
		if err != nil {
			return nil, err
		}
		if !types.Accepts(f.Type, ft) {
			return nil, semErr(fe.Loc(), "field %q: %s does not accept %s", f.Name, f.Type, ft)
		}
	}
	return a.set(n, n.Type), nil
}

func (a *Analyzer) checkNewArray(scope *symbols.Table, n ast.NewArray) (types.Type, error) {
	arr, ok := n.Type.(types.Array)
	if !ok {
		return nil, semErr(n.Loc(), "\"new\" with an array body requires an array type, got %s", n.Type)
	}
	for _, item := range n.Items {
		it, err := a.check(scope, item)
		if err != nil {
			return nil, err
		}
		if !types.Accepts(arr.Items, it) {
			return nil, semErr(item.Loc(), "array item %s does not match %s", it, arr.Items)
		}
	}
	return a.set(n, n.Type), nil
}

// checkLet declares each assigned name as a mutable binding in scope,
// in document order, after checking its initializer expression —
// redeclaration within the same frame is rejected by Table.Declare.
func (a *Analyzer) checkLet(scope *symbols.Table, n ast.Let) (types.Type, error) {
	for _, name := range n.Order {
		init := n.Assign[name]
		t, err := a.check(scope, init)
		if err != nil {
			return nil, err
		}
		if err := scope.Declare(name, t, true); err != nil {
			return nil, semErr(n.Loc(), "%v", err)
		}
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkSetVar(scope *symbols.Table, n ast.SetVar) (types.Type, error) {
	for _, name := range n.Order {
		valExpr := n.Assign[name]
		t, err := a.check(scope, valExpr)
		if err != nil {
			return nil, err
		}
		if err := scope.Set(name, t); err != nil {
			return nil, semErr(n.Loc(), "%v", err)
		}
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkIf(scope *symbols.Table, n ast.If) (types.Type, error) {
	condType, err := a.check(scope, n.Cond)
	if err != nil {
		return nil, err
	}
	if !types.Equal(condType, types.Boolean) {
		return nil, semErr(n.Cond.Loc(), "if condition must be boolean, got %s", condType)
	}
	thenType, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), n.Then)
	if err != nil {
		return nil, err
	}
	if n.Else == nil {
		return a.set(n, types.Null), nil
	}
	elseType, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), n.Else)
	if err != nil {
		return nil, err
	}
	return a.set(n, types.Lub(thenType, elseType)), nil
}

func (a *Analyzer) checkCond(scope *symbols.Table, n ast.Cond) (types.Type, error) {
	var branchTypes []types.Type
	for _, c := range n.Clauses {
		condType, err := a.check(scope, c.If)
		if err != nil {
			return nil, err
		}
		if !types.Equal(condType, types.Boolean) {
			return nil, semErr(c.If.Loc(), "cond clause condition must be boolean, got %s", condType)
		}
		t, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), c.Then)
		if err != nil {
			return nil, err
		}
		branchTypes = append(branchTypes, t)
	}
	if n.Else != nil {
		t, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), n.Else)
		if err != nil {
			return nil, err
		}
		branchTypes = append(branchTypes, t)
	} else {
		branchTypes = append(branchTypes, types.Null)
	}
	return a.set(n, types.Lub(branchTypes...)), nil
}

func (a *Analyzer) checkWhile(scope *symbols.Table, n ast.While) (types.Type, error) {
	condType, err := a.check(scope, n.Cond)
	if err != nil {
		return nil, err
	}
	if !types.Equal(condType, types.Boolean) {
		return nil, semErr(n.Cond.Loc(), "while condition must be boolean, got %s", condType)
	}
	if _, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), n.Body); err != nil {
		return nil, err
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkDoUntil(scope *symbols.Table, n ast.DoUntil) (types.Type, error) {
	bodyScope := symbols.NewChild(scope, symbols.ScopeBlock)
	if _, err := a.checkBody(bodyScope, n.Body); err != nil {
		return nil, err
	}
	condType, err := a.check(bodyScope, n.Cond)
	if err != nil {
		return nil, err
	}
	if !types.Equal(condType, types.Boolean) {
		return nil, semErr(n.Cond.Loc(), "do-until condition must be boolean, got %s", condType)
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkFor(scope *symbols.Table, n ast.For) (types.Type, error) {
	loopScope := symbols.NewChild(scope, symbols.ScopeBlock)
	for _, name := range n.Order {
		t, err := a.check(loopScope, n.Init[name])
		if err != nil {
			return nil, err
		}
		if err := loopScope.Declare(name, t, true); err != nil {
			return nil, semErr(n.Loc(), "%v", err)
		}
	}
	condType, err := a.check(loopScope, n.Until)
	if err != nil {
		return nil, err
	}
	if !types.Equal(condType, types.Boolean) {
		return nil, semErr(n.Until.Loc(), "for condition must be boolean, got %s", condType)
	}
	if _, err := a.checkBody(symbols.NewChild(loopScope, symbols.ScopeBlock), n.Body); err != nil {
		return nil, err
	}
	for name, step := range n.Step {
		t, err := a.check(loopScope, step)
		if err != nil {
			return nil, err
		}
		if err := loopScope.Set(name, t); err != nil {
			return nil, semErr(n.Loc(), "%v", err)
		}
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkForeach(scope *symbols.Table, n ast.Foreach) (types.Type, error) {
	inType, err := a.check(scope, n.In)
	if err != nil {
		return nil, err
	}
	arr, ok := inType.(types.Array)
	if !ok {
		return nil, semErr(n.In.Loc(), "foreach \"in\" must be an array, got %s", inType)
	}
	bodyScope := symbols.NewChild(scope, symbols.ScopeBlock)
	if err := bodyScope.Declare(n.Name, arr.Items, true); err != nil {
		return nil, semErr(n.Loc(), "%v", err)
	}
	if _, err := a.checkBody(bodyScope, n.Body); err != nil {
		return nil, err
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkForkeyval(scope *symbols.Table, n ast.Forkeyval) (types.Type, error) {
	inType, err := a.check(scope, n.In)
	if err != nil {
		return nil, err
	}
	m, ok := inType.(types.Map)
	if !ok {
		return nil, semErr(n.In.Loc(), "forkey-forval \"in\" must be a map, got %s", inType)
	}
	bodyScope := symbols.NewChild(scope, symbols.ScopeBlock)
	if err := bodyScope.Declare(n.Key, types.String, false); err != nil {
		return nil, semErr(n.Loc(), "%v", err)
	}
	if err := bodyScope.Declare(n.Val, m.Values, true); err != nil {
		return nil, semErr(n.Loc(), "%v", err)
	}
	if _, err := a.checkBody(bodyScope, n.Body); err != nil {
		return nil, err
	}
	return a.set(n, types.Null), nil
}

func (a *Analyzer) checkCastBlock(scope *symbols.Table, n ast.CastBlock) (types.Type, error) {
	scrutineeType, err := a.check(scope, n.Expr)
	if err != nil {
		return nil, err
	}
	union, ok := scrutineeType.(types.Union)
	if !ok {
		return nil, semErr(n.Expr.Loc(), "cast requires a union-typed expression, got %s", scrutineeType)
	}
	covered := make([]bool, len(union.Branches))
	var branchTypes []types.Type
	for _, c := range n.Cases {
		idx := -1
		for i, b := range union.Branches {
			if types.Equal(b, c.As) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, semErr(n.Loc(), "cast case %s is not a branch of %s", c.As, union)
		}
		covered[idx] = true
		caseScope := symbols.NewChild(scope, symbols.ScopeBlock)
		if c.Named != "" {
			if err := caseScope.Declare(c.Named, c.As, false); err != nil {
				return nil, semErr(n.Loc(), "%v", err)
			}
		}
		t, err := a.checkBody(caseScope, c.Body)
		if err != nil {
			return nil, err
		}
		branchTypes = append(branchTypes, t)
	}
	if !n.Partial {
		for i, ok := range covered {
			if !ok {
				return nil, semErr(n.Loc(), "non-exhaustive cast: missing branch %s", union.Branches[i])
			}
		}
	} else {
		branchTypes = append(branchTypes, types.Null)
	}
	return a.set(n, types.Lub(branchTypes...)), nil
}

func (a *Analyzer) checkIfNotNull(scope *symbols.Table, n ast.IfNotNull) (types.Type, error) {
	thenScope := symbols.NewChild(scope, symbols.ScopeBlock)
	for _, bind := range n.Bindings {
		t, err := a.check(scope, bind.Expr)
		if err != nil {
			return nil, err
		}
		union, ok := t.(types.Union)
		if !ok || !union.AcceptsNull() {
			return nil, semErr(bind.Expr.Loc(), "ifnotnull binding %q must be a union containing null, got %s", bind.Name, t)
		}
		if err := thenScope.Declare(bind.Name, union.WithoutNull(), false); err != nil {
			return nil, semErr(n.Loc(), "%v", err)
		}
	}
	thenType, err := a.checkBody(thenScope, n.Then)
	if err != nil {
		return nil, err
	}
	if n.Else == nil {
		return a.set(n, types.Null), nil
	}
	elseType, err := a.checkBody(symbols.NewChild(scope, symbols.ScopeBlock), n.Else)
	if err != nil {
		return nil, err
	}
	return a.set(n, types.Lub(thenType, elseType)), nil
}

func (a *Analyzer) checkUpcast(scope *symbols.Table, n ast.Upcast) (types.Type, error) {
	exprType, err := a.check(scope, n.Expr)
	if err != nil {
		return nil, err
	}
	if !types.Accepts(n.AsType, exprType) {
		return nil, semErr(n.Loc(), "upcast target %s does not accept %s", n.AsType, exprType)
	}
	return a.set(n, n.AsType), nil
}

func (a *Analyzer) checkCall(scope *symbols.Table, n ast.Call) (types.Type, error) {
	argTypes := make([]types.Type, len(n.Args))
	for i, arg := range n.Args {
		t, err := a.check(scope, arg)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}

	if sig, ok := a.userSigs[n.FcnName]; ok {
		resolved, err := signature.Resolve(n.FcnName, []signature.Signature{sig}, argTypes)
		if err != nil {
			return nil, semErr(n.Loc(), "%v", err)
		}
		return a.set(n, resolved.Return), nil
	}

	if a.catalog != nil {
		if sigs, ok := a.catalog.Signatures(n.FcnName); ok {
			resolved, err := signature.Resolve(n.FcnName, sigs, argTypes)
			if err != nil {
				return nil, semErr(n.Loc(), "%v", err)
			}
			return a.set(n, resolved.Return), nil
		}
	}

	return nil, semErr(n.Loc(), "unknown function %q", n.FcnName)
}

func (a *Analyzer) checkFcnRef(e ast.Expr, n ast.FcnRef) (types.Type, error) {
	sig, ok := a.userSigs[n.Name]
	if !ok {
		return nil, semErr(e.Loc(), "fcnref to unknown user function %q", n.Name)
	}
	params := make([]types.Type, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.Concrete
	}
	return a.set(e, types.NewFunction(params, sig.Return.Concrete)), nil
}
