package analyzer

import (
	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/symbols"
	"github.com/animator/pfa/internal/types"
)

// walkPath type-checks a path spine against head, per spec.md §3/§4.4: each
// element is an integer expression (array index), a string expression
// (map key, or — only when it is a literal — a record field name), or a
// union discriminator (a literal string naming one of head's branches by
// its type name/full name). It returns the type at the end of the spine.
func (a *Analyzer) walkPath(scope *symbols.Table, head types.Type, path []ast.PathElem) (types.Type, error) {
	for _, elem := range path {
		elemType, err := a.check(scope, elem.Expr)
		if err != nil {
			return nil, err
		}
		switch h := head.(type) {
		case types.Array:
			if elemType.Kind() != types.KindInt && elemType.Kind() != types.KindLong {
				return nil, semErr(elem.Expr.Loc(), "array path element must be int or long, got %s", elemType)
			}
			head = h.Items

		case types.Map:
			if elemType.Kind() != types.KindString {
				return nil, semErr(elem.Expr.Loc(), "map path element must be string, got %s", elemType)
			}
			head = h.Values

		case *types.Record:
			name, ok := literalFieldName(elem.Expr)
			if !ok {
				return nil, semErr(elem.Expr.Loc(), "record path element must be a literal field name")
			}
			f, ok := h.FieldByName(name)
			if !ok {
				return nil, semErr(elem.Expr.Loc(), "record %s has no field %q", h.FullName, name)
			}
			head = f.Type

		case types.Union:
			name, ok := literalFieldName(elem.Expr)
			if !ok {
				return nil, semErr(elem.Expr.Loc(), "union path element must be a literal type-name discriminator")
			}
			branch, ok := branchByName(h, name)
			if !ok {
				return nil, semErr(elem.Expr.Loc(), "union %s has no branch %q", h, name)
			}
			head = branch

		default:
			return nil, semErr(elem.Expr.Loc(), "cannot path into type %s", head)
		}
	}
	return head, nil
}

func literalFieldName(e ast.Expr) (string, bool) {
	if s, ok := e.(ast.LiteralString); ok {
		return s.Value, true
	}
	return "", false
}

func branchByName(u types.Union, name string) (types.Type, bool) {
	for _, b := range u.Branches {
		if b.String() == name {
			return b, true
		}
		switch nb := b.(type) {
		case *types.Record:
			if nb.FullName == name {
				return b, true
			}
		case *types.Enum:
			if nb.FullName == name {
				return b, true
			}
		case *types.Fixed:
			if nb.FullName == name {
				return b, true
			}
		}
	}
	return nil, false
}

// checkTo type-checks a "to" target against head's type: either a plain
// value expression accepted by head, or a function/fcnref of signature
// head -> head (spec.md §4.4).
func (a *Analyzer) checkTo(scope *symbols.Table, to ast.Expr, head types.Type) error {
	toType, err := a.check(scope, to)
	if err != nil {
		return err
	}
	if fn, ok := toType.(types.Function); ok {
		if len(fn.Params) != 1 || !types.Equal(fn.Params[0], head) || !types.Equal(fn.Return, head) {
			return semErr(to.Loc(), "\"to\" function must have signature %s -> %s, got %s", head, head, fn)
		}
		return nil
	}
	if !types.Accepts(head, toType) {
		return semErr(to.Loc(), "\"to\" value %s does not match target type %s", toType, head)
	}
	return nil
}

func (a *Analyzer) checkAttrGet(scope *symbols.Table, n ast.AttrGet) (types.Type, error) {
	headType, err := a.check(scope, n.Expr)
	if err != nil {
		return nil, err
	}
	resultType, err := a.walkPath(scope, headType, n.Path)
	if err != nil {
		return nil, err
	}
	return a.set(n, resultType), nil
}

func (a *Analyzer) checkAttrTo(scope *symbols.Table, n ast.AttrTo) (types.Type, error) {
	headType, err := a.check(scope, n.Expr)
	if err != nil {
		return nil, err
	}
	targetType, err := a.walkPath(scope, headType, n.Path)
	if err != nil {
		return nil, err
	}
	if err := a.checkTo(scope, n.To, targetType); err != nil {
		return nil, err
	}
	return a.set(n, headType), nil
}

func (a *Analyzer) cellType(loc ast.Location, name string) (types.Type, error) {
	c, ok := a.cfg.Cells[name]
	if !ok {
		return nil, semErr(loc, "unknown cell %q", name)
	}
	return c.Type, nil
}

func (a *Analyzer) poolType(loc ast.Location, name string) (types.Type, error) {
	p, ok := a.cfg.Pools[name]
	if !ok {
		return nil, semErr(loc, "unknown pool %q", name)
	}
	return p.Type, nil
}

func (a *Analyzer) checkCellGet(scope *symbols.Table, n ast.CellGet) (types.Type, error) {
	cellType, err := a.cellType(n.Loc(), n.Name)
	if err != nil {
		return nil, err
	}
	resultType, err := a.walkPath(scope, cellType, n.Path)
	if err != nil {
		return nil, err
	}
	return a.set(n, resultType), nil
}

func (a *Analyzer) checkCellTo(scope *symbols.Table, n ast.CellTo) (types.Type, error) {
	cellType, err := a.cellType(n.Loc(), n.Name)
	if err != nil {
		return nil, err
	}
	targetType, err := a.walkPath(scope, cellType, n.Path)
	if err != nil {
		return nil, err
	}
	if err := a.checkTo(scope, n.To, targetType); err != nil {
		return nil, err
	}
	return a.set(n, cellType), nil
}

// poolValueType is the type path-walking starts from for a pool: a pool
// cell is keyed by a leading string-typed path element (the key) before
// any declared-type subpath, per spec.md §4.5's get(name,[key,...subpath]).
func (a *Analyzer) poolValueType(scope *symbols.Table, loc ast.Location, name string, path []ast.PathElem) (types.Type, []ast.PathElem, error) {
	valueType, err := a.poolType(loc, name)
	if err != nil {
		return nil, nil, err
	}
	if len(path) == 0 {
		return nil, nil, semErr(loc, "pool access requires at least a key path element")
	}
	keyType, err := a.check(scope, path[0].Expr)
	if err != nil {
		return nil, nil, err
	}
	if keyType.Kind() != types.KindString {
		return nil, nil, semErr(path[0].Expr.Loc(), "pool key must be string, got %s", keyType)
	}
	return valueType, path[1:], nil
}

func (a *Analyzer) checkPoolGet(scope *symbols.Table, n ast.PoolGet) (types.Type, error) {
	valueType, subpath, err := a.poolValueType(scope, n.Loc(), n.Name, n.Path)
	if err != nil {
		return nil, err
	}
	resultType, err := a.walkPath(scope, valueType, subpath)
	if err != nil {
		return nil, err
	}
	return a.set(n, resultType), nil
}

func (a *Analyzer) checkPoolTo(scope *symbols.Table, n ast.PoolTo) (types.Type, error) {
	valueType, subpath, err := a.poolValueType(scope, n.Loc(), n.Name, n.Path)
	if err != nil {
		return nil, err
	}
	targetType, err := a.walkPath(scope, valueType, subpath)
	if err != nil {
		return nil, err
	}
	if err := a.checkTo(scope, n.To, targetType); err != nil {
		return nil, err
	}
	if n.Init != nil {
		initType, err := a.check(scope, n.Init)
		if err != nil {
			return nil, err
		}
		if !types.Accepts(valueType, initType) {
			return nil, semErr(n.Init.Loc(), "pool init %s does not match pool value type %s", initType, valueType)
		}
	}
	return a.set(n, valueType), nil
}
