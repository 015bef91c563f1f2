// Package analyzer implements spec.md §4.4's type checker: a visitor that
// walks the AST built by internal/ast and decorates every expression node
// with its static type, enforcing every compile-time rule spec.md §4.3/§4.4
// lists. Grounded on the teacher's internal/analyzer.Analyzer (a
// symbolTable-carrying walker with a TypeMap field), trimmed to PFA's much
// smaller, non-generic type system: no unification, no trait resolution,
// just accepts/lub/equal over internal/types plus internal/signature
// resolution.
package analyzer

import (
	"fmt"

	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/symbols"
	"github.com/animator/pfa/internal/types"
)

// SemanticError is spec.md §7's PFASemanticException: a well-formed AST
// that fails to type-check.
type SemanticError struct {
	Loc ast.Location
	Msg string
}

func (e *SemanticError) Error() string {
	if e.Loc == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

func semErr(loc ast.Location, format string, args ...interface{}) error {
	return &SemanticError{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// Analyzer performs semantic analysis over one EngineConfig. Its TypeMap
// is the analysis's deliverable: the evaluator consults it instead of
// re-deriving types at run time.
type Analyzer struct {
	reg     *types.Registry
	catalog signature.Catalog

	cfg      *ast.EngineConfig
	TypeMap  map[ast.Expr]types.Type
	userSigs map[string]signature.Signature // "u.name" -> its one signature
}

// New creates an Analyzer. catalog is the host's composed builtin catalog
// (typically signature.Chain{catalog.Core{}, ...host-provided libraries}),
// per spec.md §1's note that the scoring-language core is collaborator to
// an external, host-supplied standard library.
func New(reg *types.Registry, catalog signature.Catalog) *Analyzer {
	return &Analyzer{reg: reg, catalog: catalog}
}

// AnalyzeConfig type-checks cfg in place, returning the TypeMap on
// success. cfg must already have gone through internal/ast.BuildConfig.
func (a *Analyzer) AnalyzeConfig(cfg *ast.EngineConfig) (map[ast.Expr]types.Type, error) {
	a.cfg = cfg
	a.TypeMap = make(map[ast.Expr]types.Type)

	if cfg.Method == ast.MethodFold && !cfg.HasZero {
		return nil, semErr("", "method=fold requires \"zero\"")
	}

	if err := a.registerFcnHeaders(cfg); err != nil {
		return nil, err
	}

	root := symbols.NewRoot()

	beginScope := symbols.NewChild(root, symbols.ScopeBeginEnd)
	if _, err := a.checkBody(beginScope, cfg.Begin); err != nil {
		return nil, err
	}

	actionScope := symbols.NewChild(root, symbols.ScopeAction)
	if err := actionScope.Declare("input", cfg.InputType, false); err != nil {
		return nil, err
	}
	if cfg.Method == ast.MethodFold {
		if err := actionScope.Declare("tally", cfg.OutputType, true); err != nil {
			return nil, err
		}
	}
	actionType, err := a.checkBody(actionScope, cfg.Action)
	if err != nil {
		return nil, err
	}
	if (cfg.Method == ast.MethodMap || cfg.Method == ast.MethodFold) && len(cfg.Action) > 0 {
		if !types.Accepts(cfg.OutputType, actionType) {
			return nil, semErr(lastLoc(cfg.Action), "action produces %s, output is declared %s", actionType, cfg.OutputType)
		}
	}

	endScope := symbols.NewChild(root, symbols.ScopeBeginEnd)
	if _, err := a.checkBody(endScope, cfg.End); err != nil {
		return nil, err
	}

	if err := a.checkFcnBodies(cfg); err != nil {
		return nil, err
	}

	return a.TypeMap, nil
}

func lastLoc(body []ast.Expr) ast.Location {
	if len(body) == 0 {
		return ""
	}
	return body[len(body)-1].Loc()
}

// registerFcnHeaders builds a := sig for every user function from its
// declared params/return type before any body is checked, so mutually
// recursive user functions type-check regardless of declaration order —
// the teacher's ModuleLoader headers-then-bodies two-phase convention,
// adapted from module-level exports to PFA's flat fcns{} map.
func (a *Analyzer) registerFcnHeaders(cfg *ast.EngineConfig) error {
	a.userSigs = make(map[string]signature.Signature, len(cfg.Fcns))
	for name, fd := range cfg.Fcns {
		params := make([]signature.Param, len(fd.Params))
		for i, p := range fd.Params {
			params[i] = signature.Param{Name: p.Name, Concrete: p.Type}
		}
		a.userSigs["u."+name] = signature.Signature{
			Params: params,
			Return: signature.Ret{Concrete: fd.ReturnType},
		}
	}
	return nil
}

func (a *Analyzer) checkFcnBodies(cfg *ast.EngineConfig) error {
	for name, fd := range cfg.Fcns {
		scope := symbols.NewChild(nil, symbols.ScopeFunction)
		for _, p := range fd.Params {
			if err := scope.Declare(p.Name, p.Type, false); err != nil {
				return semErr("", "fcns.%s: %v", name, err)
			}
		}
		bodyType, err := a.checkBody(scope, fd.Body)
		if err != nil {
			return err
		}
		if len(fd.Body) > 0 && !types.Accepts(fd.ReturnType, bodyType) {
			return semErr(lastLoc(fd.Body), "fcns.%s returns %s, declared %s", name, bodyType, fd.ReturnType)
		}
	}
	return nil
}

// checkBody type-checks a list of expressions in sequence within scope,
// returning the type of the last expression (null if the list is empty).
func (a *Analyzer) checkBody(scope *symbols.Table, body []ast.Expr) (types.Type, error) {
	var last types.Type = types.Null
	for _, e := range body {
		t, err := a.check(scope, e)
		if err != nil {
			return nil, err
		}
		last = t
	}
	return last, nil
}

func (a *Analyzer) set(e ast.Expr, t types.Type) types.Type {
	a.TypeMap[e] = t
	return t
}
