// Package engine is PFA's public API: load a document (spec.md §6),
// bind actor state (spec.md §4.5), and drive begin/action/end (spec.md
// §4.6). It wires internal/docsurface, internal/ast, internal/analyzer,
// internal/state, and internal/evaluator together the way the teacher's
// pkg/cli/entry.go wires lexer -> parser -> analyzer -> vm, via
// internal/pipeline's Processor stages.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/animator/pfa/internal/analyzer"
	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/catalog"
	"github.com/animator/pfa/internal/docsurface"
	"github.com/animator/pfa/internal/evaluator"
	"github.com/animator/pfa/internal/pipeline"
	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/state"
	"github.com/animator/pfa/internal/types"
	"github.com/animator/pfa/internal/value"
)

// Format mirrors docsurface.Format at the package boundary, so callers
// never need to import internal/docsurface directly.
type Format = docsurface.Format

const (
	FormatJSON = docsurface.FormatJSON
	FormatYAML = docsurface.FormatYAML
)

// Program is one compiled, type-checked PFA document (spec.md §3): the
// immutable AST plus the analyzer's type decorations, ready to bind
// actors against. Safe for concurrent NewActor calls.
type Program struct {
	cfg     *ast.EngineConfig
	typeMap map[ast.Expr]types.Type
	catalog signature.Catalog

	sharedCells map[string]*state.Cell
	sharedPools map[string]*state.Pool
}

// decodeProcessor, buildProcessor and analyzeProcessor are internal/
// pipeline.Processor stages; grounded on the teacher's per-package
// processor.go convention (internal/parser/processor.go, internal/
// analyzer/processor.go), collapsed into engine.go since PFA's load path
// is three stages rather than funxy's many passes.
type decodeProcessor struct{}

func (decodeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	format := docsurface.FormatJSON
	if ctx.IsYAML {
		format = docsurface.FormatYAML
	}
	tree, err := docsurface.Parse(ctx.SourceCode, format)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Tree = tree
	return ctx
}

type buildProcessor struct{}

func (buildProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Tree == nil {
		return ctx
	}
	cfg, err := ast.BuildConfig(ctx.Tree)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Config = cfg
	return ctx
}

type analyzeProcessor struct {
	catalog signature.Catalog
}

func (p analyzeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	cfg, ok := ctx.Config.(*ast.EngineConfig)
	if !ok {
		return ctx
	}
	a := analyzer.New(types.NewRegistry(), p.catalog)
	typeMap, err := a.AnalyzeConfig(cfg)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.TypeMap = typeMap
	return ctx
}

// Load decodes, builds and type-checks source, returning a ready-to-run
// Program. cat is the standard function library the document's action
// calls against (spec.md §1 places it out of this module's scope); pass
// catalog.Core for the built-in arithmetic/comparison/boolean/bitwise
// operators alone, or signature.Chain{hostCatalog, catalog.Core} to layer
// a host's own functions in front of it.
func Load(source []byte, format Format, cat signature.Catalog) (*Program, error) {
	if cat == nil {
		cat = catalog.Core{}
	}
	initial := &pipeline.PipelineContext{
		SourceCode: source,
		IsYAML:     format == docsurface.FormatYAML,
	}
	p := pipeline.New(decodeProcessor{}, buildProcessor{}, analyzeProcessor{catalog: cat})
	final := p.Run(initial)
	if len(final.Errors) > 0 {
		return nil, final.Errors[0]
	}

	cfg := final.Config.(*ast.EngineConfig)
	typeMap := final.TypeMap.(map[ast.Expr]types.Type)

	prog := &Program{
		cfg:         cfg,
		typeMap:     typeMap,
		catalog:     cat,
		sharedCells: map[string]*state.Cell{},
		sharedPools: map[string]*state.Pool{},
	}

	for name, cell := range cfg.Cells {
		if !cell.Shared {
			continue
		}
		init, err := value.Decode(cell.Type, cell.InitRaw)
		if err != nil {
			return nil, fmt.Errorf("engine: cell %q init: %w", name, err)
		}
		prog.sharedCells[name] = state.NewCell(init, true)
	}
	for name, pool := range cfg.Pools {
		if !pool.Shared {
			continue
		}
		sp := state.NewPool(true)
		for key, raw := range pool.InitMap {
			v, err := value.Decode(pool.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("engine: pool %q key %q init: %w", name, key, err)
			}
			if err := sp.Update(key, nil, func(interface{}) (interface{}, error) { return v, nil }, v, true); err != nil {
				return nil, err
			}
		}
		prog.sharedPools[name] = sp
	}

	return prog, nil
}

// LoadReader is Load over an io.Reader.
func LoadReader(r io.Reader, format Format, cat signature.Catalog) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("engine: read: %w", err)
	}
	return Load(data, format, cat)
}

// Method returns the document's declared execution method.
func (p *Program) Method() ast.Method { return p.cfg.Method }

// InputType and OutputType expose the document's declared Avro types, for
// a host's own NDJSON/wire decoding of records (pkg/engine does not
// impose a transport).
func (p *Program) InputType() types.Type  { return p.cfg.InputType }
func (p *Program) OutputType() types.Type { return p.cfg.OutputType }

// DefaultTimeout, DefaultBeginTimeout and DefaultEndTimeout read the
// document's own options.timeout / options.timeout.begin / options.
// timeout.end (spec.md §6), in milliseconds. A host (e.g. cmd/pfa's
// -timeout flag) may override these per run; zero means no deadline.
func (p *Program) DefaultTimeout() time.Duration      { return optionMillis(p.cfg.Options, "timeout") }
func (p *Program) DefaultBeginTimeout() time.Duration { return optionMillis(p.cfg.Options, "timeout.begin") }
func (p *Program) DefaultEndTimeout() time.Duration   { return optionMillis(p.cfg.Options, "timeout.end") }

func optionMillis(options map[string]interface{}, key string) time.Duration {
	v, ok := options[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return time.Duration(n) * time.Millisecond
	case int:
		return time.Duration(n) * time.Millisecond
	case int64:
		return time.Duration(n) * time.Millisecond
	default:
		return 0
	}
}

// Actor is one running instance of a Program: its own identity, private
// cells/pools, tally (fold method) and PRNG, bound to the host's Emit
// sink and Logger.
type Actor struct {
	ID string

	prog *evaluator.Actor
	eng  *evaluator.Engine
}

// NewActor creates an actor. emit and logger may be nil (emit is then a
// no-op for the emit method; logger output is then discarded). randSeed,
// if non-nil, overrides the document's own randseed option (spec.md §6:
// "a host may override randseed at actor-creation time").
func (p *Program) NewActor(emit func(interface{}) error, logger evaluator.Logger, randSeed *int64) (*Actor, error) {
	privateCellInit := map[string]interface{}{}
	for name, cell := range p.cfg.Cells {
		if cell.Shared {
			continue
		}
		v, err := value.Decode(cell.Type, cell.InitRaw)
		if err != nil {
			return nil, fmt.Errorf("engine: cell %q init: %w", name, err)
		}
		privateCellInit[name] = v
	}
	privatePoolInit := map[string]map[string]interface{}{}
	for name, pool := range p.cfg.Pools {
		if pool.Shared {
			continue
		}
		decoded := map[string]interface{}{}
		for key, raw := range pool.InitMap {
			v, err := value.Decode(pool.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("engine: pool %q key %q init: %w", name, key, err)
			}
			decoded[key] = v
		}
		privatePoolInit[name] = decoded
	}

	var zero interface{}
	if p.cfg.HasZero {
		v, err := value.Decode(p.cfg.OutputType, p.cfg.Zero)
		if err != nil {
			return nil, fmt.Errorf("engine: zero: %w", err)
		}
		zero = v
	}

	eng := &evaluator.Engine{
		Cfg:         p.cfg,
		TypeMap:     p.typeMap,
		Catalog:     p.catalog,
		SharedCells: p.sharedCells,
		SharedPools: p.sharedPools,
	}

	seed := p.cfg.RandSeed
	if randSeed != nil {
		seed = randSeed
	}
	actor := evaluator.NewActor(eng, privateCellInit, privatePoolInit, zero, seed)
	actor.Emit = emit
	actor.Logger = logger

	return &Actor{ID: uuid.NewString(), prog: actor, eng: eng}, nil
}

// Begin runs the document's begin[] block, once, before any input. A
// zero timeout means no deadline.
func (a *Actor) Begin(ctx context.Context, timeout time.Duration) error {
	return a.prog.Begin(ctx, timeout)
}

// End runs the document's end[] block, once, after the input stream is
// closed.
func (a *Actor) End(ctx context.Context, timeout time.Duration) error {
	return a.prog.End(ctx, timeout)
}

// Action runs the document's action[] block over one already-decoded
// input record (per spec.md §4.6, method determines what's returned:
// map returns a value, emit returns nil, fold returns the new tally).
func (a *Actor) Action(ctx context.Context, timeout time.Duration, input interface{}) (interface{}, error) {
	return a.prog.Action(ctx, timeout, input)
}

// Tally returns the actor's current fold accumulator, if the document's
// method is fold.
func (a *Actor) Tally() (interface{}, bool) { return a.prog.Tally() }

// SetTally lets a host reassign tally between actions.
func (a *Actor) SetTally(v interface{}) { a.prog.SetTally(v) }
