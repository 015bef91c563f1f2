// Package pipeline implements the teacher's linear processing-stage
// convention (lex -> parse -> analyze, one Processor per pass, a single
// PipelineContext threaded through and accumulating diagnostics) adapted
// to PFA's three-stage load path: decode the document surface, build the
// AST, type-check it. Fields stay untyped (interface{}) exactly as the
// teacher's PipelineContext does for AstRoot, so this package never needs
// to import internal/ast or internal/types and each stage can live where
// it's grounded (pkg/engine wires the three PFA stages; a host embedding
// additional passes can append more Processors without this package
// changing).
package pipeline

// PipelineContext threads state through a Pipeline run. Errors accumulate
// across stages rather than aborting the run, so a host can report every
// stage's diagnostics at once (the teacher's LSP does this to surface
// both parse and semantic errors together).
type PipelineContext struct {
	FilePath   string
	SourceCode []byte
	IsYAML     bool

	// Tree is the generic JSON/YAML document tree (internal/docsurface's
	// output), consumed by the AST-build stage.
	Tree interface{}
	// Config is the built *ast.EngineConfig, consumed by the type-check
	// stage.
	Config interface{}
	// TypeMap is the analyzer's map[ast.Expr]types.Type result.
	TypeMap interface{}

	Errors []error
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors to collect diagnostics from all stages
		// (e.g. LSP needs both parse and semantic errors).
	}
	return ctx
}
