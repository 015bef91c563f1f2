package pipeline_test

import (
	"testing"

	"github.com/animator/pfa/internal/pipeline"
)

type appendStage struct {
	mark string
}

func (s appendStage) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Config == nil {
		ctx.Config = ""
	}
	ctx.Config = ctx.Config.(string) + s.mark
	return ctx
}

type failingStage struct{}

func (failingStage) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.Errors = append(ctx.Errors, errStageFailed)
	return ctx
}

var errStageFailed = stageError("stage failed")

type stageError string

func (e stageError) Error() string { return string(e) }

func TestPipelineRunsStagesInOrder(t *testing.T) {
	p := pipeline.New(appendStage{"a"}, appendStage{"b"}, appendStage{"c"})
	final := p.Run(&pipeline.PipelineContext{})
	if final.Config.(string) != "abc" {
		t.Fatalf("expected stages to run in registration order, got %q", final.Config)
	}
}

func TestPipelineContinuesAfterAStageError(t *testing.T) {
	p := pipeline.New(appendStage{"a"}, failingStage{}, appendStage{"b"})
	final := p.Run(&pipeline.PipelineContext{})
	if len(final.Errors) != 1 {
		t.Fatalf("expected exactly one accumulated error, got %d", len(final.Errors))
	}
	if final.Config.(string) != "ab" {
		t.Fatalf("expected later stages to still run after an earlier stage's error, got %q", final.Config)
	}
}

func TestPipelineEmptyRunReturnsInitialContext(t *testing.T) {
	p := pipeline.New()
	initial := &pipeline.PipelineContext{FilePath: "doc.json"}
	final := p.Run(initial)
	if final != initial {
		t.Fatal("expected a pipeline with no stages to return the initial context unchanged")
	}
}
