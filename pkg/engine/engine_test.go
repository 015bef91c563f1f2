package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/animator/pfa/pkg/engine"
)

// Scenario 1 (spec.md §8): input:null, output:int, action:{+:[2,2]} -> 4.
func TestMapAddsTwoLiterals(t *testing.T) {
	doc := []byte(`{
		"name": "scenario1",
		"method": "map",
		"input": "null",
		"output": "int",
		"action": [ {"+": [2, 2]} ]
	}`)
	prog, err := engine.Load(doc, engine.FormatJSON, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	actor, err := prog.NewActor(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	ctx := context.Background()
	if err := actor.Begin(ctx, 0); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	result, err := actor.Action(ctx, 0, nil)
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if result.(int32) != 4 {
		t.Fatalf("expected 4, got %v", result)
	}
}

// Scenario 2 (spec.md §8): a while loop counting 0..4, logging each value,
// returning null.
func TestMapWhileLoopLogsAndReturnsNull(t *testing.T) {
	doc := []byte(`{
		"name": "scenario2",
		"method": "map",
		"input": "null",
		"output": "null",
		"action": [
			{"let": {"x": 0}},
			{"while": {"!=": ["x", 5]}, "do": [
				{"log": ["x"]},
				{"set": {"x": {"+": ["x", 1]}}}
			]}
		]
	}`)
	prog, err := engine.Load(doc, engine.FormatJSON, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var logged []interface{}
	logger := func(namespace string, args []interface{}) {
		logged = append(logged, args[0])
	}

	actor, err := prog.NewActor(nil, logger, nil)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	ctx := context.Background()
	result, err := actor.Action(ctx, 0, nil)
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if result != nil {
		t.Fatalf("expected a null result, got %v", result)
	}
	if len(logged) != 5 {
		t.Fatalf("expected 5 log calls, got %d: %v", len(logged), logged)
	}
	for i, v := range logged {
		if v.(int32) != int32(i) {
			t.Fatalf("expected logged[%d] == %d, got %v", i, i, v)
		}
	}
}

// Scenario 3 (spec.md §8): fold method, zero 0, action adds input to tally;
// an external tally reassignment takes effect on the next action.
func TestFoldAccumulatesTallyAndAcceptsExternalReassignment(t *testing.T) {
	doc := []byte(`{
		"name": "scenario3",
		"method": "fold",
		"input": "double",
		"output": "double",
		"zero": 0,
		"action": [ {"+": ["input", "tally"]} ]
	}`)
	prog, err := engine.Load(doc, engine.FormatJSON, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	actor, err := prog.NewActor(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	ctx := context.Background()

	inputs := []float64{5, 3, 2, 20}
	want := []float64{5, 8, 10, 30}
	for i, in := range inputs {
		result, err := actor.Action(ctx, 0, in)
		if err != nil {
			t.Fatalf("Action(%v): %v", in, err)
		}
		if result.(float64) != want[i] {
			t.Fatalf("step %d: expected tally %v, got %v", i, want[i], result)
		}
	}

	actor.SetTally(1.0)
	result, err := actor.Action(ctx, 0, 5.0)
	if err != nil {
		t.Fatalf("Action after SetTally: %v", err)
	}
	if result.(float64) != 6.0 {
		t.Fatalf("expected 1.0+5.0=6.0 after external tally reassignment, got %v", result)
	}
}

// Scenario 6 (spec.md §8): an unbounded while loop aborts with a timeout
// within about a second of the configured deadline, rather than hanging.
func TestUnboundedLoopTimesOut(t *testing.T) {
	doc := []byte(`{
		"name": "scenario6",
		"method": "map",
		"input": "null",
		"output": "null",
		"options": { "timeout": 200 },
		"action": [
			{"let": {"x": 0}},
			{"while": {"==": ["x", 0]}, "do": [
				{"set": {"x": {"+": ["x", 0]}}}
			]}
		]
	}`)
	prog, err := engine.Load(doc, engine.FormatJSON, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	actor, err := prog.NewActor(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	ctx := context.Background()

	start := time.Now()
	_, err = actor.Action(ctx, prog.DefaultTimeout(), nil)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected a timeout error from an unbounded loop")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("expected the timeout to fire within ~1s of the 200ms deadline, took %v", elapsed)
	}
}
