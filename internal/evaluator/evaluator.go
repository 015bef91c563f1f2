// Package evaluator implements spec.md §4.6's three execution methods
// (map/emit/fold) over the type-checked AST, including cooperative
// timeouts and call-stack diagnostics. Grounded on the teacher's
// internal/evaluator.Evaluator (a struct carrying a context.Context, a
// TypeMap from the analyzer, and a CallStack []CallFrame for
// diagnostics), trimmed to PFA's tree-walking-only execution model — no
// VM, no bytecode backend, per SPEC_FULL.md's resolution of the
// teacher's dual-backend architecture question.
package evaluator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/animator/pfa/internal/ast"
	"github.com/animator/pfa/internal/signature"
	"github.com/animator/pfa/internal/state"
	"github.com/animator/pfa/internal/types"
)

// CallFrame is one frame of a user-function call stack, attached to
// PFARuntimeException/PFAUserException when they cross a function
// boundary, grounded in the teacher's evaluator.CallFrame.
type CallFrame struct {
	FcnName string
	Loc     ast.Location
}

// RuntimeError is spec.md §7's PFARuntimeException, carrying the call
// stack active when it was raised.
type RuntimeError struct {
	Msg   string
	Stack []CallFrame
}

func (e *RuntimeError) Error() string { return e.Msg }

// UserError is spec.md §7's PFAUserException, raised by the Error{} node.
type UserError struct {
	Msg   string
	Code  *int32
	Stack []CallFrame
}

func (e *UserError) Error() string { return e.Msg }

// TimeoutError is spec.md §7's PFATimeoutException.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return "action timed out" }

func runtimeErr(stack []CallFrame, format string, args ...interface{}) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Stack: append([]CallFrame(nil), stack...)}
}

// Logger receives Log{} effect output: args already rendered, namespace
// "" when absent. Logging must never fail the action (spec.md §4.6), so
// it has no error return.
type Logger func(namespace string, args []interface{})

// Engine is one compiled, type-checked PFA document, shared read-only
// across actors; Actor below holds the per-actor mutable state (private
// cells/pools, tally, PRNG).
type Engine struct {
	Cfg      *ast.EngineConfig
	TypeMap  map[ast.Expr]types.Type
	Catalog  signature.Catalog
	SharedCells map[string]*state.Cell
	SharedPools map[string]*state.Pool
}

// Actor is one instance of an Engine: its own private cells/pools, tally
// (fold method), and PRNG, plus the host-supplied collaborators (Emit
// sink, Logger) spec.md §1 places outside this module's scope.
type Actor struct {
	Engine *Engine

	privateCells map[string]*state.Cell
	privatePools map[string]*state.Pool

	tally    interface{}
	hasTally bool

	rand *rand.Rand

	Emit   func(interface{}) error
	Logger Logger

	callStack []CallFrame
	deadline  time.Time
	hasDeadline bool
}

// NewActor creates an actor bound to engine, initializing private
// cells/pools from their declared init values and tally from zero (fold
// method only). privateCellInit/privatePoolInit are already-decoded
// runtime values (internal/value.Decode having run over the raw JSON).
func NewActor(engine *Engine, privateCellInit map[string]interface{}, privatePoolInit map[string]map[string]interface{}, zero interface{}, randSeed *int64) *Actor {
	a := &Actor{Engine: engine, privateCells: map[string]*state.Cell{}, privatePools: map[string]*state.Pool{}}

	for name, cell := range engine.Cfg.Cells {
		if cell.Shared {
			continue
		}
		a.privateCells[name] = state.NewCell(privateCellInit[name], false)
	}
	for name, pool := range engine.Cfg.Pools {
		if pool.Shared {
			continue
		}
		p := state.NewPool(false)
		for k, v := range privatePoolInit[name] {
			if err := p.Update(k, nil, func(interface{}) (interface{}, error) { return v, nil }, v, true); err != nil {
				// Cannot happen: initializing from a fresh pool with its own value.
				panic(err)
			}
		}
		a.privatePools[name] = p
	}

	if engine.Cfg.Method == ast.MethodFold {
		a.tally = zero
		a.hasTally = true
	}

	if randSeed != nil {
		a.rand = rand.New(rand.NewSource(*randSeed))
	} else {
		a.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return a
}

// Tally returns the actor's current fold accumulator.
func (a *Actor) Tally() (interface{}, bool) { return a.tally, a.hasTally }

// SetTally lets a host reassign tally between actions (spec.md §4.6:
// "Re-assigning tally externally between actions is permitted").
func (a *Actor) SetTally(v interface{}) { a.tally = v; a.hasTally = true }

func (a *Actor) cell(name string) *state.Cell {
	if c, ok := a.privateCells[name]; ok {
		return c
	}
	return a.Engine.SharedCells[name]
}

func (a *Actor) pool(name string) *state.Pool {
	if p, ok := a.privatePools[name]; ok {
		return p
	}
	return a.Engine.SharedPools[name]
}

// checkDeadline is called cooperatively at every loop back-edge and user
// function entry (spec.md §4.6); it never interrupts a running Go call,
// only refuses to start the next iteration/call once the deadline has
// passed.
func (a *Actor) checkDeadline() error {
	if a.hasDeadline && time.Now().After(a.deadline) {
		return &TimeoutError{}
	}
	return nil
}

// Begin runs the config's begin[] block once, before any input.
func (a *Actor) Begin(ctx context.Context, timeout time.Duration) error {
	return a.runBlock(ctx, timeout, a.Engine.Cfg.Begin, nil)
}

// End runs the config's end[] block once, after the stream is closed.
func (a *Actor) End(ctx context.Context, timeout time.Duration) error {
	return a.runBlock(ctx, timeout, a.Engine.Cfg.End, nil)
}

func (a *Actor) runBlock(ctx context.Context, timeout time.Duration, body []ast.Expr, input interface{}) error {
	a.callStack = nil
	if timeout > 0 {
		a.deadline = time.Now().Add(timeout)
		a.hasDeadline = true
	} else {
		a.hasDeadline = false
	}
	env := newEnv(nil)
	if input != nil {
		env.declare("input", input)
	}
	ev := &evalCtx{actor: a, ctx: ctx}
	_, err := ev.evalBody(env, body)
	return err
}

// Action runs the config's action[] block once for one input record,
// per the method in effect (spec.md §4.6):
//   - map: returns the final expression's value.
//   - emit: returns nil; side effects happen via a.Emit.
//   - fold: returns (and stores into tally) the final expression's value.
func (a *Actor) Action(ctx context.Context, timeout time.Duration, input interface{}) (interface{}, error) {
	a.callStack = nil
	if timeout > 0 {
		a.deadline = time.Now().Add(timeout)
		a.hasDeadline = true
	} else {
		a.hasDeadline = false
	}
	env := newEnv(nil)
	env.declare("input", input)
	if a.Engine.Cfg.Method == ast.MethodFold {
		env.declareMutable("tally", a.tally)
	}

	ev := &evalCtx{actor: a, ctx: ctx}
	result, err := ev.evalBody(env, a.Engine.Cfg.Action)
	if err != nil {
		return nil, err
	}

	switch a.Engine.Cfg.Method {
	case ast.MethodFold:
		a.tally = result
		return a.tally, nil
	case ast.MethodEmit:
		return nil, nil
	default: // map
		return result, nil
	}
}
