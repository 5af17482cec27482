// Package flow provides a typed finite-state-machine executor for
// multi-phase workflows with pause/resume support.
package flow

import "context"

// Phase names a single step in a workflow. Phases are registered on an
// Engine together with a transition table that decides what runs next.
type Phase string

// Next is the outcome of a transition decision after a phase completes.
//
// Exactly one of the three modes applies:
//   - To != "": continue with the named phase
//   - Pause: suspend the run and return control to the caller
//   - Terminal: the workflow is complete
type Next struct {
	// To is the next phase to execute.
	To Phase

	// Pause suspends execution. The engine returns the current state with
	// StatusPaused; the caller resumes later via ResumeAt after mutating
	// the state externally.
	Pause bool

	// Terminal stops execution with StatusCompleted.
	Terminal bool
}

// Goto returns a Next that continues with the given phase.
func Goto(p Phase) Next { return Next{To: p} }

// Suspend returns a Next that pauses the run at the current phase.
func Suspend() Next { return Next{Pause: true} }

// Stop returns a Next that terminates the run.
func Stop() Next { return Next{Terminal: true} }

// Node is a processing unit bound to a phase. It receives state of type S,
// performs its work, and returns a NodeResult with the updated state.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult is the output of one phase execution.
type NodeResult[S any] struct {
	// Delta is the state update produced by this phase. It is merged with
	// the current state via the engine's reducer.
	Delta S

	// Err halts the workflow if non-nil. Phases that must never abort the
	// run are expected to degrade internally and return Err == nil.
	Err error
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements Node.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// Reducer merges a phase's state update into the previous state.
// It must be deterministic.
type Reducer[S any] func(prev, delta S) S

// Transition describes where execution goes after a phase completes.
//
// A fixed transition sets To. A decision transition sets Decide, which is
// evaluated against the post-merge state and takes precedence over To.
// A phase with neither is terminal.
type Transition[S any] struct {
	To     Phase
	Decide func(state S) Next
}
