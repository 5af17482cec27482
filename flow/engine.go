package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/tripgraph/flow/emit"
	"github.com/dshills/tripgraph/flow/store"
)

// Status reports how a run ended.
type Status int

const (
	// StatusCompleted means the run reached a terminal transition.
	StatusCompleted Status = iota

	// StatusPaused means a decision transition suspended the run. The
	// caller owns the returned state and may resume via ResumeAt after
	// mutating it.
	StatusPaused
)

// Options configures Engine execution behavior. Zero values are valid.
type Options struct {
	// MaxSteps bounds the number of phase executions in a single Run or
	// ResumeAt call. If 0, no limit is enforced.
	MaxSteps int

	// Metrics, when non-nil, receives phase latency and outcome
	// observations.
	Metrics *Metrics
}

// Engine executes a workflow described as phases plus a transition table.
//
// The Engine:
//   - Registers named phases (Add) and transitions (Transition, Decide)
//   - Runs phases strictly sequentially from the start phase
//   - Merges each phase's state update via the reducer
//   - Persists state after every phase via the store
//   - Emits observability events via the emitter
//   - Suspends at decision transitions that return Suspend()
//   - Re-enters at any phase via ResumeAt after external state mutation
//
// Type parameter S is the state type shared across the workflow.
type Engine[S any] struct {
	mu sync.RWMutex

	reducer     Reducer[S]
	nodes       map[Phase]Node[S]
	transitions map[Phase]Transition[S]
	startPhase  Phase

	store   store.Store[S]
	emitter emit.Emitter
	opts    Options
}

// New creates an Engine.
//
// Parameters:
//   - reducer: merges phase updates into the running state (required)
//   - st: persistence backend for steps and checkpoints (required)
//   - emitter: observability event receiver (optional, may be nil)
//   - opts: execution configuration
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer:     reducer,
		nodes:       make(map[Phase]Node[S]),
		transitions: make(map[Phase]Transition[S]),
		store:       st,
		emitter:     emitter,
		opts:        opts,
	}
}

// Add registers a phase. Phase names must be unique and non-empty.
func (e *Engine[S]) Add(phase Phase, node Node[S]) error {
	if phase == "" {
		return &EngineError{Message: "phase name cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[phase]; exists {
		return &EngineError{
			Message: "duplicate phase: " + string(phase),
			Code:    "DUPLICATE_PHASE",
		}
	}
	e.nodes[phase] = node
	return nil
}

// StartAt sets the entry phase for Run. The phase must already be registered.
func (e *Engine[S]) StartAt(phase Phase) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[phase]; !exists {
		return &EngineError{
			Message: "start phase does not exist: " + string(phase),
			Code:    "PHASE_NOT_FOUND",
		}
	}
	e.startPhase = phase
	return nil
}

// Transition wires a fixed edge: after from completes, to runs.
func (e *Engine[S]) Transition(from, to Phase) error {
	if from == "" || to == "" {
		return &EngineError{Message: "transition phases cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.transitions[from] = Transition[S]{To: to}
	return nil
}

// Decide wires a decision transition: after from completes, decide is
// evaluated against the merged state to choose the next phase, suspend,
// or terminate.
func (e *Engine[S]) Decide(from Phase, decide func(state S) Next) error {
	if from == "" {
		return &EngineError{Message: "transition phase cannot be empty"}
	}
	if decide == nil {
		return &EngineError{Message: "decide function cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.transitions[from] = Transition[S]{Decide: decide}
	return nil
}

// Run executes the workflow from the start phase until it pauses or
// completes. The returned state reflects every phase that ran.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, Status, error) {
	var zero S
	if err := e.validate(); err != nil {
		return zero, StatusCompleted, err
	}
	return e.runLoop(ctx, runID, e.startPhase, initial, 0)
}

// ResumeAt re-enters the workflow at the given phase with externally
// mutated state. Step numbering continues from the last persisted step of
// the run, so a resumed run's history reads as one sequence.
func (e *Engine[S]) ResumeAt(ctx context.Context, runID string, from Phase, state S) (S, Status, error) {
	var zero S
	if err := e.validate(); err != nil {
		return zero, StatusCompleted, err
	}

	stepBase := 0
	if _, step, err := e.store.LoadLatest(ctx, runID); err == nil {
		stepBase = step
	} else if !errors.Is(err, store.ErrNotFound) {
		return zero, StatusCompleted, &EngineError{
			Message: "failed to load run history: " + err.Error(),
			Code:    "STORE_ERROR",
		}
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: runID,
			Step:  stepBase,
			Phase: string(from),
			Msg:   "resuming",
		})
	}

	return e.runLoop(ctx, runID, from, state, stepBase)
}

// SaveCheckpoint snapshots the most recent persisted state of a run under
// a caller-chosen label, enabling resumption across process restarts.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID, label string) error {
	state, step, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{
			Message: "cannot create checkpoint: " + err.Error(),
			Code:    "RUN_NOT_FOUND",
		}
	}
	if err := e.store.SaveCheckpoint(ctx, label, state, step); err != nil {
		return &EngineError{
			Message: "failed to save checkpoint: " + err.Error(),
			Code:    "CHECKPOINT_SAVE_FAILED",
		}
	}
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: runID,
			Step:  step,
			Msg:   "checkpoint saved: " + label,
			Meta:  map[string]interface{}{"checkpoint": label},
		})
	}
	return nil
}

// LoadCheckpoint restores a labeled checkpoint's state.
func (e *Engine[S]) LoadCheckpoint(ctx context.Context, label string) (S, error) {
	state, _, err := e.store.LoadCheckpoint(ctx, label)
	if err != nil {
		var zero S
		return zero, &EngineError{
			Message: "checkpoint not found: " + err.Error(),
			Code:    "CHECKPOINT_NOT_FOUND",
		}
	}
	return state, nil
}

func (e *Engine[S]) validate() error {
	if e.reducer == nil {
		return &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if e.startPhase == "" {
		return &EngineError{Message: "start phase not set (call StartAt)", Code: "NO_START_PHASE"}
	}
	return nil
}

func (e *Engine[S]) runLoop(ctx context.Context, runID string, current Phase, state S, stepBase int) (S, Status, error) {
	var zero S
	step := stepBase

	for {
		step++

		if e.opts.MaxSteps > 0 && step-stepBase > e.opts.MaxSteps {
			return zero, StatusCompleted, ErrMaxStepsExceeded
		}

		select {
		case <-ctx.Done():
			return zero, StatusCompleted, ctx.Err()
		default:
		}

		e.mu.RLock()
		node, exists := e.nodes[current]
		trans := e.transitions[current]
		e.mu.RUnlock()

		if !exists {
			return zero, StatusCompleted, &EngineError{
				Message: "phase not found during execution: " + string(current),
				Code:    "PHASE_NOT_FOUND",
			}
		}

		started := time.Now()
		result := node.Run(ctx, state)
		if result.Err != nil {
			if e.opts.Metrics != nil {
				e.opts.Metrics.ObservePhase(runID, string(current), time.Since(started), "error")
			}
			return zero, StatusCompleted, result.Err
		}

		state = e.reducer(state, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, string(current), state); err != nil {
			return zero, StatusCompleted, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		if e.opts.Metrics != nil {
			e.opts.Metrics.ObservePhase(runID, string(current), time.Since(started), "success")
		}
		if e.emitter != nil {
			e.emitter.Emit(emit.Event{
				RunID: runID,
				Step:  step,
				Phase: string(current),
				Msg:   "phase completed",
			})
		}

		next := e.resolve(trans, state)
		switch {
		case next.Terminal:
			return state, StatusCompleted, nil
		case next.Pause:
			if e.opts.Metrics != nil {
				e.opts.Metrics.IncPause(runID, string(current))
			}
			if e.emitter != nil {
				e.emitter.Emit(emit.Event{
					RunID: runID,
					Step:  step,
					Phase: string(current),
					Msg:   "run paused",
				})
			}
			return state, StatusPaused, nil
		default:
			current = next.To
		}
	}
}

// resolve turns a transition entry into a concrete Next. A phase with no
// transition entry is terminal.
func (e *Engine[S]) resolve(t Transition[S], state S) Next {
	if t.Decide != nil {
		return t.Decide(state)
	}
	if t.To != "" {
		return Goto(t.To)
	}
	return Stop()
}
