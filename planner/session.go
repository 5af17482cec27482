package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/tripgraph/flow"
	"github.com/dshills/tripgraph/flow/emit"
	"github.com/dshills/tripgraph/flow/store"
	"github.com/dshills/tripgraph/model"
	"github.com/dshills/tripgraph/travel"
)

// SessionConfig configures a planning session. Chat and Dispatcher are
// required; everything else has working defaults.
type SessionConfig struct {
	// Chat is the language-model collaborator.
	Chat model.ChatModel

	// Dispatcher executes selected tools.
	Dispatcher *travel.Dispatcher

	// Store persists per-phase state. Defaults to an in-memory store.
	Store store.Store[PlanState]

	// Emitter receives workflow events. Nil disables emission.
	Emitter emit.Emitter

	// Metrics, when non-nil, records phase latency, pauses, and tool
	// call outcomes.
	Metrics *flow.Metrics

	// RunID identifies this session in the store and in events. Defaults
	// to a timestamp-derived id.
	RunID string

	// MaxSteps bounds phase executions per engine entry as a runaway
	// guard. Defaults to 64.
	MaxSteps int
}

// Session drives one trip-planning workflow: a single run to the first
// human-review pause, then zero or more review rounds until the plan is
// approved or the iteration limit forces completion.
//
// Session methods are safe for concurrent use, though the workflow
// itself is strictly sequential.
type Session struct {
	mu sync.Mutex

	engine  *flow.Engine[PlanState]
	metrics *flow.Metrics
	runID   string
	state   PlanState
	status  flow.Status
	started bool
}

// NewSession builds a session for the given trip request.
func NewSession(req TripRequest, cfg SessionConfig) (*Session, error) {
	if cfg.Chat == nil {
		return nil, fmt.Errorf("planner: chat model is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("planner: dispatcher is required")
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemStore[PlanState]()
	}
	if cfg.RunID == "" {
		cfg.RunID = fmt.Sprintf("trip-%d", time.Now().UnixNano())
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = 64
	}
	if cfg.Metrics != nil && cfg.Dispatcher.Observe == nil {
		metrics := cfg.Metrics
		cfg.Dispatcher.Observe = func(tool string, status travel.Status) {
			metrics.IncToolCall(tool, string(status))
		}
	}

	p := NewPlanner(cfg.Chat, cfg.Dispatcher)
	engine := flow.New(ReplaceReducer, cfg.Store, cfg.Emitter, flow.Options{
		MaxSteps: cfg.MaxSteps,
		Metrics:  cfg.Metrics,
	})

	phases := []struct {
		name flow.Phase
		node flow.NodeFunc[PlanState]
	}{
		{PhaseEnhance, p.enhance},
		{PhaseDraft, p.draft},
		{PhaseDecideTools, p.decideTools},
		{PhaseRunTools, p.runTools},
		{PhaseRefine, p.refine},
		{PhaseHumanReview, p.humanReview},
		{PhaseFinalize, p.finalize},
	}
	for _, ph := range phases {
		if err := engine.Add(ph.name, ph.node); err != nil {
			return nil, err
		}
	}

	edges := []struct{ from, to flow.Phase }{
		{PhaseEnhance, PhaseDraft},
		{PhaseDraft, PhaseDecideTools},
		{PhaseDecideTools, PhaseRunTools},
		{PhaseRunTools, PhaseRefine},
		{PhaseRefine, PhaseHumanReview},
	}
	for _, e := range edges {
		if err := engine.Transition(e.from, e.to); err != nil {
			return nil, err
		}
	}
	if err := engine.Decide(PhaseHumanReview, routeNext); err != nil {
		return nil, err
	}
	if err := engine.StartAt(PhaseEnhance); err != nil {
		return nil, err
	}

	return &Session{
		engine:  engine,
		metrics: cfg.Metrics,
		runID:   cfg.RunID,
		state:   NewPlanState(req),
	}, nil
}

// routeNext maps the router's decision onto an engine transition. An
// unresolved pause suspends the run; finalize has no outgoing edge, so
// reaching it terminates.
func routeNext(s PlanState) flow.Next {
	switch RouteAfterReview(s) {
	case DecisionFinalize:
		return flow.Goto(PhaseFinalize)
	case DecisionRefine:
		return flow.Goto(PhaseRefine)
	default:
		if s.AwaitingReview {
			return flow.Suspend()
		}
		return flow.Stop()
	}
}

// RunID returns the session's run identifier.
func (s *Session) RunID() string { return s.runID }

// State returns the current planning state.
func (s *Session) State() PlanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AwaitingReview reports whether the session is paused for a decision.
func (s *Session) AwaitingReview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AwaitingReview
}

// Done reports whether the workflow has reached a terminal phase.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.status == flow.StatusCompleted
}

// RunToPause executes the fixed pipeline from enhance through the first
// human-review pause and returns the paused state for presentation.
func (s *Session) RunToPause(ctx context.Context) (PlanState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return s.state, fmt.Errorf("planner: session already started")
	}

	state, status, err := s.engine.Run(ctx, s.runID, s.state)
	if err != nil {
		return s.state, err
	}
	s.started = true
	s.state, s.status = state, status
	s.afterRunLocked(ctx)
	return state, nil
}

// Approve accepts the current plan and runs the workflow to completion.
func (s *Session) Approve(ctx context.Context) (PlanState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAwaitingLocked(); err != nil {
		return s.state, err
	}
	s.state.Approved = true
	s.state.HumanFeedback = ""
	s.state.AwaitingReview = false
	s.state.IterationCount++
	return s.resumeLocked(ctx)
}

// RequestChanges submits reviewer feedback and re-runs refinement,
// producing a fresh pause (or a forced completion once the iteration
// limit is reached).
func (s *Session) RequestChanges(ctx context.Context, feedback string) (PlanState, error) {
	if feedback == "" {
		return s.State(), fmt.Errorf("planner: feedback text is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAwaitingLocked(); err != nil {
		return s.state, err
	}
	s.state.Approved = false
	s.state.HumanFeedback = feedback
	s.state.AwaitingReview = false
	s.state.IterationCount++
	return s.resumeLocked(ctx)
}

// Regenerate asks for a from-scratch rework of the plan.
func (s *Session) Regenerate(ctx context.Context) (PlanState, error) {
	return s.RequestChanges(ctx, "regenerate from scratch")
}

func (s *Session) checkAwaitingLocked() error {
	if !s.state.AwaitingReview {
		return fmt.Errorf("planner: session is not awaiting review")
	}
	return nil
}

// resumeLocked re-enters the workflow after an external decision. The
// router picks the entry phase; a no-signal verdict is a safety stop,
// recorded but not raised.
func (s *Session) resumeLocked(ctx context.Context) (PlanState, error) {
	var from flow.Phase
	switch RouteAfterReview(s.state) {
	case DecisionFinalize:
		from = PhaseFinalize
	case DecisionRefine:
		from = PhaseRefine
	default:
		s.state = s.state.withNote("router: no actionable signal, stopping")
		return s.state, nil
	}

	state, status, err := s.engine.ResumeAt(ctx, s.runID, from, s.state)
	if err != nil {
		return s.state, err
	}
	s.state, s.status = state, status
	s.afterRunLocked(ctx)
	return state, nil
}

// afterRunLocked records run-level outcomes: a labeled checkpoint at
// each review pause (best effort) and a completion counter at terminal.
func (s *Session) afterRunLocked(ctx context.Context) {
	switch s.status {
	case flow.StatusPaused:
		label := fmt.Sprintf("%s-review-%d", s.runID, s.state.IterationCount+1)
		_ = s.engine.SaveCheckpoint(ctx, s.runID, label)
	case flow.StatusCompleted:
		if s.metrics != nil {
			s.metrics.IncRun("completed")
		}
	}
}
