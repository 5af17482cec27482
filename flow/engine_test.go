package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dshills/tripgraph/flow/emit"
	"github.com/dshills/tripgraph/flow/store"
)

// testState is the workflow state used across engine tests.
type testState struct {
	Value   string
	Counter int
	Visited []string
}

func testReducer(prev, delta testState) testState {
	return delta
}

func visit(name string) NodeFunc[testState] {
	return func(ctx context.Context, s testState) NodeResult[testState] {
		s.Counter++
		s.Visited = append(s.Visited[:len(s.Visited):len(s.Visited)], name)
		return NodeResult[testState]{Delta: s}
	}
}

// mockEmitter records every emitted event.
type mockEmitter struct {
	mu     sync.Mutex
	events []emit.Event
}

func (m *mockEmitter) Emit(event emit.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockEmitter) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]string, len(m.events))
	for i, e := range m.events {
		msgs[i] = e.Msg
	}
	return msgs
}

func linearEngine(t *testing.T, emitter emit.Emitter, opts Options) *Engine[testState] {
	t.Helper()

	engine := New(testReducer, store.NewMemStore[testState](), emitter, opts)
	for _, phase := range []Phase{"one", "two", "three"} {
		if err := engine.Add(phase, visit(string(phase))); err != nil {
			t.Fatalf("Add(%s) failed: %v", phase, err)
		}
	}
	if err := engine.Transition("one", "two"); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := engine.Transition("two", "three"); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := engine.StartAt("one"); err != nil {
		t.Fatalf("StartAt failed: %v", err)
	}
	return engine
}

// TestEngine_Run verifies linear execution to the terminal phase.
func TestEngine_Run(t *testing.T) {
	t.Run("runs phases in order to terminal", func(t *testing.T) {
		engine := linearEngine(t, nil, Options{})

		state, status, err := engine.Run(context.Background(), "run-1", testState{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if status != StatusCompleted {
			t.Errorf("expected StatusCompleted, got %v", status)
		}
		if state.Counter != 3 {
			t.Errorf("expected 3 phases executed, got %d", state.Counter)
		}
		want := []string{"one", "two", "three"}
		for i, name := range want {
			if i >= len(state.Visited) || state.Visited[i] != name {
				t.Fatalf("expected visit order %v, got %v", want, state.Visited)
			}
		}
	})

	t.Run("fails without start phase", func(t *testing.T) {
		engine := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := engine.Add("one", visit("one")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		_, _, err := engine.Run(context.Background(), "run-2", testState{})
		if err == nil {
			t.Error("expected error without StartAt")
		}
	})

	t.Run("node error halts the run", func(t *testing.T) {
		engine := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		boom := errors.New("boom")
		err := engine.Add("one", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
			return NodeResult[testState]{Err: boom}
		}))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := engine.StartAt("one"); err != nil {
			t.Fatalf("StartAt failed: %v", err)
		}

		_, _, runErr := engine.Run(context.Background(), "run-3", testState{})
		if !errors.Is(runErr, boom) {
			t.Errorf("expected node error, got %v", runErr)
		}
	})

	t.Run("max steps bound", func(t *testing.T) {
		engine := New(testReducer, store.NewMemStore[testState](), nil, Options{MaxSteps: 3})
		if err := engine.Add("loop", visit("loop")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := engine.Transition("loop", "loop"); err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if err := engine.StartAt("loop"); err != nil {
			t.Fatalf("StartAt failed: %v", err)
		}

		_, _, err := engine.Run(context.Background(), "run-4", testState{})
		if !errors.Is(err, ErrMaxStepsExceeded) {
			t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		engine := linearEngine(t, nil, Options{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := engine.Run(ctx, "run-5", testState{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestEngine_Registration verifies phase and transition validation.
func TestEngine_Registration(t *testing.T) {
	t.Run("duplicate phase rejected", func(t *testing.T) {
		engine := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := engine.Add("one", visit("one")); err != nil {
			t.Fatalf("first Add failed: %v", err)
		}
		if err := engine.Add("one", visit("one")); err == nil {
			t.Error("expected duplicate phase error")
		}
	})

	t.Run("empty phase rejected", func(t *testing.T) {
		engine := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := engine.Add("", visit("x")); err == nil {
			t.Error("expected error for empty phase name")
		}
	})

	t.Run("start at unknown phase rejected", func(t *testing.T) {
		engine := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := engine.StartAt("missing"); err == nil {
			t.Error("expected error for unknown start phase")
		}
	})
}

// TestEngine_PauseResume verifies decision suspension and re-entry with
// continued step numbering.
func TestEngine_PauseResume(t *testing.T) {
	build := func(t *testing.T, emitter emit.Emitter) (*Engine[testState], store.Store[testState]) {
		t.Helper()
		st := store.NewMemStore[testState]()
		engine := New(testReducer, st, emitter, Options{})

		if err := engine.Add("work", visit("work")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := engine.Add("gate", visit("gate")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := engine.Add("wrap", visit("wrap")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := engine.Transition("work", "gate"); err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
		if err := engine.Decide("gate", func(s testState) Next {
			if s.Value == "go" {
				return Goto("wrap")
			}
			return Suspend()
		}); err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if err := engine.StartAt("work"); err != nil {
			t.Fatalf("StartAt failed: %v", err)
		}
		return engine, st
	}

	t.Run("suspends at decision and resumes", func(t *testing.T) {
		emitter := &mockEmitter{}
		engine, st := build(t, emitter)

		state, status, err := engine.Run(context.Background(), "pr-1", testState{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if status != StatusPaused {
			t.Fatalf("expected StatusPaused, got %v", status)
		}

		state.Value = "go"
		state, status, err = engine.ResumeAt(context.Background(), "pr-1", "gate", state)
		if err != nil {
			t.Fatalf("ResumeAt failed: %v", err)
		}
		if status != StatusCompleted {
			t.Errorf("expected StatusCompleted after resume, got %v", status)
		}
		if state.Counter != 4 {
			t.Errorf("expected 4 phase executions total, got %d", state.Counter)
		}

		_, step, err := st.LoadLatest(context.Background(), "pr-1")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if step != 4 {
			t.Errorf("expected step numbering to continue to 4, got %d", step)
		}

		msgs := emitter.messages()
		foundPause, foundResume := false, false
		for _, msg := range msgs {
			if msg == "run paused" {
				foundPause = true
			}
			if msg == "resuming" {
				foundResume = true
			}
		}
		if !foundPause || !foundResume {
			t.Errorf("expected pause and resume events, got %v", msgs)
		}
	})

	t.Run("resume of unknown run starts numbering fresh", func(t *testing.T) {
		engine, st := build(t, nil)

		state, status, err := engine.ResumeAt(context.Background(), "pr-new", "work", testState{Value: "go"})
		if err != nil {
			t.Fatalf("ResumeAt failed: %v", err)
		}
		if status != StatusCompleted {
			t.Errorf("expected StatusCompleted, got %v", status)
		}
		if state.Counter != 3 {
			t.Errorf("expected 3 executions, got %d", state.Counter)
		}

		_, step, err := st.LoadLatest(context.Background(), "pr-new")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if step != 3 {
			t.Errorf("expected step 3, got %d", step)
		}
	})
}

// TestEngine_Checkpoints verifies labeled checkpoint save and restore.
func TestEngine_Checkpoints(t *testing.T) {
	t.Run("save and load", func(t *testing.T) {
		engine := linearEngine(t, nil, Options{})

		if _, _, err := engine.Run(context.Background(), "cp-1", testState{Value: "v"}); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if err := engine.SaveCheckpoint(context.Background(), "cp-1", "label-1"); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}

		state, err := engine.LoadCheckpoint(context.Background(), "label-1")
		if err != nil {
			t.Fatalf("LoadCheckpoint failed: %v", err)
		}
		if state.Counter != 3 {
			t.Errorf("expected checkpointed counter 3, got %d", state.Counter)
		}
	})

	t.Run("checkpoint of unknown run fails", func(t *testing.T) {
		engine := linearEngine(t, nil, Options{})
		if err := engine.SaveCheckpoint(context.Background(), "missing", "label"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("load of unknown label fails", func(t *testing.T) {
		engine := linearEngine(t, nil, Options{})
		if _, err := engine.LoadCheckpoint(context.Background(), "missing"); err == nil {
			t.Error("expected error for unknown checkpoint")
		}
	})
}
