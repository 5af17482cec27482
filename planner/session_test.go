package planner

import (
	"context"
	"strings"
	"testing"

	"github.com/dshills/tripgraph/model"
	"github.com/dshills/tripgraph/travel"
)

func offlineSession(t *testing.T, req TripRequest) *Session {
	t.Helper()

	dispatcher := travel.NewDispatcher(travel.DefaultRegistry(travel.Config{Offline: true}), nil)
	session, err := NewSession(req, SessionConfig{
		Chat:       model.NewOfflineModel(),
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return session
}

// TestSession_FreeTextOnly runs a request with no structured fields: no
// flights or hotels are selected, no tool results are gathered, and
// every tool is noted as skipped.
func TestSession_FreeTextOnly(t *testing.T) {
	ctx := context.Background()
	session := offlineSession(t, TripRequest{Request: "A relaxing week somewhere warm"})

	state, err := session.RunToPause(ctx)
	if err != nil {
		t.Fatalf("RunToPause failed: %v", err)
	}

	if !state.AwaitingReview {
		t.Fatal("expected pause at human review")
	}
	if state.Approved {
		t.Error("awaiting review implies not approved")
	}
	for _, tool := range state.SelectedTools {
		if tool == "find_flights" || tool == "find_hotels" {
			t.Errorf("tool selected without prerequisites: %v", state.SelectedTools)
		}
	}
	if len(state.ToolResults) != 0 {
		t.Errorf("expected empty tool results, got %v", state.ToolResults)
	}

	skips := 0
	for _, note := range state.Notes {
		if strings.Contains(note, "skipped") {
			skips++
		}
	}
	if skips != 4 {
		t.Errorf("expected 4 skip notes, got %d (%v)", skips, state.Notes)
	}
}

// TestSession_FullFields runs a fully-specified request: all four tools
// are attempted and produce results.
func TestSession_FullFields(t *testing.T) {
	ctx := context.Background()
	session := offlineSession(t, TripRequest{
		Request:     "Business trip with some sightseeing",
		Origin:      "JFK",
		Destination: "LAX",
		DepartDate:  "2025-06-01",
		CheckIn:     "2025-06-01",
		CheckOut:    "2025-06-05",
	})

	state, err := session.RunToPause(ctx)
	if err != nil {
		t.Fatalf("RunToPause failed: %v", err)
	}

	if len(state.SelectedTools) != 4 {
		t.Errorf("expected 4 tools selected, got %v", state.SelectedTools)
	}
	if len(state.ToolResults) != 4 {
		t.Fatalf("expected 4 tool results, got %v", state.ToolResults)
	}
	for _, key := range []string{"flights", "hotels", "attractions", "weather"} {
		if state.ToolResults[key] == "" {
			t.Errorf("missing result for %s", key)
		}
	}
	if state.FinalPlan == "" {
		t.Error("expected a refined plan at the review pause")
	}
}

// TestSession_ApproveFirstReview verifies a single-round approval.
func TestSession_ApproveFirstReview(t *testing.T) {
	ctx := context.Background()
	session := offlineSession(t, TripRequest{Request: "Weekend in Paris", Destination: "Paris, France"})

	if _, err := session.RunToPause(ctx); err != nil {
		t.Fatalf("RunToPause failed: %v", err)
	}

	state, err := session.Approve(ctx)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if state.IterationCount != 1 {
		t.Errorf("expected iteration 1, got %d", state.IterationCount)
	}
	if !state.Approved {
		t.Error("expected approved")
	}
	if state.AwaitingReview {
		t.Error("expected awaiting_review cleared")
	}
	if state.FinalPlan == "" {
		t.Error("approved plan must be non-empty")
	}
	if !session.Done() {
		t.Error("session must be complete after approval")
	}

	finalizes := 0
	for _, note := range state.Notes {
		if strings.Contains(note, "finalize: plan complete") {
			finalizes++
		}
	}
	if finalizes != 1 {
		t.Errorf("expected exactly one finalize, got %d", finalizes)
	}
}

// TestSession_FeedbackLoop verifies iteration counting and the forced
// completion at the iteration limit.
func TestSession_FeedbackLoop(t *testing.T) {
	ctx := context.Background()
	session := offlineSession(t, TripRequest{Request: "A week in Rome", Destination: "Rome, Italy"})

	if _, err := session.RunToPause(ctx); err != nil {
		t.Fatalf("RunToPause failed: %v", err)
	}

	var state PlanState
	var err error
	for round := 1; round <= MaxIterations; round++ {
		state, err = session.RequestChanges(ctx, "still not right")
		if err != nil {
			t.Fatalf("RequestChanges round %d failed: %v", round, err)
		}
		if state.IterationCount != round {
			t.Fatalf("round %d: expected iteration %d, got %d", round, round, state.IterationCount)
		}

		if round < MaxIterations {
			if !state.AwaitingReview {
				t.Fatalf("round %d: expected a fresh pause", round)
			}
			if state.Approved {
				t.Fatalf("round %d: awaiting review implies not approved", round)
			}
		}
	}

	if state.AwaitingReview {
		t.Error("expected forced completion at the iteration limit")
	}
	if !session.Done() {
		t.Error("session must be complete after the limit is reached")
	}
	if state.FinalPlan == "" {
		t.Error("forced completion must still produce a plan")
	}
}

// TestSession_Regenerate verifies the regenerate round trip: re-enters
// refine and produces a fresh pause.
func TestSession_Regenerate(t *testing.T) {
	ctx := context.Background()
	session := offlineSession(t, TripRequest{Request: "Hiking trip", Destination: "Denver"})

	first, err := session.RunToPause(ctx)
	if err != nil {
		t.Fatalf("RunToPause failed: %v", err)
	}

	state, err := session.Regenerate(ctx)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if !state.AwaitingReview {
		t.Error("expected a fresh pause after regenerate")
	}
	if state.Approved {
		t.Error("regenerate must not approve")
	}
	if state.HumanFeedback != "" {
		t.Error("feedback must be consumed by refine")
	}
	if state.IterationCount != first.IterationCount+1 {
		t.Errorf("expected iteration increment, got %d", state.IterationCount)
	}
}

// TestSession_Determinism verifies that two sessions over the same
// request with the offline model agree on draft and selection.
func TestSession_Determinism(t *testing.T) {
	ctx := context.Background()
	req := TripRequest{
		Request:     "Five days of museums",
		Origin:      "JFK",
		Destination: "Paris, France",
		DepartDate:  "2025-06-01",
		CheckIn:     "2025-06-01",
		CheckOut:    "2025-06-05",
	}

	a, err := offlineSession(t, req).RunToPause(ctx)
	if err != nil {
		t.Fatalf("first RunToPause failed: %v", err)
	}
	b, err := offlineSession(t, req).RunToPause(ctx)
	if err != nil {
		t.Fatalf("second RunToPause failed: %v", err)
	}

	if a.DraftPlan != b.DraftPlan {
		t.Error("expected identical drafts with the deterministic model")
	}
	if len(a.SelectedTools) != len(b.SelectedTools) {
		t.Fatalf("expected identical selections, got %v vs %v", a.SelectedTools, b.SelectedTools)
	}
	for i := range a.SelectedTools {
		if a.SelectedTools[i] != b.SelectedTools[i] {
			t.Errorf("selection mismatch: %v vs %v", a.SelectedTools, b.SelectedTools)
		}
	}
	for key, result := range a.ToolResults {
		if b.ToolResults[key] != result {
			t.Errorf("tool result %s differs between runs", key)
		}
	}
}

// TestSession_Guards verifies contract enforcement around the pause.
func TestSession_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("decision before first run is rejected", func(t *testing.T) {
		session := offlineSession(t, TripRequest{Request: "trip"})
		if _, err := session.Approve(ctx); err == nil {
			t.Error("expected error approving before any run")
		}
	})

	t.Run("second RunToPause is rejected", func(t *testing.T) {
		session := offlineSession(t, TripRequest{Request: "trip"})
		if _, err := session.RunToPause(ctx); err != nil {
			t.Fatalf("RunToPause failed: %v", err)
		}
		if _, err := session.RunToPause(ctx); err == nil {
			t.Error("expected error on repeated RunToPause")
		}
	})

	t.Run("empty feedback is rejected", func(t *testing.T) {
		session := offlineSession(t, TripRequest{Request: "trip"})
		if _, err := session.RunToPause(ctx); err != nil {
			t.Fatalf("RunToPause failed: %v", err)
		}
		if _, err := session.RequestChanges(ctx, ""); err == nil {
			t.Error("expected error for empty feedback")
		}
	})

	t.Run("missing collaborators rejected at construction", func(t *testing.T) {
		if _, err := NewSession(TripRequest{}, SessionConfig{}); err == nil {
			t.Error("expected error without chat model")
		}
	})
}
