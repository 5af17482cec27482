package planner

import "testing"

// TestRouteAfterReview verifies the decision precedence after a review
// round.
func TestRouteAfterReview(t *testing.T) {
	tests := []struct {
		name  string
		state PlanState
		want  Decision
	}{
		{
			"unresolved pause ends",
			PlanState{AwaitingReview: true},
			DecisionEnd,
		},
		{
			"unresolved pause ends even with feedback",
			PlanState{AwaitingReview: true, HumanFeedback: "more beaches"},
			DecisionEnd,
		},
		{
			"approved finalizes",
			PlanState{Approved: true},
			DecisionFinalize,
		},
		{
			"feedback under the limit refines",
			PlanState{HumanFeedback: "more beaches", IterationCount: 1},
			DecisionRefine,
		},
		{
			"feedback on the last allowed round refines",
			PlanState{HumanFeedback: "more beaches", IterationCount: MaxIterations - 1},
			DecisionRefine,
		},
		{
			"feedback at the limit forces finalize",
			PlanState{HumanFeedback: "more beaches", IterationCount: MaxIterations},
			DecisionFinalize,
		},
		{
			"limit reached without approval forces finalize",
			PlanState{IterationCount: MaxIterations},
			DecisionFinalize,
		},
		{
			"no signal is a safety stop",
			PlanState{IterationCount: 2},
			DecisionEnd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RouteAfterReview(tt.state); got != tt.want {
				t.Errorf("RouteAfterReview = %q, want %q", got, tt.want)
			}
		})
	}
}
