package planner

// MaxIterations caps the number of full review rounds a session may
// consume. Both the router and the front ends' auto-approve logic share
// this bound, guaranteeing the refine/review loop terminates.
const MaxIterations = 5

// Decision is the router's verdict after a review round.
type Decision string

const (
	// DecisionFinalize proceeds to the finalize phase.
	DecisionFinalize Decision = "finalize"

	// DecisionRefine loops back into the refine phase.
	DecisionRefine Decision = "refine"

	// DecisionEnd exits immediately: either an unresolved pause or an
	// inconsistent-state safety stop.
	DecisionEnd Decision = "end"
)

// RouteAfterReview decides where the workflow goes after human review.
//
// Precedence:
//  1. Unresolved pause (awaiting_review still set) -> end
//  2. Approved -> finalize
//  3. Feedback present and rounds remain -> refine
//  4. Iteration limit reached -> finalize, regardless of approval
//  5. No actionable signal -> end (safety stop, not an error)
func RouteAfterReview(s PlanState) Decision {
	switch {
	case s.AwaitingReview:
		return DecisionEnd
	case s.Approved:
		return DecisionFinalize
	case s.HumanFeedback != "" && s.IterationCount < MaxIterations:
		return DecisionRefine
	case s.IterationCount >= MaxIterations:
		return DecisionFinalize
	default:
		return DecisionEnd
	}
}
