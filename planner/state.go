// Package planner implements the travel-itinerary planning workflow: a
// bounded sequence of clarify, draft, tool-selection, tool-execution,
// and refinement phases with a human-in-the-loop approval cycle.
package planner

import (
	"fmt"

	"github.com/dshills/tripgraph/model"
	"github.com/dshills/tripgraph/travel"
)

// TripRequest is the immutable input facet of a planning session. Dates
// are calendar dates in YYYY-MM-DD form; an empty field means "not yet
// known", not invalid.
type TripRequest struct {
	// Request is the traveler's free-text description of the trip.
	Request string `json:"request"`

	Origin       string `json:"origin,omitempty"`
	Destination  string `json:"destination,omitempty"`
	DepartDate   string `json:"depart_date,omitempty"`
	ReturnDate   string `json:"return_date,omitempty"`
	CheckIn      string `json:"check_in,omitempty"`
	CheckOut     string `json:"check_out,omitempty"`
	Interests    string `json:"interests,omitempty"`
	DurationDays int    `json:"duration_days,omitempty"`
}

// Fields returns the structured fields as a map keyed by the shared
// field names tool bindings use.
func (r TripRequest) Fields() map[string]string {
	return map[string]string{
		travel.FieldOrigin:      r.Origin,
		travel.FieldDestination: r.Destination,
		travel.FieldDepartDate:  r.DepartDate,
		travel.FieldReturnDate:  r.ReturnDate,
		travel.FieldCheckIn:     r.CheckIn,
		travel.FieldCheckOut:    r.CheckOut,
		travel.FieldInterests:   r.Interests,
	}
}

// Duration returns the trip length in days, defaulting to 3 when the
// request did not specify one.
func (r TripRequest) Duration() int {
	if r.DurationDays > 0 {
		return r.DurationDays
	}
	return 3
}

// PlanState is the single record flowing through the planning workflow.
// Each phase returns an updated copy; the previous value is never
// mutated in place.
type PlanState struct {
	// RequestFacets is the immutable trip request this session plans for.
	RequestFacets TripRequest `json:"request_facets"`

	// Conversation is the append-only, chronological message history used
	// as model context.
	Conversation []model.Message `json:"conversation"`

	// DraftPlan is the outline produced before tool data is available.
	DraftPlan string `json:"draft_plan"`

	// FinalPlan is the plan produced after merging tool data and
	// feedback; authoritative once set.
	FinalPlan string `json:"final_plan"`

	// SelectedTools is the tool selection for the current pass,
	// recomputed each pass rather than accumulated.
	SelectedTools []string `json:"selected_tools"`

	// ToolResults maps a stable result key (flights, hotels, attractions,
	// weather) to result text or an error marker. Keys are added, never
	// overwritten by a different tool.
	ToolResults map[string]string `json:"tool_results"`

	// HumanFeedback is set by the external reviewer and cleared once the
	// refine phase consumes it.
	HumanFeedback string `json:"human_feedback"`

	// Approved is true once the reviewer accepts the plan.
	Approved bool `json:"approved"`

	// AwaitingReview is true exactly while the workflow is paused at
	// human review.
	AwaitingReview bool `json:"awaiting_review"`

	// IterationCount counts completed review rounds. It never decreases.
	IterationCount int `json:"iteration_count"`

	// Notes is an append-only diagnostic log of phase outcomes. It never
	// drives control decisions.
	Notes []string `json:"notes"`
}

// NewPlanState creates the initial state for a session.
func NewPlanState(req TripRequest) PlanState {
	return PlanState{
		RequestFacets: req,
		ToolResults:   make(map[string]string),
	}
}

// Fields returns the session's structured fields for tool dispatch.
func (s PlanState) Fields() map[string]string {
	return s.RequestFacets.Fields()
}

// withNote returns a copy with a formatted note appended. The full-slice
// expression keeps the append from aliasing an earlier copy's backing
// array.
func (s PlanState) withNote(format string, args ...interface{}) PlanState {
	s.Notes = append(s.Notes[:len(s.Notes):len(s.Notes)], fmt.Sprintf(format, args...))
	return s
}

// withMessages returns a copy with messages appended to the conversation.
func (s PlanState) withMessages(msgs ...model.Message) PlanState {
	s.Conversation = append(s.Conversation[:len(s.Conversation):len(s.Conversation)], msgs...)
	return s
}

// withToolResult returns a copy with one result recorded under key.
func (s PlanState) withToolResult(key, result string) PlanState {
	merged := make(map[string]string, len(s.ToolResults)+1)
	for k, v := range s.ToolResults {
		merged[k] = v
	}
	merged[key] = result
	s.ToolResults = merged
	return s
}

// ReplaceReducer is the workflow reducer: each phase returns the full
// updated state, so the delta simply replaces the previous value.
func ReplaceReducer(prev, delta PlanState) PlanState {
	return delta
}
