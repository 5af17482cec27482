package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/tripgraph/flow"
	"github.com/dshills/tripgraph/model"
	"github.com/dshills/tripgraph/travel"
)

// Workflow phase names.
const (
	PhaseEnhance     flow.Phase = "enhance"
	PhaseDraft       flow.Phase = "draft"
	PhaseDecideTools flow.Phase = "decide_tools"
	PhaseRunTools    flow.Phase = "run_tools"
	PhaseRefine      flow.Phase = "refine"
	PhaseHumanReview flow.Phase = "human_review"
	PhaseFinalize    flow.Phase = "finalize"
)

// Planner holds the phase implementations and their collaborators. The
// chat model and dispatcher are injected at construction; phases never
// build clients of their own.
type Planner struct {
	chat       model.ChatModel
	dispatcher *travel.Dispatcher
}

// NewPlanner creates a Planner over the given collaborators.
func NewPlanner(chat model.ChatModel, dispatcher *travel.Dispatcher) *Planner {
	return &Planner{chat: chat, dispatcher: dispatcher}
}

// complete sends the conversation plus one user instruction to the chat
// model and returns the response text.
func (p *Planner) complete(ctx context.Context, s PlanState, instruction string) (string, error) {
	messages := append(s.Conversation[:len(s.Conversation):len(s.Conversation)], model.Message{
		Role:    model.RoleUser,
		Content: instruction,
	})
	out, err := p.chat.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func ok(s PlanState) flow.NodeResult[PlanState] {
	return flow.NodeResult[PlanState]{Delta: s}
}

// enhance clarifies the free-text request. An empty request
// short-circuits with an empty plan.
func (p *Planner) enhance(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	request := strings.TrimSpace(s.RequestFacets.Request)
	if request == "" {
		s.DraftPlan = ""
		return ok(s.withNote("enhance: empty request, nothing to clarify"))
	}

	instruction := fmt.Sprintf(
		"Clarify and enhance this travel request. Identify the traveler's goals, constraints, and preferences, then restate the request clearly.\n\nRequest: %s",
		request)

	text, err := p.complete(ctx, s, instruction)
	if err != nil {
		text = fallbackClarification(s.RequestFacets)
		s = s.withNote("enhance: model unavailable, used fallback clarification (%v)", err)
	} else {
		s = s.withNote("enhance: request clarified")
	}

	s = s.withMessages(
		model.Message{Role: model.RoleUser, Content: instruction},
		model.Message{Role: model.RoleAssistant, Content: text},
	)
	s.DraftPlan = text
	return ok(s)
}

// draft produces a day-numbered outline before any tool data exists.
func (p *Planner) draft(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	instruction := draftPrompt(s)

	text, err := p.complete(ctx, s, instruction)
	if err != nil {
		text = fallbackOutline(s.RequestFacets)
		s = s.withNote("draft: model unavailable, used fallback outline (%v)", err)
	} else {
		s = s.withNote("draft: outline created")
	}

	s = s.withMessages(
		model.Message{Role: model.RoleUser, Content: instruction},
		model.Message{Role: model.RoleAssistant, Content: text},
	)
	s.DraftPlan = text
	return ok(s)
}

func draftPrompt(s PlanState) string {
	req := s.RequestFacets

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a %d-day day-by-day itinerary outline", req.Duration())
	if req.Destination != "" {
		fmt.Fprintf(&sb, " for %s", req.Destination)
	}
	sb.WriteString(".\n")
	if req.DepartDate != "" {
		fmt.Fprintf(&sb, "Travel dates: %s", req.DepartDate)
		if req.ReturnDate != "" {
			fmt.Fprintf(&sb, " to %s", req.ReturnDate)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Label Day 1 as arrival and the last day as departure; keep middle days as general exploration. No booking data is gathered yet, so keep activities generic.\n")
	if s.DraftPlan != "" {
		fmt.Fprintf(&sb, "\nContext from the clarified request:\n%s\n", s.DraftPlan)
	}
	return sb.String()
}

// decideTools asks the model which tools to call, constrained by which
// structured fields are present. A parse failure yields an empty
// selection; a model failure falls back to selecting every eligible tool.
func (p *Planner) decideTools(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	instruction := selectionPrompt(s.RequestFacets)

	text, err := p.complete(ctx, s, instruction)
	if err != nil {
		s.SelectedTools = eligibleTools(s.RequestFacets)
		return ok(s.withNote("decide_tools: model unavailable, selected all eligible tools (%v)", err))
	}

	s.SelectedTools = parseToolSelection(text)
	return ok(s.withNote("decide_tools: selected %d tool(s)", len(s.SelectedTools)))
}

func selectionPrompt(req TripRequest) string {
	yn := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	flightsReady := req.Origin != "" && req.Destination != "" && req.DepartDate != ""
	hotelsReady := req.Destination != "" && req.CheckIn != "" && req.CheckOut != ""
	infoReady := req.Destination != ""

	dest := req.Destination
	if dest == "" {
		dest = "(not specified)"
	}

	var sb strings.Builder
	sb.WriteString("Decide which tools to call for this trip. Available tools and whether their required data is present:\n")
	fmt.Fprintf(&sb, "- find_flights (flights: %s)\n", yn(flightsReady))
	fmt.Fprintf(&sb, "- find_hotels (hotels: %s)\n", yn(hotelsReady))
	fmt.Fprintf(&sb, "- attraction_finder (attractions: %s)\n", yn(infoReady))
	fmt.Fprintf(&sb, "- weather_checker (weather: %s)\n", yn(infoReady))
	fmt.Fprintf(&sb, "\nDestination: %s\n", dest)
	sb.WriteString("Respond with a JSON array of tool identifiers to call, and nothing else.")
	return sb.String()
}

// eligibleTools is the deterministic selection fallback: exactly the
// tools whose data prerequisites are satisfied, in canonical order.
func eligibleTools(req TripRequest) []string {
	tools := []string{}
	if req.Origin != "" && req.Destination != "" && req.DepartDate != "" {
		tools = append(tools, "find_flights")
	}
	if req.Destination != "" && req.CheckIn != "" && req.CheckOut != "" {
		tools = append(tools, "find_hotels")
	}
	if req.Destination != "" {
		tools = append(tools, "attraction_finder", "weather_checker")
	}
	return tools
}

var knownTools = map[string]bool{
	"find_flights":      true,
	"find_hotels":       true,
	"attraction_finder": true,
	"weather_checker":   true,
}

// parseToolSelection extracts the JSON array between the first '[' and
// the last ']' of the response. Anything unparsable is an empty
// selection, and unknown identifiers are dropped.
func parseToolSelection(text string) []string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return []string{}
	}

	var raw []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return []string{}
	}

	selected := []string{}
	for _, name := range raw {
		if knownTools[name] {
			selected = append(selected, name)
		}
	}
	return selected
}

// runTools dispatches the selected tools sequentially and records one
// note per outcome plus a blanket completion note. Tool failures become
// error-marker results, never phase errors.
func (p *Planner) runTools(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	outcomes := p.dispatcher.Run(ctx, s.Fields(), s.SelectedTools)

	for _, out := range outcomes {
		switch out.Status {
		case travel.StatusNotSelected:
			s = s.withNote("%s: skipped (not selected)", out.Key)
		case travel.StatusSkipped:
			s = s.withNote("%s: skipped (missing %s)", out.Key, strings.Join(out.Missing, ", "))
		case travel.StatusError:
			s = s.withToolResult(out.Key, out.Result)
			s = s.withNote("%s: error", out.Key)
		default:
			s = s.withToolResult(out.Key, out.Result)
			s = s.withNote("%s: %s data", out.Key, Classify(out.Result))
		}
	}

	return ok(s.withNote("tools executed"))
}

// refine merges tool data and reviewer feedback into the final plan.
// Feedback, when present, takes priority over everything else and is
// consumed: it is cleared and approval is reset.
func (p *Planner) refine(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	instruction := refinePrompt(s)

	text, err := p.complete(ctx, s, instruction)
	if err != nil {
		text = fallbackRefined(s)
		s = s.withNote("refine: model unavailable, used fallback template (%v)", err)
	} else {
		s = s.withNote("refine: plan updated")
	}

	s = s.withMessages(
		model.Message{Role: model.RoleUser, Content: instruction},
		model.Message{Role: model.RoleAssistant, Content: text},
	)
	s.FinalPlan = text
	s.Approved = false
	s.HumanFeedback = ""
	return ok(s)
}

func refinePrompt(s PlanState) string {
	var sb strings.Builder
	if s.HumanFeedback != "" {
		fmt.Fprintf(&sb, "Refine the travel plan below. Prioritize this traveler feedback above everything else:\n%s\n\n", s.HumanFeedback)
	} else {
		sb.WriteString("Refine the travel plan below by merging the real data gathered for each category into the day-by-day structure.\n\n")
	}
	fmt.Fprintf(&sb, "Current plan:\n%s\n", s.DraftPlan)
	if len(s.ToolResults) > 0 {
		fmt.Fprintf(&sb, "\nGathered data:\n%s\n", FormatToolResults(s.ToolResults))
	}
	return sb.String()
}

// humanReview is a pure state-flagging step marking the pause point. The
// engine stops immediately after it runs and control returns to the
// external caller.
func (p *Planner) humanReview(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	s.AwaitingReview = true
	return ok(s.withNote("human_review: awaiting decision (round %d)", s.IterationCount+1))
}

// finalize guarantees a non-empty final plan and marks the session
// approved and complete.
func (p *Planner) finalize(ctx context.Context, s PlanState) flow.NodeResult[PlanState] {
	if strings.TrimSpace(s.FinalPlan) == "" {
		if strings.TrimSpace(s.DraftPlan) != "" {
			s.FinalPlan = s.DraftPlan
			s = s.withNote("finalize: no refined plan, promoted draft")
		} else {
			s.FinalPlan = fallbackOutline(s.RequestFacets)
			s = s.withNote("finalize: no plan text produced, generated outline")
		}
	}
	s.AwaitingReview = false
	s.Approved = true
	return ok(s.withNote("finalize: plan complete"))
}
