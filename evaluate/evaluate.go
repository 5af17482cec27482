// Package evaluate scores a completed planning session: execution
// statistics derived from the session record and a heuristic quality
// score for the produced plan.
package evaluate

import (
	"fmt"
	"strings"

	"github.com/dshills/tripgraph/planner"
)

// Quality score component weights. They sum to 1.
const (
	weightCompleteness = 0.25
	weightRelevance    = 0.25
	weightCoherence    = 0.20
	weightPracticality = 0.20
	weightDetail       = 0.10
)

// ExecutionStats summarizes what a session did.
type ExecutionStats struct {
	Iterations     int  `json:"iterations"`
	ToolsSelected  int  `json:"tools_selected"`
	ToolResults    int  `json:"tool_results"`
	ToolErrors     int  `json:"tool_errors"`
	ToolSkips      int  `json:"tool_skips"`
	ModelFallbacks int  `json:"model_fallbacks"`
	Notes          int  `json:"notes"`
	Approved       bool `json:"approved"`
}

// QualityScore holds the per-dimension scores in [0, 1] and the
// weighted overall score.
type QualityScore struct {
	Completeness float64 `json:"completeness"`
	Relevance    float64 `json:"relevance"`
	Coherence    float64 `json:"coherence"`
	Practicality float64 `json:"practicality"`
	Detail       float64 `json:"detail"`
	Overall      float64 `json:"overall"`
}

// Stats derives execution statistics from a session's final state.
func Stats(state planner.PlanState) ExecutionStats {
	stats := ExecutionStats{
		Iterations:    state.IterationCount,
		ToolsSelected: len(state.SelectedTools),
		ToolResults:   len(state.ToolResults),
		Notes:         len(state.Notes),
		Approved:      state.Approved,
	}

	for _, result := range state.ToolResults {
		if planner.Classify(result) == planner.QualityError {
			stats.ToolErrors++
		}
	}
	for _, note := range state.Notes {
		if strings.Contains(note, "skipped") {
			stats.ToolSkips++
		}
		if strings.Contains(note, "model unavailable") {
			stats.ModelFallbacks++
		}
	}
	return stats
}

// Score rates the produced plan on five heuristic dimensions and
// combines them into a weighted overall score.
func Score(state planner.PlanState) QualityScore {
	plan := state.FinalPlan
	if plan == "" {
		plan = state.DraftPlan
	}

	score := QualityScore{
		Completeness: completeness(plan, state.RequestFacets),
		Relevance:    relevance(plan, state.RequestFacets),
		Coherence:    coherence(plan, state.RequestFacets),
		Practicality: practicality(state),
		Detail:       detail(plan),
	}
	score.Overall = weightCompleteness*score.Completeness +
		weightRelevance*score.Relevance +
		weightCoherence*score.Coherence +
		weightPracticality*score.Practicality +
		weightDetail*score.Detail
	return score
}

// completeness checks that a plan exists and covers every trip day.
func completeness(plan string, req planner.TripRequest) float64 {
	if strings.TrimSpace(plan) == "" {
		return 0
	}

	covered := 0
	for day := 1; day <= req.Duration(); day++ {
		if strings.Contains(plan, fmt.Sprintf("Day %d", day)) {
			covered++
		}
	}
	return 0.4 + 0.6*float64(covered)/float64(req.Duration())
}

// relevance checks that the plan speaks to the request's destination and
// interests.
func relevance(plan string, req planner.TripRequest) float64 {
	lower := strings.ToLower(plan)
	score := 0.0

	if req.Destination == "" || strings.Contains(lower, strings.ToLower(cityOf(req.Destination))) {
		score += 0.5
	}
	if req.Interests == "" {
		score += 0.5
	} else {
		matched := 0
		terms := strings.Split(strings.ToLower(req.Interests), ",")
		for _, term := range terms {
			if strings.Contains(lower, strings.TrimSpace(term)) {
				matched++
			}
		}
		score += 0.5 * float64(matched) / float64(len(terms))
	}
	return score
}

// coherence checks that day headings appear in chronological order.
func coherence(plan string, req planner.TripRequest) float64 {
	lastIdx := -1
	ordered := true
	found := 0
	for day := 1; day <= req.Duration(); day++ {
		idx := strings.Index(plan, fmt.Sprintf("Day %d", day))
		if idx < 0 {
			continue
		}
		found++
		if idx < lastIdx {
			ordered = false
		}
		lastIdx = idx
	}
	if found == 0 {
		return 0.3
	}
	if !ordered {
		return 0.5
	}
	return 1.0
}

// practicality rewards plans grounded in gathered data, discounted for
// degraded sources.
func practicality(state planner.PlanState) float64 {
	if len(state.ToolResults) == 0 {
		return 0.3
	}

	live := 0
	usable := 0
	for _, result := range state.ToolResults {
		q := planner.Classify(result)
		if q != planner.QualityError {
			usable++
		}
		if q == planner.QualityLive {
			live++
		}
	}

	total := float64(len(state.ToolResults))
	return 0.4 + 0.4*float64(usable)/total + 0.2*float64(live)/total
}

// detail rates how much substance the plan carries.
func detail(plan string) float64 {
	lines := 0
	for _, line := range strings.Split(plan, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	switch {
	case lines >= 15:
		return 1.0
	case lines >= 8:
		return 0.7
	case lines >= 3:
		return 0.4
	default:
		return 0.1
	}
}

func cityOf(destination string) string {
	if i := strings.Index(destination, ","); i >= 0 {
		destination = destination[:i]
	}
	return strings.TrimSpace(destination)
}
