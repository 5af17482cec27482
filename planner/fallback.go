package planner

import (
	"fmt"
	"sort"
	"strings"
)

// Deterministic fallback text. Every phase that calls the language model
// substitutes one of these on collaborator failure so the workflow never
// aborts mid-run and the traveler always receives some plan text.

// fallbackClarification restates the request from structured fields.
func fallbackClarification(req TripRequest) string {
	var sb strings.Builder
	sb.WriteString("Travel request summary:\n")
	fmt.Fprintf(&sb, "- Request: %s\n", req.Request)
	if req.Destination != "" {
		fmt.Fprintf(&sb, "- Destination: %s\n", req.Destination)
	}
	if req.Origin != "" {
		fmt.Fprintf(&sb, "- Origin: %s\n", req.Origin)
	}
	if req.DepartDate != "" {
		fmt.Fprintf(&sb, "- Departure: %s\n", req.DepartDate)
	}
	if req.ReturnDate != "" {
		fmt.Fprintf(&sb, "- Return: %s\n", req.ReturnDate)
	}
	if req.Interests != "" {
		fmt.Fprintf(&sb, "- Interests: %s\n", req.Interests)
	}
	fmt.Fprintf(&sb, "- Duration: %d day(s)\n", req.Duration())
	return sb.String()
}

// fallbackOutline builds a generic day-numbered outline: arrival on
// day 1, departure on the last day, exploration in between.
func fallbackOutline(req TripRequest) string {
	days := req.Duration()
	dest := req.Destination
	if dest == "" {
		dest = "your destination"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d-Day Plan for %s\n", days, dest)
	for day := 1; day <= days; day++ {
		switch {
		case day == 1:
			fmt.Fprintf(&sb, "Day 1: Arrival & Orientation - settle in, explore the area near your accommodation.\n")
		case day == days && days > 1:
			fmt.Fprintf(&sb, "Day %d: Departure - final morning activities, check out, travel home.\n", day)
		default:
			fmt.Fprintf(&sb, "Day %d: Exploration - visit local attractions, sample the food scene.\n", day)
		}
	}
	return sb.String()
}

// fallbackRefined assembles a final plan without the model: per-result
// labeled data sections, the generic outline, a data-source summary, and
// a disclaimer if anything was degraded.
func fallbackRefined(s PlanState) string {
	var sb strings.Builder
	sb.WriteString("Trip Plan\n\n")

	keys := sortedResultKeys(s.ToolResults)
	anyDegraded := false
	for _, key := range keys {
		result := s.ToolResults[key]
		label := "live data"
		if q := Classify(result); q.IsDegraded() {
			label = "partial/fallback data"
			anyDegraded = true
		}
		fmt.Fprintf(&sb, "== %s (%s) ==\n%s\n\n", titleKey(key), label, result)
	}

	sb.WriteString(fallbackOutline(s.RequestFacets))

	sb.WriteString("\nData sources:\n")
	if len(keys) == 0 {
		sb.WriteString("- none (plan based on the request only)\n")
	}
	for _, key := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", key, Classify(s.ToolResults[key]))
	}
	if anyDegraded {
		sb.WriteString("\nNote: some data above is sample or partial. Verify details before booking.\n")
	}
	return sb.String()
}

// FormatToolResults renders results for review display, keys sorted for
// stable output.
func FormatToolResults(results map[string]string) string {
	if len(results) == 0 {
		return "(no tool data gathered)"
	}
	var sb strings.Builder
	for idx, key := range sortedResultKeys(results) {
		if idx > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "--- %s ---\n%s\n", key, results[key])
	}
	return sb.String()
}

func titleKey(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func sortedResultKeys(results map[string]string) []string {
	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
