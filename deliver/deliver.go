// Package deliver hands a finished itinerary to the traveler: plain-text
// file export, PDF export, and email dispatch.
package deliver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/tripgraph/planner"
)

// RenderItinerary formats a finalized plan as a delivery-ready document:
// header, plan text, gathered data, and a provenance summary.
func RenderItinerary(state planner.PlanState) string {
	req := state.RequestFacets

	var sb strings.Builder
	sb.WriteString("TRAVEL ITINERARY\n")
	sb.WriteString("================\n\n")
	if req.Destination != "" {
		fmt.Fprintf(&sb, "Destination: %s\n", req.Destination)
	}
	if req.DepartDate != "" {
		fmt.Fprintf(&sb, "Departure:   %s\n", req.DepartDate)
	}
	if req.ReturnDate != "" {
		fmt.Fprintf(&sb, "Return:      %s\n", req.ReturnDate)
	}
	fmt.Fprintf(&sb, "Duration:    %d day(s)\n", req.Duration())
	fmt.Fprintf(&sb, "Generated:   %s\n\n", time.Now().Format("2006-01-02 15:04"))

	plan := state.FinalPlan
	if plan == "" {
		plan = state.DraftPlan
	}
	sb.WriteString(plan)
	sb.WriteString("\n")

	if len(state.ToolResults) > 0 {
		sb.WriteString("\n--------------------------------\nSupporting data\n\n")
		sb.WriteString(planner.FormatToolResults(state.ToolResults))

		if degradedResults(state) {
			sb.WriteString("\nSome supporting data is sample or partial. Verify details before booking.\n")
		}
	}

	return sb.String()
}

// degradedResults reports whether any gathered result is sample,
// partial, or failed data.
func degradedResults(state planner.PlanState) bool {
	for _, result := range state.ToolResults {
		if planner.Classify(result).IsDegraded() {
			return true
		}
	}
	return false
}

// FileExporter writes itineraries to a directory as text files.
type FileExporter struct {
	// Dir is the output directory, created on first export. Defaults to
	// the current directory.
	Dir string
}

// Export writes the itinerary and returns the written path. An empty
// name derives one from the destination and date.
func (f *FileExporter) Export(state planner.PlanState, name string) (string, error) {
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	if name == "" {
		name = exportName(state)
	}
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(RenderItinerary(state)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write itinerary: %w", err)
	}
	return path, nil
}

func exportName(state planner.PlanState) string {
	dest := strings.ToLower(state.RequestFacets.Destination)
	dest = strings.ReplaceAll(dest, " ", "-")
	dest = strings.ReplaceAll(dest, ",", "")
	if dest == "" {
		dest = "trip"
	}
	return fmt.Sprintf("itinerary-%s-%s.txt", dest, time.Now().Format("20060102"))
}
