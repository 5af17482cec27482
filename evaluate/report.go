package evaluate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dshills/tripgraph/planner"
)

// Report is the full session evaluation, serializable to JSON.
type Report struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Destination string         `json:"destination,omitempty"`
	Execution   ExecutionStats `json:"execution"`
	Quality     QualityScore   `json:"quality"`
}

// NewReport evaluates a session's final state.
func NewReport(runID string, state planner.PlanState) Report {
	return Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Destination: state.RequestFacets.Destination,
		Execution:   Stats(state),
		Quality:     Score(state),
	}
}

// WriteFile writes the report as indented JSON.
func (r Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Summary renders a one-screen human-readable summary.
func (r Report) Summary() string {
	return fmt.Sprintf(
		"Run %s: overall %.2f (completeness %.2f, relevance %.2f, coherence %.2f, practicality %.2f, detail %.2f) after %d iteration(s), %d tool result(s)",
		r.RunID, r.Quality.Overall,
		r.Quality.Completeness, r.Quality.Relevance, r.Quality.Coherence,
		r.Quality.Practicality, r.Quality.Detail,
		r.Execution.Iterations, r.Execution.ToolResults)
}
