package planner

import "strings"

// Quality classifies a tool result's data provenance.
type Quality string

const (
	// QualityLive means the result came from a live API.
	QualityLive Quality = "live"

	// QualityMock means the result is generated demo data.
	QualityMock Quality = "mock"

	// QualityPartial means the lookup degraded to a curated fallback.
	QualityPartial Quality = "partial"

	// QualityError means the tool failed and the result is an error marker.
	QualityError Quality = "error"
)

// Classify inspects a tool result's text for the soft marker convention
// tools follow ("DEMO DATA", "Mock", "PARTIAL RESULTS", "error:") and
// reports its provenance. Anything unmarked is live data. This is the
// single place the convention is interpreted; nothing else should sniff
// result strings.
func Classify(result string) Quality {
	lower := strings.ToLower(result)
	switch {
	case strings.HasPrefix(lower, "error:") || strings.Contains(lower, "\nerror:"):
		return QualityError
	case strings.Contains(lower, "partial results"):
		return QualityPartial
	case strings.Contains(lower, "demo data") || strings.Contains(lower, "mock"):
		return QualityMock
	default:
		return QualityLive
	}
}

// IsDegraded reports whether a quality is anything other than live data.
func (q Quality) IsDegraded() bool {
	return q != QualityLive
}
