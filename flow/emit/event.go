package emit

// Event represents an observability event emitted during workflow execution.
//
// Events provide insight into workflow behavior:
//   - Phase completion
//   - Pauses awaiting external input and later resumption
//   - Checkpoint operations
//   - Errors and degraded fallbacks
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Store in time-series databases
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for run-level events (start, resume, error).
	Step int

	// Phase identifies which phase emitted this event.
	// Empty string for run-level events.
	Phase string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Execution duration in milliseconds
	//   - "error": Error details
	//   - "checkpoint": Checkpoint label
	//   - "iteration": Review iteration count
	Meta map[string]interface{}
}
