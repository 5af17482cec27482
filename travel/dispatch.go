package travel

import (
	"context"
	"fmt"
)

// Structured field names shared by tool bindings and their callers.
const (
	FieldOrigin      = "origin"
	FieldDestination = "destination"
	FieldDepartDate  = "depart_date"
	FieldReturnDate  = "return_date"
	FieldCheckIn     = "check_in"
	FieldCheckOut    = "check_out"
	FieldInterests   = "interests"
)

// Binding maps a tool identifier to its stable result key and the
// structured fields it requires. A tool is skipped, not attempted, when
// any required field is absent — even if the selection phase chose it.
type Binding struct {
	// Tool is the tool identifier used in selections (e.g., "find_flights").
	Tool string

	// Key is the stable result key under which output is stored
	// (e.g., "flights").
	Key string

	// Required lists the structured fields that must be present for the
	// tool to run.
	Required []string

	// Optional lists fields passed through when present.
	Optional []string
}

// DefaultBindings returns the canonical tool bindings in invocation order.
func DefaultBindings() []Binding {
	return []Binding{
		{
			Tool:     "find_flights",
			Key:      "flights",
			Required: []string{FieldOrigin, FieldDestination, FieldDepartDate},
			Optional: []string{FieldReturnDate},
		},
		{
			Tool:     "find_hotels",
			Key:      "hotels",
			Required: []string{FieldDestination, FieldCheckIn, FieldCheckOut},
		},
		{
			Tool:     "attraction_finder",
			Key:      "attractions",
			Required: []string{FieldDestination},
			Optional: []string{FieldInterests},
		},
		{
			Tool:     "weather_checker",
			Key:      "weather",
			Required: []string{FieldDestination},
			Optional: []string{FieldDepartDate},
		},
	}
}

// Status classifies the outcome of one tool dispatch.
type Status string

const (
	// StatusOK means the tool ran and produced a result.
	StatusOK Status = "ok"

	// StatusError means the tool ran and failed; the failure is captured
	// as result text, never propagated.
	StatusError Status = "error"

	// StatusSkipped means required fields were absent and the tool was
	// not attempted.
	StatusSkipped Status = "skipped"

	// StatusNotSelected means the selection phase did not choose the tool.
	StatusNotSelected Status = "not selected"
)

// Outcome is the result of dispatching one binding.
type Outcome struct {
	// Tool is the binding's tool identifier.
	Tool string

	// Key is the binding's result key.
	Key string

	// Status classifies what happened.
	Status Status

	// Result holds the tool's output text for StatusOK, or an
	// "error: <message>" marker for StatusError. Empty otherwise.
	Result string

	// Missing lists the absent required fields for StatusSkipped.
	Missing []string
}

// Dispatcher executes selected tools against their bindings.
type Dispatcher struct {
	registry *Registry
	bindings []Binding

	// Observe, when non-nil, receives one (tool, status) observation per
	// attempted binding. Used to feed execution metrics.
	Observe func(tool string, status Status)
}

// NewDispatcher creates a Dispatcher over the given registry and bindings.
// Nil bindings fall back to DefaultBindings.
func NewDispatcher(registry *Registry, bindings []Binding) *Dispatcher {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Dispatcher{
		registry: registry,
		bindings: bindings,
	}
}

// Run dispatches every binding strictly sequentially, in declared order.
//
// For each binding:
//   - not in selected: StatusNotSelected
//   - missing required fields: StatusSkipped (not attempted)
//   - tool errors: StatusError with an "error:" result marker
//   - otherwise: StatusOK with the tool's result text
//
// A failure in one tool never prevents later tools from running. The
// returned slice has one Outcome per binding, in binding order.
func (d *Dispatcher) Run(ctx context.Context, fields map[string]string, selected []string) []Outcome {
	chosen := make(map[string]bool, len(selected))
	for _, name := range selected {
		chosen[name] = true
	}

	outcomes := make([]Outcome, 0, len(d.bindings))
	for _, b := range d.bindings {
		out := Outcome{Tool: b.Tool, Key: b.Key}

		if !chosen[b.Tool] {
			out.Status = StatusNotSelected
			outcomes = append(outcomes, out)
			continue
		}

		var missing []string
		for _, field := range b.Required {
			if fields[field] == "" {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			out.Status = StatusSkipped
			out.Missing = missing
			outcomes = append(outcomes, out)
			d.observe(b.Tool, StatusSkipped)
			continue
		}

		tool, ok := d.registry.Get(b.Tool)
		if !ok {
			out.Status = StatusError
			out.Result = fmt.Sprintf("error: tool not registered: %s", b.Tool)
			outcomes = append(outcomes, out)
			d.observe(b.Tool, StatusError)
			continue
		}

		args := make(map[string]string)
		for _, field := range b.Required {
			args[field] = fields[field]
		}
		for _, field := range b.Optional {
			if fields[field] != "" {
				args[field] = fields[field]
			}
		}

		result, err := tool.Call(ctx, args)
		if err != nil {
			out.Status = StatusError
			out.Result = fmt.Sprintf("error: %v", err)
			outcomes = append(outcomes, out)
			d.observe(b.Tool, StatusError)
			continue
		}

		out.Status = StatusOK
		out.Result = result
		outcomes = append(outcomes, out)
		d.observe(b.Tool, StatusOK)
	}

	return outcomes
}

func (d *Dispatcher) observe(tool string, status Status) {
	if d.Observe != nil {
		d.Observe(tool, status)
	}
}
