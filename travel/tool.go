// Package travel provides the external data-source tools used during
// itinerary planning: flight and hotel search, attraction lookup, and
// weather checks.
//
// Every tool returns plain text. Result text may carry embedded markers
// ("DEMO DATA", "Mock", "PARTIAL RESULTS", "error:") that downstream
// consumers inspect to classify data quality; tool implementations must
// preserve this convention.
package travel

import (
	"context"
	"fmt"
	"sync"
)

// Tool defines the interface for a travel data source.
//
// Implementations should:
//   - Validate input arguments
//   - Respect context cancellation and timeouts
//   - Return human-readable text suitable for direct inclusion in an
//     itinerary
//   - Be deterministic in demo mode so repeated runs produce identical
//     plans
type Tool interface {
	// Name returns the tool identifier used in tool selections
	// (e.g., "find_flights").
	Name() string

	// Call invokes the tool with string-valued structured arguments and
	// returns formatted result text.
	Call(ctx context.Context, args map[string]string) (string, error)
}

// Registry holds the available tools keyed by identifier.
//
// Thread-safe for concurrent lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("duplicate tool: %s", name)
	}
	r.tools[name] = t
	return nil
}

// Get returns the tool with the given name, or false if unknown.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}
