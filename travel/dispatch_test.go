package travel

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubTool is a scriptable Tool for dispatch tests.
type stubTool struct {
	name   string
	result string
	err    error
	calls  int
	args   map[string]string
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Call(ctx context.Context, args map[string]string) (string, error) {
	s.calls++
	s.args = args
	return s.result, s.err
}

func fullFields() map[string]string {
	return map[string]string{
		FieldOrigin:      "JFK",
		FieldDestination: "LAX",
		FieldDepartDate:  "2025-06-01",
		FieldReturnDate:  "2025-06-05",
		FieldCheckIn:     "2025-06-01",
		FieldCheckOut:    "2025-06-05",
		FieldInterests:   "museums",
	}
}

func registryOf(t *testing.T, tools ...Tool) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, tool := range tools {
		if err := reg.Register(tool); err != nil {
			t.Fatalf("Register(%s) failed: %v", tool.Name(), err)
		}
	}
	return reg
}

// TestDispatcher_Run verifies selection, skip, and error policy.
func TestDispatcher_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("all selected with full fields", func(t *testing.T) {
		flights := &stubTool{name: "find_flights", result: "flight data"}
		hotels := &stubTool{name: "find_hotels", result: "hotel data"}
		attractions := &stubTool{name: "attraction_finder", result: "attraction data"}
		weather := &stubTool{name: "weather_checker", result: "weather data"}
		d := NewDispatcher(registryOf(t, flights, hotels, attractions, weather), nil)

		outcomes := d.Run(ctx, fullFields(), []string{"find_flights", "find_hotels", "attraction_finder", "weather_checker"})

		if len(outcomes) != 4 {
			t.Fatalf("expected 4 outcomes, got %d", len(outcomes))
		}
		for _, out := range outcomes {
			if out.Status != StatusOK {
				t.Errorf("%s: expected StatusOK, got %q", out.Tool, out.Status)
			}
		}
		if flights.calls != 1 || hotels.calls != 1 || attractions.calls != 1 || weather.calls != 1 {
			t.Error("expected each tool to be called exactly once")
		}
	})

	t.Run("unselected tools are reported not selected", func(t *testing.T) {
		flights := &stubTool{name: "find_flights", result: "x"}
		d := NewDispatcher(registryOf(t, flights), nil)

		outcomes := d.Run(ctx, fullFields(), nil)

		for _, out := range outcomes {
			if out.Status != StatusNotSelected {
				t.Errorf("%s: expected StatusNotSelected, got %q", out.Tool, out.Status)
			}
		}
		if flights.calls != 0 {
			t.Error("unselected tool must not be called")
		}
	})

	t.Run("missing required fields skip the tool", func(t *testing.T) {
		flights := &stubTool{name: "find_flights", result: "x"}
		d := NewDispatcher(registryOf(t, flights), nil)

		fields := fullFields()
		fields[FieldOrigin] = ""

		outcomes := d.Run(ctx, fields, []string{"find_flights"})

		if outcomes[0].Status != StatusSkipped {
			t.Fatalf("expected StatusSkipped, got %q", outcomes[0].Status)
		}
		if len(outcomes[0].Missing) != 1 || outcomes[0].Missing[0] != FieldOrigin {
			t.Errorf("expected missing origin, got %v", outcomes[0].Missing)
		}
		if flights.calls != 0 {
			t.Error("skipped tool must not be called")
		}
	})

	t.Run("tool failure becomes error marker, later tools still run", func(t *testing.T) {
		flights := &stubTool{name: "find_flights", err: errors.New("api down")}
		hotels := &stubTool{name: "find_hotels", result: "hotel data"}
		d := NewDispatcher(registryOf(t, flights, hotels), nil)

		outcomes := d.Run(ctx, fullFields(), []string{"find_flights", "find_hotels"})

		if outcomes[0].Status != StatusError {
			t.Fatalf("expected StatusError, got %q", outcomes[0].Status)
		}
		if !strings.HasPrefix(outcomes[0].Result, "error:") {
			t.Errorf("expected error marker, got %q", outcomes[0].Result)
		}
		if outcomes[1].Status != StatusOK {
			t.Errorf("later tool should still run, got %q", outcomes[1].Status)
		}
		if hotels.calls != 1 {
			t.Error("later tool must be called after an earlier failure")
		}
	})

	t.Run("unregistered selected tool is an error outcome", func(t *testing.T) {
		d := NewDispatcher(registryOf(t), nil)

		outcomes := d.Run(ctx, fullFields(), []string{"find_flights"})

		if outcomes[0].Status != StatusError {
			t.Fatalf("expected StatusError, got %q", outcomes[0].Status)
		}
		if !strings.Contains(outcomes[0].Result, "not registered") {
			t.Errorf("expected registration error, got %q", outcomes[0].Result)
		}
	})

	t.Run("optional fields passed only when present", func(t *testing.T) {
		flights := &stubTool{name: "find_flights", result: "x"}
		d := NewDispatcher(registryOf(t, flights), nil)

		fields := fullFields()
		fields[FieldReturnDate] = ""

		d.Run(ctx, fields, []string{"find_flights"})

		if _, ok := flights.args[FieldReturnDate]; ok {
			t.Error("empty optional field must not be passed")
		}
		if flights.args[FieldOrigin] != "JFK" {
			t.Errorf("required field missing from args: %v", flights.args)
		}
	})

	t.Run("observe hook sees attempted outcomes", func(t *testing.T) {
		flights := &stubTool{name: "find_flights", result: "x"}
		d := NewDispatcher(registryOf(t, flights), nil)

		observed := map[string]Status{}
		d.Observe = func(tool string, status Status) { observed[tool] = status }

		fields := fullFields()
		fields[FieldCheckIn] = ""

		d.Run(ctx, fields, []string{"find_flights", "find_hotels"})

		if observed["find_flights"] != StatusOK {
			t.Errorf("expected ok observation for flights, got %q", observed["find_flights"])
		}
		if observed["find_hotels"] != StatusSkipped {
			t.Errorf("expected skipped observation for hotels, got %q", observed["find_hotels"])
		}
		if _, ok := observed["attraction_finder"]; ok {
			t.Error("unselected tools must not be observed")
		}
	})
}

// TestDefaultBindings verifies the canonical binding table.
func TestDefaultBindings(t *testing.T) {
	bindings := DefaultBindings()
	if len(bindings) != 4 {
		t.Fatalf("expected 4 bindings, got %d", len(bindings))
	}

	keys := []string{"flights", "hotels", "attractions", "weather"}
	for i, want := range keys {
		if bindings[i].Key != want {
			t.Errorf("binding %d: expected key %q, got %q", i, want, bindings[i].Key)
		}
	}
}
