package travel

import (
	"context"
	"strings"
	"testing"
)

func demoConfig() Config {
	return Config{Offline: true}
}

// TestFlightFinder_Demo verifies the seeded flight generator.
func TestFlightFinder_Demo(t *testing.T) {
	ctx := context.Background()
	finder := NewFlightFinder(demoConfig())

	args := map[string]string{
		FieldOrigin:      "JFK",
		FieldDestination: "Paris, France",
		FieldDepartDate:  "2025-06-01",
		FieldReturnDate:  "2025-06-08",
	}

	t.Run("deterministic for identical args", func(t *testing.T) {
		first, err := finder.Call(ctx, args)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		second, err := finder.Call(ctx, args)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if first != second {
			t.Error("demo results must be stable for identical args")
		}
	})

	t.Run("carries demo marker and offers", func(t *testing.T) {
		result, err := finder.Call(ctx, args)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if !strings.Contains(result, "DEMO DATA") {
			t.Errorf("expected demo marker, got %q", result)
		}
		for _, prefix := range []string{"1.", "2.", "3."} {
			if !strings.Contains(result, prefix) {
				t.Errorf("expected offer %q in result", prefix)
			}
		}
	})

	t.Run("different route differs", func(t *testing.T) {
		other := map[string]string{
			FieldOrigin:      "SFO",
			FieldDestination: "Tokyo, Japan",
			FieldDepartDate:  "2025-06-01",
		}
		a, _ := finder.Call(ctx, args)
		b, _ := finder.Call(ctx, other)
		if a == b {
			t.Error("expected different routes to produce different offers")
		}
	})

	t.Run("invalid depart date rejected", func(t *testing.T) {
		bad := map[string]string{
			FieldOrigin:      "JFK",
			FieldDestination: "LAX",
			FieldDepartDate:  "June 1st",
		}
		if _, err := finder.Call(ctx, bad); err == nil {
			t.Error("expected error for malformed date")
		}
	})
}

// TestHotelFinder_Demo verifies the seeded hotel generator.
func TestHotelFinder_Demo(t *testing.T) {
	ctx := context.Background()
	finder := NewHotelFinder(demoConfig())

	args := map[string]string{
		FieldDestination: "Paris, France",
		FieldCheckIn:     "2025-06-01",
		FieldCheckOut:    "2025-06-05",
	}

	t.Run("lists tiered properties with totals", func(t *testing.T) {
		result, err := finder.Call(ctx, args)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if !strings.Contains(result, "DEMO DATA") {
			t.Errorf("expected demo marker, got %q", result)
		}
		for _, tier := range []string{"luxury", "mid-range", "budget"} {
			if !strings.Contains(result, tier) {
				t.Errorf("expected %s tier in result", tier)
			}
		}
		if !strings.Contains(result, "4 night(s)") {
			t.Errorf("expected 4-night stay totals, got %q", result)
		}
	})

	t.Run("deterministic for identical stay", func(t *testing.T) {
		a, _ := finder.Call(ctx, args)
		b, _ := finder.Call(ctx, args)
		if a != b {
			t.Error("demo results must be stable for identical args")
		}
	})

	t.Run("invalid check_out rejected", func(t *testing.T) {
		bad := map[string]string{
			FieldDestination: "Paris",
			FieldCheckIn:     "2025-06-01",
			FieldCheckOut:    "05/06/2025",
		}
		if _, err := finder.Call(ctx, bad); err == nil {
			t.Error("expected error for malformed date")
		}
	})
}

// TestAttractionFinder_Offline verifies the curated fallback list.
func TestAttractionFinder_Offline(t *testing.T) {
	ctx := context.Background()
	finder := NewAttractionFinder(demoConfig())

	result, err := finder.Call(ctx, map[string]string{FieldDestination: "Paris, France"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !strings.Contains(result, "PARTIAL RESULTS") {
		t.Errorf("expected partial-results marker, got %q", result)
	}
	if !strings.Contains(result, "Paris") {
		t.Errorf("expected city name in result, got %q", result)
	}
	if !strings.Contains(result, "5.") {
		t.Errorf("expected five suggestions, got %q", result)
	}
}

// TestWeatherChecker_Demo verifies the seeded weather generator.
func TestWeatherChecker_Demo(t *testing.T) {
	ctx := context.Background()
	checker := NewWeatherChecker(demoConfig())

	t.Run("current conditions without date", func(t *testing.T) {
		result, err := checker.Call(ctx, map[string]string{FieldDestination: "Paris, France"})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if !strings.Contains(result, "Mock current weather in Paris") {
			t.Errorf("expected mock current weather, got %q", result)
		}
	})

	t.Run("forecast with date", func(t *testing.T) {
		result, err := checker.Call(ctx, map[string]string{
			FieldDestination: "Paris, France",
			FieldDepartDate:  "2025-06-01",
		})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if !strings.Contains(result, "Mock forecast for Paris on 2025-06-01") {
			t.Errorf("expected mock forecast, got %q", result)
		}
	})

	t.Run("deterministic per destination and date", func(t *testing.T) {
		args := map[string]string{FieldDestination: "Tokyo", FieldDepartDate: "2025-07-01"}
		a, _ := checker.Call(ctx, args)
		b, _ := checker.Call(ctx, args)
		if a != b {
			t.Error("demo results must be stable for identical args")
		}
	})

	t.Run("invalid date rejected", func(t *testing.T) {
		_, err := checker.Call(ctx, map[string]string{
			FieldDestination: "Paris",
			FieldDepartDate:  "tomorrow",
		})
		if err == nil {
			t.Error("expected error for malformed date")
		}
	})
}

// TestDefaultRegistry verifies all four tools are registered.
func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(demoConfig())
	for _, name := range []string{"find_flights", "find_hotels", "attraction_finder", "weather_checker"} {
		if !reg.Has(name) {
			t.Errorf("expected %s to be registered", name)
		}
	}
}
