package model

import (
	"context"
	"strings"
	"testing"
)

func offlineChat(t *testing.T, content string) string {
	t.Helper()

	out, err := NewOfflineModel().Chat(context.Background(), []Message{
		{Role: RoleUser, Content: content},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	return out.Text
}

// TestOfflineModel_Routing verifies prompt-type detection.
func TestOfflineModel_Routing(t *testing.T) {
	t.Run("clarification prompt", func(t *testing.T) {
		text := offlineChat(t, "Clarify and enhance this travel request. Identify the traveler's goals.")
		if !strings.Contains(text, "Clarified Travel Request (Mock)") {
			t.Errorf("expected clarification response, got %q", text)
		}
	})

	t.Run("draft prompt", func(t *testing.T) {
		text := offlineChat(t, "Create a 4-day day-by-day itinerary outline for Paris.")
		if !strings.Contains(text, "Draft Itinerary (Mock)") {
			t.Errorf("expected draft response, got %q", text)
		}
		if !strings.Contains(text, "Day 4: Departure") {
			t.Errorf("expected 4-day outline, got %q", text)
		}
		if !strings.Contains(text, "Day 1: Arrival") {
			t.Errorf("expected arrival day, got %q", text)
		}
	})

	t.Run("refine prompt", func(t *testing.T) {
		text := offlineChat(t, "Refine the travel plan below by merging the real data gathered.")
		if !strings.Contains(text, "Refined Itinerary (Mock") {
			t.Errorf("expected refined response, got %q", text)
		}
	})

	t.Run("unrecognized prompt", func(t *testing.T) {
		text := offlineChat(t, "What is the capital of France?")
		if !strings.Contains(text, "Mock response") {
			t.Errorf("expected generic mock response, got %q", text)
		}
	})
}

// TestOfflineModel_ToolSelection verifies availability-driven selection.
func TestOfflineModel_ToolSelection(t *testing.T) {
	t.Run("selects tools marked available", func(t *testing.T) {
		text := offlineChat(t, "Decide which tools to call.\n"+
			"- find_flights (flights: yes)\n- find_hotels (hotels: no)\n"+
			"- attraction_finder (attractions: yes)\n- weather_checker (weather: yes)\n"+
			"Destination: Paris")
		for _, want := range []string{"find_flights", "attraction_finder", "weather_checker"} {
			if !strings.Contains(text, want) {
				t.Errorf("expected %s selected, got %q", want, text)
			}
		}
		if strings.Contains(text, "find_hotels") {
			t.Errorf("hotels must not be selected, got %q", text)
		}
	})

	t.Run("no availability falls back to informational tools", func(t *testing.T) {
		text := offlineChat(t, "Decide which tools to call.\n"+
			"- find_flights (flights: no)\n- find_hotels (hotels: no)\n"+
			"- attraction_finder (attractions: no)\n- weather_checker (weather: no)\n"+
			"Destination: (not specified)")
		if !strings.Contains(text, "attraction_finder") || !strings.Contains(text, "weather_checker") {
			t.Errorf("expected informational fallback, got %q", text)
		}
		if strings.Contains(text, "find_flights") || strings.Contains(text, "find_hotels") {
			t.Errorf("expected no booking tools, got %q", text)
		}
	})

	t.Run("response embeds a json array", func(t *testing.T) {
		text := offlineChat(t, "Decide which tools to call. Destination: Rome")
		if !strings.Contains(text, "[") || !strings.Contains(text, "]") {
			t.Errorf("expected a JSON array in the response, got %q", text)
		}
	})
}

// TestOfflineModel_Determinism verifies repeat calls agree.
func TestOfflineModel_Determinism(t *testing.T) {
	prompt := "Create a 3-day day-by-day itinerary outline for Rome."
	if offlineChat(t, prompt) != offlineChat(t, prompt) {
		t.Error("offline responses must be deterministic")
	}
}

// TestOfflineModel_CancelledContext verifies context awareness.
func TestOfflineModel_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewOfflineModel().Chat(ctx, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}
