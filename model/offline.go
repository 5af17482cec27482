package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OfflineModel is a deterministic, keyless implementation of ChatModel.
//
// It inspects the final message to detect the kind of prompt being asked
// (tool selection, request clarification, draft itinerary, refinement)
// and returns a canned, context-aware response. This lets the full
// workflow execute without API keys or network access, and every
// response is clearly marked as offline output so downstream quality
// classification treats it as degraded.
//
// OfflineModel is stateless and safe for concurrent use.
type OfflineModel struct{}

// NewOfflineModel creates an OfflineModel.
func NewOfflineModel() *OfflineModel {
	return &OfflineModel{}
}

// Chat implements the ChatModel interface with deterministic responses.
func (o *OfflineModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	content := ""
	if len(messages) > 0 {
		content = messages[len(messages)-1].Content
	}

	return ChatOut{Text: o.respond(strings.ToLower(content))}, nil
}

func (o *OfflineModel) respond(content string) string {
	switch {
	case strings.Contains(content, "decide which tools") || strings.Contains(content, "available tools"):
		return o.toolSelection(content)
	case strings.Contains(content, "refine") || strings.Contains(content, "real data"):
		return o.refinedItinerary()
	case strings.Contains(content, "itinerary") || strings.Contains(content, "day-by-day") || strings.Contains(content, "outline"):
		return o.draftItinerary(content)
	case strings.Contains(content, "clarify") || strings.Contains(content, "enhance") || strings.Contains(content, "goals"):
		return "**Clarified Travel Request (Mock)**\n\n" +
			"• **Goals**: Experience local culture, visit major landmarks, enjoy local cuisine\n" +
			"• **Constraints**: Standard budget, flexible timing, no visa requirements\n" +
			"• **Preferences**: Mix of relaxation and exploration, comfortable accommodations"
	default:
		return "Mock response: I've processed your request.\n" +
			"In production mode with API keys, this would provide detailed AI-generated content.\n" +
			"The system is working correctly in offline/mock mode."
	}
}

// toolSelection answers tool-decision prompts with a JSON array embedded
// in prose. Tools are selected when the prompt reports their data as
// available ("flights: yes"); with no availability hints it falls back to
// the informational tools whenever a destination is mentioned.
func (o *OfflineModel) toolSelection(content string) string {
	tools := []string{}

	if strings.Contains(content, "flights: yes") {
		tools = append(tools, "find_flights")
	}
	if strings.Contains(content, "hotels: yes") {
		tools = append(tools, "find_hotels")
	}
	if strings.Contains(content, "attractions: yes") {
		tools = append(tools, "attraction_finder")
	}
	if strings.Contains(content, "weather: yes") {
		tools = append(tools, "weather_checker")
	}

	if len(tools) == 0 && strings.Contains(content, "destination") {
		tools = []string{"attraction_finder", "weather_checker"}
	}

	data, _ := json.Marshal(tools)
	return fmt.Sprintf("Based on the available data, I'll call these tools: %s", data)
}

// draftItinerary produces a day-by-day outline. The duration is taken
// from the first integer found in the prompt, defaulting to 3 days.
func (o *OfflineModel) draftItinerary(content string) string {
	duration := 3
	for _, word := range strings.Fields(content) {
		word = strings.TrimSuffix(word, "-day")
		if n, err := strconv.Atoi(word); err == nil && n > 0 {
			duration = n
			break
		}
	}

	var days []string
	for day := 1; day <= duration; day++ {
		switch day {
		case 1:
			days = append(days, fmt.Sprintf("**Day %d: Arrival & Orientation**\n  - Arrive and settle in\n  - Evening walk to explore neighborhood\n  - Welcome dinner at local restaurant", day))
		case duration:
			days = append(days, fmt.Sprintf("**Day %d: Departure**\n  - Morning leisure time\n  - Last-minute shopping\n  - Depart for home", day))
		default:
			days = append(days, fmt.Sprintf("**Day %d: Exploration**\n  - Morning: Visit major attractions\n  - Afternoon: Cultural experiences\n  - Evening: Local dining", day))
		}
	}

	return "**Draft Itinerary (Mock)**\n\n" + strings.Join(days, "\n\n")
}

func (o *OfflineModel) refinedItinerary() string {
	return "**Refined Itinerary (Mock - with tool data)**\n\n" +
		"**Day 1: Arrival**\n" +
		"- Arrive via recommended flight options (see flight data below)\n" +
		"- Check into hotel (see accommodation options)\n" +
		"- Weather looks favorable for evening walk\n" +
		"- Dinner at local restaurant\n\n" +
		"**Day 2: Exploration**\n" +
		"- Visit top attractions (see attraction data)\n" +
		"- Lunch at popular local spot\n" +
		"- Afternoon cultural experience\n\n" +
		"**Day 3: Departure**\n" +
		"- Leisurely morning\n" +
		"- Last-minute shopping\n" +
		"- Depart via return flight\n\n" +
		"*Note: This is mock data for testing. Real data would include specific times, prices, and booking links.*"
}
