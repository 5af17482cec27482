// Package google provides a ChatModel adapter for Google's Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/tripgraph/model"
)

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// Provides access to Gemini models with:
//   - Safety filter handling with descriptive errors
//   - System instruction support
//   - Context cancellation
//
// Example usage:
//
//	apiKey := os.Getenv("GOOGLE_API_KEY")
//	m := google.NewChatModel(apiKey, "gemini-2.5-flash")
//
//	messages := []model.Message{
//	    {Role: model.RoleUser, Content: "Plan a weekend in Lisbon."},
//	}
//
//	out, err := m.Chat(ctx, messages)
//	if err != nil {
//	    var safetyErr *SafetyFilterError
//	    if errors.As(err, &safetyErr) {
//	        log.Printf("Content blocked: %s", safetyErr.Category)
//	        return
//	    }
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Text)
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel creates a new Google ChatModel.
//
// Parameters:
//   - apiKey: Google API key (get from https://makersuite.google.com/app/apikey)
//   - modelName: Model to use (e.g., "gemini-2.5-flash"). Empty string uses default.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &ChatModel{
		apiKey:    apiKey,
		modelName: modelName,
	}
}

// Chat implements the model.ChatModel interface.
//
// Sends messages to the Gemini API and returns the response. System
// messages become the model's system instruction; the remaining messages
// are concatenated as content parts.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	genModel := client.GenerativeModel(m.modelName)

	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == model.RoleSystem {
			genModel.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}

	resp, err := genModel.GenerateContent(ctx, parts...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}

	return convertResponse(resp)
}

// convertResponse extracts text from Gemini's response, surfacing safety
// filter blocks as SafetyFilterError.
func convertResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return model.ChatOut{}, &SafetyFilterError{
				Reason: resp.PromptFeedback.BlockReason.String(),
			}
		}
		return model.ChatOut{}, nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		category := ""
		for _, rating := range candidate.SafetyRatings {
			if rating.Blocked {
				category = rating.Category.String()
				break
			}
		}
		return model.ChatOut{}, &SafetyFilterError{
			Reason:   "SAFETY",
			Category: category,
		}
	}
	if candidate.Content == nil {
		return model.ChatOut{}, nil
	}

	out := model.ChatOut{}
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(text)
		}
	}

	return out, nil
}

// SafetyFilterError represents a Google safety filter block.
//
// Use errors.As to check for this error type:
//
//	var safetyErr *SafetyFilterError
//	if errors.As(err, &safetyErr) {
//	    log.Printf("blocked: %s (%s)", safetyErr.Reason, safetyErr.Category)
//	}
type SafetyFilterError struct {
	// Reason describes why the block occurred (e.g., "SAFETY").
	Reason string

	// Category names the safety category that was triggered, when known.
	Category string
}

func (e *SafetyFilterError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("content blocked by safety filter: %s (%s)", e.Reason, e.Category)
	}
	return fmt.Sprintf("content blocked by safety filter: %s", e.Reason)
}
