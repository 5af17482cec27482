// Package anthropic provides a ChatModel adapter for Anthropic's Claude API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/tripgraph/model"
)

// ChatModel implements model.ChatModel for Anthropic's Claude API.
//
// Provides access to Claude models with:
//   - System prompt extraction (Claude takes the system prompt separately)
//   - Error classification for auth, rate-limit, and quota failures
//   - Context cancellation
//
// Example usage:
//
//	apiKey := os.Getenv("ANTHROPIC_API_KEY")
//	m := anthropic.NewChatModel(apiKey, "claude-3-5-sonnet-20241022")
//
//	messages := []model.Message{
//	    {Role: model.RoleUser, Content: "Plan a weekend in Lisbon."},
//	}
//
//	out, err := m.Chat(ctx, messages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Text)
type ChatModel struct {
	client    *anthropic.Client
	modelName string
	maxTokens int64
}

// NewChatModel creates a new Anthropic ChatModel.
//
// Parameters:
//   - apiKey: Anthropic API key (get from https://console.anthropic.com/)
//   - modelName: Model to use (e.g., "claude-3-5-sonnet-20241022").
//     Empty string uses default.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-3-5-sonnet-20241022"
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &ChatModel{
		client:    &client,
		modelName: modelName,
		maxTokens: 4096,
	}
}

// Chat implements the model.ChatModel interface.
//
// System messages are lifted into the request's system field as Claude's
// API requires; remaining messages become the conversation turns.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	if len(turns) == 0 {
		return model.ChatOut{}, errors.New("at least one user message is required")
	}

	message, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: m.maxTokens,
		System:    system,
		Messages:  turns,
	})
	if err != nil {
		return model.ChatOut{}, classifyError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return model.ChatOut{Text: text.String()}, nil
}

// classifyError maps Anthropic SDK errors to descriptive errors.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "401") ||
		strings.Contains(errMsg, "403") ||
		strings.Contains(errMsg, "authentication") ||
		strings.Contains(errMsg, "api_key"):
		return fmt.Errorf("anthropic API key is invalid or expired: %w", err)
	case strings.Contains(errMsg, "429") ||
		strings.Contains(errMsg, "rate_limit") ||
		strings.Contains(errMsg, "too many requests"):
		return fmt.Errorf("anthropic API rate limit exceeded: %w", err)
	case strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "billing"):
		return fmt.Errorf("anthropic API quota exceeded: %w", err)
	default:
		return fmt.Errorf("anthropic API error: %w", err)
	}
}
