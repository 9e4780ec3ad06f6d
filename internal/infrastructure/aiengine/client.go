// Package aiengine adapts the OpenAI-compatible chat completion API to
// the conversation layer's Responder interface.
package aiengine

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/config"
	"carebridge/chat-api/internal/domain/conversation"
)

// historyWindow bounds how many prior messages are sent per completion.
const historyWindow = 12

// Client calls an OpenAI-compatible endpoint to produce assistant turns.
type Client struct {
	api   *openai.Client
	model string
	temp  float32
	log   zerolog.Logger
}

// New creates the responder client from service configuration.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	clientCfg := openai.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		clientCfg.BaseURL = cfg.AIBaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.AIModel,
		temp:  float32(cfg.AITemperature),
		log:   log.With().Str("component", "ai-engine").Logger(),
	}
}

// Generate produces one assistant reply for the conversation.
func (c *Client) Generate(ctx context.Context, conv *conversation.Conversation, latest string, summary conversation.Summary) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(conv, summary),
		},
	}

	history := conv.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Type == conversation.MessageTypeAssistant {
			role = openai.ChatMessageRoleAssistant
		} else if m.Type != conversation.MessageTypeUser {
			continue
		}
		content := m.Content
		if m.PHIDetected && m.RedactedContent != "" {
			content = m.RedactedContent
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temp,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func systemPrompt(conv *conversation.Conversation, summary conversation.Summary) string {
	var b strings.Builder
	b.WriteString("You are a healthcare support assistant. Be concise, accurate and empathetic. ")
	b.WriteString("Never provide a diagnosis; direct clinical questions to a professional. ")
	fmt.Fprintf(&b, "Respond in language %q.\n", conv.Language)
	if summary.UrgencyLevel != "" {
		fmt.Fprintf(&b, "Conversation urgency: %s.\n", summary.UrgencyLevel)
	}
	if len(summary.IntentHistory) > 0 {
		fmt.Fprintf(&b, "Recent topics: %s.\n", strings.Join(summary.IntentHistory, ", "))
	}
	if len(summary.KeySymptoms) > 0 {
		fmt.Fprintf(&b, "Mentioned symptoms: %s.\n", strings.Join(summary.KeySymptoms, ", "))
	}
	return b.String()
}
