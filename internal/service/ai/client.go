package ai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iroha-ai/backend/internal/config"
	"github.com/iroha-ai/backend/internal/history"
)

// Completion is the provider's answer to one request.
type Completion struct {
	Text         string
	FinishReason string
}

// CompletionClient abstracts the text-completion provider so the
// orchestrator can be exercised without network access.
type CompletionClient interface {
	Complete(ctx context.Context, msgs []history.Message, temperature float32, maxTokens int) (Completion, error)
}

// GroqClient talks to Groq's OpenAI-compatible chat completions API.
type GroqClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewGroqClient builds a client from configuration.
func NewGroqClient(cfg config.AIConfig) *GroqClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &GroqClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Complete performs one chat completion. A timeout surfaces as an ordinary
// provider error; retry policy belongs to the caller.
func (c *GroqClient) Complete(ctx context.Context, msgs []history.Message, temperature float32, maxTokens int) (Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	converted := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		converted = append(converted, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        0.9,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("chat completion: empty choice list")
	}

	choice := resp.Choices[0]
	return Completion{Text: choice.Message.Content, FinishReason: string(choice.FinishReason)}, nil
}
