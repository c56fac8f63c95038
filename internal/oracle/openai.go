package oracle

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"github.com/turtacn/geometax/pkg/errors"
)

// OpenAIClient adapts the OpenAI chat completion API to the Client interface.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient builds a client for the given model.  baseURL may point at
// any OpenAI-compatible endpoint; empty means the public API.
func NewOpenAIClient(apiKey, model, baseURL string, maxTokens int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate implements Client.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOracleCallFailed, "openai completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeOracleBadResponse, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
