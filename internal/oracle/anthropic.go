package oracle

import (
	"context"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/turtacn/geometax/pkg/errors"
)

// AnthropicClient adapts the Anthropic messages API to the Client interface.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient builds a client for the given model.
func NewAnthropicClient(apiKey, model, baseURL string, maxTokens int) *AnthropicClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate implements Client.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOracleCallFailed, "anthropic completion failed")
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return "", errors.New(errors.ErrCodeOracleBadResponse, "anthropic returned no text content")
	}
	return *resp.Content[0].Text, nil
}
