package openai

import (
	"context"
	"fmt"
	"strings"

	gpt "github.com/sashabaranov/go-openai"

	"github.com/budgetly/backend/pkg/logger"
)

// DefaultModel is used when no model is configured
const DefaultModel = gpt.GPT4oMini

// Client generates completions with the OpenAI chat API
type Client struct {
	api    *gpt.Client
	model  string
	logger *logger.Logger
}

// NewClient creates an OpenAI client. An empty model uses DefaultModel.
func NewClient(apiKey, model string, log *logger.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:    gpt.NewClient(apiKey),
		model:  model,
		logger: log.WithField("component", "openai"),
	}
}

// Name identifies the provider in logs and responses
func (c *Client) Name() string {
	return "openai"
}

// Generate sends prompt as a single user message and returns the first choice
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, gpt.ChatCompletionRequest{
		Model: c.model,
		Messages: []gpt.ChatCompletionMessage{
			{
				Role:    gpt.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		c.logger.WithContext(ctx).Error("completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from openai")
	}

	c.logger.WithContext(ctx).Debug("completion received",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
