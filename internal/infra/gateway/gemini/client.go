package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/budgetly/backend/pkg/logger"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-1.5-flash"

// Client generates completions with the Gemini API
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *logger.Logger
}

// NewClient creates a Gemini client. An empty model uses DefaultModel.
func NewClient(ctx context.Context, apiKey, model string, log *logger.Logger) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	m.SetMaxOutputTokens(800)

	return &Client{
		client: client,
		model:  m,
		name:   model,
		logger: log.WithField("component", "gemini"),
	}, nil
}

// Name identifies the provider in logs and responses
func (c *Client) Name() string {
	return "gemini"
}

// Generate returns the text parts of the first candidate
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.WithContext(ctx).Error("generation failed", "model", c.name, "error", err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}
