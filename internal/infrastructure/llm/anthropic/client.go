// Package anthropic provides an LLMClient implementation using the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/llm"
)

const (
	provider         = "anthropic"
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 4000
	userPreamble     = "TEXT TO ANALYZE:\n\n"
	// jsonReminder is appended because the Messages API has no JSON mode.
	jsonReminder = "\n\nRespond with the JSON object only."
)

// Client implements the LLMClient interface using Claude models.
type Client struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewClient creates a new Anthropic LLM client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Timeout > 0 {
		opts = append(opts, anthropic.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	model := defaultModel
	if cfg.Model != "" && !strings.HasPrefix(cfg.Model, "gpt-") {
		model = cfg.Model
	}
	maxTokens := defaultMaxTokens
	if cfg.MaxTokens > 0 {
		maxTokens = cfg.MaxTokens
	}

	return &Client{
		client:      anthropic.NewClient(cfg.AnthropicAPIKey, opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Extract sends the instructions as the system prompt and decodes the
// first text block of the reply.
func (c *Client) Extract(ctx context.Context, instructions string, text string) (*entities.RawExtraction, error) {
	prompt := userPreamble + text + jsonReminder
	temperature := c.temperature

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		System:      instructions,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling Anthropic: %w", classify(err))
	}

	content := textOf(resp)
	if content == "" {
		return nil, llm.ErrEmptyResponse
	}

	out, err := llm.ParseExtraction(content)
	if err != nil {
		return nil, fmt.Errorf("decoding Anthropic response: %w", err)
	}
	return out, nil
}

func textOf(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

func classify(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return llm.Classify(provider, reqErr.StatusCode, err)
	}
	return llm.Classify(provider, 0, err)
}
