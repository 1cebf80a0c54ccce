// Package openai provides an LLMClient implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/llm"
)

const (
	provider     = "openai"
	defaultModel = "gpt-4o-mini"
	// userPreamble introduces the source text after the system instructions.
	userPreamble = "TEXT TO ANALYZE:\n\n"
)

// Client implements the LLMClient interface using OpenAI chat completions
// in JSON mode.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewClient creates a new OpenAI LLM client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := defaultModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Extract sends the instructions as the system message and the text as
// the user message, then decodes the JSON answer.
func (c *Client) Extract(ctx context.Context, instructions string, text string) (*entities.RawExtraction, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: instructions,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPreamble + text,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", classify(err))
	}

	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	out, err := llm.ParseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("decoding OpenAI response: %w", err)
	}
	return out, nil
}

// classify attaches the HTTP status code of OpenAI errors so the retry
// decorator can tell rate limits from bad requests.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.Classify(provider, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.Classify(provider, reqErr.HTTPStatusCode, err)
	}
	return llm.Classify(provider, 0, err)
}
