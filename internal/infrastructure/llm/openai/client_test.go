package openai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/llm"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LLMConfig
		wantErr   bool
		errMsg    string
		wantModel string
	}{
		{
			name:      "valid config",
			cfg:       config.LLMConfig{APIKey: "test-key"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "valid config with model",
			cfg:       config.LLMConfig{APIKey: "test-key", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:    "missing API key",
			cfg:     config.LLMConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, client.model)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "rate limit",
			err:       &openai.APIError{HTTPStatusCode: 429, Message: "slow down"},
			retryable: true,
		},
		{
			name:      "wrapped server error",
			err:       fmt.Errorf("send: %w", &openai.APIError{HTTPStatusCode: 500, Message: "oops"}),
			retryable: true,
		},
		{
			name:      "auth failure",
			err:       &openai.APIError{HTTPStatusCode: 401, Message: "bad key"},
			retryable: false,
		},
		{
			name:      "network error",
			err:       errors.New("dial tcp: connection refused"),
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, llm.IsRetryable(classify(tt.err)))
		})
	}
}
