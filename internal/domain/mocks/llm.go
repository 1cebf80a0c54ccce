// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// LLMClient is a mock implementation of ports.LLMClient. Responses are
// returned in order; once they run out the last one repeats.
type LLMClient struct {
	Responses  []*entities.RawExtraction
	ExtractErr error
	// Respond, when set, overrides Responses.
	Respond func(instructions, text string) (*entities.RawExtraction, error)

	mu               sync.Mutex
	ExtractCallCount int
	Instructions     []string
}

// Extract returns the next configured response or error.
func (m *LLMClient) Extract(ctx context.Context, instructions string, text string) (*entities.RawExtraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExtractCallCount++
	m.Instructions = append(m.Instructions, instructions)

	if m.Respond != nil {
		return m.Respond(instructions, text)
	}
	if m.ExtractErr != nil {
		return nil, m.ExtractErr
	}
	if len(m.Responses) == 0 {
		return &entities.RawExtraction{}, nil
	}
	idx := min(m.ExtractCallCount-1, len(m.Responses)-1)
	return m.Responses[idx], nil
}

// Calls returns the number of Extract calls so far.
func (m *LLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExtractCallCount
}
