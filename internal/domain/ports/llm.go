// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// LLMClient defines the extraction capability of a language model provider.
// Implementations own transport retries, rate limiting and JSON decoding;
// they never validate against the ontology.
type LLMClient interface {
	// Extract sends the instruction block and source text and returns the
	// decoded entity list.
	Extract(ctx context.Context, instructions string, text string) (*entities.RawExtraction, error)
}
