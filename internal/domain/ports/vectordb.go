package ports

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// IndexedEntity is a resolved entity with its embedding.
type IndexedEntity struct {
	Entity    entities.ResolvedEntity
	Embedding []float32
}

// SearchHit is one similarity search result.
type SearchHit struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	Stub  bool    `json:"stub,omitempty"`
	Score float32 `json:"score"`
}

// EntityIndex stores resolved entities for similarity search.
type EntityIndex interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// Upsert stores entities keyed by their canonical identifier.
	Upsert(ctx context.Context, items []IndexedEntity) error

	// Search returns the entities nearest to the embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]SearchHit, error)

	// SearchByType restricts Search to one entity type.
	SearchByType(ctx context.Context, embedding []float32, entityType string, limit int) ([]SearchHit, error)
}
