package mocks

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

// EntityIndex is a mock implementation of ports.EntityIndex.
type EntityIndex struct {
	Hits []ports.SearchHit
	Err  error

	// Collection errors (separate from Err for fine-grained control)
	EnsureCollectionErr error

	// Call tracking
	UpsertCallCount           int
	UpsertLastItems           []ports.IndexedEntity
	EnsureCollectionCallCount int
	LastVectorSize            uint64
	LastSearchType            string
}

// EnsureCollection records the call.
func (m *EntityIndex) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.EnsureCollectionCallCount++
	m.LastVectorSize = vectorSize
	return m.EnsureCollectionErr
}

// Upsert records the stored items.
func (m *EntityIndex) Upsert(ctx context.Context, items []ports.IndexedEntity) error {
	m.UpsertCallCount++
	m.UpsertLastItems = items
	return m.Err
}

// Search returns the configured hits, capped at limit.
func (m *EntityIndex) Search(ctx context.Context, embedding []float32, limit int) ([]ports.SearchHit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Hits) > limit {
		return m.Hits[:limit], nil
	}
	return m.Hits, nil
}

// SearchByType returns the configured hits of the given type.
func (m *EntityIndex) SearchByType(ctx context.Context, embedding []float32, entityType string, limit int) ([]ports.SearchHit, error) {
	m.LastSearchType = entityType
	if m.Err != nil {
		return nil, m.Err
	}
	var out []ports.SearchHit
	for _, h := range m.Hits {
		if h.Type == entityType && (limit <= 0 || len(out) < limit) {
			out = append(out, h)
		}
	}
	return out, nil
}
