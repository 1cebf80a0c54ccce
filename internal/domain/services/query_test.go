package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/mocks"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

func indexGraph() *entities.ResolvedGraph {
	return &entities.ResolvedGraph{Entities: []entities.ResolvedEntity{
		{ID: "Person/shawn", Type: "Person", Name: "Shawn", Properties: map[string]any{"description": " Data scientist "}},
		{ID: "Organization/regen", Type: "Organization", Name: "Regen"},
		{ID: "Entity/gregory", Type: entities.StubType, Name: "Gregory", Stub: true},
	}}
}

func TestQueryService_Index(t *testing.T) {
	t.Run("skips stubs by default", func(t *testing.T) {
		emb := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2, 0.3}}
		idx := &mocks.EntityIndex{}
		svc := NewQueryService(emb, idx, nil)

		result, err := svc.Index(t.Context(), indexGraph(), false)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Indexed)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, uint64(3), idx.LastVectorSize)
		assert.Equal(t, []string{"Shawn (Person): Data scientist", "Regen (Organization)"}, emb.LastTexts)
		require.Len(t, idx.UpsertLastItems, 2)
		assert.Equal(t, "Person/shawn", idx.UpsertLastItems[0].Entity.ID)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, idx.UpsertLastItems[0].Embedding)
	})

	t.Run("includes stubs on request", func(t *testing.T) {
		idx := &mocks.EntityIndex{}
		svc := NewQueryService(&mocks.Embedder{EmbeddingResult: []float32{1}}, idx, nil)

		result, err := svc.Index(t.Context(), indexGraph(), true)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Indexed)
		assert.Zero(t, result.Skipped)
	})

	t.Run("empty graph", func(t *testing.T) {
		svc := NewQueryService(&mocks.Embedder{}, &mocks.EntityIndex{}, nil)
		_, err := svc.Index(t.Context(), &entities.ResolvedGraph{}, false)
		assert.ErrorIs(t, err, entities.ErrNoEntities)
	})

	t.Run("collection error", func(t *testing.T) {
		idx := &mocks.EntityIndex{EnsureCollectionErr: errors.New("unavailable")}
		svc := NewQueryService(&mocks.Embedder{EmbeddingResult: []float32{1}}, idx, nil)
		_, err := svc.Index(t.Context(), indexGraph(), false)
		assert.ErrorContains(t, err, "ensuring collection")
		assert.Zero(t, idx.UpsertCallCount)
	})

	t.Run("embedding error", func(t *testing.T) {
		svc := NewQueryService(&mocks.Embedder{Err: errors.New("quota")}, &mocks.EntityIndex{}, nil)
		_, err := svc.Index(t.Context(), indexGraph(), false)
		assert.ErrorContains(t, err, "generating embeddings")
	})
}

func TestQueryService_Search(t *testing.T) {
	hits := []ports.SearchHit{
		{ID: "Person/shawn", Type: "Person", Name: "Shawn", Score: 0.9},
		{ID: "Organization/regen", Type: "Organization", Name: "Regen", Score: 0.8},
	}
	idx := &mocks.EntityIndex{Hits: hits}
	svc := NewQueryService(&mocks.Embedder{EmbeddingResult: []float32{1}}, idx, nil)

	got, err := svc.Search(t.Context(), "who studies soil", 0)
	require.NoError(t, err)
	assert.Equal(t, hits, got)

	got, err = svc.Search(t.Context(), "who studies soil", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.SearchByType(t.Context(), "regen", "Organization", 5)
	require.NoError(t, err)
	assert.Equal(t, "Organization", idx.LastSearchType)
	assert.Equal(t, hits[1:], got)

	_, err = NewQueryService(&mocks.Embedder{Err: errors.New("down")}, idx, nil).Search(t.Context(), "x", 1)
	assert.ErrorContains(t, err, "generating query embedding")

	_, err = NewQueryService(&mocks.Embedder{}, &mocks.EntityIndex{Err: errors.New("down")}, nil).SearchByType(t.Context(), "x", "Person", 1)
	assert.ErrorContains(t, err, "searching entities by type")
}
