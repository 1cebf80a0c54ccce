package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

// DefaultSearchLimit is the default number of results to return.
const DefaultSearchLimit = 10

// QueryService indexes resolved entities and searches them by meaning.
type QueryService struct {
	embedder ports.Embedder
	index    ports.EntityIndex
	logger   *zap.Logger
}

// NewQueryService creates a new query service.
func NewQueryService(embedder ports.Embedder, index ports.EntityIndex, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		embedder: embedder,
		index:    index,
		logger:   logger.Named("query"),
	}
}

// IndexResult reports an indexing pass.
type IndexResult struct {
	Indexed int
	Skipped int // stubs left out
}

// Index embeds every real entity of the graph and upserts it. Stubs are
// indexed too when includeStubs is set. Reindexing the same graph
// overwrites the same points.
func (s *QueryService) Index(ctx context.Context, graph *entities.ResolvedGraph, includeStubs bool) (*IndexResult, error) {
	if graph == nil || len(graph.Entities) == 0 {
		return nil, entities.ErrNoEntities
	}

	var selected []entities.ResolvedEntity
	result := &IndexResult{}
	for _, e := range graph.Entities {
		if e.Stub && !includeStubs {
			result.Skipped++
			continue
		}
		selected = append(selected, e)
	}
	if len(selected) == 0 {
		return nil, errors.New("no entities to index: every entity is a stub")
	}

	if err := s.index.EnsureCollection(ctx, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	texts := make([]string, len(selected))
	for i := range selected {
		texts[i] = EmbeddingText(&selected[i])
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}
	if len(vectors) != len(selected) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d entities", len(vectors), len(selected))
	}

	items := make([]ports.IndexedEntity, len(selected))
	for i := range selected {
		items[i] = ports.IndexedEntity{Entity: selected[i], Embedding: vectors[i]}
	}
	if err := s.index.Upsert(ctx, items); err != nil {
		return nil, fmt.Errorf("storing entities: %w", err)
	}

	result.Indexed = len(items)
	s.logger.Info("entities indexed", zap.Int("indexed", result.Indexed), zap.Int("skipped", result.Skipped))
	return result, nil
}

// Search finds entities semantically similar to the query.
func (s *QueryService) Search(ctx context.Context, query string, limit int) ([]ports.SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	hits, err := s.index.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}

	return hits, nil
}

// SearchByType finds entities of one type.
func (s *QueryService) SearchByType(ctx context.Context, query string, entityType string, limit int) ([]ports.SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	hits, err := s.index.SearchByType(ctx, embedding, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entities by type: %w", err)
	}

	return hits, nil
}

// EmbeddingText is the text embedded for an entity: its name, type and
// description.
func EmbeddingText(e *entities.ResolvedEntity) string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteString(" (")
	b.WriteString(e.Type)
	b.WriteString(")")
	if desc, ok := e.Properties["description"].(string); ok && strings.TrimSpace(desc) != "" {
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(desc))
	}
	return b.String()
}
