package handlers

import (
	"context"
	"fmt"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
)

// QueryHandler handles entity indexing and similarity search.
type QueryHandler struct {
	convert      *ConvertHandler
	queryService *services.QueryService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(convert *ConvertHandler, queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		convert:      convert,
		queryService: queryService,
	}
}

// IndexResult contains the result of indexing a vault.
type IndexResult struct {
	*ResolveResult
	Indexed int
	Skipped int
}

// QueryResult contains the result of a query.
type QueryResult struct {
	Query string
	Hits  []ports.SearchHit
}

// HandleIndex resolves the vault under dir and indexes its entities.
func (h *QueryHandler) HandleIndex(ctx context.Context, ont *entities.Ontology, dir, pattern string, includeStubs bool) (*IndexResult, error) {
	resolved, err := h.convert.HandleResolve(ctx, ont, dir, pattern)
	if err != nil {
		return nil, err
	}

	indexed, err := h.queryService.Index(ctx, resolved.Graph, includeStubs)
	if err != nil {
		return nil, fmt.Errorf("indexing entities: %w", err)
	}

	return &IndexResult{
		ResolveResult: resolved,
		Indexed:       indexed.Indexed,
		Skipped:       indexed.Skipped,
	}, nil
}

// Handle searches for entities matching the query.
func (h *QueryHandler) Handle(ctx context.Context, query string, limit int) (*QueryResult, error) {
	hits, err := h.queryService.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}

	return &QueryResult{
		Query: query,
		Hits:  hits,
	}, nil
}

// HandleByType searches for entities of one type.
func (h *QueryHandler) HandleByType(ctx context.Context, query string, entityType string, limit int) (*QueryResult, error) {
	hits, err := h.queryService.SearchByType(ctx, query, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entities by type: %w", err)
	}

	return &QueryResult{
		Query: query,
		Hits:  hits,
	}, nil
}
