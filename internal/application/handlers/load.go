package handlers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/emitters"
)

// LoadHandler loads a resolved vault into a property-graph store.
type LoadHandler struct {
	convert *ConvertHandler
	store   ports.GraphStore
	logger  *zap.Logger
}

// NewLoadHandler creates a new load handler. store may be nil for dry runs.
func NewLoadHandler(convert *ConvertHandler, store ports.GraphStore, logger *zap.Logger) *LoadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoadHandler{
		convert: convert,
		store:   store,
		logger:  logger.Named("load"),
	}
}

// LoadOptions controls graph loading.
type LoadOptions struct {
	Pattern string
	BaseIRI string
	// DryRun builds the statements without executing them.
	DryRun bool
}

// LoadResult contains the result of a load.
type LoadResult struct {
	*ResolveResult
	Statements []string
	Executed   bool
}

// Handle resolves the vault under dir and executes its Cypher statements.
func (h *LoadHandler) Handle(ctx context.Context, ont *entities.Ontology, dir string, opts LoadOptions) (*LoadResult, error) {
	emitter, err := emitters.New("cypher", emitters.Options{BaseIRI: opts.BaseIRI, Ontology: ont})
	if err != nil {
		return nil, err
	}
	cypher, ok := emitter.(*emitters.Cypher)
	if !ok {
		return nil, errors.New("cypher emitter unavailable")
	}

	resolved, err := h.convert.HandleResolve(ctx, ont, dir, opts.Pattern)
	if err != nil {
		return nil, err
	}

	statements, err := cypher.Statements(resolved.Graph)
	if err != nil {
		return nil, fmt.Errorf("building statements: %w", err)
	}

	result := &LoadResult{ResolveResult: resolved, Statements: statements}
	if opts.DryRun {
		return result, nil
	}
	if h.store == nil {
		return nil, errors.New("no graph store configured")
	}

	if err := h.store.Execute(ctx, statements); err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	result.Executed = true

	h.logger.Info("graph loaded",
		zap.Int("statements", len(statements)),
		zap.Int("entities", len(resolved.Graph.Entities)),
		zap.Int("edges", len(resolved.Graph.Edges)))
	return result, nil
}

// TripleLoadHandler loads a resolved vault into an RDF triple store.
type TripleLoadHandler struct {
	convert *ConvertHandler
	store   ports.TripleStore
	logger  *zap.Logger
}

// NewTripleLoadHandler creates a new triple load handler. store may be nil
// for dry runs.
func NewTripleLoadHandler(convert *ConvertHandler, store ports.TripleStore, logger *zap.Logger) *TripleLoadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripleLoadHandler{
		convert: convert,
		store:   store,
		logger:  logger.Named("load"),
	}
}

// TripleLoadOptions controls triple store loading.
type TripleLoadOptions struct {
	Pattern string
	BaseIRI string
	// Replace swaps out the target graph instead of adding to it.
	Replace bool
	DryRun  bool
}

// TripleLoadResult contains the uploaded Turtle document.
type TripleLoadResult struct {
	*ResolveResult
	Turtle   []byte
	Executed bool
}

// Handle resolves the vault under dir and uploads it as Turtle.
func (h *TripleLoadHandler) Handle(ctx context.Context, ont *entities.Ontology, dir string, opts TripleLoadOptions) (*TripleLoadResult, error) {
	emitter, err := emitters.New("turtle", emitters.Options{BaseIRI: opts.BaseIRI, Ontology: ont})
	if err != nil {
		return nil, err
	}

	resolved, err := h.convert.HandleResolve(ctx, ont, dir, opts.Pattern)
	if err != nil {
		return nil, err
	}

	turtle, err := emitter.Emit(resolved.Graph)
	if err != nil {
		return nil, fmt.Errorf("emitting turtle: %w", err)
	}

	result := &TripleLoadResult{ResolveResult: resolved, Turtle: turtle}
	if opts.DryRun {
		return result, nil
	}
	if h.store == nil {
		return nil, errors.New("no triple store configured")
	}

	if err := h.store.Upload(ctx, "text/turtle", turtle, opts.Replace); err != nil {
		return nil, fmt.Errorf("loading triples: %w", err)
	}
	result.Executed = true

	h.logger.Info("triples loaded",
		zap.Int("bytes", len(turtle)),
		zap.Int("entities", len(resolved.Graph.Entities)),
		zap.Bool("replace", opts.Replace))
	return result, nil
}
