package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/emitters"
)

// ConvertHandler turns a vault of notes into a resolved graph and
// serializes it.
type ConvertHandler struct {
	notes   ports.NoteStore
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewConvertHandler creates a new convert handler. metrics may be nil.
func NewConvertHandler(notes ports.NoteStore, metrics ports.Metrics, logger *zap.Logger) *ConvertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConvertHandler{
		notes:   notes,
		metrics: metrics,
		logger:  logger.Named("convert"),
	}
}

// ResolveResult is a vault read back and resolved.
type ResolveResult struct {
	Records []entities.ExtractedRecord
	Graph   *entities.ResolvedGraph
	// Problems are notes that could not be parsed.
	Problems []error
}

// ConvertOptions controls graph serialization.
type ConvertOptions struct {
	Pattern string
	Format  string
	BaseIRI string
}

// ConvertResult contains the serialized graph.
type ConvertResult struct {
	*ResolveResult
	Format    string
	Extension string
	Output    []byte
}

// HandleResolve reads every note under dir and resolves the records into
// one graph.
func (h *ConvertHandler) HandleResolve(ctx context.Context, ont *entities.Ontology, dir, pattern string) (*ResolveResult, error) {
	notes, problems, err := h.notes.ReadVault(ctx, dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("reading vault: %w", err)
	}
	for _, p := range problems {
		h.logger.Warn("skipping note", zap.Error(p))
	}

	records := make([]entities.ExtractedRecord, len(notes))
	for i, n := range notes {
		records[i] = n.Record
	}
	if len(records) == 0 {
		return &ResolveResult{Problems: problems}, entities.ErrNoEntities
	}

	graph := services.NewEntityResolver(ont).Resolve(records)
	if h.metrics != nil {
		h.metrics.ObserveResolution(graph.Report)
	}
	h.logger.Info("vault resolved",
		zap.Int("notes", len(records)),
		zap.Int("entities", graph.Report.Entities),
		zap.Int("stubs", graph.Report.Stubs),
		zap.Float64("link_quality", graph.Report.LinkQuality))

	return &ResolveResult{
		Records:  records,
		Graph:    graph,
		Problems: problems,
	}, nil
}

// Handle resolves the vault and serializes the graph in opts.Format.
func (h *ConvertHandler) Handle(ctx context.Context, ont *entities.Ontology, dir string, opts ConvertOptions) (*ConvertResult, error) {
	emitter, err := emitters.New(opts.Format, emitters.Options{BaseIRI: opts.BaseIRI, Ontology: ont})
	if err != nil {
		return nil, err
	}

	resolved, err := h.HandleResolve(ctx, ont, dir, opts.Pattern)
	if err != nil {
		return nil, err
	}

	out, err := emitter.Emit(resolved.Graph)
	if err != nil {
		return nil, fmt.Errorf("emitting %s: %w", emitter.Name(), err)
	}

	return &ConvertResult{
		ResolveResult: resolved,
		Format:        emitter.Name(),
		Extension:     emitter.Extension(),
		Output:        out,
	}, nil
}
