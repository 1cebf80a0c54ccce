package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
)

// DefaultSourcePattern selects every file below a directory input.
const DefaultSourcePattern = "**/*"

// ErrNoSources is returned when the inputs contain no loadable file.
var ErrNoSources = errors.New("no supported source files found")

// ExtractHandler handles source extraction into vault notes.
type ExtractHandler struct {
	loader     ports.SourceLoader
	extraction *services.ExtractionService
	notes      ports.NoteStore
	runs       ports.RunLog
	metrics    ports.Metrics
	logger     *zap.Logger
}

// NewExtractHandler creates a new extract handler. runs and metrics may be
// nil.
func NewExtractHandler(
	loader ports.SourceLoader,
	extraction *services.ExtractionService,
	notes ports.NoteStore,
	runs ports.RunLog,
	metrics ports.Metrics,
	logger *zap.Logger,
) *ExtractHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractHandler{
		loader:     loader,
		extraction: extraction,
		notes:      notes,
		runs:       runs,
		metrics:    metrics,
		logger:     logger.Named("extract"),
	}
}

// ExtractOptions controls extraction behavior.
type ExtractOptions struct {
	// Pattern filters files below directory inputs.
	Pattern    string
	Extraction services.ExtractionOptions
	// WriteIndex adds an index note linking every extracted entity.
	WriteIndex bool
	// DryRun extracts and resolves without writing notes.
	DryRun bool
	// OnFile is called before each file is loaded.
	OnFile func(path string)
}

// ExtractResult contains the result of one extraction run.
type ExtractResult struct {
	Files     []string
	Batch     services.BatchResult
	Graph     *entities.ResolvedGraph
	Notes     []string
	IndexNote string
	// Errors holds per-file load failures and note write failures.
	Errors []error
}

// Handle extracts every supported file among paths. Directories are
// expanded with opts.Pattern.
func (h *ExtractHandler) Handle(ctx context.Context, ont *entities.Ontology, paths []string, opts ExtractOptions) (*ExtractResult, error) {
	files, err := h.findFiles(paths, opts.Pattern)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoSources
	}

	result := &ExtractResult{Files: files}

	docs := make([]*entities.Document, 0, len(files))
	for _, file := range files {
		if opts.OnFile != nil {
			opts.OnFile(file)
		}
		doc, err := h.loader.Load(ctx, file)
		if err != nil {
			h.logger.Warn("skipping source", zap.String("path", file), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", file, err))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return result, fmt.Errorf("loading sources: %w", errors.Join(result.Errors...))
	}

	result.Batch = h.extraction.ExtractBatch(ctx, ont, docs, opts.Extraction)
	loadFailures := len(files) - len(docs)
	result.Batch.Summary.Documents += loadFailures
	result.Batch.Summary.DocumentsFailed += loadFailures

	result.Graph = services.NewEntityResolver(ont).Resolve(result.Batch.Records)
	if h.metrics != nil {
		h.metrics.ObserveResolution(result.Graph.Report)
	}

	if !opts.DryRun {
		h.writeNotes(ctx, ont, result, opts, paths)
	}

	if h.runs != nil {
		if err := h.runs.RecordRun(ctx, result.Batch.Summary); err != nil {
			h.logger.Warn("recording run", zap.Error(err))
			result.Errors = append(result.Errors, fmt.Errorf("recording run: %w", err))
		}
	}

	return result, nil
}

func (h *ExtractHandler) writeNotes(ctx context.Context, ont *entities.Ontology, result *ExtractResult, opts ExtractOptions, inputs []string) {
	extracted := result.Batch.Summary.StartedAt.UTC().Format(time.RFC3339)

	for _, record := range result.Batch.Records {
		path, err := h.notes.WriteRecord(ctx, record, ports.NoteMeta{
			SchemaVersion:  ont.Version,
			ExtractionDate: extracted,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("writing note for %s %q: %w", record.Type, record.Name(), err))
			continue
		}
		result.Notes = append(result.Notes, path)
	}

	if !opts.WriteIndex || len(result.Batch.Records) == 0 {
		return
	}
	path, err := h.notes.WriteIndex(ctx, result.Batch.Records, ports.NoteMeta{
		Source:         strings.Join(inputs, ", "),
		SchemaVersion:  ont.Version,
		ExtractionDate: extracted,
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("writing index note: %w", err))
		return
	}
	result.IndexNote = path
}

// findFiles expands directories and keeps explicit files as given.
// Directory matches the loader cannot read are skipped silently.
func (h *ExtractHandler) findFiles(paths []string, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultSourcePattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("accessing path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(p), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", p, err)
		}
		for _, m := range matches {
			if isHidden(m) {
				continue
			}
			full := filepath.Join(p, filepath.FromSlash(m))
			if h.loader.Supports(full) {
				files = append(files, full)
			}
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// isHidden reports whether any segment of a slash-separated path starts
// with a dot.
func isHidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
