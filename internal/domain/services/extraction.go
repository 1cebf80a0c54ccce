// Package services contains domain business logic.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

const (
	// DefaultChunkSize is the default size for text chunks.
	DefaultChunkSize = 4000
	// DefaultChunkOverlap is the default overlap between chunks.
	DefaultChunkOverlap = 200
	// DefaultMaxAttempts bounds LLM calls per chunk, first try included.
	DefaultMaxAttempts = 3
	// DefaultQualityThreshold drops records the model is unsure about.
	DefaultQualityThreshold = 0.7
	// DefaultChunkTimeout bounds one chunk including its retries.
	DefaultChunkTimeout = 90 * time.Second
)

// ExtractionOptions controls extraction behavior.
type ExtractionOptions struct {
	// ExpectedType switches to file-as-entity mode: each document is one
	// instance of this type.
	ExpectedType     string
	MaxAttempts      int
	QualityThreshold float64
	ChunkSize        int
	ChunkOverlap     int
	ChunkTimeout     time.Duration
	// OnProgress is called after every finished chunk of a batch.
	OnProgress func(completed, total int)
}

func (o ExtractionOptions) withDefaults() ExtractionOptions {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = min(DefaultChunkOverlap, o.ChunkSize/2)
	}
	if o.ChunkTimeout <= 0 {
		o.ChunkTimeout = DefaultChunkTimeout
	}
	return o
}

// DocumentResult is the extraction outcome for one document.
type DocumentResult struct {
	Document *entities.Document
	Records  []entities.ExtractedRecord
	Summary  entities.RunSummary
}

// BatchResult is the extraction outcome for a set of documents. Records are
// in document order, ready for a single resolution pass.
type BatchResult struct {
	Documents []DocumentResult
	Records   []entities.ExtractedRecord
	Summary   entities.RunSummary
}

// chunkOutcome is what one worker hands back to the collector.
type chunkOutcome struct {
	records  []entities.ExtractedRecord
	attempts int
	cached   bool
	rejected int
	failure  *entities.ChunkFailure
}

// ExtractionService drives chunk extraction: prompt, LLM call, validation
// and corrective retries.
type ExtractionService struct {
	llm     ports.LLMClient
	cache   ports.ExtractionCache
	metrics ports.Metrics
	pool    *WorkerPool
	logger  *zap.Logger
}

// NewExtractionService creates a new extraction service. cache and metrics
// may be nil.
func NewExtractionService(llm ports.LLMClient, cache ports.ExtractionCache, metrics ports.Metrics, pool *WorkerPool, logger *zap.Logger) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = NewWorkerPool(DefaultWorkerPoolConfig(), logger)
	}
	return &ExtractionService{
		llm:     llm,
		cache:   cache,
		metrics: metrics,
		pool:    pool,
		logger:  logger.Named("extraction"),
	}
}

// ExtractDocument extracts one document. Chunks that exhaust their retries
// are reported in the summary; the document still returns whatever the
// other chunks produced.
func (s *ExtractionService) ExtractDocument(ctx context.Context, ont *entities.Ontology, doc *entities.Document, opts ExtractionOptions) DocumentResult {
	batch := s.ExtractBatch(ctx, ont, []*entities.Document{doc}, opts)
	if len(batch.Documents) == 0 {
		return DocumentResult{Document: doc}
	}
	return batch.Documents[0]
}

// ExtractBatch extracts every chunk of every document through the worker
// pool, then collects results per document in input order.
func (s *ExtractionService) ExtractBatch(ctx context.Context, ont *entities.Ontology, docs []*entities.Document, opts ExtractionOptions) BatchResult {
	opts = opts.withDefaults()
	started := time.Now()

	result := BatchResult{
		Summary: entities.RunSummary{
			ID:        uuid.New().String(),
			Ontology:  ont.Name,
			StartedAt: started,
		},
	}

	instructions, err := s.instructions(ont, opts)
	if err != nil {
		for _, doc := range docs {
			result.Documents = append(result.Documents, DocumentResult{
				Document: doc,
				Summary: entities.RunSummary{
					Documents:       1,
					DocumentsFailed: 1,
					Failures:        []entities.ChunkFailure{{SourceID: doc.ID, Err: err.Error()}},
				},
			})
		}
		return s.finish(result)
	}

	validator := NewRecordValidator(ont)

	type chunkRef struct {
		doc   int
		index int
	}
	var refs []chunkRef
	var items []WorkItem[chunkOutcome]
	for d, doc := range docs {
		for i, chunk := range ChunkText(doc.Text, opts.ChunkSize, opts.ChunkOverlap) {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			refs = append(refs, chunkRef{doc: d, index: i})
			items = append(items, WorkItem[chunkOutcome]{
				ID: fmt.Sprintf("%s#%d", doc.ID, i),
				Execute: func(ctx context.Context) (chunkOutcome, error) {
					ctx, cancel := context.WithTimeout(ctx, opts.ChunkTimeout)
					defer cancel()
					return s.extractChunk(ctx, ont, validator, instructions, doc, i, chunk, opts), nil
				},
			})
		}
	}

	outcomes := Process(ctx, s.pool, items, opts.OnProgress)

	perDoc := make([][]chunkOutcome, len(docs))
	for n, out := range outcomes {
		ref := refs[n]
		oc := out.Result
		if out.Err != nil {
			oc = chunkOutcome{failure: &entities.ChunkFailure{SourceID: docs[ref.doc].ID, Chunk: ref.index, Err: out.Err.Error()}}
		}
		perDoc[ref.doc] = append(perDoc[ref.doc], oc)
	}

	for d, doc := range docs {
		dr := s.collectDocument(doc, perDoc[d], opts)
		result.Documents = append(result.Documents, dr)
		result.Records = append(result.Records, dr.Records...)
	}

	return s.finish(result)
}

func (s *ExtractionService) finish(result BatchResult) BatchResult {
	for _, dr := range result.Documents {
		result.Summary.Add(dr.Summary)
	}
	result.Summary.FinishedAt = time.Now()

	if s.metrics != nil {
		s.metrics.ObserveRun(result.Summary)
	}
	s.logger.Info("extraction finished",
		zap.String("run", result.Summary.ID),
		zap.Int("documents", result.Summary.Documents),
		zap.Int("chunks_accepted", result.Summary.ChunksAccepted),
		zap.Int("chunks_failed", result.Summary.ChunksFailed),
		zap.Int("chunks_cached", result.Summary.ChunksCached),
		zap.Int("records", result.Summary.RecordsAccepted),
		zap.Duration("took", result.Summary.Duration()))
	return result
}

func (s *ExtractionService) instructions(ont *entities.Ontology, opts ExtractionOptions) (string, error) {
	builder := NewPromptBuilder(ont)
	if opts.ExpectedType != "" {
		return builder.BuildForType(opts.ExpectedType)
	}
	return builder.Build(nil)
}

// collectDocument filters, merges and counts the chunk outcomes of one
// document.
func (s *ExtractionService) collectDocument(doc *entities.Document, outcomes []chunkOutcome, opts ExtractionOptions) DocumentResult {
	dr := DocumentResult{
		Document: doc,
		Summary:  entities.RunSummary{Documents: 1, ChunksTotal: len(outcomes)},
	}

	var kept []entities.ExtractedRecord
	for _, oc := range outcomes {
		switch {
		case oc.failure != nil:
			dr.Summary.ChunksFailed++
			dr.Summary.Failures = append(dr.Summary.Failures, *oc.failure)
		case oc.cached:
			dr.Summary.ChunksCached++
		default:
			dr.Summary.ChunksAccepted++
		}
		dr.Summary.RecordsRejected += oc.rejected

		for _, rec := range oc.records {
			if rec.Provenance.Confidence < opts.QualityThreshold {
				dr.Summary.RecordsFiltered++
				continue
			}
			kept = append(kept, rec)
		}
	}

	dr.Records = mergeDuplicates(kept)
	dr.Summary.RecordsAccepted = len(dr.Records)
	if len(outcomes) > 0 && dr.Summary.ChunksFailed == len(outcomes) {
		dr.Summary.DocumentsFailed = 1
	}

	if dr.Summary.ChunksFailed > 0 {
		s.logger.Warn("document had failed chunks",
			zap.String("source", doc.ID),
			zap.Int("failed", dr.Summary.ChunksFailed),
			zap.Int("total", len(outcomes)))
	}
	return dr
}

// extractChunk runs the validate-and-retry loop for one chunk.
func (s *ExtractionService) extractChunk(ctx context.Context, ont *entities.Ontology, validator *RecordValidator, instructions string, doc *entities.Document, index int, chunk string, opts ExtractionOptions) chunkOutcome {
	started := time.Now()
	key := CacheKey(ont.Fingerprint, opts.ExpectedType, chunk)

	if s.cache != nil {
		records, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("cache lookup failed", zap.String("source", doc.ID), zap.Int("chunk", index), zap.Error(err))
		case ok:
			for i := range records {
				records[i].Provenance.SourceID = doc.ID
				records[i].Provenance.Chunk = index
			}
			s.observe(ports.ChunkCached, started)
			return chunkOutcome{records: records, cached: true}
		}
	}

	logger := s.logger.With(zap.String("source", doc.ID), zap.Int("chunk", index))
	vopts := ValidationOptions{FileAsEntity: opts.ExpectedType != "", SourceID: doc.ID, Chunk: index}

	var (
		violations []string
		accepted   []entities.ExtractedRecord
		rejected   int
		lastErr    error
	)
	attempt := 0
	for attempt < opts.MaxAttempts {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		attempt++

		prompt := instructions
		if attempt > 1 {
			prompt = AppendGuidance(instructions, attempt-1, opts.MaxAttempts, violations)
		}

		raw, err := s.llm.Extract(ctx, prompt, chunk)
		if err != nil {
			lastErr = err
			violations = []string{"the response could not be used: " + err.Error()}
			logger.Debug("extraction attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		lastErr = nil

		accepted, violations, rejected = validateAll(validator, raw, vopts, opts.ExpectedType)
		if len(violations) == 0 {
			if s.cache != nil {
				if err := s.cache.Put(ctx, key, accepted); err != nil {
					logger.Warn("cache store failed", zap.Error(err))
				}
			}
			s.observe(ports.ChunkAccepted, started)
			return chunkOutcome{records: accepted, attempts: attempt}
		}

		logger.Debug("extraction rejected",
			zap.Int("attempt", attempt),
			zap.Int("violations", len(violations)),
			zap.Strings("details", violations))
	}

	failure := &entities.ChunkFailure{
		SourceID:   doc.ID,
		Chunk:      index,
		Attempts:   attempt,
		Violations: violations,
		Err:        entities.ErrRetriesExhausted.Error(),
	}
	if lastErr != nil {
		failure.Err = fmt.Errorf("%w: %w", entities.ErrRetriesExhausted, lastErr).Error()
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			failure.Err = lastErr.Error()
		}
	}
	logger.Warn("chunk dropped",
		zap.Int("attempts", attempt),
		zap.String("reason", failure.Err),
		zap.Strings("violations", violations))

	s.observe(ports.ChunkFailed, started)
	return chunkOutcome{records: accepted, attempts: attempt, rejected: rejected, failure: failure}
}

func (s *ExtractionService) observe(status string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveChunk(status, time.Since(started))
	}
}

// validateAll validates every entity of one response. It returns the
// accepted records, the violation messages used as retry guidance and the
// number of rejected entities.
func validateAll(v *RecordValidator, raw *entities.RawExtraction, opts ValidationOptions, expectedType string) ([]entities.ExtractedRecord, []string, int) {
	var (
		accepted   []entities.ExtractedRecord
		violations []string
		rejected   int
	)
	if raw == nil {
		return nil, []string{"the response contained no entities object"}, 0
	}

	for i, ent := range raw.Entities {
		res := v.Validate(ent, opts)
		if res.Accepted() {
			accepted = append(accepted, *res.Record)
			continue
		}
		rejected++
		label := fmt.Sprintf("entity %d", i+1)
		if t, ok := ent["type"].(string); ok && t != "" {
			label += " (" + t + ")"
		}
		for _, msg := range res.Messages() {
			violations = append(violations, label+": "+msg)
		}
	}

	if expectedType != "" && rejected == 0 {
		found := false
		for i := range accepted {
			if accepted[i].Type == expectedType {
				found = true
				break
			}
		}
		if !found {
			violations = append(violations, fmt.Sprintf("no %s entity was returned; the document itself must be extracted as one %s", expectedType, expectedType))
		}
	}

	return accepted, violations, rejected
}

// mergeDuplicates folds records with the same type and name together.
// The first record wins.
func mergeDuplicates(records []entities.ExtractedRecord) []entities.ExtractedRecord {
	out := make([]entities.ExtractedRecord, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		key := rec.Type + "\x00" + entities.DedupKey(rec.Name())
		if idx, ok := seen[key]; ok {
			out[idx].Merge(&rec)
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// CacheKey identifies a chunk extraction: the same text under the same
// ontology and mode always yields the same prompt.
func CacheKey(fingerprint, expectedType, chunk string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(expectedType))
	h.Write([]byte{0})
	h.Write([]byte(chunk))
	return hex.EncodeToString(h.Sum(nil))
}

// ChunkText splits text into chunks with overlap, breaking on paragraph
// boundaries. A paragraph longer than chunkSize is hard-split.
func ChunkText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	var currentChunk strings.Builder
	for _, para := range splitParagraphs(text, chunkSize) {
		if currentChunk.Len()+len(para)+2 > chunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())

			overlapText := getOverlapText(currentChunk.String(), overlap)
			currentChunk.Reset()
			if overlapText != "" && len(overlapText)+len(para)+2 <= chunkSize {
				currentChunk.WriteString(overlapText)
			}
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(para)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	if len(chunks) == 0 && len(text) > 0 {
		chunks = append(chunks, text)
	}

	return chunks
}

func splitParagraphs(text string, chunkSize int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		for len(para) > chunkSize {
			cut := runeBoundary(para, chunkSize)
			if i := strings.LastIndexAny(para[:cut], " \n"); i > chunkSize/2 {
				cut = i
			}
			out = append(out, strings.TrimSpace(para[:cut]))
			para = strings.TrimSpace(para[cut:])
		}
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

// getOverlapText returns roughly the last n bytes of text for overlap,
// starting on a rune boundary.
func getOverlapText(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	start := len(text) - n
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[start:]
}

// runeBoundary returns the largest index <= n that starts a rune.
func runeBoundary(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	if n == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return n
}
