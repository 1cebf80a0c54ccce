package ports

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// ExtractionCache stores validated records per chunk so unchanged chunks
// skip the LLM on later runs.
type ExtractionCache interface {
	// Get returns cached records for key. A miss, including an expired
	// entry, returns ok == false.
	Get(ctx context.Context, key string) (records []entities.ExtractedRecord, ok bool, err error)

	// Put stores records under key.
	Put(ctx context.Context, key string, records []entities.ExtractedRecord) error
}

// RunLog persists end-of-run summaries.
type RunLog interface {
	// RecordRun stores a finished run summary.
	RecordRun(ctx context.Context, summary entities.RunSummary) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]entities.RunSummary, error)
}
