package entities

import "time"

// ChunkFailure describes a chunk dropped after its retries ran out.
type ChunkFailure struct {
	SourceID   string   `json:"source_id"`
	Chunk      int      `json:"chunk"`
	Attempts   int      `json:"attempts"`
	Violations []string `json:"violations,omitempty"`
	Err        string   `json:"error,omitempty"`
}

// RunSummary is the end-of-run account of an extraction batch.
type RunSummary struct {
	ID              string         `json:"id"`
	Ontology        string         `json:"ontology"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Documents       int            `json:"documents"`
	DocumentsFailed int            `json:"documents_failed"`
	ChunksTotal     int            `json:"chunks_total"`
	ChunksAccepted  int            `json:"chunks_accepted"`
	ChunksFailed    int            `json:"chunks_failed"`
	ChunksCached    int            `json:"chunks_cached"`
	RecordsAccepted int            `json:"records_accepted"`
	RecordsRejected int            `json:"records_rejected"`
	RecordsFiltered int            `json:"records_filtered"`
	Failures        []ChunkFailure `json:"failures,omitempty"`
}

// Add folds another summary's counters into s.
func (s *RunSummary) Add(other RunSummary) {
	s.Documents += other.Documents
	s.DocumentsFailed += other.DocumentsFailed
	s.ChunksTotal += other.ChunksTotal
	s.ChunksAccepted += other.ChunksAccepted
	s.ChunksFailed += other.ChunksFailed
	s.ChunksCached += other.ChunksCached
	s.RecordsAccepted += other.RecordsAccepted
	s.RecordsRejected += other.RecordsRejected
	s.RecordsFiltered += other.RecordsFiltered
	s.Failures = append(s.Failures, other.Failures...)
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
