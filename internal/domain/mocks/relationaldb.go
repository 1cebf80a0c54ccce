package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// ExtractionCache is an in-memory implementation of ports.ExtractionCache.
type ExtractionCache struct {
	Entries map[string][]entities.ExtractedRecord
	Err     error

	mu       sync.Mutex
	GetCalls int
	PutCalls int
}

// NewExtractionCache creates an empty cache.
func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{Entries: make(map[string][]entities.ExtractedRecord)}
}

// Get returns a copy of the cached records.
func (m *ExtractionCache) Get(_ context.Context, key string) ([]entities.ExtractedRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return nil, false, m.Err
	}
	records, ok := m.Entries[key]
	return slices.Clone(records), ok, nil
}

// Put stores records under key.
func (m *ExtractionCache) Put(_ context.Context, key string, records []entities.ExtractedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.Err != nil {
		return m.Err
	}
	m.Entries[key] = slices.Clone(records)
	return nil
}

// RunLog is an in-memory implementation of ports.RunLog.
type RunLog struct {
	Runs []entities.RunSummary
	Err  error
}

// RecordRun appends the summary.
func (m *RunLog) RecordRun(_ context.Context, summary entities.RunSummary) error {
	if m.Err != nil {
		return m.Err
	}
	m.Runs = append(m.Runs, summary)
	return nil
}

// ListRuns returns stored runs newest first.
func (m *RunLog) ListRuns(_ context.Context, limit int) ([]entities.RunSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := slices.Clone(m.Runs)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
