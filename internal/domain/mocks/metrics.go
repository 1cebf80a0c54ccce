package mocks

import (
	"sync"
	"time"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// Metrics is a mock implementation of ports.Metrics.
type Metrics struct {
	mu      sync.Mutex
	Chunks  map[string]int
	Runs    []entities.RunSummary
	Reports []entities.QualityReport
}

// ObserveChunk counts chunks by status.
func (m *Metrics) ObserveChunk(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Chunks == nil {
		m.Chunks = make(map[string]int)
	}
	m.Chunks[status]++
}

// ObserveRun records the summary.
func (m *Metrics) ObserveRun(summary entities.RunSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, summary)
}

// ObserveResolution records the report.
func (m *Metrics) ObserveResolution(report entities.QualityReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, report)
}

// ChunkCount returns the number of chunks observed with status.
func (m *Metrics) ChunkCount(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Chunks[status]
}
