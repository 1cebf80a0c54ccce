package ports

import (
	"time"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// Chunk outcome labels reported to Metrics.
const (
	ChunkAccepted = "accepted"
	ChunkFailed   = "failed"
	ChunkCached   = "cached"
)

// Metrics receives pipeline observations.
type Metrics interface {
	ObserveChunk(status string, took time.Duration)
	ObserveRun(summary entities.RunSummary)
	ObserveResolution(report entities.QualityReport)
}
