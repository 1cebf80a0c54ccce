package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

// DefaultHistoryLimit is the number of runs listed when no limit is given.
const DefaultHistoryLimit = 20

// HistoryHandler lists past extraction runs.
type HistoryHandler struct {
	runs ports.RunLog
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(runs ports.RunLog) *HistoryHandler {
	return &HistoryHandler{
		runs: runs,
	}
}

// Handle returns the most recent runs, newest first.
func (h *HistoryHandler) Handle(ctx context.Context, limit int) ([]entities.RunSummary, error) {
	if h.runs == nil {
		return nil, errors.New("run log disabled (set cache.enabled: true)")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	runs, err := h.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
