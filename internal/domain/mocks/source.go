package mocks

import (
	"context"
	"fmt"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// SourceLoader is a mock implementation of ports.SourceLoader backed by a
// path to text map.
type SourceLoader struct {
	Files map[string]string
	Err   error
}

// Load returns the configured text as a document.
func (m *SourceLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	text, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedSource, path)
	}
	return &entities.Document{ID: path, Path: path, Text: text}, nil
}

// Supports reports whether the path is configured.
func (m *SourceLoader) Supports(path string) bool {
	_, ok := m.Files[path]
	return ok
}
