package mocks

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

// NoteStore is a mock implementation of ports.NoteStore.
type NoteStore struct {
	Notes      []ports.NoteRecord
	NoteErrors []error
	Err        error

	Written      []entities.ExtractedRecord
	IndexWritten int
	LastMeta     ports.NoteMeta
}

// WriteRecord records the write and returns a fake path.
func (m *NoteStore) WriteRecord(ctx context.Context, record entities.ExtractedRecord, meta ports.NoteMeta) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Written = append(m.Written, record)
	m.LastMeta = meta
	return record.Type + "/" + record.Name() + ".md", nil
}

// WriteIndex records the write.
func (m *NoteStore) WriteIndex(ctx context.Context, records []entities.ExtractedRecord, meta ports.NoteMeta) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.IndexWritten++
	return "Knowledge Extraction Index.md", nil
}

// ReadVault returns the configured notes.
func (m *NoteStore) ReadVault(ctx context.Context, dir string, pattern string) ([]ports.NoteRecord, []error, error) {
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.Notes, m.NoteErrors, nil
}
