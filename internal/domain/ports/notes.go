package ports

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// NoteMeta is the extraction metadata written into note frontmatter.
type NoteMeta struct {
	Source         string
	SchemaVersion  string
	ExtractionDate string
}

// NoteRecord is a record read back from a vault note.
type NoteRecord struct {
	Path   string
	Record entities.ExtractedRecord
}

// NoteStore reads and writes Markdown notes with YAML frontmatter.
type NoteStore interface {
	// WriteRecord writes one note and returns its path.
	WriteRecord(ctx context.Context, record entities.ExtractedRecord, meta NoteMeta) (string, error)

	// WriteIndex writes an index note linking every record.
	WriteIndex(ctx context.Context, records []entities.ExtractedRecord, meta NoteMeta) (string, error)

	// ReadVault parses every note under dir matching pattern.
	ReadVault(ctx context.Context, dir string, pattern string) ([]NoteRecord, []error, error)
}
