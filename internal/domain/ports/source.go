package ports

import (
	"context"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// SourceLoader turns a source file into plain text ready for chunking.
type SourceLoader interface {
	// Load reads and converts the file at path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// Supports reports whether path has a format the loader handles.
	Supports(path string) bool
}
