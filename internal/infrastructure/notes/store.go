// Package notes implements ports.NoteStore on an Obsidian-style vault of
// Markdown notes with YAML frontmatter.
package notes

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

const (
	defaultMaxFilenameLength = 100
	defaultPattern           = "**/*.md"
	fallbackFilename         = "unnamed_entity"
	indexFilename            = "Knowledge Extraction Index.md"
)

// tagsKey holds the merged note tags. A type that declares a tags property
// shares the key: its values are appended on write and recovered on read.
const tagsKey = "tags"

// metadataKeys are frontmatter keys written by the store that are neither
// properties nor relationships.
var metadataKeys = map[string]bool{
	"type":                  true,
	"created":               true,
	"source":                true,
	"extraction_date":       true,
	"extraction_confidence": true,
	"schema_version":        true,
	"tags":                  true,
	"aliases":               true,
}

// Store writes and reads entity notes.
type Store struct {
	cfg      config.VaultConfig
	ontology *entities.Ontology
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore creates a vault store rooted at cfg.Path. The ontology orders
// properties on write and classifies frontmatter keys on read; it may be nil.
func NewStore(cfg config.VaultConfig, ontology *entities.Ontology, logger *zap.Logger) *Store {
	if cfg.MaxFilenameLength <= 0 {
		cfg.MaxFilenameLength = defaultMaxFilenameLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:      cfg,
		ontology: ontology,
		logger:   logger.Named("notes"),
		now:      time.Now,
	}
}

// NotesDir is the folder extracted notes are written under.
func (s *Store) NotesDir() string {
	return filepath.Join(s.cfg.Path, s.cfg.NotesFolder)
}
