// Package sources loads source files of different formats into plain text
// documents ready for chunking.
package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// converter turns raw file content into a document body.
type converter interface {
	Convert(path string, content []byte) (*entities.Document, error)
}

// Loader implements ports.SourceLoader by dispatching on file extension.
type Loader struct {
	converters map[string]converter
	logger     *zap.Logger
}

// NewLoader creates a loader for markdown, text, HTML and PDF sources.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	text := &TextConverter{}
	html := NewHTMLConverter()
	pdf := &PDFConverter{}
	return &Loader{
		converters: map[string]converter{
			".md":       text,
			".markdown": text,
			".txt":      text,
			".html":     html,
			".htm":      html,
			".pdf":      pdf,
		},
		logger: logger.Named("sources"),
	}
}

// Extensions lists the supported file extensions, sorted.
func (l *Loader) Extensions() []string {
	exts := make([]string, 0, len(l.converters))
	for ext := range l.converters {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Supports reports whether the file extension has a converter.
func (l *Loader) Supports(path string) bool {
	_, ok := l.converters[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads the file and converts it to a preprocessed document.
func (l *Loader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conv, ok := l.converters[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedSource, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	doc, err := conv.Convert(path, content)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}

	doc.ID = filepath.ToSlash(filepath.Clean(path))
	doc.Path = path
	doc.Text = Preprocess(doc.Text)
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	l.logger.Debug("source loaded",
		zap.String("path", path),
		zap.String("title", doc.Title),
		zap.Int("chars", len(doc.Text)),
	)
	return doc, nil
}
