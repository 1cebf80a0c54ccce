// Package parsers decodes ontology documents and note frontmatter.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// Parser decodes an ontology document without validating it.
type Parser interface {
	Parse(r io.Reader) (*entities.OntologyDocument, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "yaml", "yml", "json" and "jsonld" for RDFS or OWL
// vocabularies.
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return &YAMLParser{}
	case "json":
		return &JSONParser{}
	case "jsonld":
		return &RDFSParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
