package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRetriesExhausted marks a chunk whose extraction never validated.
	ErrRetriesExhausted = errors.New("extraction retries exhausted")
	// ErrNoEntities is returned when a batch produced nothing to resolve.
	ErrNoEntities = errors.New("no entities to resolve")
	// ErrUnsupportedSource is returned for source files no loader handles.
	ErrUnsupportedSource = errors.New("unsupported source format")
)

// OntologyError is a structural problem in an ontology document.
// Always fatal for the run.
type OntologyError struct {
	Type   string
	Reason string
}

func (e *OntologyError) Error() string {
	if e.Type == "" {
		return "OntologyError: " + e.Reason
	}
	return fmt.Sprintf("OntologyError: %s (type %s)", e.Reason, e.Type)
}

// OntologyErrors collects every structural problem found in one pass.
type OntologyErrors []*OntologyError

func (e OntologyErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d ontology errors: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e OntologyErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, err := range e {
		out[i] = err
	}
	return out
}

// SchemaErrorKind classifies record validation failures.
type SchemaErrorKind string

// Schema error kinds, in the order the validator checks them.
const (
	KindUnknownType              SchemaErrorKind = "unknown type"
	KindMissingRequired          SchemaErrorKind = "missing required property"
	KindInvalidProperty          SchemaErrorKind = "invalid property"
	KindInvalidRelationshipValue SchemaErrorKind = "invalid relationship value"
	KindUndeclaredRelationship   SchemaErrorKind = "undeclared relationship"
	KindUndeclaredProperty       SchemaErrorKind = "undeclared property"
)

// SchemaError is a single violation found while validating a record.
type SchemaError struct {
	Kind    SchemaErrorKind
	Type    string
	Key     string
	Detail  string
	Allowed []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("SchemaError: ")
	b.WriteString(string(e.Kind))
	if e.Key != "" {
		b.WriteString(" ")
		b.WriteString(e.Key)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Allowed) > 0 {
		b.WriteString(" (allowed values: ")
		b.WriteString(strings.Join(e.Allowed, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// ResolutionWarning reports an ambiguous reference that was settled by the
// tie-break heuristic. Never fatal.
type ResolutionWarning struct {
	Source     string   `json:"source"`
	Relation   string   `json:"relation"`
	Reference  string   `json:"reference"`
	Candidates []string `json:"candidates"`
	Chosen     string   `json:"chosen"`
	Reason     string   `json:"reason"`
}

func (w ResolutionWarning) String() string {
	return fmt.Sprintf("ResolutionWarning: %q from %s.%s matched %s; chose %s (%s)",
		w.Reference, w.Source, w.Relation, strings.Join(w.Candidates, ", "), w.Chosen, w.Reason)
}

// EmissionError means a resolved graph could not be rendered. It signals a
// resolver invariant violation, not bad input.
type EmissionError struct {
	Format string
	ID     string
	Reason string
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("EmissionError: %s: %s (%s)", e.Format, e.Reason, e.ID)
}

// IsOntologyError reports whether err contains an OntologyError.
func IsOntologyError(err error) bool {
	var oe *OntologyError
	return errors.As(err, &oe)
}
