package services

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// ValidationState is a step of the per-record validation state machine.
type ValidationState string

// Validation states in the order a record moves through them.
const (
	StateReceived          ValidationState = "RECEIVED"
	StateStructuralCheck   ValidationState = "STRUCTURAL_CHECK"
	StateTypeCheck         ValidationState = "TYPE_CHECK"
	StateRelationshipCheck ValidationState = "RELATIONSHIP_CHECK"
	StateAccepted          ValidationState = "ACCEPTED"
	StateRejected          ValidationState = "REJECTED"
)

// FileEntitySlots are the free-form relationship keys tolerated on any type
// when a document is extracted as a single entity.
var FileEntitySlots = []string{"notes", "attachments", "related"}

// Keys of a raw entity object that are not properties.
var reservedKeys = map[string]bool{
	"type":           true,
	"entity_type":    true,
	"properties":     true,
	"relationships":  true,
	"confidence":     true,
	"source_context": true,
}

// ValidationOptions carries per-call context for validation.
type ValidationOptions struct {
	FileAsEntity bool
	SourceID     string
	Chunk        int
}

// ValidationResult is the outcome of one validation attempt.
type ValidationResult struct {
	State      ValidationState
	Trace      []ValidationState
	Record     *entities.ExtractedRecord
	Violations []*entities.SchemaError
	// Warnings are repairs that did not reject the record, such as dropped
	// undeclared properties.
	Warnings []*entities.SchemaError
}

// Accepted reports whether the record passed validation.
func (r *ValidationResult) Accepted() bool {
	return r.State == StateAccepted
}

// Messages renders the violations for logs and corrective guidance.
func (r *ValidationResult) Messages() []string {
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Error()
	}
	return out
}

func (r *ValidationResult) enter(s ValidationState) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

func (r *ValidationResult) reject(errs ...*entities.SchemaError) {
	r.Violations = append(r.Violations, errs...)
}

// RecordValidator is the single gate that turns untyped LLM output into
// ExtractedRecords. It has no mutable state and is safe for concurrent use.
type RecordValidator struct {
	ontology *entities.Ontology
	now      func() time.Time
}

// NewRecordValidator creates a validator bound to the ontology.
func NewRecordValidator(ontology *entities.Ontology) *RecordValidator {
	return &RecordValidator{ontology: ontology, now: time.Now}
}

// Validate runs one raw entity through the state machine. The result is
// ACCEPTED with a record, or REJECTED with every violation found.
func (v *RecordValidator) Validate(raw entities.RawEntity, opts ValidationOptions) *ValidationResult {
	res := &ValidationResult{}
	res.enter(StateReceived)

	res.enter(StateStructuralCheck)
	t, props, rels, ok := v.structural(raw, res)
	if !ok {
		res.enter(StateRejected)
		return res
	}

	res.enter(StateTypeCheck)
	properties := v.checkProperties(t, props, res)

	res.enter(StateRelationshipCheck)
	relationships := v.checkRelationships(t, rels, opts, res)

	if len(res.Violations) > 0 {
		res.enter(StateRejected)
		return res
	}

	res.Record = &entities.ExtractedRecord{
		ID:            uuid.New().String(),
		Type:          t.Name,
		Properties:    properties,
		Relationships: relationships,
		Provenance: entities.Provenance{
			SourceID:   opts.SourceID,
			Confidence: coerceConfidence(raw["confidence"]),
			Excerpt:    excerptOf(raw["source_context"]),
			Chunk:      opts.Chunk,
		},
		ExtractedAt: v.now(),
	}
	res.enter(StateAccepted)
	return res
}

// structural resolves the entity type and splits the raw object into a
// property bag and a relationship bag.
func (v *RecordValidator) structural(raw entities.RawEntity, res *ValidationResult) (*entities.EntityType, map[string]any, map[string]any, bool) {
	if raw == nil {
		res.reject(&entities.SchemaError{Kind: entities.KindUnknownType, Detail: "record is not a mapping"})
		return nil, nil, nil, false
	}

	typeName, _ := raw["type"].(string)
	if typeName == "" {
		typeName, _ = raw["entity_type"].(string)
	}
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		res.reject(&entities.SchemaError{Kind: entities.KindUnknownType, Detail: "record has no type"})
		return nil, nil, nil, false
	}
	t, ok := v.ontology.Type(typeName)
	if !ok {
		res.reject(&entities.SchemaError{Kind: entities.KindUnknownType, Key: typeName, Allowed: v.ontology.TypeNames()})
		return nil, nil, nil, false
	}

	props := make(map[string]any)
	switch p := raw["properties"].(type) {
	case nil:
		// Flat shape: top-level keys are the properties.
		for k, val := range raw {
			if !reservedKeys[k] {
				props[k] = val
			}
		}
	case map[string]any:
		maps.Copy(props, p)
	default:
		res.reject(&entities.SchemaError{Kind: entities.KindInvalidProperty, Type: t.Name, Key: "properties", Detail: "expected a mapping, got " + kindOf(p)})
		return nil, nil, nil, false
	}

	rels := make(map[string]any)
	switch r := raw["relationships"].(type) {
	case nil:
	case map[string]any:
		maps.Copy(rels, r)
	default:
		res.reject(&entities.SchemaError{Kind: entities.KindInvalidRelationshipValue, Type: t.Name, Key: "relationships", Detail: "expected a mapping, got " + kindOf(r)})
		return nil, nil, nil, false
	}

	// Declared relationships written among the properties are moved over.
	for k, val := range props {
		if _, isRel := t.Relationship(k); isRel {
			if _, dup := rels[k]; !dup {
				rels[k] = val
			}
			delete(props, k)
		}
	}

	return t, props, rels, true
}

func (v *RecordValidator) checkProperties(t *entities.EntityType, props map[string]any, res *ValidationResult) map[string]any {
	out := make(map[string]any, len(props))

	if name, ok := props[entities.NameProperty].(string); !ok || strings.TrimSpace(name) == "" {
		// Resolution keys on the name, so it is required even when the type
		// leaves it optional.
		if p, declared := t.Property(entities.NameProperty); !declared || !p.Required {
			res.reject(&entities.SchemaError{Kind: entities.KindMissingRequired, Type: t.Name, Key: entities.NameProperty})
		}
	}

	for _, p := range t.OrderedProperties() {
		if p.Required && isBlank(props[p.Name]) {
			res.reject(&entities.SchemaError{Kind: entities.KindMissingRequired, Type: t.Name, Key: p.Name})
		}
	}

	for _, key := range slices.Sorted(maps.Keys(props)) {
		value := props[key]
		p, declared := t.Property(key)
		if !declared {
			if key == entities.NameProperty {
				p = entities.PropertyConstraint{Name: key, Type: entities.DataTypeString}
			} else {
				res.Warnings = append(res.Warnings, &entities.SchemaError{Kind: entities.KindUndeclaredProperty, Type: t.Name, Key: key, Detail: "dropped"})
				continue
			}
		}
		if isBlank(value) {
			continue
		}

		coerced, err := coerceProperty(p, value)
		if err != nil {
			se := &entities.SchemaError{Kind: entities.KindInvalidProperty, Type: t.Name, Key: key, Detail: err.Error()}
			var enumErr *enumError
			if errors.As(err, &enumErr) {
				se.Allowed = p.Enum
			}
			res.reject(se)
			continue
		}
		if s, ok := coerced.(string); ok && key == entities.NameProperty {
			coerced = entities.NormalizeName(s)
		}
		out[key] = coerced
	}

	return out
}

func (v *RecordValidator) checkRelationships(t *entities.EntityType, rels map[string]any, opts ValidationOptions, res *ValidationResult) map[string][]string {
	out := make(map[string][]string, len(rels))

	for _, key := range slices.Sorted(maps.Keys(rels)) {
		if _, declared := t.Relationship(key); !declared {
			if !opts.FileAsEntity || !slices.Contains(FileEntitySlots, key) {
				res.reject(&entities.SchemaError{Kind: entities.KindUndeclaredRelationship, Type: t.Name, Key: key})
				continue
			}
		}

		refs, err := referencesOf(rels[key])
		if err != nil {
			res.reject(&entities.SchemaError{Kind: entities.KindInvalidRelationshipValue, Type: t.Name, Key: key, Detail: err.Error()})
			continue
		}
		if len(refs) > 0 {
			out[key] = refs
		}
	}

	return out
}

// referencesOf reads a relationship value. Null, empty string and empty
// list all mean no relationships of that kind.
func referencesOf(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(v)}, nil
	case []string:
		return compactRefs(v), nil
	case []any:
		refs := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %s, expected a string reference", i, kindOf(item))
			}
			refs = append(refs, s)
		}
		return compactRefs(refs), nil
	default:
		return nil, fmt.Errorf("expected a list of references, got %s", kindOf(value))
	}
}

func compactRefs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func excerptOf(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}
