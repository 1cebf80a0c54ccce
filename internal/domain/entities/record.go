package entities

import (
	"maps"
	"slices"
	"time"
)

// Provenance records where an extracted record came from.
type Provenance struct {
	SourceID   string  `json:"source_id" yaml:"source"`
	Confidence float64 `json:"confidence" yaml:"extraction_confidence"`
	Excerpt    string  `json:"excerpt,omitempty" yaml:"-"`
	Chunk      int     `json:"chunk" yaml:"-"`
}

// ExtractedRecord is a validated entity produced from LLM output.
// Properties hold scalars or slices of scalars. Relationships hold raw
// reference strings (plain names or WikiLinks).
type ExtractedRecord struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Properties    map[string]any      `json:"properties"`
	Relationships map[string][]string `json:"relationships"`
	Provenance    Provenance          `json:"provenance"`
	ExtractedAt   time.Time           `json:"extracted_at"`
}

// Name returns the record's display name property, or "" when absent.
func (r *ExtractedRecord) Name() string {
	if v, ok := r.Properties[NameProperty].(string); ok {
		return v
	}
	return ""
}

// Description returns the record's description property, or "".
func (r *ExtractedRecord) Description() string {
	if v, ok := r.Properties["description"].(string); ok {
		return v
	}
	return ""
}

// RelationshipNames returns the relationship keys in sorted order.
func (r *ExtractedRecord) RelationshipNames() []string {
	return slices.Sorted(maps.Keys(r.Relationships))
}

// PropertyNames returns the property keys in sorted order.
func (r *ExtractedRecord) PropertyNames() []string {
	return slices.Sorted(maps.Keys(r.Properties))
}

// Merge folds a duplicate record into r: missing properties are filled and
// relationship references are unioned. The receiver's values win.
func (r *ExtractedRecord) Merge(other *ExtractedRecord) {
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}
	for k, v := range other.Properties {
		if _, ok := r.Properties[k]; !ok {
			r.Properties[k] = v
		}
	}
	if r.Relationships == nil {
		r.Relationships = make(map[string][]string)
	}
	for rel, refs := range other.Relationships {
		for _, ref := range refs {
			if !slices.Contains(r.Relationships[rel], ref) {
				r.Relationships[rel] = append(r.Relationships[rel], ref)
			}
		}
	}
	if other.Provenance.Confidence > r.Provenance.Confidence {
		r.Provenance.Confidence = other.Provenance.Confidence
	}
}

// RawEntity is one untyped entity object as returned by the LLM.
type RawEntity map[string]any

// RawExtraction is the decoded LLM response for one chunk.
type RawExtraction struct {
	Entities []RawEntity    `json:"entities"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Document is a loaded source ready for chunking.
type Document struct {
	ID       string
	Path     string
	Title    string
	Text     string
	Metadata map[string]string
}
