package emitters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

const formatJSONLD = "jsonld"

// JSONLD renders the graph as a JSON-LD document with an @graph of typed
// resources. Relationship values are {"@id": iri} references.
type JSONLD struct {
	opts Options
}

// NewJSONLD creates a JSON-LD emitter.
func NewJSONLD(opts Options) *JSONLD {
	return &JSONLD{opts: opts}
}

// Name implements Emitter.
func (j *JSONLD) Name() string { return formatJSONLD }

// Extension implements Emitter.
func (j *JSONLD) Extension() string { return ".jsonld" }

// Emit implements Emitter.
func (j *JSONLD) Emit(graph *entities.ResolvedGraph) ([]byte, error) {
	doc, err := j.Document(graph)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &entities.EmissionError{Format: formatJSONLD, Reason: err.Error()}
	}
	return append(out, '\n'), nil
}

// Document builds the JSON-LD structure.
func (j *JSONLD) Document(graph *entities.ResolvedGraph) (map[string]any, error) {
	if err := graph.CheckIntegrity(formatJSONLD); err != nil {
		return nil, err
	}

	resources := make([]map[string]any, 0, len(graph.Entities))
	for i := range graph.Entities {
		r, err := j.resource(&graph.Entities[i])
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}

	return map[string]any{
		"@context": j.context(),
		"@graph":   resources,
	}, nil
}

func (j *JSONLD) context() map[string]any {
	ctx := map[string]any{
		"@vocab":                    j.opts.Vocab(),
		"@base":                     j.opts.ResourceBase(),
		"rdf":                       NSRDF,
		"rdfs":                      NSRDFS,
		"owl":                       NSOWL,
		"schema":                    NSSchema,
		"dcterms":                   NSDCTerms,
		"xsd":                       NSXSD,
		"meta":                      j.opts.MetaBase(),
		"name":                      "rdfs:label",
		"meta:extractionConfidence": map[string]any{"@type": "xsd:decimal"},
	}
	if j.opts.Ontology == nil {
		return ctx
	}
	for _, t := range j.opts.Ontology.Types() {
		for _, p := range t.OrderedProperties() {
			if _, done := ctx[p.Name]; done {
				continue
			}
			if dt := j.opts.datatype(t.Name, p.Name); dt != "" {
				ctx[p.Name] = map[string]any{"@type": "xsd:" + dt[len(NSXSD):]}
			}
		}
	}
	return ctx
}

func (j *JSONLD) resource(e *entities.ResolvedEntity) (map[string]any, error) {
	r := map[string]any{
		"@id":   j.opts.IRI(e.ID),
		"@type": e.Type,
		"name":  e.Name,
	}
	for _, key := range j.opts.propertyKeys(e) {
		v, err := jsonValue(e.Properties[key])
		if err != nil {
			return nil, &entities.EmissionError{Format: formatJSONLD, ID: e.ID, Reason: fmt.Sprintf("property %s: %v", key, err)}
		}
		if v != nil {
			r[key] = v
		}
	}
	for _, rel := range relationshipKeys(e) {
		refs := make([]map[string]string, 0, len(e.Relationships[rel]))
		for _, target := range e.Relationships[rel] {
			refs = append(refs, map[string]string{"@id": j.opts.IRI(target)})
		}
		r[rel] = refs
	}
	if e.Stub {
		r["meta:stub"] = true
	}
	if p := e.Provenance; p != nil {
		if p.SourceID != "" {
			r["dcterms:source"] = p.SourceID
		}
		if p.Confidence > 0 {
			r["meta:extractionConfidence"] = p.Confidence
		}
	}
	return r, nil
}

// jsonValue checks that a property value can be encoded.
func jsonValue(v any) (any, error) {
	items := values(v)
	switch v.(type) {
	case nil:
		return nil, nil
	case []any, []string:
		if len(items) == 0 {
			return nil, nil
		}
		for i, item := range items {
			if t, ok := item.(time.Time); ok {
				items[i] = timeLexical(t)
			}
		}
		if _, err := json.Marshal(items); err != nil {
			return nil, err
		}
		return items, nil
	}
	if t, ok := v.(time.Time); ok {
		return timeLexical(t), nil
	}
	if _, err := json.Marshal(v); err != nil {
		return nil, err
	}
	return v, nil
}
