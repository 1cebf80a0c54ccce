// Package emitters renders a resolved entity graph into formats that graph
// stores can bulk-load. Emitters are pure: they return bytes and never
// perform I/O.
package emitters

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// Namespaces shared by the linked-data emitters.
const (
	NSRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL     = "http://www.w3.org/2002/07/owl#"
	NSXSD     = "http://www.w3.org/2001/XMLSchema#"
	NSSchema  = "http://schema.org/"
	NSDCTerms = "http://purl.org/dc/terms/"
)

// Emitter serializes a resolved graph.
type Emitter interface {
	Name() string
	Extension() string
	Emit(graph *entities.ResolvedGraph) ([]byte, error)
}

// Options configure every emitter.
type Options struct {
	// BaseIRI prefixes resource and vocabulary IRIs. It must end in / or #.
	BaseIRI string
	// Ontology, when set, orders properties and supplies literal datatypes.
	Ontology *entities.Ontology
}

// Format describes one registered output format.
type Format struct {
	Name        string
	Extension   string
	Description string
	build       func(Options) Emitter
}

var formats = []Format{
	{
		Name:        "cypher",
		Extension:   ".cypher",
		Description: "Cypher statements for property-graph stores such as Neo4j",
		build:       func(o Options) Emitter { return NewCypher(o) },
	},
	{
		Name:        "jsonld",
		Extension:   ".jsonld",
		Description: "JSON-LD document for triple stores",
		build:       func(o Options) Emitter { return NewJSONLD(o) },
	},
	{
		Name:        "turtle",
		Extension:   ".ttl",
		Description: "RDF Turtle",
		build:       func(o Options) Emitter { return NewTurtle(o) },
	},
	{
		Name:        "ntriples",
		Extension:   ".nt",
		Description: "RDF N-Triples, one triple per line",
		build:       func(o Options) Emitter { return NewNTriples(o) },
	},
}

// Formats returns the registered formats in a stable order.
func Formats() []Format {
	return slices.Clone(formats)
}

// FormatNames returns the registered format names.
func FormatNames() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// New returns the emitter registered under name.
func New(name string, opts Options) (Emitter, error) {
	if opts.BaseIRI == "" {
		return nil, fmt.Errorf("base IRI is required")
	}
	if !strings.HasSuffix(opts.BaseIRI, "/") && !strings.HasSuffix(opts.BaseIRI, "#") {
		opts.BaseIRI += "/"
	}
	for _, f := range formats {
		if f.Name == strings.ToLower(name) {
			return f.build(opts), nil
		}
	}
	return nil, fmt.Errorf("unknown format %q (supported: %s)", name, strings.Join(FormatNames(), ", "))
}

// Vocab is the namespace for types and properties.
func (o Options) Vocab() string {
	return o.BaseIRI + "ontology/"
}

// ResourceBase is the namespace for entity IRIs.
func (o Options) ResourceBase() string {
	return o.BaseIRI + "resource/"
}

// IRI builds the resource IRI of a canonical identifier. Each path segment
// is escaped.
func (o Options) IRI(id string) string {
	segments := strings.Split(id, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return o.ResourceBase() + strings.Join(segments, "/")
}

// MetaBase is the namespace for bookkeeping terms such as stub markers and
// extraction confidence. It is kept apart from Vocab so ontology members
// never share an IRI with them.
func (o Options) MetaBase() string {
	return o.BaseIRI + "meta/"
}

// MetaIRI builds the IRI of a bookkeeping term.
func (o Options) MetaIRI(term string) string {
	return o.MetaBase() + url.PathEscape(term)
}

// TermIRI builds the vocabulary IRI of a type or property name.
func (o Options) TermIRI(term string) string {
	return o.Vocab() + url.PathEscape(term)
}

// propertyKeys lists the entity's property keys except name: declared
// order first when the ontology knows the type, then the rest sorted.
func (o Options) propertyKeys(e *entities.ResolvedEntity) []string {
	var out []string
	if o.Ontology != nil {
		if t, ok := o.Ontology.Type(e.Type); ok {
			for _, k := range t.PropertyOrder {
				if _, present := e.Properties[k]; present && k != entities.NameProperty {
					out = append(out, k)
				}
			}
		}
	}
	var rest []string
	for k := range e.Properties {
		if k != entities.NameProperty && !slices.Contains(out, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// relationshipKeys lists relationship names with at least one target.
func relationshipKeys(e *entities.ResolvedEntity) []string {
	var out []string
	for rel, targets := range e.Relationships {
		if len(targets) > 0 {
			out = append(out, rel)
		}
	}
	slices.Sort(out)
	return out
}

// constraint finds the declared constraint for a property of a type.
func (o Options) constraint(typeName, key string) (entities.PropertyConstraint, bool) {
	if o.Ontology == nil {
		return entities.PropertyConstraint{}, false
	}
	if t, ok := o.Ontology.Type(typeName); ok {
		if p, ok := t.Property(key); ok {
			return p, true
		}
	}
	return o.Ontology.PropertyDefinition(key)
}

// values flattens a property value into its scalar items. Nil values and
// empty lists yield nothing.
func values(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			if item != nil {
				out = append(out, item)
			}
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return []any{x}
	}
}

// timeLexical renders a time as an xsd:date when it has no clock part and
// as an xsd:dateTime otherwise.
func timeLexical(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func stubCount(g *entities.ResolvedGraph) int {
	n := 0
	for i := range g.Entities {
		if g.Entities[i].Stub {
			n++
		}
	}
	return n
}
