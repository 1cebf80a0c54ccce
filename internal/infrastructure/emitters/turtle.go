package emitters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

var rePrefixedLocal = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Turtle renders the graph as RDF Turtle, one subject block per entity.
type Turtle struct {
	opts Options
}

// NewTurtle creates a Turtle emitter.
func NewTurtle(opts Options) *Turtle {
	return &Turtle{opts: opts}
}

// Name implements Emitter.
func (t *Turtle) Name() string { return "turtle" }

// Extension implements Emitter.
func (t *Turtle) Extension() string { return ".ttl" }

// Emit implements Emitter.
func (t *Turtle) Emit(graph *entities.ResolvedGraph) ([]byte, error) {
	if err := graph.CheckIntegrity(t.Name()); err != nil {
		return nil, err
	}
	triples, err := t.opts.triples(t.Name(), graph)
	if err != nil {
		return nil, err
	}

	prefixes := [][2]string{
		{"", t.opts.Vocab()},
		{"res", t.opts.ResourceBase()},
		{"rdf", NSRDF},
		{"rdfs", NSRDFS},
		{"xsd", NSXSD},
		{"dcterms", NSDCTerms},
		{"meta", t.opts.MetaBase()},
	}

	var b strings.Builder
	for _, p := range prefixes {
		fmt.Fprintf(&b, "@prefix %s: <%s> .\n", p[0], p[1])
	}

	subject := ""
	for _, tr := range triples {
		if tr.subject != subject {
			if subject != "" {
				b.WriteString(" .\n")
			}
			subject = tr.subject
			fmt.Fprintf(&b, "\n%s\n    %s %s", t.name(prefixes, tr.subject), t.predicate(prefixes, tr.predicate), t.object(prefixes, tr.object))
			continue
		}
		fmt.Fprintf(&b, " ;\n    %s %s", t.predicate(prefixes, tr.predicate), t.object(prefixes, tr.object))
	}
	if subject != "" {
		b.WriteString(" .\n")
	}
	return []byte(b.String()), nil
}

func (t *Turtle) predicate(prefixes [][2]string, iri string) string {
	if iri == NSRDF+"type" {
		return "a"
	}
	return t.name(prefixes, iri)
}

func (t *Turtle) object(prefixes [][2]string, o term) string {
	if o.isIRI() {
		return t.name(prefixes, o.iri)
	}
	lit := `"` + escapeLiteral(o.literal) + `"`
	if o.datatype != "" {
		lit += "^^" + t.name(prefixes, o.datatype)
	}
	return lit
}

// name abbreviates an IRI to a prefixed name when the local part is a
// plain name, otherwise writes it in full.
func (t *Turtle) name(prefixes [][2]string, iri string) string {
	for _, p := range prefixes {
		local, ok := strings.CutPrefix(iri, p[1])
		if ok && rePrefixedLocal.MatchString(local) {
			return p[0] + ":" + local
		}
	}
	return "<" + iri + ">"
}

// NTriples renders one triple per line with full IRIs.
type NTriples struct {
	opts Options
}

// NewNTriples creates an N-Triples emitter.
func NewNTriples(opts Options) *NTriples {
	return &NTriples{opts: opts}
}

// Name implements Emitter.
func (n *NTriples) Name() string { return "ntriples" }

// Extension implements Emitter.
func (n *NTriples) Extension() string { return ".nt" }

// Emit implements Emitter.
func (n *NTriples) Emit(graph *entities.ResolvedGraph) ([]byte, error) {
	if err := graph.CheckIntegrity(n.Name()); err != nil {
		return nil, err
	}
	triples, err := n.opts.triples(n.Name(), graph)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, tr := range triples {
		fmt.Fprintf(&b, "<%s> <%s> %s .\n", tr.subject, tr.predicate, ntTerm(tr.object))
	}
	return []byte(b.String()), nil
}
