package emitters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// term is an RDF node: an IRI or a literal with an optional datatype IRI.
type term struct {
	iri      string
	literal  string
	datatype string
}

func (t term) isIRI() bool { return t.iri != "" }

type triple struct {
	subject   string
	predicate string
	object    term
}

// triples lists the statements describing the graph, grouped by subject in
// entity order.
func (o Options) triples(format string, graph *entities.ResolvedGraph) ([]triple, error) {
	var out []triple
	for i := range graph.Entities {
		e := &graph.Entities[i]
		s := o.IRI(e.ID)
		out = append(out,
			triple{s, NSRDF + "type", term{iri: o.TermIRI(e.Type)}},
			triple{s, NSRDFS + "label", term{literal: e.Name}},
		)
		for _, key := range o.propertyKeys(e) {
			for _, v := range values(e.Properties[key]) {
				lit, err := o.literal(e.Type, key, v)
				if err != nil {
					return nil, &entities.EmissionError{Format: format, ID: e.ID, Reason: fmt.Sprintf("property %s: %v", key, err)}
				}
				out = append(out, triple{s, o.TermIRI(key), lit})
			}
		}
		for _, rel := range relationshipKeys(e) {
			for _, target := range e.Relationships[rel] {
				out = append(out, triple{s, o.TermIRI(rel), term{iri: o.IRI(target)}})
			}
		}
		if e.Stub {
			out = append(out, triple{s, o.MetaIRI("stub"), term{literal: "true", datatype: NSXSD + "boolean"}})
		}
		if p := e.Provenance; p != nil {
			if p.SourceID != "" {
				out = append(out, triple{s, NSDCTerms + "source", term{literal: p.SourceID}})
			}
			if p.Confidence > 0 {
				out = append(out, triple{s, o.MetaIRI("extractionConfidence"), term{
					literal:  strconv.FormatFloat(p.Confidence, 'f', -1, 64),
					datatype: NSXSD + "decimal",
				}})
			}
		}
	}
	return out, nil
}

// literal types a property value by its declared constraint, falling back
// to the Go type of the value.
func (o Options) literal(typeName, key string, v any) (term, error) {
	lex, err := lexical(v)
	if err != nil {
		return term{}, err
	}
	if dt := o.datatype(typeName, key); dt != "" {
		return term{literal: lex, datatype: dt}, nil
	}
	switch v.(type) {
	case bool:
		return term{literal: lex, datatype: NSXSD + "boolean"}, nil
	case int, int64:
		return term{literal: lex, datatype: NSXSD + "integer"}, nil
	case float64:
		return term{literal: lex, datatype: NSXSD + "double"}, nil
	}
	return term{literal: lex}, nil
}

// datatype returns the XSD datatype IRI for a declared property, or "".
func (o Options) datatype(typeName, key string) string {
	p, ok := o.constraint(typeName, key)
	if !ok {
		return ""
	}
	dt := p.Type
	if dt == entities.DataTypeArray {
		dt = p.Items
	}
	switch dt {
	case entities.DataTypeInteger:
		return NSXSD + "integer"
	case entities.DataTypeNumber:
		return NSXSD + "decimal"
	case entities.DataTypeBoolean:
		return NSXSD + "boolean"
	case entities.DataTypeDate:
		if p.Format == entities.FormatDateTime {
			return NSXSD + "dateTime"
		}
		return NSXSD + "date"
	}
	switch p.Format {
	case entities.FormatDate:
		return NSXSD + "date"
	case entities.FormatDateTime:
		return NSXSD + "dateTime"
	case entities.FormatURI:
		return NSXSD + "anyURI"
	}
	return ""
}

// lexical is the literal form of a scalar value.
func lexical(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return timeLexical(x), nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// escapeLiteral escapes a string for a Turtle or N-Triples quoted literal.
func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

// ntTerm renders a term in N-Triples syntax.
func ntTerm(t term) string {
	if t.isIRI() {
		return "<" + t.iri + ">"
	}
	lit := `"` + escapeLiteral(t.literal) + `"`
	if t.datatype != "" {
		lit += "^^<" + t.datatype + ">"
	}
	return lit
}
