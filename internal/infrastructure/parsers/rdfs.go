package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

const (
	nsRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS   = "http://www.w3.org/2000/01/rdf-schema#"
	nsOWL    = "http://www.w3.org/2002/07/owl#"
	nsXSD    = "http://www.w3.org/2001/XMLSchema#"
	nsSchema = "http://schema.org/"
)

// builtinNamespaces hold terms that describe vocabularies rather than a
// domain, so classes and properties defined there are never imported.
var builtinNamespaces = []string{nsRDF, nsRDFS, nsOWL, nsXSD}

var (
	classTypes    = []string{nsRDFS + "Class", nsOWL + "Class"}
	propertyTypes = []string{nsRDF + "Property", nsOWL + "ObjectProperty", nsOWL + "DatatypeProperty"}
)

// RDFSParser reads an RDFS or OWL vocabulary written in JSON-LD. Classes
// become entity types, properties whose range is an imported class become
// relationships, and the rest become properties typed by their XSD range.
// Domains come from rdfs:domain or schema:domainIncludes.
type RDFSParser struct {
	// Loader resolves remote @context references. Nil uses json-gold's
	// HTTP loader.
	Loader ld.DocumentLoader
}

// Parse implements Parser. Members that cannot be imported are dropped;
// use Import to see why.
func (p *RDFSParser) Parse(r io.Reader) (*entities.OntologyDocument, error) {
	doc, _, err := p.Import(r)
	return doc, err
}

// Import decodes the vocabulary and reports every member it skipped.
func (p *RDFSParser) Import(r io.Reader) (*entities.OntologyDocument, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading ontology: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, nil, fmt.Errorf("parsing JSON-LD: %w", err)
	}

	opts := ld.NewJsonLdOptions("")
	if p.Loader != nil {
		opts.DocumentLoader = p.Loader
	}
	flat, err := ld.NewJsonLdProcessor().Flatten(input, nil, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("expanding JSON-LD: %w", err)
	}
	list, _ := flat.([]any)

	var nodes []rdfNode
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			nodes = append(nodes, rdfNode(m))
		}
	}

	doc, skipped := importVocabulary(nodes)
	if len(doc.Types) == 0 {
		return nil, skipped, errors.New("no rdfs:Class or owl:Class definitions found")
	}
	doc.Raw = data
	return doc, skipped, nil
}

// rdfNode is one flattened, expanded JSON-LD node object.
type rdfNode map[string]any

func (n rdfNode) id() string {
	s, _ := n["@id"].(string)
	return s
}

func (n rdfNode) types() []string {
	var out []string
	for _, t := range asList(n["@type"]) {
		if s, ok := t.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (n rdfNode) isA(candidates []string) bool {
	for _, t := range n.types() {
		if slices.Contains(candidates, t) {
			return true
		}
	}
	return false
}

// literal returns the first plain or English value of predicate.
func (n rdfNode) literal(predicate string) string {
	var fallback string
	for _, v := range asList(n[predicate]) {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		value, ok := obj["@value"]
		if !ok {
			continue
		}
		text := strings.TrimSpace(fmt.Sprint(value))
		lang, _ := obj["@language"].(string)
		if lang == "" || strings.HasPrefix(strings.ToLower(lang), "en") {
			return text
		}
		if fallback == "" {
			fallback = text
		}
	}
	return fallback
}

// refs returns the IRIs referenced by any of predicates.
func (n rdfNode) refs(predicates ...string) []string {
	var out []string
	for _, predicate := range predicates {
		for _, v := range asList(n[predicate]) {
			if obj, ok := v.(map[string]any); ok {
				if id, ok := obj["@id"].(string); ok && !slices.Contains(out, id) {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

func asList(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	default:
		return []any{x}
	}
}

func importVocabulary(nodes []rdfNode) (*entities.OntologyDocument, []string) {
	doc := &entities.OntologyDocument{
		Name:        "Imported Ontology",
		Description: "Converted from an RDF vocabulary",
	}
	var skipped []string

	classes := make(map[string]*entities.TypeDefinition)
	var classIRIs []string
	for _, n := range nodes {
		switch {
		case n.isA([]string{nsOWL + "Ontology"}):
			if label := n.literal(nsRDFS + "label"); label != "" {
				doc.Name = label
			}
			if comment := n.literal(nsRDFS + "comment"); comment != "" {
				doc.Description = comment
			}
			doc.Version = n.literal(nsOWL + "versionInfo")
		case n.isA(classTypes) && !builtin(n.id()):
			name := localName(n.id())
			if name == "" {
				skipped = append(skipped, fmt.Sprintf("class %s: no local name", n.id()))
				continue
			}
			classes[n.id()] = &entities.TypeDefinition{
				Name:        name,
				Description: n.literal(nsRDFS + "comment"),
				Properties: []entities.PropertyDefinition{{
					Name:        entities.NameProperty,
					Type:        string(entities.DataTypeString),
					Required:    true,
					Description: "Name of the " + strings.ToLower(name),
				}},
			}
			classIRIs = append(classIRIs, n.id())
		}
	}

	for _, n := range nodes {
		if !n.isA(classTypes) || classes[n.id()] == nil {
			continue
		}
		for _, parent := range n.refs(nsRDFS + "subClassOf") {
			if def, ok := classes[parent]; ok {
				classes[n.id()].Extends = def.Name
				break
			}
		}
	}

	for _, n := range nodes {
		if !n.isA(propertyTypes) || builtin(n.id()) {
			continue
		}
		name := localName(n.id())
		switch {
		case name == "":
			skipped = append(skipped, fmt.Sprintf("property %s: no local name", n.id()))
			continue
		case name == entities.NameProperty:
			continue
		case entities.IsReservedMemberName(name):
			skipped = append(skipped, fmt.Sprintf("property %s: %q is a reserved member name", n.id(), name))
			continue
		}

		domains := n.refs(nsRDFS+"domain", nsSchema+"domainIncludes")
		if len(domains) == 0 {
			skipped = append(skipped, fmt.Sprintf("property %s: no domain", n.id()))
			continue
		}
		ranges := n.refs(nsRDFS+"range", nsSchema+"rangeIncludes")
		comment := n.literal(nsRDFS + "comment")

		var target *entities.TypeDefinition
		for _, r := range ranges {
			if def, ok := classes[r]; ok {
				target = def
				break
			}
		}

		for _, d := range domains {
			owner, ok := classes[d]
			if !ok {
				skipped = append(skipped, fmt.Sprintf("property %s: domain %s is not an imported class", n.id(), d))
				continue
			}
			if target != nil {
				rel := entities.RelationshipDefinition{Name: name, Target: target.Name, Description: comment}
				if inverse := n.refs(nsOWL + "inverseOf"); len(inverse) > 0 {
					rel.Inverse = localName(inverse[0])
				}
				owner.Relationships = append(owner.Relationships, rel)
				continue
			}
			prop := entities.PropertyDefinition{Name: name, Type: string(entities.DataTypeString), Description: comment}
			for _, r := range ranges {
				if dt, format, ok := xsdType(r); ok {
					prop.Type, prop.Format = dt, format
					break
				}
			}
			owner.Properties = append(owner.Properties, prop)
		}
	}

	slices.SortFunc(classIRIs, func(a, b string) int { return strings.Compare(classes[a].Name, classes[b].Name) })
	for _, iri := range classIRIs {
		doc.Types = append(doc.Types, *classes[iri])
	}
	return doc, skipped
}

// xsdType maps an XSD range to a data type and format.
func xsdType(iri string) (string, string, bool) {
	local, ok := strings.CutPrefix(iri, nsXSD)
	if !ok {
		return "", "", false
	}
	switch local {
	case "string", "normalizedString", "token", "language":
		return string(entities.DataTypeString), "", true
	case "integer", "int", "long", "short", "nonNegativeInteger", "positiveInteger":
		return string(entities.DataTypeInteger), "", true
	case "decimal", "float", "double":
		return string(entities.DataTypeNumber), "", true
	case "boolean":
		return string(entities.DataTypeBoolean), "", true
	case "date":
		return string(entities.DataTypeDate), "", true
	case "dateTime":
		return string(entities.DataTypeString), entities.FormatDateTime, true
	case "anyURI":
		return string(entities.DataTypeString), entities.FormatURI, true
	}
	return "", "", false
}

func builtin(iri string) bool {
	for _, ns := range builtinNamespaces {
		if strings.HasPrefix(iri, ns) {
			return true
		}
	}
	return false
}

// localName is the fragment or last path segment of an IRI.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/:"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
