package emitters

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

const formatCypher = "cypher"

var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Cypher renders nodes and edges as CREATE statements. Nodes come first in
// resolver order, so every edge refers to nodes created earlier.
type Cypher struct {
	opts Options
}

// NewCypher creates a Cypher emitter.
func NewCypher(opts Options) *Cypher {
	return &Cypher{opts: opts}
}

// Name implements Emitter.
func (c *Cypher) Name() string { return formatCypher }

// Extension implements Emitter.
func (c *Cypher) Extension() string { return ".cypher" }

// Emit implements Emitter.
func (c *Cypher) Emit(graph *entities.ResolvedGraph) ([]byte, error) {
	statements, err := c.Statements(graph)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// MycoMind property graph: %d entities (%d stubs), %d edges\n",
		len(graph.Entities), stubCount(graph), len(graph.Edges))
	fmt.Fprintf(&b, "// Base IRI: %s\n\n", c.opts.BaseIRI)
	for _, stmt := range statements {
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// Statements returns the index, node and edge statements in execution
// order, each terminated by a semicolon.
func (c *Cypher) Statements(graph *entities.ResolvedGraph) ([]string, error) {
	if err := graph.CheckIntegrity(formatCypher); err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(graph.Entities))
	var out []string
	var indexed []string
	for i := range graph.Entities {
		t := graph.Entities[i].Type
		labels[graph.Entities[i].ID] = t
		if !slices.Contains(indexed, t) {
			indexed = append(indexed, t)
			out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.iri);", identifier(t)))
		}
	}

	for i := range graph.Entities {
		node, err := c.node(&graph.Entities[i])
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}

	for _, e := range graph.Edges {
		out = append(out, fmt.Sprintf("MATCH (a:%s {iri: %s}), (b:%s {iri: %s}) CREATE (a)-[:%s]->(b);",
			identifier(labels[e.Source]), quote(c.opts.IRI(e.Source)),
			identifier(labels[e.Target]), quote(c.opts.IRI(e.Target)),
			RelationshipLabel(e.Relation)))
	}
	return out, nil
}

// node renders one CREATE statement. Bookkeeping keys other than iri carry
// a leading underscore, which member names cannot start with.
func (c *Cypher) node(e *entities.ResolvedEntity) (string, error) {
	attrs := []string{
		"iri: " + quote(c.opts.IRI(e.ID)),
		"_id: " + quote(e.ID),
		"name: " + quote(e.Name),
	}
	for _, key := range c.opts.propertyKeys(e) {
		lit, ok, err := cypherValue(e.Properties[key])
		if err != nil {
			return "", &entities.EmissionError{Format: formatCypher, ID: e.ID, Reason: fmt.Sprintf("property %s: %v", key, err)}
		}
		if ok {
			attrs = append(attrs, identifier(key)+": "+lit)
		}
	}
	if e.Stub {
		attrs = append(attrs, "_stub: true")
	}
	if p := e.Provenance; p != nil {
		if p.SourceID != "" {
			attrs = append(attrs, "_source: "+quote(p.SourceID))
		}
		if p.Confidence > 0 {
			attrs = append(attrs, "_confidence: "+strconv.FormatFloat(p.Confidence, 'f', -1, 64))
		}
	}
	return fmt.Sprintf("CREATE (:%s {%s});", identifier(e.Type), strings.Join(attrs, ", ")), nil
}

// cypherValue renders a property as a Cypher literal. Lists must hold
// scalars; nested structures are stored as JSON strings.
func cypherValue(v any) (string, bool, error) {
	switch v.(type) {
	case nil:
		return "", false, nil
	case []any, []string:
		items := values(v)
		if len(items) == 0 {
			return "", false, nil
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			lit, _, err := cypherScalar(item)
			if err != nil {
				return "", false, err
			}
			parts = append(parts, lit)
		}
		return "[" + strings.Join(parts, ", ") + "]", true, nil
	}
	return cypherScalar(v)
}

func cypherScalar(v any) (string, bool, error) {
	switch x := v.(type) {
	case string:
		return quote(x), true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int:
		return strconv.Itoa(x), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	case json.Number:
		return x.String(), true, nil
	case time.Time:
		return quote(timeLexical(x)), true, nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return "", false, err
		}
		return quote(string(data)), true, nil
	}
}

// quote renders a Cypher string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// identifier backtick-quotes labels and keys that are not plain names.
func identifier(s string) string {
	if reIdentifier.MatchString(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// RelationshipLabel converts memberOf or member-of to MEMBER_OF.
func RelationshipLabel(name string) string {
	var b strings.Builder
	var prev rune
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToUpper(r))
		default:
			if b.Len() > 0 && prev != '_' {
				b.WriteByte('_')
			}
			r = '_'
		}
		prev = r
	}
	label := strings.Trim(b.String(), "_")
	if label == "" {
		return "RELATED_TO"
	}
	return identifier(label)
}
