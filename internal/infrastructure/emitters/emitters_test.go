package emitters

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
)

const testBase = "http://example.org/kg/"

func testGraph() *entities.ResolvedGraph {
	return &entities.ResolvedGraph{
		Entities: []entities.ResolvedEntity{
			{
				ID:   "Person/shawn",
				Type: "Person",
				Name: "Shawn",
				Properties: map[string]any{
					"name":  "Shawn",
					"email": "shawn@example.org",
					"age":   40,
					"tags":  []any{"a", "b"},
				},
				Relationships: map[string][]string{
					"memberOf": {"Organization/regen_network"},
					"knows":    {"Entity/gregory"},
				},
				Provenance: &entities.Provenance{SourceID: "notes.md", Confidence: 0.9},
			},
			{
				ID:            "Organization/regen_network",
				Type:          "Organization",
				Name:          `Regen "Network"`,
				Properties:    map[string]any{"name": `Regen "Network"`, "founded": 2017},
				Relationships: map[string][]string{"hasMember": {"Person/shawn"}},
			},
			{ID: "Entity/gregory", Type: entities.StubType, Name: "Gregory", Stub: true},
		},
		Edges: []entities.Edge{
			{Source: "Person/shawn", Relation: "memberOf", Target: "Organization/regen_network"},
			{Source: "Person/shawn", Relation: "knows", Target: "Entity/gregory"},
			{Source: "Organization/regen_network", Relation: "hasMember", Target: "Person/shawn", Mirrored: true},
		},
	}
}

func danglingGraph() *entities.ResolvedGraph {
	g := testGraph()
	g.Entities = g.Entities[:2]
	return g
}

func testOntology(t *testing.T) *entities.Ontology {
	t.Helper()
	ont, err := services.BuildOntology(&entities.OntologyDocument{
		Name: "regen",
		Types: []entities.TypeDefinition{
			{Name: "Person", Properties: []entities.PropertyDefinition{
				{Name: "name", Type: "string", Required: true},
				{Name: "email", Type: "string", Format: "email"},
				{Name: "age", Type: "integer"},
			}},
			{Name: "Organization", Properties: []entities.PropertyDefinition{
				{Name: "name", Type: "string", Required: true},
				{Name: "founded", Type: "date"},
			}},
		},
	})
	require.NoError(t, err)
	return ont
}

func TestNew(t *testing.T) {
	for _, f := range Formats() {
		e, err := New(f.Name, Options{BaseIRI: testBase})
		require.NoError(t, err)
		assert.Equal(t, f.Name, e.Name())
		assert.Equal(t, f.Extension, e.Extension())
		assert.NotEmpty(t, f.Description)
	}

	_, err := New("graphml", Options{BaseIRI: testBase})
	assert.ErrorContains(t, err, "supported: cypher, jsonld, turtle, ntriples")

	_, err = New("cypher", Options{})
	assert.Error(t, err)

	e, err := New("CYPHER", Options{BaseIRI: "http://example.org/kg"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/kg/", e.(*Cypher).opts.BaseIRI)
}

func TestOptions_IRI(t *testing.T) {
	o := Options{BaseIRI: testBase}
	assert.Equal(t, "http://example.org/kg/resource/Person/shawn", o.IRI("Person/shawn"))
	assert.Equal(t, "http://example.org/kg/resource/Person/caf%C3%A9", o.IRI("Person/café"))
	assert.Equal(t, "http://example.org/kg/ontology/memberOf", o.TermIRI("memberOf"))
}

func TestCypher_Statements(t *testing.T) {
	stmts, err := NewCypher(Options{BaseIRI: testBase}).Statements(testGraph())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE INDEX IF NOT EXISTS FOR (n:Person) ON (n.iri);",
		"CREATE INDEX IF NOT EXISTS FOR (n:Organization) ON (n.iri);",
		"CREATE INDEX IF NOT EXISTS FOR (n:Entity) ON (n.iri);",
		`CREATE (:Person {iri: "http://example.org/kg/resource/Person/shawn", _id: "Person/shawn", name: "Shawn", age: 40, email: "shawn@example.org", tags: ["a", "b"], _source: "notes.md", _confidence: 0.9});`,
		`CREATE (:Organization {iri: "http://example.org/kg/resource/Organization/regen_network", _id: "Organization/regen_network", name: "Regen \"Network\"", founded: 2017});`,
		`CREATE (:Entity {iri: "http://example.org/kg/resource/Entity/gregory", _id: "Entity/gregory", name: "Gregory", _stub: true});`,
		`MATCH (a:Person {iri: "http://example.org/kg/resource/Person/shawn"}), (b:Organization {iri: "http://example.org/kg/resource/Organization/regen_network"}) CREATE (a)-[:MEMBER_OF]->(b);`,
		`MATCH (a:Person {iri: "http://example.org/kg/resource/Person/shawn"}), (b:Entity {iri: "http://example.org/kg/resource/Entity/gregory"}) CREATE (a)-[:KNOWS]->(b);`,
		`MATCH (a:Organization {iri: "http://example.org/kg/resource/Organization/regen_network"}), (b:Person {iri: "http://example.org/kg/resource/Person/shawn"}) CREATE (a)-[:HAS_MEMBER]->(b);`,
	}, stmts)
}

func TestCypher_OntologyOrder(t *testing.T) {
	stmts, err := NewCypher(Options{BaseIRI: testBase, Ontology: testOntology(t)}).Statements(testGraph())
	require.NoError(t, err)
	assert.Contains(t, stmts[3], `name: "Shawn", email: "shawn@example.org", age: 40, tags: ["a", "b"]`)
}

func TestCypher_Emit(t *testing.T) {
	out, err := NewCypher(Options{BaseIRI: testBase}).Emit(testGraph())
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "// MycoMind property graph: 3 entities (1 stubs), 3 edges\n"))
	assert.Equal(t, 9, strings.Count(text, ";\n"))
}

func TestEmitters_RejectDanglingReferences(t *testing.T) {
	for _, f := range Formats() {
		t.Run(f.Name, func(t *testing.T) {
			e, err := New(f.Name, Options{BaseIRI: testBase})
			require.NoError(t, err)

			_, err = e.Emit(danglingGraph())
			var emitErr *entities.EmissionError
			require.ErrorAs(t, err, &emitErr)
			assert.Equal(t, f.Name, emitErr.Format)
		})
	}
}

func TestEmitters_RejectDuplicateIdentifiers(t *testing.T) {
	g := testGraph()
	g.Entities = append(g.Entities, g.Entities[2])

	_, err := NewJSONLD(Options{BaseIRI: testBase}).Emit(g)
	var emitErr *entities.EmissionError
	require.ErrorAs(t, err, &emitErr)
	assert.Equal(t, "Entity/gregory", emitErr.ID)
}

func TestRelationshipLabel(t *testing.T) {
	tests := map[string]string{
		"memberOf":     "MEMBER_OF",
		"member_of":    "MEMBER_OF",
		"member-of":    "MEMBER_OF",
		"has  member":  "HAS_MEMBER",
		"collaborator": "COLLABORATOR",
		"worksOn2024":  "WORKS_ON2024",
		"---":          "RELATED_TO",
		"HTTPEndpoint": "HTTPENDPOINT",
	}
	for in, want := range tests {
		assert.Equal(t, want, RelationshipLabel(in), in)
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a\\b\"c\nd"`, quote("a\\b\"c\nd"))
	assert.Equal(t, "`my key`", identifier("my key"))
	assert.Equal(t, "valid_1", identifier("valid_1"))
}

func TestJSONLD_Emit(t *testing.T) {
	out, err := NewJSONLD(Options{BaseIRI: testBase, Ontology: testOntology(t)}).Emit(testGraph())
	require.NoError(t, err)

	var doc struct {
		Context map[string]any   `json:"@context"`
		Graph   []map[string]any `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "http://example.org/kg/ontology/", doc.Context["@vocab"])
	assert.Equal(t, "http://example.org/kg/resource/", doc.Context["@base"])
	assert.Equal(t, NSDCTerms, doc.Context["dcterms"])
	assert.Equal(t, "http://example.org/kg/meta/", doc.Context["meta"])
	assert.Equal(t, map[string]any{"@type": "xsd:integer"}, doc.Context["age"])
	assert.Equal(t, map[string]any{"@type": "xsd:date"}, doc.Context["founded"])
	assert.NotContains(t, doc.Context, "email")

	require.Len(t, doc.Graph, 3)
	shawn := doc.Graph[0]
	assert.Equal(t, "http://example.org/kg/resource/Person/shawn", shawn["@id"])
	assert.Equal(t, "Person", shawn["@type"])
	assert.Equal(t, "Shawn", shawn["name"])
	assert.Equal(t, float64(40), shawn["age"])
	assert.Equal(t, []any{"a", "b"}, shawn["tags"])
	assert.Equal(t, []any{map[string]any{"@id": "http://example.org/kg/resource/Organization/regen_network"}}, shawn["memberOf"])
	assert.Equal(t, "notes.md", shawn["dcterms:source"])
	assert.Equal(t, 0.9, shawn["meta:extractionConfidence"])

	assert.Equal(t, true, doc.Graph[2]["meta:stub"])
	assert.Equal(t, "Entity", doc.Graph[2]["@type"])
}

func TestJSONLD_EveryReferenceIsAResource(t *testing.T) {
	doc, err := NewJSONLD(Options{BaseIRI: testBase}).Document(testGraph())
	require.NoError(t, err)

	resources := doc["@graph"].([]map[string]any)
	ids := make(map[string]bool)
	for _, r := range resources {
		ids[r["@id"].(string)] = true
	}
	for _, r := range resources {
		for _, v := range r {
			refs, ok := v.([]map[string]string)
			if !ok {
				continue
			}
			for _, ref := range refs {
				assert.True(t, ids[ref["@id"]], ref["@id"])
			}
		}
	}
}

func TestTurtle_Emit(t *testing.T) {
	out, err := NewTurtle(Options{BaseIRI: testBase, Ontology: testOntology(t)}).Emit(testGraph())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "@prefix : <http://example.org/kg/ontology/> .\n")
	assert.Contains(t, text, "@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n")
	assert.Contains(t, text, "\n<http://example.org/kg/resource/Person/shawn>\n    a :Person ;\n    rdfs:label \"Shawn\" ;\n")
	assert.Contains(t, text, `:age "40"^^xsd:integer ;`)
	assert.Contains(t, text, `:memberOf <http://example.org/kg/resource/Organization/regen_network> ;`)
	assert.Contains(t, text, `:founded "2017"^^xsd:date ;`)
	assert.Contains(t, text, `rdfs:label "Regen \"Network\""`)
	assert.Contains(t, text, "@prefix meta: <http://example.org/kg/meta/> .\n")
	assert.Contains(t, text, `meta:stub "true"^^xsd:boolean .`)
	assert.Equal(t, 3, strings.Count(text, " .\n")-7, "one terminated block per entity after the prefixes")
}

func TestNTriples_Emit(t *testing.T) {
	out, err := NewNTriples(Options{BaseIRI: testBase}).Emit(testGraph())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Len(t, lines, 17)
	assert.Equal(t, "<http://example.org/kg/resource/Person/shawn> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/kg/ontology/Person> .", lines[0])
	assert.Contains(t, lines, `<http://example.org/kg/resource/Person/shawn> <http://example.org/kg/ontology/age> "40"^^<http://www.w3.org/2001/XMLSchema#integer> .`)
	assert.Contains(t, lines, `<http://example.org/kg/resource/Person/shawn> <http://purl.org/dc/terms/source> "notes.md" .`)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " ."), line)
	}
}

func TestEmitters_MetadataKeepsClearOfProperties(t *testing.T) {
	g := &entities.ResolvedGraph{Entities: []entities.ResolvedEntity{{
		ID:   "Dataset/soil",
		Type: "Dataset",
		Name: "Soil",
		Properties: map[string]any{
			"name":       "Soil",
			"id":         "DS-7",
			"source":     "field survey",
			"stub":       false,
			"confidence": "low",
		},
		Stub:       true,
		Provenance: &entities.Provenance{SourceID: "soil.md", Confidence: 0.5},
	}}}

	t.Run("cypher", func(t *testing.T) {
		stmts, err := NewCypher(Options{BaseIRI: testBase}).Statements(g)
		require.NoError(t, err)
		assert.Equal(t, `CREATE (:Dataset {iri: "http://example.org/kg/resource/Dataset/soil", _id: "Dataset/soil", name: "Soil", confidence: "low", id: "DS-7", source: "field survey", stub: false, _stub: true, _source: "soil.md", _confidence: 0.5});`, stmts[1])
	})

	t.Run("jsonld", func(t *testing.T) {
		doc, err := NewJSONLD(Options{BaseIRI: testBase}).Document(g)
		require.NoError(t, err)
		r := doc["@graph"].([]map[string]any)[0]
		assert.Equal(t, "DS-7", r["id"])
		assert.Equal(t, "field survey", r["source"])
		assert.Equal(t, "soil.md", r["dcterms:source"])
		assert.Equal(t, false, r["stub"])
		assert.Equal(t, true, r["meta:stub"])
		assert.Equal(t, 0.5, r["meta:extractionConfidence"])
	})

	t.Run("ntriples", func(t *testing.T) {
		out, err := NewNTriples(Options{BaseIRI: testBase}).Emit(g)
		require.NoError(t, err)
		text := string(out)
		s := "<http://example.org/kg/resource/Dataset/soil> "
		assert.Contains(t, text, s+`<http://example.org/kg/ontology/stub> "false"^^<http://www.w3.org/2001/XMLSchema#boolean> .`)
		assert.Contains(t, text, s+`<http://example.org/kg/meta/stub> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .`)
		assert.Contains(t, text, s+`<http://example.org/kg/ontology/source> "field survey" .`)
		assert.Contains(t, text, s+`<http://purl.org/dc/terms/source> "soil.md" .`)
	})
}

func TestEmitters_TimeValues(t *testing.T) {
	g := &entities.ResolvedGraph{Entities: []entities.ResolvedEntity{{
		ID:   "Event/launch",
		Type: "Event",
		Name: "Launch",
		Properties: map[string]any{
			"name":      "Launch",
			"startDate": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			"updated":   time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
		},
	}}}

	stmts, err := NewCypher(Options{BaseIRI: testBase}).Statements(g)
	require.NoError(t, err)
	assert.Contains(t, stmts[1], `startDate: "2024-01-15", updated: "2024-01-15T09:30:00Z"`)

	out, err := NewNTriples(Options{BaseIRI: testBase}).Emit(g)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<http://example.org/kg/ontology/startDate> "2024-01-15" .`)

	doc, err := NewJSONLD(Options{BaseIRI: testBase}).Document(g)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", doc["@graph"].([]map[string]any)[0]["startDate"])
}
