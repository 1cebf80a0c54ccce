package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

const sampleVocabulary = `{
  "@context": {
    "rdf": "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
    "rdfs": "http://www.w3.org/2000/01/rdf-schema#",
    "owl": "http://www.w3.org/2002/07/owl#",
    "xsd": "http://www.w3.org/2001/XMLSchema#",
    "schema": "http://schema.org/",
    "hyphal": "http://example.org/hyphaltips#"
  },
  "@graph": [
    {
      "@id": "http://example.org/hyphaltips",
      "@type": "owl:Ontology",
      "rdfs:label": "Hyphal Tips",
      "rdfs:comment": "Projects and the people who tend them",
      "owl:versionInfo": "0.3.0"
    },
    {"@id": "hyphal:Agent", "@type": "rdfs:Class", "rdfs:comment": "Anyone who acts"},
    {"@id": "hyphal:Person", "@type": "owl:Class", "rdfs:subClassOf": {"@id": "hyphal:Agent"}},
    {"@id": "hyphal:Project", "@type": "rdfs:Class", "rdfs:label": {"@value": "Projekt", "@language": "de"}},
    {
      "@id": "hyphal:email",
      "@type": "rdf:Property",
      "schema:domainIncludes": {"@id": "hyphal:Agent"},
      "schema:rangeIncludes": {"@id": "xsd:string"}
    },
    {
      "@id": "hyphal:startDate",
      "@type": "owl:DatatypeProperty",
      "rdfs:domain": {"@id": "hyphal:Project"},
      "rdfs:range": {"@id": "xsd:date"},
      "rdfs:comment": "When work began"
    },
    {
      "@id": "hyphal:budget",
      "@type": "owl:DatatypeProperty",
      "rdfs:domain": {"@id": "hyphal:Project"},
      "rdfs:range": {"@id": "xsd:decimal"}
    },
    {
      "@id": "hyphal:homepage",
      "@type": "rdf:Property",
      "rdfs:domain": [{"@id": "hyphal:Project"}, {"@id": "hyphal:Agent"}],
      "rdfs:range": {"@id": "xsd:anyURI"}
    },
    {
      "@id": "hyphal:worksOn",
      "@type": "owl:ObjectProperty",
      "rdfs:domain": {"@id": "hyphal:Person"},
      "rdfs:range": {"@id": "hyphal:Project"},
      "owl:inverseOf": {"@id": "hyphal:hasContributor"}
    },
    {
      "@id": "hyphal:hasContributor",
      "@type": "owl:ObjectProperty",
      "rdfs:domain": {"@id": "hyphal:Project"},
      "rdfs:range": {"@id": "hyphal:Person"}
    },
    {"@id": "hyphal:source", "@type": "rdf:Property", "rdfs:domain": {"@id": "hyphal:Project"}},
    {"@id": "hyphal:orphan", "@type": "rdf:Property"},
    {"@id": "hyphal:fundedBy", "@type": "rdf:Property", "rdfs:domain": {"@id": "schema:Organization"}}
  ]
}`

func TestRDFSParser_Import(t *testing.T) {
	doc, skipped, err := (&RDFSParser{}).Import(strings.NewReader(sampleVocabulary))
	require.NoError(t, err)

	assert.Equal(t, "Hyphal Tips", doc.Name)
	assert.Equal(t, "Projects and the people who tend them", doc.Description)
	assert.Equal(t, "0.3.0", doc.Version)
	require.Len(t, doc.Types, 3)

	byName := make(map[string]entities.TypeDefinition)
	for _, def := range doc.Types {
		byName[def.Name] = def
	}
	assert.Equal(t, []string{"Agent", "Person", "Project"}, []string{doc.Types[0].Name, doc.Types[1].Name, doc.Types[2].Name})

	agent := byName["Agent"]
	assert.Equal(t, "Anyone who acts", agent.Description)
	assert.Equal(t, entities.PropertyDefinition{Name: "name", Type: "string", Required: true, Description: "Name of the agent"}, agent.Properties[0])
	assert.Contains(t, agent.Properties, entities.PropertyDefinition{Name: "email", Type: "string"})
	assert.Contains(t, agent.Properties, entities.PropertyDefinition{Name: "homepage", Type: "string", Format: "uri"})

	person := byName["Person"]
	assert.Equal(t, "Agent", person.Extends)
	assert.Equal(t, []entities.RelationshipDefinition{{Name: "worksOn", Target: "Project", Inverse: "hasContributor"}}, person.Relationships)

	project := byName["Project"]
	assert.Contains(t, project.Properties, entities.PropertyDefinition{Name: "startDate", Type: "date", Description: "When work began"})
	assert.Contains(t, project.Properties, entities.PropertyDefinition{Name: "budget", Type: "number"})
	assert.Contains(t, project.Properties, entities.PropertyDefinition{Name: "homepage", Type: "string", Format: "uri"})
	assert.Equal(t, []entities.RelationshipDefinition{{Name: "hasContributor", Target: "Person"}}, project.Relationships)

	require.Len(t, skipped, 3)
	joined := strings.Join(skipped, "\n")
	assert.Contains(t, joined, `"source" is a reserved member name`)
	assert.Contains(t, joined, "orphan: no domain")
	assert.Contains(t, joined, "domain http://schema.org/Organization is not an imported class")
}

func TestRDFSParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "not JSON", input: "@prefix : <x> .", wantErr: "parsing JSON-LD"},
		{name: "no classes", input: `{"@id": "http://example.org/p", "@type": "http://www.w3.org/1999/02/22-rdf-syntax-ns#Property"}`, wantErr: "no rdfs:Class or owl:Class"},
		{name: "builtin classes only", input: `{"@id": "http://www.w3.org/2002/07/owl#Thing", "@type": "http://www.w3.org/2002/07/owl#Class"}`, wantErr: "no rdfs:Class or owl:Class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&RDFSParser{}).Parse(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestForFile_JSONLD(t *testing.T) {
	assert.IsType(t, &RDFSParser{}, ForFile("vocab.jsonld"))
}

func TestEncodeYAML_RoundTrip(t *testing.T) {
	original, err := (&YAMLParser{}).Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	out, err := EncodeYAML(original)
	require.NoError(t, err)

	again, err := (&YAMLParser{}).Parse(bytes.NewReader(out))
	require.NoError(t, err)
	original.Raw, again.Raw = nil, nil
	assert.Equal(t, original, again)
}

func TestEncodeYAML_Shorthand(t *testing.T) {
	out, err := EncodeYAML(&entities.OntologyDocument{
		Name:    "tiny",
		Version: "1.0.0",
		Types: []entities.TypeDefinition{{
			Name:          "Person",
			Properties:    []entities.PropertyDefinition{{Name: "nickname", Type: "string"}},
			Relationships: []entities.RelationshipDefinition{{Name: "knows", Target: "Person"}},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "nickname: string\n")
	assert.Contains(t, string(out), "knows: Person\n")
}
