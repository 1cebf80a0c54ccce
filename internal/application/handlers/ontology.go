package handlers

import (
	"bytes"
	"fmt"
	"os"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/parsers"
)

// OntologyHandler handles ontology loading and inspection.
type OntologyHandler struct {
	service *services.OntologyService
}

// NewOntologyHandler creates a new OntologyHandler.
func NewOntologyHandler(service *services.OntologyService) *OntologyHandler {
	return &OntologyHandler{
		service: service,
	}
}

// TypeSummary describes one flattened entity type.
type TypeSummary struct {
	Name          string
	Extends       string
	Description   string
	Properties    []string
	Relationships []string
}

// OntologyDescription is a human-oriented view of a loaded ontology.
type OntologyDescription struct {
	Name        string
	Version     string
	Description string
	Fingerprint string
	Types       []TypeSummary
}

// HandleLoad parses and validates the ontology file at path.
func (h *OntologyHandler) HandleLoad(path string) (*entities.Ontology, error) {
	parser := parsers.ForFile(path)
	if parser == nil {
		return nil, fmt.Errorf("unsupported ontology format: %s (use .yaml, .yml, .json or .jsonld)", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ontology: %w", err)
	}
	defer file.Close()

	doc, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing ontology: %w", err)
	}

	ont, err := h.service.Load(doc)
	if err != nil {
		return nil, fmt.Errorf("validating ontology: %w", err)
	}
	return ont, nil
}

// OntologyImport is an RDF vocabulary converted to ontology YAML.
type OntologyImport struct {
	Ontology *entities.Ontology
	YAML     []byte
	// Skipped explains every class or property that was not converted.
	Skipped []string
}

// HandleImport converts the JSON-LD vocabulary at path. The YAML is parsed
// back and validated, so the result loads exactly as written.
func (h *OntologyHandler) HandleImport(path string) (*OntologyImport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary: %w", err)
	}
	defer file.Close()

	doc, skipped, err := (&parsers.RDFSParser{}).Import(file)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	out, err := parsers.EncodeYAML(doc)
	if err != nil {
		return nil, err
	}

	converted, err := (&parsers.YAMLParser{}).Parse(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parsing converted ontology: %w", err)
	}
	ont, err := h.service.Load(converted)
	if err != nil {
		return nil, fmt.Errorf("validating converted ontology: %w", err)
	}
	return &OntologyImport{Ontology: ont, YAML: out, Skipped: skipped}, nil
}

// HandleDescribe summarizes every type, or only typeName when set.
func (h *OntologyHandler) HandleDescribe(ont *entities.Ontology, typeName string) (*OntologyDescription, error) {
	desc := &OntologyDescription{
		Name:        ont.Name,
		Version:     ont.Version,
		Description: ont.Description,
		Fingerprint: ont.Fingerprint,
	}

	types := ont.Types()
	if typeName != "" {
		t, ok := ont.Type(typeName)
		if !ok {
			return nil, &entities.SchemaError{Kind: entities.KindUnknownType, Type: typeName}
		}
		types = []*entities.EntityType{t}
	}

	for _, t := range types {
		summary := TypeSummary{
			Name:        t.Name,
			Extends:     t.Extends,
			Description: t.Description,
		}
		for _, p := range t.OrderedProperties() {
			line := fmt.Sprintf("%s (%s)", p.Name, p.Type)
			if p.Required {
				line += " required"
			}
			summary.Properties = append(summary.Properties, line)
		}
		for _, r := range t.OrderedRelationships() {
			line := fmt.Sprintf("%s -> %s", r.Name, r.Target)
			if r.Mirrored() {
				line += " (mirror: " + r.MirrorName() + ")"
			}
			summary.Relationships = append(summary.Relationships, line)
		}
		desc.Types = append(desc.Types, summary)
	}
	return desc, nil
}

// HandlePrompt renders the extraction instructions. A non-empty typeName
// selects file-as-entity mode for that type.
func (h *OntologyHandler) HandlePrompt(ont *entities.Ontology, typeName string) (string, error) {
	builder := services.NewPromptBuilder(ont)
	if typeName != "" {
		return builder.BuildForType(typeName)
	}
	return builder.Build(nil)
}
