package parsers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// documentKeys are top-level keys that describe the ontology itself rather
// than an entity type.
var documentKeys = map[string]bool{
	"name":        true,
	"description": true,
	"version":     true,
	"@context":    true,
	"context":     true,
	"entities":    true,
}

// YAMLParser parses ontology documents written in YAML. Types are read
// from the yaml.Node tree so document order survives and duplicate type
// names reach the validator instead of being collapsed by a map.
type YAMLParser struct{}

// Parse reads and decodes an ontology document.
func (p *YAMLParser) Parse(r io.Reader) (*entities.OntologyDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading ontology: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.New("ontology document is empty")
	}

	doc, err := decodeDocument(root.Content[0])
	if err != nil {
		return nil, err
	}
	doc.Raw = data
	return doc, nil
}

// decodeDocument accepts either {name, version, entities: {Type: ...}} or a
// bare mapping keyed by type name.
func decodeDocument(node *yaml.Node) (*entities.OntologyDocument, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: ontology must be a mapping", node.Line)
	}

	doc := &entities.OntologyDocument{}
	var typeNodes []*yaml.Node // key, value pairs
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "name":
			doc.Name = value.Value
		case "description":
			doc.Description = value.Value
		case "version":
			doc.Version = value.Value
		case "entities":
			if value.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: entities must be a mapping of type name to definition", value.Line)
			}
			typeNodes = append(typeNodes, value.Content...)
		default:
			if documentKeys[key.Value] {
				continue
			}
			typeNodes = append(typeNodes, key, value)
		}
	}

	for i := 0; i+1 < len(typeNodes); i += 2 {
		def, err := decodeType(typeNodes[i].Value, typeNodes[i+1])
		if err != nil {
			return nil, err
		}
		doc.Types = append(doc.Types, def)
	}
	return doc, nil
}

func decodeType(name string, node *yaml.Node) (entities.TypeDefinition, error) {
	def := entities.TypeDefinition{Name: name}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return def, nil
	}
	if node.Kind != yaml.MappingNode {
		return def, fmt.Errorf("line %d: type %s must be a mapping", node.Line, name)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "description":
			def.Description = value.Value
		case "extends", "parent":
			def.Extends = value.Value
		case "properties":
			props, err := decodeMembers(name, value, decodeProperty)
			if err != nil {
				return def, err
			}
			def.Properties = props
		case "relationships":
			rels, err := decodeMembers(name, value, decodeRelationship)
			if err != nil {
				return def, err
			}
			def.Relationships = rels
		}
	}
	return def, nil
}

// decodeMembers walks an ordered name -> definition mapping.
func decodeMembers[T any](typeName string, node *yaml.Node, decode func(name string, n *yaml.Node) (T, error)) ([]T, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: members of %s must be a mapping", node.Line, typeName)
	}
	out := make([]T, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		member, err := decode(node.Content[i].Value, node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", typeName, err)
		}
		out = append(out, member)
	}
	return out, nil
}

// decodeProperty accepts a full mapping or the shorthand `name: string`.
func decodeProperty(name string, node *yaml.Node) (entities.PropertyDefinition, error) {
	p := entities.PropertyDefinition{Name: name}
	if node.Kind == yaml.ScalarNode {
		p.Type = node.Value
		return p, nil
	}
	if node.Kind != yaml.MappingNode {
		return p, fmt.Errorf("line %d: property %s must be a mapping", node.Line, name)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "type":
			p.Type = value.Value
		case "format":
			p.Format = value.Value
		case "description":
			p.Description = value.Value
		case "required":
			required, err := strconv.ParseBool(value.Value)
			if err != nil {
				return p, fmt.Errorf("line %d: property %s: required must be true or false", value.Line, name)
			}
			p.Required = required
		case "enum":
			var values []string
			if err := value.Decode(&values); err != nil {
				return p, fmt.Errorf("line %d: property %s: enum must be a list of strings", value.Line, name)
			}
			p.Enum = values
		case "items":
			if value.Kind == yaml.MappingNode {
				var items struct {
					Type string `yaml:"type"`
				}
				if err := value.Decode(&items); err != nil {
					return p, fmt.Errorf("line %d: property %s: %w", value.Line, name, err)
				}
				p.Items = items.Type
			} else {
				p.Items = value.Value
			}
		case "minLength", "min_length":
			n, err := intValue(value)
			if err != nil {
				return p, fmt.Errorf("property %s: minLength: %w", name, err)
			}
			p.MinLength = &n
		case "maxLength", "max_length":
			n, err := intValue(value)
			if err != nil {
				return p, fmt.Errorf("property %s: maxLength: %w", name, err)
			}
			p.MaxLength = &n
		}
	}
	return p, nil
}

// decodeRelationship accepts a full mapping or the shorthand `knows: Person`.
func decodeRelationship(name string, node *yaml.Node) (entities.RelationshipDefinition, error) {
	r := entities.RelationshipDefinition{Name: name}
	if node.Kind == yaml.ScalarNode {
		r.Target = node.Value
		return r, nil
	}
	if node.Kind != yaml.MappingNode {
		return r, fmt.Errorf("line %d: relationship %s must be a mapping", node.Line, name)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "target", "range":
			r.Target = value.Value
		case "inverse":
			r.Inverse = value.Value
		case "description":
			r.Description = value.Value
		case "bidirectional", "symmetric":
			b, err := strconv.ParseBool(value.Value)
			if err != nil {
				return r, fmt.Errorf("line %d: relationship %s: %s must be true or false", value.Line, name, key.Value)
			}
			r.Bidirectional = b
		}
	}
	return r, nil
}

func intValue(node *yaml.Node) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(node.Value))
	if err != nil {
		return 0, fmt.Errorf("line %d: %q is not an integer", node.Line, node.Value)
	}
	return n, nil
}
