package parsers

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// EncodeYAML writes doc in the layout YAMLParser reads, keeping type and
// member order. Members that only carry a type or target use the
// shorthand form.
func EncodeYAML(doc *entities.OntologyDocument) ([]byte, error) {
	root := mapping()
	addScalar(root, "name", doc.Name)
	addScalar(root, "version", doc.Version)
	addScalar(root, "description", doc.Description)

	types := mapping()
	for _, t := range doc.Types {
		def := mapping()
		addScalar(def, "description", t.Description)
		addScalar(def, "extends", t.Extends)

		if len(t.Properties) > 0 {
			props := mapping()
			for _, p := range t.Properties {
				addNode(props, p.Name, propertyNode(p))
			}
			addNode(def, "properties", props)
		}
		if len(t.Relationships) > 0 {
			rels := mapping()
			for _, r := range t.Relationships {
				addNode(rels, r.Name, relationshipNode(r))
			}
			addNode(def, "relationships", rels)
		}
		addNode(types, t.Name, def)
	}
	addNode(root, "entities", types)

	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encoding ontology: %w", err)
	}
	return out, nil
}

func propertyNode(p entities.PropertyDefinition) *yaml.Node {
	if p.Format == "" && p.Description == "" && !p.Required && len(p.Enum) == 0 &&
		p.Items == "" && p.MinLength == nil && p.MaxLength == nil {
		return text(orDefault(p.Type, string(entities.DataTypeString)))
	}
	n := mapping()
	addScalar(n, "type", orDefault(p.Type, string(entities.DataTypeString)))
	addScalar(n, "format", p.Format)
	if p.Required {
		addNode(n, "required", scalar("!!bool", "true"))
	}
	if len(p.Enum) > 0 {
		list := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range p.Enum {
			list.Content = append(list.Content, text(v))
		}
		addNode(n, "enum", list)
	}
	addScalar(n, "items", p.Items)
	if p.MinLength != nil {
		addNode(n, "minLength", scalar("!!int", strconv.Itoa(*p.MinLength)))
	}
	if p.MaxLength != nil {
		addNode(n, "maxLength", scalar("!!int", strconv.Itoa(*p.MaxLength)))
	}
	addScalar(n, "description", p.Description)
	return n
}

func relationshipNode(r entities.RelationshipDefinition) *yaml.Node {
	if r.Description == "" && r.Inverse == "" && !r.Bidirectional {
		return text(r.Target)
	}
	n := mapping()
	addScalar(n, "target", r.Target)
	addScalar(n, "inverse", r.Inverse)
	if r.Bidirectional {
		addNode(n, "bidirectional", scalar("!!bool", "true"))
	}
	addScalar(n, "description", r.Description)
	return n
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func text(value string) *yaml.Node {
	return scalar("!!str", value)
}

// addScalar appends key: value unless value is empty.
func addScalar(n *yaml.Node, key, value string) {
	if value != "" {
		addNode(n, key, text(value))
	}
}

func addNode(n *yaml.Node, key string, value *yaml.Node) {
	n.Content = append(n.Content, text(key), value)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
