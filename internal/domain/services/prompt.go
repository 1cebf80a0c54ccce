package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

const extractionRules = `EXTRACTION RULES:
1. Extract every entity in the text that matches one of the entity types above.
2. If the text starts with a heading (# Title), that title is the primary entity.
3. Use only the listed types, properties and relationships. Do not invent new keys.
4. Write every relationship value as a list of WikiLinks using the exact entity name: ["[[Entity Name]]"].
5. Use an empty list when a relationship has no instances in the text.
6. For properties with allowed values, use exactly one of the listed values.
7. Give each entity a confidence score between 0.0 and 1.0.
8. Include a short source_context quote from the text supporting the entity.`

const outputFormat = `OUTPUT FORMAT:
Return ONLY a valid JSON object with this structure, no other text:
{
  "entities": [
    {
      "type": "EntityType",
      "properties": {"name": "Entity Name", "description": "One sentence description"},
      "relationships": {"relationshipName": ["[[Related Entity]]", "[[Another Entity]]"]},
      "confidence": 0.9,
      "source_context": "relevant text snippet"
    }
  ],
  "metadata": {"processing_notes": "optional notes"}
}`

// PromptBuilder renders ontology-driven extraction instructions. Output is
// deterministic for a given ontology and scope.
type PromptBuilder struct {
	ontology *entities.Ontology
}

// NewPromptBuilder creates a prompt builder for the ontology.
func NewPromptBuilder(ontology *entities.Ontology) *PromptBuilder {
	return &PromptBuilder{ontology: ontology}
}

// Build renders the full instruction block. An empty scope means every type.
func (b *PromptBuilder) Build(scope []string) (string, error) {
	types, err := b.scopedTypes(scope)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("You are a knowledge extraction system. Extract structured entities from the input text according to the schema below.\n\n")
	sb.WriteString(b.schemaSection(types))
	sb.WriteString("\n")
	sb.WriteString(extractionRules)
	sb.WriteString("\n\n")
	sb.WriteString(outputFormat)
	sb.WriteString("\n")
	return sb.String(), nil
}

// BuildForType renders instructions that treat the document as one instance
// of typeName. Relationship target types are kept in scope so secondary
// entities can still be extracted.
func (b *PromptBuilder) BuildForType(typeName string) (string, error) {
	scope, err := b.FileEntityScope(typeName)
	if err != nil {
		return "", err
	}
	base, err := b.Build(scope)
	if err != nil {
		return "", err
	}
	return base + fmt.Sprintf("\nFILE-AS-ENTITY MODE:\nThe whole document describes ONE %s. Return it as the first entity, named after the document title. "+
		"Free-form links may go in a \"notes\" or \"attachments\" relationship.\n", typeName), nil
}

// FileEntityScope returns typeName followed by its relationship targets.
func (b *PromptBuilder) FileEntityScope(typeName string) ([]string, error) {
	t, ok := b.ontology.Type(typeName)
	if !ok {
		return nil, &entities.SchemaError{Kind: entities.KindUnknownType, Key: typeName}
	}
	scope := []string{typeName}
	for _, rel := range t.OrderedRelationships() {
		if rel.Target != entities.StubType && !slices.Contains(scope, rel.Target) {
			scope = append(scope, rel.Target)
		}
	}
	return scope, nil
}

// AppendGuidance adds the violations of a rejected attempt to the
// instructions as corrective guidance for the next attempt.
func AppendGuidance(instructions string, attempt, maxAttempts int, violations []string) string {
	if len(violations) == 0 {
		return instructions
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	fmt.Fprintf(&sb, "\n## Validation Failed (attempt %d of %d)\n\n", attempt, maxAttempts)
	sb.WriteString("Your previous response did not match the schema:\n\n")
	for _, v := range violations {
		fmt.Fprintf(&sb, "- %s\n", v)
	}
	sb.WriteString("\nReturn the complete corrected JSON object. Fix every problem listed above and keep the entities that were already correct.\n")
	return sb.String()
}

func (b *PromptBuilder) scopedTypes(scope []string) ([]*entities.EntityType, error) {
	if len(scope) == 0 {
		return b.ontology.Types(), nil
	}
	types := make([]*entities.EntityType, 0, len(scope))
	for _, name := range scope {
		t, ok := b.ontology.Type(name)
		if !ok {
			return nil, &entities.SchemaError{Kind: entities.KindUnknownType, Key: name}
		}
		types = append(types, t)
	}
	return types, nil
}

func (b *PromptBuilder) schemaSection(types []*entities.EntityType) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "SCHEMA: %s", b.ontology.Name)
	if b.ontology.Version != "" {
		fmt.Fprintf(&sb, " (version %s)", b.ontology.Version)
	}
	sb.WriteString("\n")
	if b.ontology.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", b.ontology.Description)
	}
	sb.WriteString("\nENTITY TYPES:\n")

	for _, t := range types {
		fmt.Fprintf(&sb, "\n### %s\n", t.Name)
		if t.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", t.Description)
		}
		if t.Extends != "" {
			fmt.Fprintf(&sb, "Kind of: %s\n", t.Extends)
		}

		if len(t.PropertyOrder) > 0 {
			sb.WriteString("Properties:\n")
			for _, p := range t.OrderedProperties() {
				writeProperty(&sb, p)
			}
		}

		if len(t.RelationOrder) > 0 {
			sb.WriteString("Relationships:\n")
			for _, r := range t.OrderedRelationships() {
				writeRelationship(&sb, r)
			}
		}
	}

	return sb.String()
}

func writeProperty(sb *strings.Builder, p entities.PropertyConstraint) {
	fmt.Fprintf(sb, "  - %s (%s)", p.Name, describeType(p))
	if p.Required {
		sb.WriteString(" (REQUIRED)")
	}
	if p.Description != "" {
		fmt.Fprintf(sb, ": %s", p.Description)
	}
	sb.WriteString("\n")

	if len(p.Enum) > 0 {
		fmt.Fprintf(sb, "    Allowed values (closed list, use exactly one): %s\n", strings.Join(p.Enum, " | "))
	}
	if p.MinLength != nil || p.MaxLength != nil {
		sb.WriteString("    Length:")
		if p.MinLength != nil {
			fmt.Fprintf(sb, " at least %d", *p.MinLength)
		}
		if p.MaxLength != nil {
			fmt.Fprintf(sb, " at most %d", *p.MaxLength)
		}
		sb.WriteString(" characters\n")
	}
	if p.Type == entities.DataTypeArray {
		fmt.Fprintf(sb, "    Example: %q: %s\n", p.Name, arrayExample(p))
	}
}

func writeRelationship(sb *strings.Builder, r entities.RelationshipConstraint) {
	fmt.Fprintf(sb, "  - %s -> %s", r.Name, r.Target)
	switch {
	case r.Bidirectional:
		sb.WriteString(" (bidirectional)")
	case r.Inverse != "":
		fmt.Fprintf(sb, " (inverse: %s)", r.Inverse)
	}
	if r.Description != "" {
		fmt.Fprintf(sb, ": %s", r.Description)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "    Example: %q: [\"[[%s Name]]\", \"[[Another %s Name]]\"]\n", r.Name, r.Target, r.Target)
}

func describeType(p entities.PropertyConstraint) string {
	switch {
	case p.Type == entities.DataTypeArray && p.Items != "":
		return "array of " + string(p.Items)
	case p.Type == entities.DataTypeDate || p.Format == entities.FormatDate:
		return string(p.Type) + ", format YYYY-MM-DD"
	case p.Format == entities.FormatDateTime:
		return string(p.Type) + ", format RFC 3339 date-time"
	case p.Format != "":
		return string(p.Type) + ", format " + p.Format
	default:
		return string(p.Type)
	}
}

// arrayExample shows an array with more than one item so the model does not
// collapse lists into a single string.
func arrayExample(p entities.PropertyConstraint) string {
	if len(p.Enum) >= 2 {
		return fmt.Sprintf("[%q, %q]", p.Enum[0], p.Enum[1])
	}
	switch p.Items {
	case entities.DataTypeInteger:
		return "[1, 2, 3]"
	case entities.DataTypeNumber:
		return "[1.5, 2.25]"
	case entities.DataTypeBoolean:
		return "[true, false]"
	case entities.DataTypeDate:
		return `["2024-01-15", "2024-03-02"]`
	default:
		return `["first item", "second item", "third item"]`
	}
}
