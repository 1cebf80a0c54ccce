package entities

import "slices"

// DataType is the declared value type of an ontology property.
type DataType string

// Recognized property data types.
const (
	DataTypeString  DataType = "string"
	DataTypeInteger DataType = "integer"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeDate    DataType = "date"
	DataTypeArray   DataType = "array"
)

// Property formats that refine a string property.
const (
	FormatDate     = "date"
	FormatDateTime = "datetime"
	FormatURI      = "uri"
	FormatEmail    = "email"
)

// StubType is the generic type given to placeholder entities created for
// references that match no extracted record.
const StubType = "Entity"

// NameProperty is the property that carries an entity's display name.
const NameProperty = "name"

// reservedMemberNames are written by the note store or bound as prefixes in
// linked-data output, so no property or relationship may use them.
var reservedMemberNames = []string{
	"type", "iri", "created", "source", "aliases",
	"extraction_date", "extraction_confidence", "schema_version",
	"rdf", "rdfs", "owl", "schema", "dcterms", "xsd", "meta",
}

// IsReservedMemberName reports whether name is kept for bookkeeping.
func IsReservedMemberName(name string) bool {
	return slices.Contains(reservedMemberNames, name)
}

// IsValid reports whether the data type is one the validator understands.
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeString, DataTypeInteger, DataTypeNumber, DataTypeBoolean, DataTypeDate, DataTypeArray:
		return true
	}
	return false
}

// PropertyConstraint describes one declared property of an entity type.
type PropertyConstraint struct {
	Name        string
	Type        DataType
	Format      string
	Description string
	Required    bool
	Enum        []string
	Items       DataType // element type for arrays, empty means any scalar
	MinLength   *int
	MaxLength   *int
}

// RelationshipConstraint describes one declared relationship of an entity type.
type RelationshipConstraint struct {
	Name          string
	Target        string
	Description   string
	Inverse       string
	Bidirectional bool
}

// Mirrored reports whether resolution should add a reverse edge.
func (r RelationshipConstraint) Mirrored() bool {
	return r.Bidirectional || r.Inverse != ""
}

// MirrorName returns the relationship name used for the reverse edge.
func (r RelationshipConstraint) MirrorName() string {
	if r.Inverse != "" {
		return r.Inverse
	}
	return r.Name
}

// EntityType is a flattened ontology type: inherited properties and
// relationships are already merged into its maps.
type EntityType struct {
	Name          string
	Description   string
	Extends       string
	Properties    map[string]PropertyConstraint
	PropertyOrder []string
	Relationships map[string]RelationshipConstraint
	RelationOrder []string
}

// Property returns the named property constraint.
func (t *EntityType) Property(name string) (PropertyConstraint, bool) {
	p, ok := t.Properties[name]
	return p, ok
}

// Relationship returns the named relationship constraint.
func (t *EntityType) Relationship(name string) (RelationshipConstraint, bool) {
	r, ok := t.Relationships[name]
	return r, ok
}

// RequiredProperties returns required property names in declaration order.
func (t *EntityType) RequiredProperties() []string {
	var out []string
	for _, name := range t.PropertyOrder {
		if t.Properties[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// OrderedProperties returns the property constraints in declaration order.
func (t *EntityType) OrderedProperties() []PropertyConstraint {
	out := make([]PropertyConstraint, 0, len(t.PropertyOrder))
	for _, name := range t.PropertyOrder {
		out = append(out, t.Properties[name])
	}
	return out
}

// OrderedRelationships returns the relationship constraints in declaration order.
func (t *EntityType) OrderedRelationships() []RelationshipConstraint {
	out := make([]RelationshipConstraint, 0, len(t.RelationOrder))
	for _, name := range t.RelationOrder {
		out = append(out, t.Relationships[name])
	}
	return out
}

// Ontology is the validated, immutable schema for one pipeline run.
type Ontology struct {
	Name        string
	Description string
	Version     string
	Fingerprint string // stable hash of the source document
	types       map[string]*EntityType
	order       []string
}

// NewOntology assembles an ontology from already-flattened types. Callers
// normally go through the ontology builder, which validates the document.
func NewOntology(name, description, version, fingerprint string, types []*EntityType) *Ontology {
	o := &Ontology{
		Name:        name,
		Description: description,
		Version:     version,
		Fingerprint: fingerprint,
		types:       make(map[string]*EntityType, len(types)),
		order:       make([]string, 0, len(types)),
	}
	for _, t := range types {
		o.types[t.Name] = t
		o.order = append(o.order, t.Name)
	}
	return o
}

// Type returns the named entity type.
func (o *Ontology) Type(name string) (*EntityType, bool) {
	t, ok := o.types[name]
	return t, ok
}

// HasType reports whether the ontology declares the named type.
func (o *Ontology) HasType(name string) bool {
	_, ok := o.types[name]
	return ok
}

// TypeNames returns type names in declaration order.
func (o *Ontology) TypeNames() []string {
	return slices.Clone(o.order)
}

// Types returns the entity types in declaration order.
func (o *Ontology) Types() []*EntityType {
	out := make([]*EntityType, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.types[name])
	}
	return out
}

// PropertyDefinition finds the first declaration of a property name across
// all types, in declaration order. Used for context generation where the
// property is addressed without its owning type.
func (o *Ontology) PropertyDefinition(name string) (PropertyConstraint, bool) {
	for _, typeName := range o.order {
		if p, ok := o.types[typeName].Properties[name]; ok {
			return p, true
		}
	}
	return PropertyConstraint{}, false
}

// IsSubtypeOf reports whether child equals parent or extends it transitively.
func (o *Ontology) IsSubtypeOf(child, parent string) bool {
	seen := make(map[string]bool)
	for name := child; name != "" && !seen[name]; {
		if name == parent {
			return true
		}
		seen[name] = true
		t, ok := o.types[name]
		if !ok {
			return false
		}
		name = t.Extends
	}
	return false
}
