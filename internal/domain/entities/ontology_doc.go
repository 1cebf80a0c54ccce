package entities

// OntologyDocument is a decoded but unvalidated ontology. Types keep
// document order, and duplicate names are preserved so the builder can
// report them.
type OntologyDocument struct {
	Name        string
	Description string
	Version     string
	Types       []TypeDefinition
	Raw         []byte
}

// TypeDefinition is one entity type as written in the document.
type TypeDefinition struct {
	Name          string
	Description   string
	Extends       string
	Properties    []PropertyDefinition
	Relationships []RelationshipDefinition
}

// PropertyDefinition is one property as written in the document.
type PropertyDefinition struct {
	Name        string
	Type        string
	Format      string
	Description string
	Required    bool
	Enum        []string
	Items       string
	MinLength   *int
	MaxLength   *int
}

// RelationshipDefinition is one relationship as written in the document.
type RelationshipDefinition struct {
	Name          string
	Target        string
	Description   string
	Inverse       string
	Bidirectional bool
}
