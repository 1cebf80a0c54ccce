package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

var (
	// validTypeNameRegex requires PascalCase type names.
	validTypeNameRegex = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	// validMemberNameRegex applies to property and relationship names.
	validMemberNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// OntologyService builds validated ontologies and caches them by
// fingerprint, so repeated runs over the same document share one model.
type OntologyService struct {
	cache   map[string]*entities.Ontology
	cacheMu sync.RWMutex
}

// NewOntologyService creates a new OntologyService.
func NewOntologyService() *OntologyService {
	return &OntologyService{
		cache: make(map[string]*entities.Ontology),
	}
}

// Load validates doc and returns its ontology, reusing a cached model when
// the document is unchanged.
func (s *OntologyService) Load(doc *entities.OntologyDocument) (*entities.Ontology, error) {
	fp := Fingerprint(doc)

	s.cacheMu.RLock()
	if ont, ok := s.cache[fp]; ok {
		s.cacheMu.RUnlock()
		return ont, nil
	}
	s.cacheMu.RUnlock()

	ont, err := BuildOntology(doc)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if cached, ok := s.cache[fp]; ok {
		return cached, nil
	}
	s.cache[fp] = ont
	return ont, nil
}

// Fingerprint returns a stable hash of the ontology document.
func Fingerprint(doc *entities.OntologyDocument) string {
	h := sha256.New()
	if len(doc.Raw) > 0 {
		h.Write(doc.Raw)
	} else {
		fmt.Fprintf(h, "%s|%s|%s|%+v", doc.Name, doc.Description, doc.Version, doc.Types)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// BuildOntology checks the document's structure and flattens inheritance.
// Every problem found is returned together as entities.OntologyErrors;
// there is no partial result.
func BuildOntology(doc *entities.OntologyDocument) (*entities.Ontology, error) {
	if doc == nil {
		return nil, &entities.OntologyError{Reason: "empty ontology document"}
	}

	var errs entities.OntologyErrors
	defs := make(map[string]*entities.TypeDefinition, len(doc.Types))
	var order []string

	if len(doc.Types) == 0 {
		errs = append(errs, &entities.OntologyError{Reason: "no entity types defined"})
	}

	for i := range doc.Types {
		def := &doc.Types[i]
		if _, dup := defs[def.Name]; dup {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: "duplicate type"})
			continue
		}
		if !validTypeNameRegex.MatchString(def.Name) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: "invalid type name (must start with an uppercase letter and be alphanumeric)"})
		}
		defs[def.Name] = def
		order = append(order, def.Name)
	}

	for _, name := range order {
		errs = append(errs, checkMembers(defs[name], defs)...)
	}
	errs = append(errs, checkInheritance(order, defs)...)

	if len(errs) > 0 {
		return nil, errs
	}

	flat := make(map[string]*entities.EntityType, len(order))
	types := make([]*entities.EntityType, 0, len(order))
	for _, name := range order {
		types = append(types, flatten(name, defs, flat))
	}

	version := doc.Version
	if version == "" {
		version = "1.0.0"
	}
	return entities.NewOntology(doc.Name, doc.Description, version, Fingerprint(doc), types), nil
}

// checkMembers validates property and relationship declarations of one type.
func checkMembers(def *entities.TypeDefinition, defs map[string]*entities.TypeDefinition) entities.OntologyErrors {
	var errs entities.OntologyErrors
	seen := make(map[string]bool)

	for _, p := range def.Properties {
		if !validMemberNameRegex.MatchString(p.Name) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("invalid property name %q", p.Name)})
		}
		if entities.IsReservedMemberName(p.Name) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("property name %q is reserved", p.Name)})
		}
		if seen[p.Name] {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("duplicate property %q", p.Name)})
		}
		seen[p.Name] = true

		dt := dataTypeOf(p.Type)
		if !dt.IsValid() {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("property %q has unrecognized data type %q", p.Name, p.Type)})
		}
		if p.Items != "" && (dataTypeOf(p.Items) == entities.DataTypeArray || !dataTypeOf(p.Items).IsValid()) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("property %q has unrecognized item type %q", p.Name, p.Items)})
		}
	}

	for _, r := range def.Relationships {
		if !validMemberNameRegex.MatchString(r.Name) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("invalid relationship name %q", r.Name)})
		}
		if entities.IsReservedMemberName(r.Name) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("relationship name %q is reserved", r.Name)})
		}
		if seen[r.Name] {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("relationship %q collides with another member", r.Name)})
		}
		seen[r.Name] = true

		switch {
		case r.Target == "":
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("relationship %q has no target", r.Name)})
		case r.Target == entities.StubType:
		default:
			if _, ok := defs[r.Target]; !ok {
				errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("relationship %q targets unknown type %q", r.Name, r.Target)})
			}
		}
		if r.Inverse != "" && (!validMemberNameRegex.MatchString(r.Inverse) || entities.IsReservedMemberName(r.Inverse)) {
			errs = append(errs, &entities.OntologyError{Type: def.Name, Reason: fmt.Sprintf("relationship %q has invalid inverse name %q", r.Name, r.Inverse)})
		}
	}

	return errs
}

// checkInheritance resolves every extends chain with a visited-set walk.
func checkInheritance(order []string, defs map[string]*entities.TypeDefinition) entities.OntologyErrors {
	var errs entities.OntologyErrors
	reported := make(map[string]bool)

	for _, name := range order {
		visited := map[string]bool{name: true}
		chain := []string{name}
		for cur := defs[name]; cur.Extends != ""; {
			parent, ok := defs[cur.Extends]
			if !ok {
				errs = append(errs, &entities.OntologyError{Type: cur.Name, Reason: fmt.Sprintf("extends unknown type %q", cur.Extends)})
				break
			}
			chain = append(chain, parent.Name)
			if visited[parent.Name] {
				cycle := cycleOf(chain)
				if !reported[cycle] {
					reported[cycle] = true
					errs = append(errs, &entities.OntologyError{Type: parent.Name, Reason: "cyclic inheritance (" + strings.ReplaceAll(cycle, "|", " -> ") + ")"})
				}
				break
			}
			visited[parent.Name] = true
			cur = parent
		}
	}

	return errs
}

// cycleOf returns the cyclic tail of chain, rotated so the same cycle found
// from different starting types produces one key.
func cycleOf(chain []string) string {
	last := chain[len(chain)-1]
	start := slices.Index(chain, last)
	loop := chain[start : len(chain)-1]

	minIdx := 0
	for i, n := range loop {
		if n < loop[minIdx] {
			minIdx = i
		}
	}
	rotated := append(slices.Clone(loop[minIdx:]), loop[:minIdx]...)
	rotated = append(rotated, rotated[0])
	return strings.Join(rotated, "|")
}

// flatten merges a type's ancestors into it, parent first, child overriding.
func flatten(name string, defs map[string]*entities.TypeDefinition, done map[string]*entities.EntityType) *entities.EntityType {
	if t, ok := done[name]; ok {
		return t
	}
	def := defs[name]

	t := &entities.EntityType{
		Name:          def.Name,
		Description:   def.Description,
		Extends:       def.Extends,
		Properties:    make(map[string]entities.PropertyConstraint),
		Relationships: make(map[string]entities.RelationshipConstraint),
	}

	if def.Extends != "" {
		parent := flatten(def.Extends, defs, done)
		if t.Description == "" {
			t.Description = parent.Description
		}
		for _, pname := range parent.PropertyOrder {
			t.Properties[pname] = parent.Properties[pname]
			t.PropertyOrder = append(t.PropertyOrder, pname)
		}
		for _, rname := range parent.RelationOrder {
			t.Relationships[rname] = parent.Relationships[rname]
			t.RelationOrder = append(t.RelationOrder, rname)
		}
	}

	for _, p := range def.Properties {
		if _, inherited := t.Properties[p.Name]; !inherited {
			t.PropertyOrder = append(t.PropertyOrder, p.Name)
		}
		t.Properties[p.Name] = entities.PropertyConstraint{
			Name:        p.Name,
			Type:        dataTypeOf(p.Type),
			Format:      p.Format,
			Description: p.Description,
			Required:    p.Required,
			Enum:        slices.Clone(p.Enum),
			Items:       itemTypeOf(p.Items),
			MinLength:   p.MinLength,
			MaxLength:   p.MaxLength,
		}
	}

	for _, r := range def.Relationships {
		if _, inherited := t.Relationships[r.Name]; !inherited {
			t.RelationOrder = append(t.RelationOrder, r.Name)
		}
		t.Relationships[r.Name] = entities.RelationshipConstraint{
			Name:          r.Name,
			Target:        r.Target,
			Description:   r.Description,
			Inverse:       r.Inverse,
			Bidirectional: r.Bidirectional,
		}
	}

	done[name] = t
	return t
}

// dataTypeOf maps a document type string to a DataType. An omitted type
// means string.
func dataTypeOf(s string) entities.DataType {
	if s == "" {
		return entities.DataTypeString
	}
	return entities.DataType(strings.ToLower(strings.TrimSpace(s)))
}

func itemTypeOf(s string) entities.DataType {
	if s == "" {
		return ""
	}
	return dataTypeOf(s)
}
