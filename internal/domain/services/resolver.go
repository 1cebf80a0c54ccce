package services

import (
	"fmt"
	"maps"
	"slices"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// EntityResolver turns a batch of extracted records into a resolved graph
// with canonical identifiers. All lookup state lives inside one Resolve call,
// so a resolver can be reused but a single call must see the whole batch.
type EntityResolver struct {
	ontology *entities.Ontology
}

// NewEntityResolver creates a resolver for the ontology.
func NewEntityResolver(ontology *entities.Ontology) *EntityResolver {
	return &EntityResolver{ontology: ontology}
}

// resolution holds the lookup tables of one pass.
type resolution struct {
	ontology *entities.Ontology
	graph    *entities.ResolvedGraph

	// byTypeKey maps type + dedup key to the entity position.
	byTypeKey map[string]int
	// byKey maps a dedup key to every real entity with that name, in
	// registration order.
	byKey map[string][]int
	stubs map[string]int
	ids   map[string]bool
	edges map[entities.Edge]bool

	raw        []map[string][]string
	unresolved map[string]bool
}

// Resolve registers every named record, rewrites relationship references to
// canonical identifiers, synthesizes stubs for unmatched references and adds
// mirrored edges. Records without a name are skipped.
func (r *EntityResolver) Resolve(records []entities.ExtractedRecord) *entities.ResolvedGraph {
	res := &resolution{
		ontology:   r.ontology,
		graph:      &entities.ResolvedGraph{Entities: []entities.ResolvedEntity{}, Edges: []entities.Edge{}},
		byTypeKey:  make(map[string]int),
		byKey:      make(map[string][]int),
		stubs:      make(map[string]int),
		ids:        make(map[string]bool),
		edges:      make(map[entities.Edge]bool),
		unresolved: make(map[string]bool),
	}

	for i := range records {
		res.register(&records[i])
	}

	realCount := len(res.graph.Entities)
	for i := range realCount {
		res.rewrite(i)
	}

	res.report(realCount)
	return res.graph
}

func (res *resolution) register(rec *entities.ExtractedRecord) {
	name := entities.NormalizeName(rec.Name())
	if name == "" {
		return
	}
	key := entities.DedupKey(name)
	typeKey := rec.Type + "\x00" + key

	if idx, ok := res.byTypeKey[typeKey]; ok {
		existing := &res.graph.Entities[idx]
		for k, v := range rec.Properties {
			if _, set := existing.Properties[k]; !set {
				existing.Properties[k] = v
			}
		}
		for rel, refs := range rec.Relationships {
			res.raw[idx][rel] = appendUnique(res.raw[idx][rel], refs...)
		}
		if existing.Provenance != nil && rec.Provenance.Confidence > existing.Provenance.Confidence {
			existing.Provenance.Confidence = rec.Provenance.Confidence
		}
		return
	}

	props := maps.Clone(rec.Properties)
	if props == nil {
		props = make(map[string]any)
	}
	props[entities.NameProperty] = name
	prov := rec.Provenance

	idx := len(res.graph.Entities)
	res.graph.Entities = append(res.graph.Entities, entities.ResolvedEntity{
		ID:         res.mintID(entities.CanonicalID(rec.Type, name)),
		Type:       rec.Type,
		Name:       name,
		Properties: props,
		Provenance: &prov,
	})
	rels := make(map[string][]string, len(rec.Relationships))
	for rel, refs := range rec.Relationships {
		rels[rel] = appendUnique(nil, refs...)
	}
	res.raw = append(res.raw, rels)
	res.byTypeKey[typeKey] = idx
	res.byKey[key] = append(res.byKey[key], idx)
}

// mintID returns id, or id with a numeric suffix when a different name
// already produced the same slug.
func (res *resolution) mintID(id string) string {
	candidate := id
	for n := 2; res.ids[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	res.ids[candidate] = true
	return candidate
}

func (res *resolution) rewrite(i int) {
	source := res.graph.Entities[i]
	t, _ := res.ontology.Type(source.Type)

	raw := res.raw[i]
	for _, relName := range slices.Sorted(maps.Keys(raw)) {
		var constraint entities.RelationshipConstraint
		var declared bool
		if t != nil {
			constraint, declared = t.Relationship(relName)
		}

		for _, ref := range raw[relName] {
			name := entities.NormalizeName(ref)
			if name == "" {
				continue
			}
			res.graph.Report.References++

			target := res.lookup(source.ID, relName, ref, name, constraint, declared)
			res.link(i, relName, target, false)

			if declared && constraint.Mirrored() {
				res.link(target, constraint.MirrorName(), i, true)
			}
		}
	}
}

// lookup finds the entity a reference points at, creating a stub when no
// real entity has that name.
func (res *resolution) lookup(sourceID, relName, ref, name string, constraint entities.RelationshipConstraint, declared bool) int {
	key := entities.DedupKey(name)
	candidates := res.byKey[key]

	if len(candidates) == 0 {
		res.graph.Report.Unresolved++
		res.unresolved[name] = true
		if idx, ok := res.stubs[key]; ok {
			return idx
		}
		idx := len(res.graph.Entities)
		res.graph.Entities = append(res.graph.Entities, entities.ResolvedEntity{
			ID:         res.mintID(entities.CanonicalID(entities.StubType, name)),
			Type:       entities.StubType,
			Name:       name,
			Properties: map[string]any{entities.NameProperty: name},
			Stub:       true,
		})
		res.stubs[key] = idx
		return idx
	}

	res.graph.Report.Resolved++
	if len(candidates) == 1 {
		return candidates[0]
	}

	preferred := candidates
	if declared && constraint.Target != entities.StubType {
		var matches []int
		for _, c := range candidates {
			if res.ontology.IsSubtypeOf(res.graph.Entities[c].Type, constraint.Target) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 1 {
			return matches[0]
		}
		if len(matches) > 1 {
			preferred = matches
		}
	}

	ids := make([]string, len(candidates))
	for n, c := range candidates {
		ids[n] = res.graph.Entities[c].ID
	}
	chosen := preferred[0]
	res.graph.Warnings = append(res.graph.Warnings, entities.ResolutionWarning{
		Source:     sourceID,
		Relation:   relName,
		Reference:  ref,
		Candidates: ids,
		Chosen:     res.graph.Entities[chosen].ID,
		Reason:     "first registered entity wins",
	})
	return chosen
}

// link records one directed edge and the matching relationship value.
// Repeated edges collapse into one.
func (res *resolution) link(from int, relName string, to int, mirrored bool) {
	source := &res.graph.Entities[from]
	target := res.graph.Entities[to].ID
	edge := entities.Edge{Source: source.ID, Relation: relName, Target: target}
	if res.edges[edge] {
		return
	}
	res.edges[edge] = true

	if source.Relationships == nil {
		source.Relationships = make(map[string][]string)
	}
	source.Relationships[relName] = append(source.Relationships[relName], target)

	edge.Mirrored = mirrored
	res.graph.Edges = append(res.graph.Edges, edge)
	if mirrored {
		res.graph.Report.MirroredEdges++
	}
}

func (res *resolution) report(realCount int) {
	rep := &res.graph.Report
	rep.Entities = len(res.graph.Entities)
	rep.Stubs = len(res.graph.Entities) - realCount
	rep.Warnings = len(res.graph.Warnings)
	rep.LinkQuality = 1.0
	if rep.References > 0 {
		rep.LinkQuality = float64(rep.Resolved) / float64(rep.References)
	}
	rep.UnresolvedRefs = slices.Sorted(maps.Keys(res.unresolved))
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
