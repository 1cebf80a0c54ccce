package entities

// Edge is a directed, named relationship between two canonical identifiers.
type Edge struct {
	Source   string `json:"source"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
	Mirrored bool   `json:"mirrored,omitempty"`
}

// ResolvedEntity is an entity with a canonical identifier and its
// relationship references rewritten to canonical identifiers.
type ResolvedEntity struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Name          string              `json:"name"`
	Properties    map[string]any      `json:"properties,omitempty"`
	Relationships map[string][]string `json:"relationships,omitempty"`
	Stub          bool                `json:"stub,omitempty"`
	Provenance    *Provenance         `json:"provenance,omitempty"`
}

// QualityReport summarizes link quality for one resolution run.
type QualityReport struct {
	Entities       int      `json:"entities"`
	Stubs          int      `json:"stubs"`
	References     int      `json:"references"`
	Resolved       int      `json:"resolved"`
	Unresolved     int      `json:"unresolved"`
	MirroredEdges  int      `json:"mirrored_edges"`
	Warnings       int      `json:"warnings"`
	LinkQuality    float64  `json:"link_quality"`
	UnresolvedRefs []string `json:"unresolved_refs,omitempty"`
}

// ResolvedGraph is the output of one resolution pass. Entities are in
// resolver order: real entities first, each stub appended when first
// referenced. Edges are in creation order.
type ResolvedGraph struct {
	Entities []ResolvedEntity    `json:"entities"`
	Edges    []Edge              `json:"edges"`
	Warnings []ResolutionWarning `json:"warnings,omitempty"`
	Report   QualityReport       `json:"report"`
}

// Index returns a map from canonical identifier to position in Entities.
func (g *ResolvedGraph) Index() map[string]int {
	idx := make(map[string]int, len(g.Entities))
	for i := range g.Entities {
		idx[g.Entities[i].ID] = i
	}
	return idx
}

// Lookup returns the entity with the given identifier.
func (g *ResolvedGraph) Lookup(id string) (*ResolvedEntity, bool) {
	for i := range g.Entities {
		if g.Entities[i].ID == id {
			return &g.Entities[i], true
		}
	}
	return nil, false
}

// Real returns the non-stub entities.
func (g *ResolvedGraph) Real() []ResolvedEntity {
	out := make([]ResolvedEntity, 0, len(g.Entities))
	for i := range g.Entities {
		if !g.Entities[i].Stub {
			out = append(out, g.Entities[i])
		}
	}
	return out
}

// CheckIntegrity verifies that identifiers are unique and every edge and
// relationship value references an entity in the graph.
func (g *ResolvedGraph) CheckIntegrity(format string) error {
	seen := make(map[string]bool, len(g.Entities))
	for i := range g.Entities {
		id := g.Entities[i].ID
		if seen[id] {
			return &EmissionError{Format: format, ID: id, Reason: "duplicate identifier"}
		}
		seen[id] = true
	}
	for i := range g.Entities {
		for rel, targets := range g.Entities[i].Relationships {
			for _, target := range targets {
				if !seen[target] {
					return &EmissionError{Format: format, ID: g.Entities[i].ID, Reason: "dangling reference " + rel + " -> " + target}
				}
			}
		}
	}
	for _, e := range g.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			return &EmissionError{Format: format, ID: e.Source, Reason: "dangling edge " + e.Relation + " -> " + e.Target}
		}
	}
	return nil
}
