package notes

import (
	"fmt"
	"slices"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// UnresolvedLinks lists WikiLink references that do not name any record in
// the batch, one line per reference, sorted.
func UnresolvedLinks(records []entities.ExtractedRecord) []string {
	known := make(map[string]bool, len(records))
	for i := range records {
		known[entities.DedupKey(records[i].Name())] = true
	}

	var out []string
	for i := range records {
		for _, rel := range records[i].RelationshipNames() {
			for _, ref := range records[i].Relationships[rel] {
				if !entities.IsWikiLink(ref) || known[entities.DedupKey(ref)] {
					continue
				}
				line := fmt.Sprintf("Unresolved WikiLink in '%s': %s", records[i].Name(), entities.WikiLink(ref))
				if !slices.Contains(out, line) {
					out = append(out, line)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
