package notes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/parsers"
)

// ReadVault parses every note under dir whose path matches pattern.
// Notes without frontmatter or a type are skipped silently; malformed
// notes and notes of unknown type are reported in the second return
// value and do not stop the walk.
func (s *Store) ReadVault(ctx context.Context, dir string, pattern string) ([]ports.NoteRecord, []error, error) {
	if pattern == "" {
		pattern = defaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("listing notes in %s: %w", dir, err)
	}
	slices.Sort(matches)

	var (
		out      []ports.NoteRecord
		problems []error
	)
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		record, ok, err := s.readNote(fsys, rel)
		if err != nil {
			s.logger.Warn("skipping note", zap.String("path", rel), zap.Error(err))
			problems = append(problems, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		if !ok {
			continue
		}
		out = append(out, ports.NoteRecord{Path: filepath.Join(dir, filepath.FromSlash(rel)), Record: record})
	}

	s.logger.Debug("vault read", zap.String("dir", dir), zap.Int("notes", len(out)), zap.Int("problems", len(problems)))
	return out, problems, nil
}

func (s *Store) readNote(fsys fs.FS, rel string) (entities.ExtractedRecord, bool, error) {
	data, err := fs.ReadFile(fsys, rel)
	if err != nil {
		return entities.ExtractedRecord{}, false, fmt.Errorf("reading note: %w", err)
	}

	front, _, ok := parsers.SplitFrontmatter(string(data))
	if !ok {
		return entities.ExtractedRecord{}, false, nil
	}
	fm, err := parsers.DecodeFrontmatter(front)
	if err != nil {
		return entities.ExtractedRecord{}, false, err
	}

	typeName, _ := fm["type"].(string)
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return entities.ExtractedRecord{}, false, nil
	}
	if s.ontology != nil && !s.ontology.HasType(typeName) {
		return entities.ExtractedRecord{}, false, fmt.Errorf("unknown type %q", typeName)
	}

	name := entities.NormalizeName(scalarString(fm[entities.NameProperty]))
	if name == "" {
		name = strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	}

	record := entities.ExtractedRecord{
		ID:            entities.CanonicalID(typeName, name),
		Type:          typeName,
		Properties:    map[string]any{entities.NameProperty: name},
		Relationships: make(map[string][]string),
		Provenance: entities.Provenance{
			SourceID:   scalarString(fm["source"]),
			Confidence: floatValue(fm["extraction_confidence"]),
		},
	}
	if ts, err := time.Parse(time.RFC3339, scalarString(fm["extraction_date"])); err == nil {
		record.ExtractedAt = ts
	}

	t, _ := s.typeOf(typeName)
	for key, value := range fm {
		if key == entities.NameProperty || metadataKeys[key] || value == nil {
			continue
		}
		if s.isRelationship(t, key, value) {
			if refs := parsers.References(value); len(refs) > 0 {
				record.Relationships[key] = refs
			}
			continue
		}
		record.Properties[key] = value
	}
	if t != nil {
		if _, ok := t.Property(tagsKey); ok {
			if own := s.ownTags(typeName, fm[tagsKey]); len(own) > 0 {
				record.Properties[tagsKey] = own
			}
		}
	}
	return record, true, nil
}

// ownTags drops the tags the store adds to every note of the type.
func (s *Store) ownTags(typeName string, value any) []any {
	base := s.baseTags(typeName)
	var out []any
	for _, tag := range parsers.References(value) {
		if !slices.Contains(base, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// isRelationship classifies a frontmatter key. Declared members decide;
// an undeclared key is a relationship when every value is a WikiLink.
func (s *Store) isRelationship(t *entities.EntityType, key string, value any) bool {
	if t != nil {
		if _, ok := t.Relationship(key); ok {
			return true
		}
		if _, ok := t.Property(key); ok {
			return false
		}
	}
	refs := parsers.References(value)
	if len(refs) == 0 {
		return false
	}
	for _, ref := range refs {
		if !entities.IsWikiLink(ref) {
			return false
		}
	}
	return true
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func floatValue(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}
