package notes

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/parsers"
)

var (
	reForbidden = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f-\x9f]`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// WriteRecord renders the record as a note and writes it, replacing any
// previous note with the same name.
func (s *Store) WriteRecord(ctx context.Context, record entities.ExtractedRecord, meta ports.NoteMeta) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := s.Render(record, meta)
	if err != nil {
		return "", err
	}

	path := s.NotePath(record)
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	s.logger.Debug("note written", zap.String("path", path), zap.String("type", record.Type))
	return path, nil
}

// NotePath returns <vault>/<notes folder>/<TypePlural>/<name>.md.
func (s *Store) NotePath(record entities.ExtractedRecord) string {
	name := SanitizeFilename(entities.NormalizeName(record.Name()), s.cfg.MaxFilenameLength)
	return filepath.Join(s.NotesDir(), TypeFolder(record.Type), name+".md")
}

// TypeFolder is the pluralized folder name for a type.
func TypeFolder(typeName string) string {
	if typeName == "" {
		return "Unknown"
	}
	return inflection.Plural(typeName)
}

// SanitizeFilename strips characters that are invalid in file names,
// collapses whitespace and bounds the length in bytes.
func SanitizeFilename(name string, maxLength int) string {
	name = reForbidden.ReplaceAllString(name, "")
	name = strings.TrimSpace(reSpaces.ReplaceAllString(name, " "))
	name = strings.Trim(name, ".")
	if maxLength > 0 && len(name) > maxLength {
		cut := 0
		for i := range name {
			if i > maxLength {
				break
			}
			cut = i
		}
		name = strings.TrimSpace(name[:cut])
	}
	if name == "" {
		return fallbackFilename
	}
	return name
}

// Render builds the full note text: frontmatter followed by the body.
func (s *Store) Render(record entities.ExtractedRecord, meta ports.NoteMeta) (string, error) {
	front, err := s.frontmatter(record, meta)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")
	b.WriteString(s.body(record))
	return b.String(), nil
}

func (s *Store) frontmatter(record entities.ExtractedRecord, meta ports.NoteMeta) ([]byte, error) {
	fm := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value any) error {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		fm.Content = append(fm.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &v)
		return nil
	}

	name := entities.NormalizeName(record.Name())
	if err := add("type", record.Type); err != nil {
		return nil, err
	}
	if err := add(entities.NameProperty, name); err != nil {
		return nil, err
	}
	for _, key := range s.propertyOrder(record) {
		if err := add(key, record.Properties[key]); err != nil {
			return nil, err
		}
	}
	for _, rel := range s.relationshipOrder(record) {
		links := make([]string, 0, len(record.Relationships[rel]))
		for _, ref := range record.Relationships[rel] {
			links = append(links, entities.WikiLink(ref))
		}
		if err := add(rel, links); err != nil {
			return nil, err
		}
	}

	now := s.now()
	source := meta.Source
	if source == "" {
		source = record.Provenance.SourceID
	}
	extracted := meta.ExtractionDate
	if extracted == "" {
		extracted = now.Format(time.RFC3339)
	}
	pairs := []struct {
		key   string
		value any
		skip  bool
	}{
		{key: "created", value: now.Format(time.RFC3339)},
		{key: "source", value: source, skip: source == ""},
		{key: "extraction_date", value: extracted},
		{key: "extraction_confidence", value: record.Provenance.Confidence, skip: record.Provenance.Confidence <= 0},
		{key: "schema_version", value: meta.SchemaVersion, skip: meta.SchemaVersion == ""},
		{key: "tags", value: s.tags(record)},
	}
	for _, p := range pairs {
		if p.skip {
			continue
		}
		if err := add(p.key, p.value); err != nil {
			return nil, err
		}
	}

	out, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}
	return out, nil
}

// propertyOrder lists property keys except name: declared order first,
// then any remaining keys sorted.
func (s *Store) propertyOrder(record entities.ExtractedRecord) []string {
	var declared []string
	if t, ok := s.typeOf(record.Type); ok {
		declared = t.PropertyOrder
	}
	return order(declared, record.PropertyNames(), func(k string) bool {
		return k != entities.NameProperty && !metadataKeys[k]
	})
}

func (s *Store) relationshipOrder(record entities.ExtractedRecord) []string {
	var declared []string
	if t, ok := s.typeOf(record.Type); ok {
		declared = t.RelationOrder
	}
	return order(declared, record.RelationshipNames(), func(k string) bool {
		return len(record.Relationships[k]) > 0
	})
}

func (s *Store) typeOf(name string) (*entities.EntityType, bool) {
	if s.ontology == nil {
		return nil, false
	}
	return s.ontology.Type(name)
}

func order(declared, present []string, keep func(string) bool) []string {
	out := make([]string, 0, len(present))
	for _, k := range declared {
		if slices.Contains(present, k) && keep(k) {
			out = append(out, k)
		}
	}
	for _, k := range present {
		if !slices.Contains(out, k) && keep(k) {
			out = append(out, k)
		}
	}
	return out
}

// tags merges the configured tags, the type tag and any tags property the
// record declares.
func (s *Store) tags(record entities.ExtractedRecord) []string {
	tags := s.baseTags(record.Type)
	for _, v := range parsers.References(record.Properties[tagsKey]) {
		if v != "" && !slices.Contains(tags, v) {
			tags = append(tags, v)
		}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}

// baseTags are the tags every note of the type carries.
func (s *Store) baseTags(typeName string) []string {
	tags := slices.Clone(s.cfg.Tags)
	if typeTag := strings.ToLower(typeName); typeTag != "" && !slices.Contains(tags, typeTag) {
		tags = append(tags, typeTag)
	}
	return tags
}

func (s *Store) body(record entities.ExtractedRecord) string {
	var b strings.Builder
	name := entities.NormalizeName(record.Name())
	if name == "" {
		name = "Unnamed Entity"
	}
	fmt.Fprintf(&b, "# %s\n", name)

	if desc := record.Description(); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}

	if rels := s.relationshipOrder(record); len(rels) > 0 {
		b.WriteString("\n## Relationships\n\n")
		for _, rel := range rels {
			links := make([]string, 0, len(record.Relationships[rel]))
			for _, ref := range record.Relationships[rel] {
				links = append(links, entities.WikiLink(ref))
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", Humanize(rel), strings.Join(links, ", "))
		}
	}

	if excerpt := strings.TrimSpace(record.Provenance.Excerpt); excerpt != "" {
		b.WriteString("\n## Source Context\n\n")
		for _, line := range strings.Split(excerpt, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
	}
	return b.String()
}

// Humanize turns memberOf or member_of into "Member Of".
func Humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			cur[0] = unicode.ToUpper(cur[0])
			words = append(words, string(cur))
			cur = nil
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0 && !unicode.IsUpper(cur[len(cur)-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

// WriteIndex writes a note linking every record, grouped by type.
func (s *Store) WriteIndex(ctx context.Context, records []entities.ExtractedRecord, meta ports.NoteMeta) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	byType := make(map[string][]string)
	for i := range records {
		name := entities.NormalizeName(records[i].Name())
		if name == "" || slices.Contains(byType[records[i].Type], name) {
			continue
		}
		byType[records[i].Type] = append(byType[records[i].Type], name)
	}

	var b strings.Builder
	b.WriteString("# Knowledge Extraction Index\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n", s.now().Format("2006-01-02 15:04:05"))
	if meta.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", meta.Source)
	}
	fmt.Fprintf(&b, "Total entities: %d\n", len(records))

	for _, typeName := range slices.Sorted(maps.Keys(byType)) {
		names := byType[typeName]
		slices.Sort(names)
		fmt.Fprintf(&b, "\n## %s (%d)\n\n", TypeFolder(typeName), len(names))
		for _, name := range names {
			fmt.Fprintf(&b, "- %s\n", entities.WikiLink(name))
		}
	}

	b.WriteString("\n## Extraction Metadata\n\n")
	fmt.Fprintf(&b, "- **Schema Version**: %s\n", orUnknown(meta.SchemaVersion))
	fmt.Fprintf(&b, "- **Extraction Date**: %s\n", orUnknown(meta.ExtractionDate))

	path := filepath.Join(s.NotesDir(), indexFilename)
	if err := writeFile(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating note folder: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing note %s: %w", path, err)
	}
	return nil
}
