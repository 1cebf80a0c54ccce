package parsers

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterFence = "---"

// SplitFrontmatter separates a leading YAML frontmatter block from the
// Markdown body. ok is false when the content has no frontmatter.
func SplitFrontmatter(content string) (front string, body string, ok bool) {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, frontmatterFence+"\n") {
		return "", content, false
	}

	rest := content[len(frontmatterFence)+1:]
	if strings.HasPrefix(rest, frontmatterFence+"\n") || rest == frontmatterFence {
		return "", strings.TrimPrefix(strings.TrimPrefix(rest, frontmatterFence), "\n"), true
	}
	end := strings.Index(rest, "\n"+frontmatterFence)
	for end >= 0 {
		after := rest[end+1+len(frontmatterFence):]
		if after == "" || strings.HasPrefix(after, "\n") {
			return rest[:end+1], strings.TrimPrefix(after, "\n"), true
		}
		next := strings.Index(after, "\n"+frontmatterFence)
		if next < 0 {
			break
		}
		end += 1 + len(frontmatterFence) + next
	}
	return "", content, false
}

// DecodeFrontmatter parses a frontmatter block into a generic mapping.
// Unquoted dates and timestamps are kept as the text the note contains.
func DecodeFrontmatter(front string) (map[string]any, error) {
	out := make(map[string]any)
	if strings.TrimSpace(front) == "" {
		return out, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(front), &doc); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if len(doc.Content) == 0 {
		return out, nil
	}
	keepTimestampsAsText(doc.Content[0])
	if err := doc.Content[0].Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	return out, nil
}

// keepTimestampsAsText retags timestamp scalars as strings so decoding
// does not turn 2024-01-15 into a time.Time.
func keepTimestampsAsText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		keepTimestampsAsText(c)
	}
}

// References flattens a frontmatter relationship value into reference
// strings. YAML reads an unquoted [[Name]] as a list holding a list, so
// nested single-element lists are turned back into WikiLinks.
func References(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		if name, ok := nestedLink(v); ok {
			return []string{"[[" + name + "]]"}
		}
		var out []string
		for _, item := range v {
			out = append(out, References(item)...)
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// nestedLink recognizes [[Name]] decoded as []any{[]any{"Name"}}.
func nestedLink(v []any) (string, bool) {
	if len(v) != 1 {
		return "", false
	}
	inner, ok := v[0].([]any)
	if !ok || len(inner) != 1 {
		return "", false
	}
	name, ok := inner[0].(string)
	return name, ok
}
