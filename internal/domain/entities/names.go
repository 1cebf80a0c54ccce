package entities

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxSlugLength bounds the slug part of a canonical identifier.
const MaxSlugLength = 80

// slugSeparator replaces every run of non-alphanumeric characters.
const slugSeparator = '_'

var reWhitespace = regexp.MustCompile(`\s+`)

// NormalizeName collapses whitespace runs, trims, and strips any number of
// nested WikiLink decorations. An Obsidian alias ([[Target|Shown]]) resolves
// to its target. Case is preserved. NormalizeName is idempotent.
func NormalizeName(name string) string {
	name = collapse(name)
	for strings.HasPrefix(name, "[[") && strings.HasSuffix(name, "]]") && len(name) >= 4 {
		inner := name[2 : len(name)-2]
		if i := strings.Index(inner, "|"); i >= 0 && !strings.Contains(inner, "[[") {
			inner = inner[:i]
		}
		name = collapse(inner)
	}
	return name
}

// DedupKey is the case-insensitive lookup key for a display name.
func DedupKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}

// IsWikiLink reports whether s is decorated with at least one [[ ]] pair.
func IsWikiLink(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[[") && strings.HasSuffix(s, "]]")
}

// WikiLink decorates a display name as a cross-reference.
func WikiLink(name string) string {
	return "[[" + NormalizeName(name) + "]]"
}

// Slug lowercases s, replaces non-alphanumeric runs with a single separator
// and bounds the result to MaxSlugLength bytes.
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteRune(slugSeparator)
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	slug := truncateRunes(b.String(), MaxSlugLength)
	slug = strings.TrimRight(slug, string(slugSeparator))
	if slug == "" {
		return "unnamed"
	}
	return slug
}

// CanonicalID builds the stable identifier {Type}/{slug(name)}.
func CanonicalID(typeName, name string) string {
	return typeName + "/" + Slug(NormalizeName(name))
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
