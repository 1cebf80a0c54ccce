package sources

import (
	"regexp"
	"strings"
)

var (
	reHorizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	reTrailingSpace   = regexp.MustCompile(`(?m) +$`)
	reExcessiveLines  = regexp.MustCompile(`\n{3,}`)
	reHeading         = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)
)

// Preprocess normalizes text before chunking: NUL bytes are removed,
// horizontal whitespace runs collapse to one space, and more than one
// blank line collapses to a single paragraph break.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = reHorizontalSpace.ReplaceAllString(text, " ")
	text = reTrailingSpace.ReplaceAllString(text, "")
	text = reExcessiveLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// markdownTitle returns the first level-one heading, or "".
func markdownTitle(text string) string {
	if m := reHeading.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
