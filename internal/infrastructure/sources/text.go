package sources

import (
	"fmt"
	"unicode/utf8"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/parsers"
)

// TextConverter reads markdown and plain text. Frontmatter is stripped from
// the body and its scalar values are kept as document metadata.
type TextConverter struct{}

// Convert implements converter.
func (c *TextConverter) Convert(path string, content []byte) (*entities.Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s is not valid UTF-8", path)
	}

	doc := &entities.Document{Metadata: make(map[string]string)}
	front, body, ok := parsers.SplitFrontmatter(string(content))
	if ok {
		fm, err := parsers.DecodeFrontmatter(front)
		if err != nil {
			return nil, err
		}
		for k, v := range fm {
			switch x := v.(type) {
			case string, int, float64, bool:
				doc.Metadata[k] = fmt.Sprint(x)
			}
		}
	}

	doc.Text = body
	doc.Title = doc.Metadata[entities.NameProperty]
	if doc.Title == "" {
		doc.Title = markdownTitle(body)
	}
	return doc, nil
}
