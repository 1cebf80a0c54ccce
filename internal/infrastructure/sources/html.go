package sources

import (
	"bytes"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// strippedElements never carry extractable prose.
var strippedElements = []string{"script", "style", "noscript", "nav", "footer", "iframe", "form"}

// HTMLConverter converts HTML pages to markdown text.
type HTMLConverter struct {
	converter *md.Converter
}

// NewHTMLConverter creates a converter with GitHub flavored output.
func NewHTMLConverter() *HTMLConverter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove(strippedElements...)
	return &HTMLConverter{converter: converter}
}

// Convert implements converter.
func (c *HTMLConverter) Convert(path string, content []byte) (*entities.Document, error) {
	markdown, err := c.converter.ConvertBytes(content)
	if err != nil {
		return nil, err
	}

	text := string(markdown)
	title := htmlTitle(content)
	if title == "" {
		title = markdownTitle(text)
	}
	return &entities.Document{
		Title:    title,
		Text:     text,
		Metadata: map[string]string{"format": "html"},
	}, nil
}

// htmlTitle returns the text of the first <title> element.
func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
