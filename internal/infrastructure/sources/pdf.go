package sources

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

// PDFConverter extracts the plain text of every page.
type PDFConverter struct{}

// Convert implements converter. Pages that fail to decode are skipped; a
// document without any text is an error since there is nothing to extract.
func (c *PDFConverter) Convert(path string, content []byte) (*entities.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	if b.Len() == 0 {
		return nil, errors.New("PDF has no extractable text")
	}
	return &entities.Document{
		Text:     b.String(),
		Metadata: map[string]string{"format": "pdf", "pages": fmt.Sprint(pages)},
	}, nil
}
