package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "nul bytes", input: "a\x00b", want: "ab"},
		{name: "horizontal runs", input: "a \t  b", want: "a b"},
		{name: "keeps paragraph break", input: "one\n\ntwo", want: "one\n\ntwo"},
		{name: "collapses blank lines", input: "one\n\n\n\n\ntwo", want: "one\n\ntwo"},
		{name: "crlf", input: "one\r\ntwo\r", want: "one\ntwo"},
		{name: "trailing spaces", input: "one   \ntwo", want: "one\ntwo"},
		{name: "trim", input: "  \n text \n ", want: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preprocess(tt.input))
		})
	}
}

func TestLoader_Supports(t *testing.T) {
	l := NewLoader(nil)

	assert.True(t, l.Supports("notes/a.md"))
	assert.True(t, l.Supports("A.MARKDOWN"))
	assert.True(t, l.Supports("page.htm"))
	assert.True(t, l.Supports("paper.pdf"))
	assert.False(t, l.Supports("sheet.xlsx"))
	assert.False(t, l.Supports("README"))
	assert.Equal(t, []string{".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}, l.Extensions())
}

func TestLoader_Markdown(t *testing.T) {
	path := writeSource(t, "regen.md", "---\ntype: Project\nname: Regen Commons\ntags: [a]\n---\n# Heading\n\nShawn   leads the\x00 project.\n")

	doc, err := NewLoader(nil).Load(t.Context(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.ToSlash(path), doc.ID)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "Regen Commons", doc.Title, "frontmatter name wins over heading")
	assert.Equal(t, "# Heading\n\nShawn leads the project.", doc.Text)
	assert.Equal(t, "Project", doc.Metadata["type"])
	assert.NotContains(t, doc.Metadata, "tags")
}

func TestLoader_PlainText(t *testing.T) {
	path := writeSource(t, "meeting notes.txt", "Just text.")

	doc, err := NewLoader(nil).Load(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", doc.Title)
	assert.Equal(t, "Just text.", doc.Text)
}

func TestLoader_HTML(t *testing.T) {
	path := writeSource(t, "page.html", `<html><head><title>Regen Page</title><script>track()</script></head>
<body><nav>menu</nav><h1>Regen Network</h1><p>Shawn    works here.</p></body></html>`)

	doc, err := NewLoader(nil).Load(t.Context(), path)
	require.NoError(t, err)

	assert.Equal(t, "Regen Page", doc.Title)
	assert.Contains(t, doc.Text, "# Regen Network")
	assert.Contains(t, doc.Text, "Shawn works here.")
	assert.NotContains(t, doc.Text, "track()")
	assert.NotContains(t, doc.Text, "menu")
	assert.Equal(t, "html", doc.Metadata["format"])
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(nil)

	_, err := l.Load(t.Context(), "data.xlsx")
	assert.ErrorIs(t, err, entities.ErrUnsupportedSource)

	_, err = l.Load(t.Context(), filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorContains(t, err, "reading source")

	_, err = l.Load(t.Context(), writeSource(t, "fake.pdf", "not a pdf"))
	assert.ErrorContains(t, err, "opening PDF")

	_, err = l.Load(t.Context(), writeSource(t, "bad.txt", "\xff\xfe"))
	assert.ErrorContains(t, err, "not valid UTF-8")

	ctx, cancel := contextWithCancel(t)
	cancel()
	_, err = l.Load(ctx, "a.md")
	assert.Error(t, err)
}

func TestHTMLTitle(t *testing.T) {
	assert.Equal(t, "T", htmlTitle([]byte("<title> T </title>")))
	assert.Equal(t, "", htmlTitle([]byte("<p>no title</p>")))
}

func contextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithCancel(t.Context())
}
