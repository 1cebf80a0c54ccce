package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain name", input: "Jane Smith", expected: "Jane Smith"},
		{name: "double space collapsed", input: "Jane  Smith", expected: "Jane Smith"},
		{name: "tabs and newlines collapsed", input: "Jane\t\nSmith", expected: "Jane Smith"},
		{name: "trimmed", input: "  Jane Smith  ", expected: "Jane Smith"},
		{name: "wikilink stripped", input: "[[Jane Smith]]", expected: "Jane Smith"},
		{name: "nested wikilinks stripped", input: "[[[[Jane Smith]]]]", expected: "Jane Smith"},
		{name: "spaces inside brackets", input: "[[ Jane   Smith ]]", expected: "Jane Smith"},
		{name: "alias resolves to target", input: "[[Jane Smith|Jane]]", expected: "Jane Smith"},
		{name: "case preserved", input: "JANE smith", expected: "JANE smith"},
		{name: "empty", input: "", expected: ""},
		{name: "empty brackets stripped", input: "[[]]", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"Jane Smith",
		"  [[ [[Jane  Smith]] ]] ",
		"[[A|B]]",
		"Mycelial\tNetwork\n",
		"[[x]] and [[y]]",
		"",
		"[[[[]]]]",
	}

	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, DedupKey("Jane Smith"), DedupKey("JANE SMITH"))
	assert.Equal(t, DedupKey("Jane Smith"), DedupKey("[[jane  smith]]"))
	assert.NotEqual(t, DedupKey("Jane Smith"), DedupKey("Jane Smyth"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercased", input: "MycoMind", expected: "mycomind"},
		{name: "spaces to separator", input: "Jane Smith", expected: "jane_smith"},
		{name: "punctuation runs collapse", input: "Rock & Roll -- Hall", expected: "rock_roll_hall"},
		{name: "leading and trailing stripped", input: "--Hello!--", expected: "hello"},
		{name: "unicode letters kept", input: "Café Müller", expected: "café_müller"},
		{name: "only punctuation", input: "!!!", expected: "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}

func TestSlug_Bounded(t *testing.T) {
	long := strings.Repeat("abc ", 100)
	slug := Slug(long)
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "_"))

	multibyte := strings.Repeat("é", 100)
	slug = Slug(multibyte)
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.True(t, strings.HasPrefix(multibyte, slug))
}

func TestCanonicalID(t *testing.T) {
	assert.Equal(t, "Person/jane_smith", CanonicalID("Person", "Jane Smith"))
	assert.Equal(t, CanonicalID("Person", "Jane Smith"), CanonicalID("Person", "Jane  Smith"))
	assert.Equal(t, "Project/mycomind", CanonicalID("Project", "[[MycoMind]]"))
	assert.Equal(t, "Entity/shawn", CanonicalID(StubType, "Shawn"))
}

func TestWikiLink(t *testing.T) {
	assert.Equal(t, "[[Jane Smith]]", WikiLink("Jane  Smith"))
	assert.Equal(t, "[[Jane Smith]]", WikiLink("[[Jane Smith]]"))
	assert.True(t, IsWikiLink(" [[x]] "))
	assert.False(t, IsWikiLink("x"))
}
