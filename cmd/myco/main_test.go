package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"init", "ontology", "extract", "watch", "convert", "load", "index", "search", "history", "cache"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"config-dir", "ontology", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	convert, _, err := root.Find([]string{"convert"})
	require.NoError(t, err)
	format := convert.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "jsonld", format.DefValue)

	extract, _, err := root.Find([]string{"extract"})
	require.NoError(t, err)
	assert.Equal(t, "-1", extract.Flags().Lookup("threshold").DefValue)
}

func TestProjectPath(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work")

	assert.Equal(t, filepath.Join(base, "vault"), projectPath(base, "vault"))
	assert.Equal(t, filepath.Join(string(filepath.Separator), "abs"), projectPath(base, filepath.Join(string(filepath.Separator), "abs")))
	assert.Empty(t, projectPath(base, ""))
}

func TestPresentFiles(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(kept, []byte("A"), 0644))

	got := presentFiles([]string{kept, filepath.Join(dir, "gone.md"), dir})
	assert.Equal(t, []string{kept}, got)
}

func TestRunOntologyImport(t *testing.T) {
	dir := t.TempDir()
	vocab := filepath.Join(dir, "vocab.jsonld")
	require.NoError(t, os.WriteFile(vocab, []byte(`{
  "@context": {"owl": "http://www.w3.org/2002/07/owl#", "ex": "http://example.org/seeds#"},
  "@graph": [{"@id": "ex:SeedBank", "@type": "owl:Class"}]
}`), 0644))

	out := filepath.Join(dir, "ontology.yaml")
	require.NoError(t, runOntologyImport(vocab, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entities:\n")
	assert.Contains(t, string(data), "SeedBank:")

	root := newRootCmd()
	cmd, _, err := root.Find([]string{"ontology", "import"})
	require.NoError(t, err)
	assert.Equal(t, "import", cmd.Name())
}

func TestLoadCommand_Target(t *testing.T) {
	load, _, err := newRootCmd().Find([]string{"load"})
	require.NoError(t, err)
	assert.Equal(t, targetNeo4j, load.Flags().Lookup("target").DefValue)

	err = runLoad(load, nil, loadFlags{target: "graphdb"})
	assert.ErrorContains(t, err, `unknown load target "graphdb" (neo4j, fuseki)`)
}
