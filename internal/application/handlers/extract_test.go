package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/mocks"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
)

func aliceExtraction() *entities.RawExtraction {
	return &entities.RawExtraction{Entities: []entities.RawEntity{
		{
			"type":          "Person",
			"properties":    map[string]any{"name": "Alice"},
			"relationships": map[string]any{"memberOf": []any{"[[Regen Network]]"}},
			"confidence":    0.9,
		},
		{
			"type":       "Organization",
			"properties": map[string]any{"name": "Regen Network"},
			"confidence": 0.8,
		},
	}}
}

// writeSources creates files under a temp dir and returns a loader that
// knows every file whose text is non-empty.
func writeSources(t *testing.T, files map[string]string) (string, *mocks.SourceLoader) {
	t.Helper()
	dir := t.TempDir()
	loader := &mocks.SourceLoader{Files: map[string]string{}}
	for rel, text := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0644))
		if text != "" {
			loader.Files[path] = text
		}
	}
	return dir, loader
}

func newTestExtractHandler(loader *mocks.SourceLoader, llm *mocks.LLMClient, notes *mocks.NoteStore, runs *mocks.RunLog, metrics *mocks.Metrics) *ExtractHandler {
	// Typed nil pointers must not reach the handler as non-nil interfaces.
	var runLog ports.RunLog
	if runs != nil {
		runLog = runs
	}
	var observer ports.Metrics
	if metrics != nil {
		observer = metrics
	}
	pool := services.NewWorkerPool(services.WorkerPoolConfig{MaxConcurrent: 2}, nil)
	svc := services.NewExtractionService(llm, nil, observer, pool, nil)
	return NewExtractHandler(loader, svc, notes, runLog, observer, nil)
}

func TestExtractHandler_Handle(t *testing.T) {
	ont := testOntology(t)
	dir, loader := writeSources(t, map[string]string{
		"alice.md":         "Alice is a member of Regen Network.",
		"nested/extra.txt": "More about Alice.",
		".obsidian/cfg.md": "hidden",
		"image.bin":        "",
	})

	llm := &mocks.LLMClient{Responses: []*entities.RawExtraction{aliceExtraction()}}
	notes := &mocks.NoteStore{}
	runs := &mocks.RunLog{}
	metrics := &mocks.Metrics{}
	handler := newTestExtractHandler(loader, llm, notes, runs, metrics)

	var visited []string
	result, err := handler.Handle(t.Context(), ont, []string{dir}, ExtractOptions{
		WriteIndex: true,
		OnFile:     func(path string) { visited = append(visited, path) },
	})
	require.NoError(t, err)

	want := []string{filepath.Join(dir, "alice.md"), filepath.Join(dir, "nested", "extra.txt")}
	assert.Equal(t, want, result.Files)
	assert.Equal(t, want, visited)
	assert.Empty(t, result.Errors)

	// Both documents yield the same two entities.
	assert.Equal(t, 2, llm.Calls())
	assert.Len(t, result.Batch.Records, 4)
	assert.Len(t, result.Notes, 4)
	assert.Len(t, notes.Written, 4)
	assert.Equal(t, 1, notes.IndexWritten)
	assert.Equal(t, "1.0.0", notes.LastMeta.SchemaVersion)
	assert.NotEmpty(t, notes.LastMeta.ExtractionDate)
	assert.Equal(t, "Knowledge Extraction Index.md", result.IndexNote)

	require.NotNil(t, result.Graph)
	assert.Equal(t, 2, result.Graph.Report.Entities)
	assert.Equal(t, 0, result.Graph.Report.Stubs)
	assert.Contains(t, result.Graph.Edges, entities.Edge{
		Source:   "Organization/regen_network",
		Relation: "hasMember",
		Target:   "Person/alice",
		Mirrored: true,
	})

	require.Len(t, runs.Runs, 1)
	assert.Equal(t, 2, runs.Runs[0].Documents)
	assert.Equal(t, "Regen Commons", runs.Runs[0].Ontology)
	require.Len(t, metrics.Reports, 1)
	require.Len(t, metrics.Runs, 1)
}

func TestExtractHandler_Handle_DryRun(t *testing.T) {
	ont := testOntology(t)
	dir, loader := writeSources(t, map[string]string{"alice.md": "Alice."})

	llm := &mocks.LLMClient{Responses: []*entities.RawExtraction{aliceExtraction()}}
	notes := &mocks.NoteStore{}
	handler := newTestExtractHandler(loader, llm, notes, nil, nil)

	result, err := handler.Handle(t.Context(), ont, []string{filepath.Join(dir, "alice.md")}, ExtractOptions{DryRun: true, WriteIndex: true})
	require.NoError(t, err)

	assert.Len(t, result.Batch.Records, 2)
	assert.Empty(t, result.Notes)
	assert.Empty(t, notes.Written)
	assert.Zero(t, notes.IndexWritten)
}

func TestExtractHandler_Handle_LoadFailures(t *testing.T) {
	ont := testOntology(t)
	dir, loader := writeSources(t, map[string]string{
		"alice.md":  "Alice.",
		"broken.md": "",
	})

	llm := &mocks.LLMClient{Responses: []*entities.RawExtraction{aliceExtraction()}}
	runs := &mocks.RunLog{}
	handler := newTestExtractHandler(loader, llm, &mocks.NoteStore{}, runs, nil)

	// broken.md is passed explicitly, so the loader is asked and fails.
	paths := []string{filepath.Join(dir, "alice.md"), filepath.Join(dir, "broken.md")}
	result, err := handler.Handle(t.Context(), ont, paths, ExtractOptions{})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], entities.ErrUnsupportedSource)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, 2, runs.Runs[0].Documents)
	assert.Equal(t, 1, runs.Runs[0].DocumentsFailed)
}

func TestExtractHandler_Handle_Errors(t *testing.T) {
	ont := testOntology(t)

	t.Run("no supported files", func(t *testing.T) {
		dir, loader := writeSources(t, map[string]string{"image.bin": ""})
		handler := newTestExtractHandler(loader, &mocks.LLMClient{}, &mocks.NoteStore{}, nil, nil)

		_, err := handler.Handle(t.Context(), ont, []string{dir}, ExtractOptions{})
		assert.ErrorIs(t, err, ErrNoSources)
	})

	t.Run("missing path", func(t *testing.T) {
		handler := newTestExtractHandler(&mocks.SourceLoader{}, &mocks.LLMClient{}, &mocks.NoteStore{}, nil, nil)

		_, err := handler.Handle(t.Context(), ont, []string{filepath.Join(t.TempDir(), "nope")}, ExtractOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accessing path")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		dir, loader := writeSources(t, map[string]string{"a.md": "A."})
		handler := newTestExtractHandler(loader, &mocks.LLMClient{}, &mocks.NoteStore{}, nil, nil)

		_, err := handler.Handle(t.Context(), ont, []string{dir}, ExtractOptions{Pattern: "[unclosed"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pattern")
	})

	t.Run("every load fails", func(t *testing.T) {
		dir, _ := writeSources(t, map[string]string{"a.md": "A."})
		loader := &mocks.SourceLoader{Err: errors.New("disk on fire")}
		handler := newTestExtractHandler(loader, &mocks.LLMClient{}, &mocks.NoteStore{}, nil, nil)

		result, err := handler.Handle(t.Context(), ont, []string{filepath.Join(dir, "a.md")}, ExtractOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk on fire")
		require.NotNil(t, result)
		assert.Len(t, result.Errors, 1)
	})

	t.Run("note and run log failures are collected", func(t *testing.T) {
		dir, loader := writeSources(t, map[string]string{"a.md": "A."})
		llm := &mocks.LLMClient{Responses: []*entities.RawExtraction{aliceExtraction()}}
		notes := &mocks.NoteStore{Err: errors.New("read-only vault")}
		runs := &mocks.RunLog{Err: errors.New("locked")}
		handler := newTestExtractHandler(loader, llm, notes, runs, nil)

		result, err := handler.Handle(t.Context(), ont, []string{dir}, ExtractOptions{WriteIndex: true})
		require.NoError(t, err)
		// two notes, the index, the run log
		assert.Len(t, result.Errors, 4)
		assert.Empty(t, result.Notes)
	})
}
