package handlers

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/mocks"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

func TestLoadHandler_Handle(t *testing.T) {
	ont := testOntology(t)
	store := &mocks.GraphStore{}
	handler := NewLoadHandler(NewConvertHandler(&mocks.NoteStore{Notes: vaultNotes()}, nil, nil), store, nil)

	result, err := handler.Handle(t.Context(), ont, "vault", LoadOptions{BaseIRI: config.DefaultBaseIRI})
	require.NoError(t, err)

	assert.True(t, result.Executed)
	assert.Equal(t, 1, store.ExecuteCallCount)
	assert.Equal(t, result.Statements, store.Statements)

	var indexes, nodes, edges int
	for _, stmt := range result.Statements {
		switch {
		case strings.HasPrefix(stmt, "CREATE INDEX"):
			indexes++
		case strings.HasPrefix(stmt, "CREATE ("):
			nodes++
		case strings.HasPrefix(stmt, "MATCH"):
			edges++
		}
	}
	assert.Equal(t, 3, indexes)
	assert.Equal(t, 3, nodes)
	// memberOf, its hasMember mirror, worksOn and its hasContributor mirror
	assert.Equal(t, 4, edges)
}

func TestLoadHandler_Handle_DryRun(t *testing.T) {
	ont := testOntology(t)
	handler := NewLoadHandler(NewConvertHandler(&mocks.NoteStore{Notes: vaultNotes()}, nil, nil), nil, nil)

	result, err := handler.Handle(t.Context(), ont, "vault", LoadOptions{BaseIRI: config.DefaultBaseIRI, DryRun: true})
	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.NotEmpty(t, result.Statements)
}

func TestLoadHandler_Handle_Errors(t *testing.T) {
	ont := testOntology(t)
	convert := NewConvertHandler(&mocks.NoteStore{Notes: vaultNotes()}, nil, nil)

	t.Run("store failure", func(t *testing.T) {
		store := &mocks.GraphStore{Err: errors.New("connection refused")}
		_, err := NewLoadHandler(convert, store, nil).Handle(t.Context(), ont, "vault", LoadOptions{BaseIRI: config.DefaultBaseIRI})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading graph")
	})

	t.Run("no store", func(t *testing.T) {
		_, err := NewLoadHandler(convert, nil, nil).Handle(t.Context(), ont, "vault", LoadOptions{BaseIRI: config.DefaultBaseIRI})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no graph store")
	})

	t.Run("missing base IRI", func(t *testing.T) {
		_, err := NewLoadHandler(convert, &mocks.GraphStore{}, nil).Handle(t.Context(), ont, "vault", LoadOptions{})
		require.Error(t, err)
	})
}

func TestTripleLoadHandler_Handle(t *testing.T) {
	ont := testOntology(t)
	convert := NewConvertHandler(&mocks.NoteStore{Notes: vaultNotes()}, nil, nil)

	t.Run("upload", func(t *testing.T) {
		store := &mocks.TripleStore{}
		result, err := NewTripleLoadHandler(convert, store, nil).Handle(t.Context(), ont, "vault", TripleLoadOptions{
			BaseIRI: config.DefaultBaseIRI,
			Replace: true,
		})
		require.NoError(t, err)

		assert.True(t, result.Executed)
		assert.Equal(t, 1, store.Uploads)
		assert.Equal(t, "text/turtle", store.ContentType)
		assert.True(t, store.Replaced)
		assert.Equal(t, result.Turtle, store.Data)
		assert.Contains(t, string(store.Data), "<http://mycomind.org/kg/resource/Person/alice>\n    a :Person ;")
	})

	t.Run("dry run", func(t *testing.T) {
		result, err := NewTripleLoadHandler(convert, nil, nil).Handle(t.Context(), ont, "vault", TripleLoadOptions{
			BaseIRI: config.DefaultBaseIRI,
			DryRun:  true,
		})
		require.NoError(t, err)
		assert.False(t, result.Executed)
		assert.NotEmpty(t, result.Turtle)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &mocks.TripleStore{Err: errors.New("503 Service Unavailable")}
		_, err := NewTripleLoadHandler(convert, store, nil).Handle(t.Context(), ont, "vault", TripleLoadOptions{BaseIRI: config.DefaultBaseIRI})
		assert.ErrorContains(t, err, "loading triples")
	})

	t.Run("no store", func(t *testing.T) {
		_, err := NewTripleLoadHandler(convert, nil, nil).Handle(t.Context(), ont, "vault", TripleLoadOptions{BaseIRI: config.DefaultBaseIRI})
		assert.ErrorContains(t, err, "no triple store")
	})
}
