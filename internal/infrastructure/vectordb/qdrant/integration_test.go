package qdrant

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

const (
	testQdrantHost = "localhost"
	testQdrantPort = 6334
	testCollection = "mycomind_integration_test"
	testVectorSize = 4
)

// integrationRepo connects to a local Qdrant. Set INTEGRATION_TEST=1 to run.
func integrationRepo(t *testing.T) *Repository {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 to run against a local qdrant")
	}

	repo, err := NewRepository(config.QdrantConfig{Host: testQdrantHost, Port: testQdrantPort}, testCollection)
	require.NoError(t, err)

	ctx := t.Context()
	_ = repo.DeleteCollection(ctx) // may not exist yet
	require.NoError(t, repo.EnsureCollection(ctx, testVectorSize))

	t.Cleanup(func() {
		_ = repo.DeleteCollection(t.Context())
		repo.Close()
	})
	return repo
}

func indexed(id, typ, name string, stub bool, vec ...float32) ports.IndexedEntity {
	return ports.IndexedEntity{
		Entity:    entities.ResolvedEntity{ID: id, Type: typ, Name: name, Stub: stub},
		Embedding: vec,
	}
}

func TestRepository_UpsertAndSearch(t *testing.T) {
	repo := integrationRepo(t)
	ctx := t.Context()

	items := []ports.IndexedEntity{
		indexed("Person/alice", "Person", "Alice", false, 1, 0, 0, 0),
		indexed("Person/bob", "Person", "Bob", false, 0, 1, 0, 0),
		indexed("Organization/regen_network", "Organization", "Regen Network", false, 0.9, 0.1, 0, 0),
		indexed("Entity/seed_library", "Entity", "Seed Library", true, 0, 0, 1, 0),
	}
	require.NoError(t, repo.Upsert(ctx, items))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	hits, err := repo.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Person/alice", hits[0].ID)
	assert.Equal(t, "Organization/regen_network", hits[1].ID)

	people, err := repo.SearchByType(ctx, []float32{1, 0, 0, 0}, "Person", 10)
	require.NoError(t, err)
	require.Len(t, people, 2)
	for _, h := range people {
		assert.Equal(t, "Person", h.Type)
	}

	stubs, err := repo.Search(ctx, []float32{0, 0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, stubs, 1)
	assert.True(t, stubs[0].Stub)
	assert.Equal(t, "Seed Library", stubs[0].Name)
}

func TestRepository_ReindexReplacesPoints(t *testing.T) {
	repo := integrationRepo(t)
	ctx := t.Context()

	require.NoError(t, repo.Upsert(ctx, []ports.IndexedEntity{indexed("Person/alice", "Person", "Alice", false, 1, 0, 0, 0)}))
	require.NoError(t, repo.Upsert(ctx, []ports.IndexedEntity{indexed("Person/alice", "Person", "Alice Smith", false, 0, 1, 0, 0)}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := repo.Search(ctx, []float32{0, 1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Alice Smith", hits[0].Name)
}
