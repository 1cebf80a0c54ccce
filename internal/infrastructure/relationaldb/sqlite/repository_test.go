package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T, ttl time.Duration) *Repository {
	t.Helper()
	repo, err := NewRepository(config.CacheConfig{Path: ":memory:", TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

// freezeTime pins timeNow for the duration of the test.
func freezeTime(t *testing.T, at time.Time) *time.Time {
	t.Helper()
	now := at
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
	return &now
}

func sampleRecords() []entities.ExtractedRecord {
	return []entities.ExtractedRecord{
		{
			ID:            "rec-1",
			Type:          "Project",
			Properties:    map[string]any{"name": "MycoMind", "budget": 1200.5},
			Relationships: map[string][]string{"collaborator": {"[[Shawn]]"}},
			Provenance:    entities.Provenance{SourceID: "notes.md", Confidence: 0.9, Chunk: 2},
		},
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.CacheConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.Equal(t, ":memory:", repo.Path())
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.CacheConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t, 0)

	for _, table := range []string{"extraction_cache", "runs"} {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Should not error when called again
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestRepository_Cache(t *testing.T) {
	repo := setupTestRepo(t, time.Hour)
	ctx := context.Background()
	now := freezeTime(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	t.Run("miss", func(t *testing.T) {
		records, ok, err := repo.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, records)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, "k1", sampleRecords()))

		records, ok, err := repo.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, records, 1)
		assert.Equal(t, "MycoMind", records[0].Name())
		assert.Equal(t, []string{"[[Shawn]]"}, records[0].Relationships["collaborator"])
		assert.Equal(t, 2, records[0].Provenance.Chunk)
	})

	t.Run("empty result is a hit", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, "empty", nil))
		records, ok, err := repo.Get(ctx, "empty")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, records)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, "k1", nil))
		records, ok, err := repo.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, records)
	})

	t.Run("expiry and purge", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, "old", sampleRecords()))
		*now = now.Add(2 * time.Hour)

		_, ok, err := repo.Get(ctx, "old")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, repo.Put(ctx, "fresh", sampleRecords()))
		removed, err := repo.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)

		size, err := repo.CacheSize(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, size)
	})
}

func TestRepository_NoTTL(t *testing.T) {
	repo := setupTestRepo(t, 0)
	ctx := context.Background()
	now := freezeTime(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Put(ctx, "k", sampleRecords()))
	*now = now.Add(24 * 365 * time.Hour)

	_, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := repo.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRepository_Runs(t *testing.T) {
	repo := setupTestRepo(t, 0)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, repo.RecordRun(ctx, entities.RunSummary{
			ID:              id,
			Ontology:        "regen",
			StartedAt:       base.Add(time.Duration(i) * time.Minute),
			FinishedAt:      base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Documents:       i + 1,
			RecordsAccepted: 10 * i,
			Failures:        []entities.ChunkFailure{{SourceID: "x.md", Chunk: i}},
		}))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
	assert.Equal(t, 20, runs[0].RecordsAccepted)
	assert.Equal(t, 30*time.Second, runs[0].Duration())
	assert.Equal(t, 2, runs[0].Failures[0].Chunk)

	t.Run("missing id is generated", func(t *testing.T) {
		require.NoError(t, repo.RecordRun(ctx, entities.RunSummary{Ontology: "regen", StartedAt: base.Add(time.Hour)}))
		runs, err := repo.ListRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 4)
		assert.NotEmpty(t, runs[0].ID)
	})
}
