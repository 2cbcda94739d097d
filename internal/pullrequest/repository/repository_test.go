package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

func setupRepository(seed storageModel.Items) (Repository, *storageRepository.Memory) {
	area := storageRepository.NewMemory(seed)
	return New(area, zap.NewNop().Sugar()), area
}

func TestRepository_GetPair(t *testing.T) {
	ctx := context.Background()

	t.Run("missing pair", func(t *testing.T) {
		repo, _ := setupRepository(nil)

		pair, err := repo.GetPair(ctx, "pr-1")
		require.NoError(t, err)
		assert.Nil(t, pair.Stats)
		assert.Nil(t, pair.Record)
	})

	t.Run("stored pair", func(t *testing.T) {
		repo, _ := setupRepository(storageModel.Items{
			"pr-1":         json.RawMessage(`{"reviewCount":4,"approvalCount":1}`),
			"pr-info-pr-1": json.RawMessage(`{"project":"acme","repo":"api"}`),
		})

		pair, err := repo.GetPair(ctx, "pr-1")
		require.NoError(t, err)
		require.NotNil(t, pair.Stats)
		require.NotNil(t, pair.Record)
		assert.Equal(t, 4, pair.Stats.ReviewCount)
		assert.Equal(t, "acme", pair.Record.Project)
	})

	t.Run("malformed value reads as missing", func(t *testing.T) {
		repo, _ := setupRepository(storageModel.Items{
			"pr-1": json.RawMessage(`"not an object"`),
		})

		pair, err := repo.GetPair(ctx, "pr-1")
		require.NoError(t, err)
		assert.Nil(t, pair.Stats)
	})
}

func TestRepository_SaveAndRemovePair(t *testing.T) {
	ctx := context.Background()
	repo, area := setupRepository(nil)

	require.NoError(t, repo.SavePair(ctx, "pr-2", Pair{Stats: &pullrequestModel.Stats{ReviewCount: 1}}))

	items, err := area.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pr-2"}, items.Keys())

	require.NoError(t, repo.SavePair(ctx, "pr-2", Pair{Record: &pullrequestModel.Record{Project: "acme"}}))
	items, err = area.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pr-2", "pr-info-pr-2"}, items.Keys())

	require.NoError(t, repo.RemovePair(ctx, "pr-2"))
	items, err = area.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_ListPairs(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(storageModel.Items{
		"pr-1":          json.RawMessage(`{"reviewCount":2,"approvalCount":0}`),
		"pr-info-pr-1":  json.RawMessage(`{"project":"acme"}`),
		"pr-info-pr-3":  json.RawMessage(`{"project":"acme"}`),
		"pr-5":          json.RawMessage(`{"reviewCount":9,"approvalCount":0}`),
		prkey.CacheKey:  json.RawMessage(`{"timestamp":1,"data":{}}`),
		"pr-info-pr-99": json.RawMessage(`[]`),
	})

	pairs, err := repo.ListPairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, 2, pairs["pr-1"].Stats.ReviewCount)
	assert.Nil(t, pairs["pr-3"].Stats)
	assert.NotContains(t, pairs, "pr-5")
}

func TestRepository_Cache(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(nil)

	entry, err := repo.GetCache(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, repo.SaveCache(ctx, &pullrequestModel.CacheEntry{
		Timestamp: 42,
		Data:      map[string]pullrequestModel.MergedView{"pr-1": {PRNumber: "1"}},
	}))

	entry, err = repo.GetCache(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(42), entry.Timestamp)
	assert.Equal(t, "1", entry.Data["pr-1"].PRNumber)
}
