package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	storageModel "github.com/festy23/prtracker/internal/storage/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&storageModel.Entry{}))
	return db
}

func implementations(t *testing.T) map[string]func() Repository {
	return map[string]func() Repository{
		"gorm": func() Repository {
			return New(setupTestDB(t), zap.NewNop().Sugar())
		},
		"memory": func() Repository {
			return NewMemory(nil)
		},
	}
}

func TestRepository_Contract(t *testing.T) {
	ctx := context.Background()

	for name, newRepo := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing keys returns empty items", func(t *testing.T) {
				repo := newRepo()

				items, err := repo.Get(ctx, "pr-1", "pr-info-pr-1")
				require.NoError(t, err)
				assert.Empty(t, items)
			})

			t.Run("set then get", func(t *testing.T) {
				repo := newRepo()

				require.NoError(t, repo.Set(ctx, storageModel.Items{
					"pr-1":         json.RawMessage(`{"reviewCount":1}`),
					"pr-info-pr-1": json.RawMessage(`{"project":"acme"}`),
				}))

				items, err := repo.Get(ctx, "pr-1", "pr-2")
				require.NoError(t, err)
				require.Len(t, items, 1)
				assert.JSONEq(t, `{"reviewCount":1}`, string(items["pr-1"]))
			})

			t.Run("set overwrites existing value", func(t *testing.T) {
				repo := newRepo()

				require.NoError(t, repo.Set(ctx, storageModel.Items{"pr-1": json.RawMessage(`{"reviewCount":1}`)}))
				require.NoError(t, repo.Set(ctx, storageModel.Items{"pr-1": json.RawMessage(`{"reviewCount":2}`)}))

				items, err := repo.GetAll(ctx)
				require.NoError(t, err)
				require.Len(t, items, 1)
				assert.JSONEq(t, `{"reviewCount":2}`, string(items["pr-1"]))
			})

			t.Run("set rejects invalid json", func(t *testing.T) {
				repo := newRepo()

				err := repo.Set(ctx, storageModel.Items{"pr-1": json.RawMessage(`{`)})
				assert.ErrorIs(t, err, storageModel.ErrInvalidValue)

				items, err := repo.GetAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, items)
			})

			t.Run("remove ignores missing keys", func(t *testing.T) {
				repo := newRepo()

				require.NoError(t, repo.Set(ctx, storageModel.Items{
					"pr-1": json.RawMessage(`{}`),
					"pr-2": json.RawMessage(`{}`),
				}))
				require.NoError(t, repo.Remove(ctx, "pr-1", "pr-404"))

				items, err := repo.GetAll(ctx)
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"pr-2"}, items.Keys())
			})

			t.Run("empty calls are no-ops", func(t *testing.T) {
				repo := newRepo()

				assert.NoError(t, repo.Set(ctx, storageModel.Items{}))
				assert.NoError(t, repo.Remove(ctx))
				items, err := repo.Get(ctx)
				require.NoError(t, err)
				assert.Empty(t, items)
			})
		})
	}
}

func TestMemory_Isolation(t *testing.T) {
	ctx := context.Background()
	seed := storageModel.Items{"pr-1": json.RawMessage(`{"a":1}`)}
	repo := NewMemory(seed)

	seed["pr-2"] = json.RawMessage(`{}`)
	items, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items["pr-1"][1] = 'x'
	again, err := repo.Get(ctx, "pr-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(again["pr-1"]))
}

func TestRepository_ClosedDatabase(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, zap.NewNop().Sugar())
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.GetAll(context.Background())
	assert.Error(t, err)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, isBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, isBusy(errors.New("database is locked")))
}
