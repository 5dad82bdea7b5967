package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
)

func TestPGStore(t *testing.T) {
	url := os.Getenv("ATLAS_POSTGRES_URL")
	if url == "" {
		t.Skip("ATLAS_POSTGRES_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, url)
	if err != nil {
		t.Skip("Postgres não disponível:", err)
	}
	store := New(pool)
	defer store.Close()
	require.NoError(t, store.CreateSchema(ctx))

	t.Run("Upsert and Load", func(t *testing.T) {
		require.NoError(t, store.SaveDraft(ctx, "pg_test_1", "First", []byte(`{"id":"pg_test_1","nodes":[]}`)))
		require.NoError(t, store.SaveDraft(ctx, "pg_test_1", "Renamed", []byte(`{"id":"pg_test_1","nodes":[{"id":"a"}]}`)))
		defer store.DeleteDraft(ctx, "pg_test_1")

		data, err := store.LoadDraft(ctx, "pg_test_1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"pg_test_1","nodes":[{"id":"a"}]}`, string(data))

		list, err := store.ListDrafts(ctx)
		require.NoError(t, err)
		var names []string
		for _, d := range list {
			if d.Key == "pg_test_1" {
				names = append(names, d.Name)
			}
		}
		assert.Equal(t, []string{"Renamed"}, names)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.LoadDraft(ctx, "pg_test_missing")
		assert.ErrorIs(t, err, ports.ErrDraftNotFound)
		assert.ErrorIs(t, store.DeleteDraft(ctx, "pg_test_missing"), ports.ErrDraftNotFound)
	})
}
