package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{Store: config.StoreConfig{Driver: "memory"}}
	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveDraft(ctx, "k", "n", []byte(`{}`)))
	list, err := s.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = Open(ctx, &config.Config{Store: config.StoreConfig{Driver: "sqlite"}})
	assert.Error(t, err)
}
