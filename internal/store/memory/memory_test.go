package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
)

func TestDraftStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	require.NoError(t, s.SaveDraft(ctx, "a", "First", []byte(`{"id":"a"}`)))
	require.NoError(t, s.SaveDraft(ctx, "b", "Second", []byte(`{"id":"b"}`)))

	data, err := s.LoadDraft(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(data))

	list, err := s.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Key, "most recent first")

	require.NoError(t, s.DeleteDraft(ctx, "a"))
	_, err = s.LoadDraft(ctx, "a")
	assert.ErrorIs(t, err, ports.ErrDraftNotFound)
	assert.ErrorIs(t, s.DeleteDraft(ctx, "a"), ports.ErrDraftNotFound)
	assert.Error(t, s.SaveDraft(ctx, "", "x", nil))
}
