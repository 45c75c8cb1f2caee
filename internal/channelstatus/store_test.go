package channelstatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "1", "10", "メンバー数：!mb!"))
	entry, ok, err := store.Get(ctx, "1", "10")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "メンバー数：!mb!", entry.Template)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), entry.UpdatedAt)

	require.NoError(t, store.Set(ctx, "1", "10", "ch-!ch!"))
	entry, _, err = store.Get(ctx, "1", "10")
	require.NoError(t, err)
	assert.Equal(t, "ch-!ch!", entry.Template)

	deleted, err := store.Delete(ctx, "1", "10")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = store.Delete(ctx, "1", "10")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, ok, err = store.Get(ctx, "1", "10")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Set(ctx, "2", "21", "b"))
	require.NoError(t, store.Set(ctx, "1", "11", "a"))
	require.NoError(t, store.Set(ctx, "2", "20", "c"))

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"11", "20", "21"}, []string{all[0].ChannelID, all[1].ChannelID, all[2].ChannelID})

	guild, err := store.List(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, guild, 2)

	none, err := store.List(ctx, "3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	assert.Error(t, store.Set(ctx, "", "10", "x"))
	assert.Error(t, store.Set(ctx, "1", "10", "  "))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Set(canceled, "1", "10", "x"), context.Canceled)

	var nilStore *Store
	_, err := nilStore.List(ctx, "")
	assert.Error(t, err)
}
