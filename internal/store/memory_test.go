package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedpulse/feedpulse/internal/models"
	"github.com/feedpulse/feedpulse/internal/store"
)

func doc(source, id string, age time.Duration) models.Document {
	now := time.Now()
	return models.Document{
		ID:         id,
		Source:     source,
		Title:      "title " + id,
		IngestedAt: now.Add(-age),
		ExpiresAt:  now.Add(time.Hour - age),
	}
}

func TestMemoryPutOverwritesSameKey(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	first := doc("bbc", "a1", time.Minute)
	require.NoError(t, m.Put(ctx, first))

	second := first
	second.IngestedAt = time.Now()
	second.Title = "updated"
	require.NoError(t, m.Put(ctx, second))

	require.Equal(t, 1, m.Len())

	docs, err := m.Scan(ctx, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "updated", docs[0].Title)
}

func TestMemoryScanLimitAndFreshness(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, m.Put(ctx, doc("bbc", fmt.Sprintf("d%d", i), 0)))
	}

	docs, err := m.Scan(ctx, 3)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	// Most recently written first.
	require.Equal(t, "d9", docs[0].ID)
}

func TestMemoryScanSkipsExpired(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	live := doc("bbc", "live", 0)
	expired := doc("bbc", "dead", 0)
	expired.ExpiresAt = time.Now().Add(-time.Second)

	require.NoError(t, m.Put(ctx, live))
	require.NoError(t, m.Put(ctx, expired))

	docs, err := m.Scan(ctx, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "live", docs[0].ID)
}

func TestMemoryRemoveExpired(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, doc("bbc", "live", 0)))
	expired := doc("bbc", "dead", 0)
	expired.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, m.Put(ctx, expired))

	removed, err := m.RemoveExpired(ctx, 100)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
	require.Equal(t, 1, m.Len())
}

func TestMemoryPerSourceKeysDoNotCollide(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, doc("bbc", "same-id", 0)))
	require.NoError(t, m.Put(ctx, doc("reuters", "same-id", 0)))
	require.Equal(t, 2, m.Len())
}
