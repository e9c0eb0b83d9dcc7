package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterStoreIncrAndGet(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Close()
	ctx := context.Background()

	count, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	got, ttl, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestMemoryCounterStoreWindowArmsOnce(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Incr(ctx, "k", 100*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	// A later increment must not extend the original window.
	_, err = store.Incr(ctx, "k", 100*time.Millisecond)
	require.NoError(t, err)

	_, ttl, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Less(t, ttl, 60*time.Millisecond)
}

func TestMemoryCounterStoreExpiry(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Incr(ctx, "k", 30*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	count, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMemoryCounterStoreDelete(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k"))

	count, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMemoryCounterStoreMissingKey(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Close()

	count, ttl, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, time.Duration(0), ttl)
}
