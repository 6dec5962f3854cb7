package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "ranking:daily:all:flag-to-name:2024-03-10", cacheKey(TypeDaily, "all", "flag-to-name", day))
	assert.Equal(t, "ranking:all_time:Asia:name-to-flag:all", cacheKey(TypeAllTime, "Asia", "name-to-flag", day))
}

func TestCache_RoundTripAndTTL(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()
	q := BoardQuery{Type: TypeAllTime, Region: "all", Format: "flag-to-name"}

	_, ok, err := cache.Get(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, q, []Entry{{Rank: 1, Nickname: "alice", Score: 9700}}))
	assert.Equal(t, 30*time.Second, mr.TTL("ranking:all_time:all:flag-to-name:all"))

	entries, ok, err := cache.Get(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Nickname)

	mr.FastForward(31 * time.Second)
	_, ok, err = cache.Get(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_EmptyBoardIsCached(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()
	q := BoardQuery{Type: TypeDaily, Region: "all", Format: "flag-to-name", Day: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, cache.Set(ctx, q, nil))
	entries, ok, err := cache.Get(ctx, q)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, entries)
}
