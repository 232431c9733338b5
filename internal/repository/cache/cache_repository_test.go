package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/metrics"
)

// getTestRedisClient - Redis для интеграционных тестов, DB 1
func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}
	return client
}

func TestRedisStore_SetGet(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	store := NewRedisStoreWithClient(client, zap.NewNop())
	ctx := context.Background()
	fp := domain.NewFingerprint("test|redis-store|praha")
	defer store.Delete(ctx, fp)

	entry := &domain.CacheEntry{
		Fingerprint: fp,
		Resolution:  resolutionFor("101748113"),
		StoredAt:    time.Now().UTC().Truncate(time.Millisecond),
		TTL:         time.Minute,
	}
	require.NoError(t, store.Set(ctx, entry))

	got, err := store.Get(ctx, fp)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "101748113", got.Resolution.Answer.Result.ID)
	assert.True(t, entry.StoredAt.Equal(got.StoredAt))

	ttl, err := client.TTL(ctx, resolutionKey(fp)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestRedisStore_MissAndCollision(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	store := NewRedisStoreWithClient(client, zap.NewNop())
	ctx := context.Background()

	missing := domain.NewFingerprint("test|redis-store|missing")
	got, err := store.Get(ctx, missing)
	require.NoError(t, err)
	assert.Nil(t, got)

	stored := domain.NewFingerprint("test|redis-store|a")
	defer store.Delete(ctx, stored)
	require.NoError(t, store.Set(ctx, &domain.CacheEntry{
		Fingerprint: stored, Resolution: resolutionFor("a"), StoredAt: time.Now(), TTL: time.Minute,
	}))

	// тот же хеш, другой канонический ключ
	collided := domain.Fingerprint{Key: "test|redis-store|b", Hash: stored.Hash}
	got, err = store.Get(ctx, collided)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTieredCache_PromotesWithRemainingTTL(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	clock := clockwork.NewFakeClockAt(time.Now())
	mt := metrics.NewMetricsForTesting()
	l1 := NewMemoryCache(100, 4, WithClock(clock))
	store := NewRedisStoreWithClient(client, zap.NewNop())
	tiered := NewTieredCache(l1, store, mt, zap.NewNop())
	ctx := context.Background()

	fp := domain.NewFingerprint("test|tiered|olomouc")
	defer store.Delete(ctx, fp)
	require.NoError(t, store.Set(ctx, &domain.CacheEntry{
		Fingerprint: fp,
		Resolution:  resolutionFor("olomouc"),
		StoredAt:    clock.Now().Add(-40 * time.Second),
		TTL:         time.Minute,
	}))

	entry, ok := tiered.Get(ctx, fp)
	require.True(t, ok)
	assert.Equal(t, "olomouc", entry.Resolution.Answer.Result.ID)

	promoted, ok := l1.Get(ctx, fp)
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, promoted.TTL)

	clock.Advance(20 * time.Second)
	_, ok = l1.Get(ctx, fp)
	assert.False(t, ok)
}

func TestTieredCache_SurvivesRedisOutage(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	mt := metrics.NewMetricsForTesting()
	l1 := NewMemoryCache(100, 4)
	tiered := NewTieredCache(l1, NewRedisStoreWithClient(client, zap.NewNop()), mt, zap.NewNop())
	ctx := context.Background()
	fp := domain.NewFingerprint("test|tiered|down")

	_, ok := tiered.Get(ctx, fp)
	assert.False(t, ok)

	tiered.Put(ctx, fp, resolutionFor("x"), time.Minute)
	entry, ok := tiered.Get(ctx, fp)
	require.True(t, ok)
	assert.Equal(t, "x", entry.Resolution.Answer.Result.ID)
}
