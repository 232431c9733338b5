package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/metrics"
)

func resolutionFor(id string) domain.Resolution {
	answer := domain.Unique(domain.RankedResult{ID: id, Type: domain.EntityTypeCity, Score: 1, Rank: 1})
	return domain.Resolution{Answer: &answer}
}

func TestMemoryCache_RoundTripWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewMemoryCache(100, 4, WithClock(clock))
	ctx := context.Background()
	fp := domain.NewFingerprint("v1|resolve|t=praha")

	c.Put(ctx, fp, resolutionFor("101748113"), time.Minute)
	clock.Advance(59 * time.Second)

	entry, ok := c.Get(ctx, fp)
	require.True(t, ok)
	assert.Equal(t, "101748113", entry.Resolution.Answer.Result.ID)
}

func TestMemoryCache_ExpiresAtTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mt := metrics.NewMetricsForTesting()
	c := NewMemoryCache(100, 4, WithClock(clock), WithMetrics(mt))
	ctx := context.Background()
	fp := domain.NewFingerprint("v1|resolve|t=brno")

	c.Put(ctx, fp, resolutionFor("1"), time.Minute)
	clock.Advance(time.Minute)

	_, ok := c.Get(ctx, fp)
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.CacheLookups.WithLabelValues("expired")))
}

func TestMemoryCache_IgnoresNonPositiveTTL(t *testing.T) {
	c := NewMemoryCache(10, 1)
	fp := domain.NewFingerprint("k")

	c.Put(context.Background(), fp, resolutionFor("1"), 0)

	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsEarliestInsertion(t *testing.T) {
	mt := metrics.NewMetricsForTesting()
	c := NewMemoryCache(3, 1, WithMetrics(mt))
	ctx := context.Background()

	fps := make([]domain.Fingerprint, 4)
	for i := range fps {
		fps[i] = domain.NewFingerprint(fmt.Sprintf("key-%d", i))
		c.Put(ctx, fps[i], resolutionFor(fmt.Sprint(i)), time.Minute)
	}

	_, ok := c.Get(ctx, fps[0])
	assert.False(t, ok, "first insertion must be evicted")
	for _, fp := range fps[1:] {
		_, ok := c.Get(ctx, fp)
		assert.True(t, ok)
	}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.CacheEvictions))
}

func TestMemoryCache_RePutReplacesAndRefreshesOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewMemoryCache(2, 1, WithClock(clock))
	ctx := context.Background()
	a := domain.NewFingerprint("a")
	b := domain.NewFingerprint("b")
	d := domain.NewFingerprint("d")

	c.Put(ctx, a, resolutionFor("old"), time.Minute)
	c.Put(ctx, b, resolutionFor("b"), time.Minute)
	clock.Advance(30 * time.Second)
	c.Put(ctx, a, resolutionFor("new"), time.Minute)
	c.Put(ctx, d, resolutionFor("d"), time.Minute)

	_, ok := c.Get(ctx, b)
	assert.False(t, ok, "b became the earliest insertion after a was re-put")

	entry, ok := c.Get(ctx, a)
	require.True(t, ok)
	assert.Equal(t, "new", entry.Resolution.Answer.Result.ID)
	assert.Equal(t, clock.Now(), entry.StoredAt)
}

func TestMemoryCache_ShardCountRoundsUp(t *testing.T) {
	c := NewMemoryCache(100, 5)

	assert.Len(t, c.shards, 8)
	assert.Equal(t, uint64(7), c.mask)
	assert.GreaterOrEqual(t, c.Capacity(), 100)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(256, 16)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				fp := domain.NewFingerprint(fmt.Sprintf("g%d-%d", g, i%50))
				c.Put(ctx, fp, resolutionFor(fmt.Sprint(i)), time.Minute)
				if entry, ok := c.Get(ctx, fp); ok {
					assert.Equal(t, fp.Key, entry.Fingerprint.Key)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), c.Capacity())
}
