package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/location-lookup/internal/pkg/metrics"
	"go.uber.org/zap"
)

// l2Timeout - потолок на одну операцию с Redis, чтобы медленный L2 не съедал бюджет запроса
const l2Timeout = 100 * time.Millisecond

// TieredCache - память процесса (L1) поверх общего Redis (L2).
// Ошибки L2 не выходят наружу: запрос просто уходит в бэкенд.
type TieredCache struct {
	l1      *MemoryCache
	l2      *RedisStore
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewTieredCache(l1 *MemoryCache, l2 *RedisStore, mt *metrics.Metrics, logger *zap.Logger) *TieredCache {
	return &TieredCache{
		l1:      l1,
		l2:      l2,
		clock:   l1.clock,
		metrics: mt,
		logger:  logger,
	}
}

var _ repository.ResolutionCache = (*TieredCache)(nil)

// Get ищет в L1, затем в L2; попадание в L2 переносится в L1 с оставшимся TTL
func (t *TieredCache) Get(ctx context.Context, fp domain.Fingerprint) (*domain.CacheEntry, bool) {
	if entry, ok := t.l1.Get(ctx, fp); ok {
		return entry, true
	}

	l2ctx, cancel := context.WithTimeout(ctx, l2Timeout)
	defer cancel()

	entry, err := t.l2.Get(l2ctx, fp)
	if err != nil {
		t.l2Failed(err)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	now := t.clock.Now()
	if entry.Expired(now) {
		return nil, false
	}
	t.l1.Put(ctx, fp, entry.Resolution, entry.Remaining(now))
	t.logger.Debug("Promoted resolution from L2", zap.String("fingerprint", fp.Hex()))
	return entry, true
}

// Put пишет в оба уровня
func (t *TieredCache) Put(ctx context.Context, fp domain.Fingerprint, res domain.Resolution, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t.l1.Put(ctx, fp, res, ttl)

	l2ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l2Timeout)
	defer cancel()

	entry := &domain.CacheEntry{
		Fingerprint: fp,
		Resolution:  res,
		StoredAt:    t.clock.Now(),
		TTL:         ttl,
	}
	if err := t.l2.Set(l2ctx, entry); err != nil {
		t.l2Failed(err)
	}
}

func (t *TieredCache) l2Failed(err error) {
	if t.metrics != nil {
		t.metrics.CacheL2Errors.Inc()
	}
	t.logger.Warn("L2 cache unavailable", zap.Error(err))
}
