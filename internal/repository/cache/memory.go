package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/location-lookup/internal/pkg/metrics"
)

// MemoryCache - шардированный кеш разрешений в памяти процесса.
// Каждый шард защищён своим RWMutex, так что промах по одному ключу не
// блокирует остальные шарды. Истечение TTL проверяется лениво при чтении,
// фоновой очистки нет: память ограничена числом записей на шард.
type MemoryCache struct {
	shards   []*shard
	mask     uint64
	clock    clockwork.Clock
	metrics  *metrics.Metrics
	capacity int
}

type shard struct {
	mu       sync.RWMutex
	entries  map[string]*list.Element
	order    *list.List // порядок вставки, front = самая старая запись
	capacity int
}

// MemoryOption - опции MemoryCache
type MemoryOption func(*MemoryCache)

// WithClock подменяет источник времени (в тестах - clockwork.FakeClock)
func WithClock(c clockwork.Clock) MemoryOption {
	return func(m *MemoryCache) {
		m.clock = c
	}
}

// WithMetrics включает учёт попаданий и вытеснений
func WithMetrics(mt *metrics.Metrics) MemoryOption {
	return func(m *MemoryCache) {
		m.metrics = mt
	}
}

// NewMemoryCache создаёт кеш на maxEntries записей, разбитый на shards шардов
// (число шардов округляется вверх до степени двойки)
func NewMemoryCache(maxEntries, shards int, opts ...MemoryOption) *MemoryCache {
	if shards < 1 {
		shards = 1
	}
	n := 1
	for n < shards {
		n <<= 1
	}
	if maxEntries < n {
		maxEntries = n
	}
	perShard := (maxEntries + n - 1) / n

	m := &MemoryCache{
		shards:   make([]*shard, n),
		mask:     uint64(n - 1),
		clock:    clockwork.NewRealClock(),
		capacity: perShard * n,
	}
	for i := range m.shards {
		m.shards[i] = &shard{
			entries:  make(map[string]*list.Element),
			order:    list.New(),
			capacity: perShard,
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ repository.ResolutionCache = (*MemoryCache)(nil)

func (m *MemoryCache) shardFor(fp domain.Fingerprint) *shard {
	return m.shards[fp.Hash&m.mask]
}

// Get возвращает живую запись; истёкшая запись считается промахом
func (m *MemoryCache) Get(_ context.Context, fp domain.Fingerprint) (*domain.CacheEntry, bool) {
	s := m.shardFor(fp)

	s.mu.RLock()
	el, ok := s.entries[fp.Key]
	var entry *domain.CacheEntry
	if ok {
		entry = el.Value.(*domain.CacheEntry)
	}
	s.mu.RUnlock()

	if !ok {
		m.observe("miss")
		return nil, false
	}
	if entry.Expired(m.clock.Now()) {
		m.observe("expired")
		return nil, false
	}
	m.observe("hit")
	return entry, true
}

// Put заменяет запись целиком; при переполнении шарда вытесняется самая ранняя вставка
func (m *MemoryCache) Put(_ context.Context, fp domain.Fingerprint, res domain.Resolution, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	entry := &domain.CacheEntry{
		Fingerprint: fp,
		Resolution:  res,
		StoredAt:    m.clock.Now(),
		TTL:         ttl,
	}

	s := m.shardFor(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[fp.Key]; ok {
		s.order.Remove(el)
	}
	s.entries[fp.Key] = s.order.PushBack(entry)

	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*domain.CacheEntry).Fingerprint.Key)
		if m.metrics != nil {
			m.metrics.CacheEvictions.Inc()
		}
	}
}

// Len - текущее число записей, включая ещё не вытесненные истёкшие
func (m *MemoryCache) Len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Capacity - итоговая ёмкость после округления по шардам
func (m *MemoryCache) Capacity() int {
	return m.capacity
}

func (m *MemoryCache) observe(result string) {
	if m.metrics != nil {
		m.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
