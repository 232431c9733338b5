package repository

import (
	"context"
	"time"

	"github.com/location-lookup/internal/domain"
)

// ResolutionCache определяет методы кеша результатов разрешения
type ResolutionCache interface {
	// Get возвращает живую запись по отпечатку; false при промахе или истёкшем TTL
	Get(ctx context.Context, fp domain.Fingerprint) (*domain.CacheEntry, bool)

	// Put целиком заменяет запись по отпечатку
	Put(ctx context.Context, fp domain.Fingerprint, res domain.Resolution, ttl time.Duration)
}
