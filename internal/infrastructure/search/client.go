package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	apperrors "github.com/location-lookup/internal/pkg/errors"
	"github.com/location-lookup/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxAttempts = 2

// Client - единственная точка выхода к поисковому бэкенду.
// Ограничивает частоту, ставит таймаут на каждую попытку и повторяет один раз
// после временной ошибки. Результатов не кеширует.
type Client struct {
	backend    repository.SearchBackend
	limiter    *rate.Limiter
	retryAfter time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient создаёт клиента; при BACKEND_MAX_QPS = 0 частота не ограничивается
func NewClient(backend repository.SearchBackend, cfg *config.SearchConfig, mt *metrics.Metrics, logger *zap.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.MaxQPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxQPS), burst)
	}
	return &Client{
		backend:    backend,
		limiter:    limiter,
		retryAfter: cfg.RetryAfter,
		metrics:    mt,
		logger:     logger,
	}
}

// Execute выполняет запрос. Пустой результат - не ошибка.
// Любой отказ после повтора возвращается как BACKEND_UNAVAILABLE.
func (c *Client) Execute(ctx context.Context, q domain.BackendQuery, timeout time.Duration) ([]domain.CandidateHit, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.BackendRetries.Inc()
			c.logger.Warn("Retrying backend query",
				zap.String("backend", c.backend.Name()),
				zap.String("source", string(q.Source)),
				zap.Error(lastErr))
		}

		hits, err := c.attempt(ctx, q, timeout)
		if err == nil {
			outcome := "success"
			if len(hits) == 0 {
				outcome = "empty"
			}
			c.metrics.BackendRequests.WithLabelValues(string(q.Source), outcome).Inc()
			return hits, nil
		}
		lastErr = err

		// отмена вызывающей стороной не повторяется
		if ctx.Err() != nil || !domain.IsTransient(err) {
			break
		}
	}

	c.metrics.BackendRequests.WithLabelValues(string(q.Source), "error").Inc()
	c.logger.Error("Backend query failed",
		zap.String("backend", c.backend.Name()),
		zap.String("source", string(q.Source)),
		zap.Error(lastErr))
	return nil, apperrors.BackendUnavailable(lastErr).WithRetryAfter(c.retryAfter)
}

func (c *Client) attempt(ctx context.Context, q domain.BackendQuery, timeout time.Duration) ([]domain.CandidateHit, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(attemptCtx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrBackendTransient, err)
		}
	}

	start := time.Now()
	hits, err := c.backend.Search(attemptCtx, q)
	c.metrics.BackendDuration.WithLabelValues(string(q.Source)).Observe(time.Since(start).Seconds())

	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: attempt timed out after %s: %v", domain.ErrBackendTransient, timeout, err)
	}
	return hits, err
}

// Ping - проверка готовности бэкенда для /readyz
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.backend.Ping(pingCtx)
}

// BackendName - имя активного бэкенда
func (c *Client) BackendName() string {
	return c.backend.Name()
}
