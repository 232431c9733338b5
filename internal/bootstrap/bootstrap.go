// Package bootstrap собирает зависимости цикла разрешения из конфигурации.
// Используется API-сервером и lookupctl.
package bootstrap

import (
	"fmt"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/location-lookup/internal/infrastructure/elastic"
	"github.com/location-lookup/internal/pkg/metrics"
	"github.com/location-lookup/internal/repository/postgres"
	"github.com/location-lookup/internal/usecase"
	"go.uber.org/zap"
)

// NewSearchBackend подключает бэкенд по SEARCH_BACKEND.
// Возвращаемая функция освобождает соединения.
func NewSearchBackend(cfg *config.Config, logger *zap.Logger) (repository.SearchBackend, func() error, error) {
	switch cfg.Search.Backend {
	case config.BackendElasticsearch:
		es, err := elastic.NewClient(&cfg.Elastic, logger)
		if err != nil {
			return nil, nil, err
		}
		return elastic.NewSearchBackend(es, cfg.Elastic.Index, logger), func() error { return nil }, nil
	case config.BackendPostgres:
		db, err := postgres.New(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSearchBackend(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

// NewResolver - ResolverUseCase с порогами и весами из конфигурации
func NewResolver(
	cfg *config.Config,
	backend usecase.BackendExecutor,
	cache repository.ResolutionCache,
	events usecase.EventEmitter,
	mt *metrics.Metrics,
	logger *zap.Logger,
) *usecase.ResolverUseCase {
	return usecase.NewResolverUseCase(
		usecase.NewQueryValidator(&cfg.Query),
		usecase.NewQueryBuilder(domain.Locale(cfg.Query.DefaultLocale), cfg.Search.ResultCap),
		backend,
		usecase.NewRanker(cfg.Ranking.TextWeight, cfg.Ranking.GeoWeight, domain.Locale(cfg.Query.DefaultLocale)),
		usecase.NewSelector(cfg.Ranking.MinConfidence, cfg.Ranking.AmbiguityMargin),
		cache,
		events,
		mt,
		logger,
		usecase.ResolverOptions{
			CacheTTL:       cfg.Cache.TTL,
			BackendTimeout: cfg.Search.Timeout,
			Coalesce:       cfg.Cache.Coalesce,
		},
	)
}
