package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/location-lookup/internal/pkg/metrics"
	"github.com/location-lookup/internal/usecase/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// BackendExecutor - клиент поискового бэкенда (search.Client)
type BackendExecutor interface {
	Execute(ctx context.Context, q domain.BackendQuery, timeout time.Duration) ([]domain.CandidateHit, error)
}

// EventEmitter принимает события разрешения; не должен блокировать запрос
type EventEmitter interface {
	Emit(event domain.ResolutionEvent)
}

// ResolverOptions - параметры ResolverUseCase из конфигурации
type ResolverOptions struct {
	CacheTTL       time.Duration
	BackendTimeout time.Duration
	Coalesce       bool
}

// ResolverUseCase - полный цикл: валидация, кеш, бэкенд, ранжирование, выбор
type ResolverUseCase struct {
	validator *QueryValidator
	builder   *QueryBuilder
	backend   BackendExecutor
	ranker    *Ranker
	selector  *Selector
	cache     repository.ResolutionCache
	events    EventEmitter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      ResolverOptions
	inflight  *singleflight.Group
}

func NewResolverUseCase(
	validator *QueryValidator,
	builder *QueryBuilder,
	backend BackendExecutor,
	ranker *Ranker,
	selector *Selector,
	cache repository.ResolutionCache,
	events EventEmitter,
	mt *metrics.Metrics,
	logger *zap.Logger,
	opts ResolverOptions,
) *ResolverUseCase {
	uc := &ResolverUseCase{
		validator: validator,
		builder:   builder,
		backend:   backend,
		ranker:    ranker,
		selector:  selector,
		cache:     cache,
		events:    events,
		metrics:   mt,
		logger:    logger,
		opts:      opts,
	}
	if opts.Coalesce {
		uc.inflight = &singleflight.Group{}
	}
	return uc
}

// Resolve - эндпоинт с единственным ответом
func (uc *ResolverUseCase) Resolve(ctx context.Context, params dto.LocationQueryParams) (*dto.ResolveResponse, error) {
	q, err := uc.validator.Validate(params)
	if err != nil {
		return nil, err
	}
	answer, err := uc.ResolveQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	resp := dto.NewResolveResponse(answer, q.Geo)
	return &resp, nil
}

// Search - эндпоинт со списком результатов
func (uc *ResolverUseCase) Search(ctx context.Context, params dto.LocationQueryParams) (*dto.SearchResponse, error) {
	q, err := uc.validator.Validate(params)
	if err != nil {
		return nil, err
	}
	results, err := uc.SearchQuery(ctx, q, domain.ModeSearch)
	if err != nil {
		return nil, err
	}
	resp := dto.NewSearchResponse(results, q.Geo)
	return &resp, nil
}

// ResolveQuery разрешает уже проверенный запрос в единственный ответ
func (uc *ResolverUseCase) ResolveQuery(ctx context.Context, q domain.LocationQuery) (domain.ResolvedAnswer, error) {
	res, err := uc.resolve(ctx, q, domain.ModeResolve)
	if err != nil {
		return domain.ResolvedAnswer{}, err
	}
	if res.Answer == nil {
		return domain.NotFound(), nil
	}
	return *res.Answer, nil
}

// SearchQuery - упорядоченный список для уже проверенного запроса
func (uc *ResolverUseCase) SearchQuery(ctx context.Context, q domain.LocationQuery, mode domain.ResolutionMode) ([]domain.RankedResult, error) {
	res, err := uc.resolve(ctx, q, mode)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// Lookup - сущности по id, без кеша
func (uc *ResolverUseCase) Lookup(ctx context.Context, ids []string, types []domain.EntityType, locale domain.Locale) ([]domain.RankedResult, error) {
	bq := uc.builder.Lookup(ids, types)
	bq.Locale = locale
	hits, err := uc.backend.Execute(ctx, bq, uc.opts.BackendTimeout)
	if err != nil {
		return nil, err
	}
	return uc.ranker.Rank([]domain.QueryHits{{Source: bq.Source, Hits: hits}}, domain.LocationQuery{Locale: locale}), nil
}

type outcome struct {
	resolution domain.Resolution
	queries    int
}

func (uc *ResolverUseCase) resolve(ctx context.Context, q domain.LocationQuery, mode domain.ResolutionMode) (domain.Resolution, error) {
	start := time.Now()
	fp := q.Fingerprint(mode)

	if entry, ok := uc.cache.Get(ctx, fp); ok {
		uc.record(q, mode, fp, entry.Resolution, true, 0, start, nil)
		return entry.Resolution, nil
	}

	var (
		out outcome
		err error
	)
	if uc.inflight != nil {
		var v interface{}
		v, err, _ = uc.inflight.Do(fp.Key, func() (interface{}, error) {
			return uc.compute(ctx, q, mode, fp)
		})
		if err == nil {
			out = v.(outcome)
		}
	} else {
		out, err = uc.compute(ctx, q, mode, fp)
	}

	uc.record(q, mode, fp, out.resolution, false, out.queries, start, err)
	if err != nil {
		return domain.Resolution{}, err
	}
	return out.resolution, nil
}

// compute выполняет бэкенд-запросы параллельно и сохраняет результат в кеш.
// Отказ любого запроса отменяет остальные; при ошибке или отменённом контексте кеш не трогается.
func (uc *ResolverUseCase) compute(ctx context.Context, q domain.LocationQuery, mode domain.ResolutionMode, fp domain.Fingerprint) (outcome, error) {
	queries := uc.builder.Build(q)
	sets := make([]domain.QueryHits, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, bq := range queries {
		g.Go(func() error {
			hits, err := uc.backend.Execute(gctx, bq, uc.opts.BackendTimeout)
			if err != nil {
				return err
			}
			sets[i] = domain.QueryHits{Source: bq.Source, Hits: hits}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcome{queries: len(queries)}, err
	}

	ranked := uc.ranker.Rank(sets, q)

	var res domain.Resolution
	if mode == domain.ModeResolve {
		// Ambiguous несёт всех лидеров, limit режет только списочные режимы
		answer := uc.selector.Select(ranked)
		res.Answer = &answer
	} else {
		res.Results = truncate(ranked, q.Limit)
	}

	if ctx.Err() == nil {
		uc.cache.Put(ctx, fp, res, uc.opts.CacheTTL)
	}
	return outcome{resolution: res, queries: len(queries)}, nil
}

func (uc *ResolverUseCase) record(
	q domain.LocationQuery,
	mode domain.ResolutionMode,
	fp domain.Fingerprint,
	res domain.Resolution,
	cacheHit bool,
	queries int,
	start time.Time,
	err error,
) {
	status, count := summarize(res)
	label := string(status)
	if err != nil {
		label = "error"
	} else if label == "" {
		label = "ok"
		if count == 0 {
			label = "empty"
		}
	}
	uc.metrics.Resolutions.WithLabelValues(string(mode), label).Inc()

	elapsed := time.Since(start)
	fields := []zap.Field{
		zap.String("mode", string(mode)),
		zap.String("fingerprint", fp.Hex()),
		zap.String("outcome", label),
		zap.Bool("cache_hit", cacheHit),
		zap.Int("backend_queries", queries),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		uc.logger.Error("Resolution failed", append(fields, zap.Error(err))...)
	} else {
		uc.logger.Debug("Resolution completed", fields...)
	}

	if uc.events == nil {
		return
	}
	event := domain.ResolutionEvent{
		ID:             uuid.New(),
		Mode:           mode,
		Fingerprint:    fp.Hex(),
		Locale:         q.Locale,
		Status:         status,
		ResultCount:    count,
		CacheHit:       cacheHit,
		BackendQueries: queries,
		DurationMs:     float64(elapsed.Microseconds()) / 1000,
		OccurredAt:     time.Now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	uc.events.Emit(event)
}

func summarize(res domain.Resolution) (domain.ResolutionStatus, int) {
	if res.Answer == nil {
		return "", len(res.Results)
	}
	switch res.Answer.Status {
	case domain.StatusUnique:
		return res.Answer.Status, 1
	case domain.StatusAmbiguous:
		return res.Answer.Status, len(res.Answer.Candidates)
	default:
		return res.Answer.Status, 0
	}
}

func truncate(results []domain.RankedResult, limit int) []domain.RankedResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
