package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/errors"
	"github.com/location-lookup/internal/usecase/dto"
	"go.uber.org/zap"
)

var cityTypes = []domain.EntityType{domain.EntityTypeCity}

// CityUseCase - эндпоинты /city/v1 поверх общего цикла разрешения
type CityUseCase struct {
	resolver  *ResolverUseCase
	cfg       *config.CityConfig
	maxRadius float64
	logger    *zap.Logger
}

func NewCityUseCase(resolver *ResolverUseCase, cfg *config.CityConfig, maxRadiusKm float64, logger *zap.Logger) *CityUseCase {
	return &CityUseCase{
		resolver:  resolver,
		cfg:       cfg,
		maxRadius: maxRadiusKm,
		logger:    logger,
	}
}

// Get - город по id; неизвестный id - LOCATION_NOT_FOUND
func (uc *CityUseCase) Get(ctx context.Context, id string, locale domain.Locale) (*dto.CityResponse, error) {
	city, err := uc.get(ctx, id, locale)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCityResponse(city)
	return &resp, nil
}

// Featured - избранные города, города предпочтительной для языка страны первыми
func (uc *CityUseCase) Featured(ctx context.Context, locale domain.Locale) (*dto.MultiCityResponse, error) {
	results, err := uc.resolver.SearchQuery(ctx, domain.LocationQuery{
		Locale:       locale,
		Types:        cityTypes,
		FeaturedOnly: true,
		Limit:        uc.cfg.FeaturedLimit,
	}, domain.ModeFeatured)
	if err != nil {
		return nil, err
	}

	resp := dto.NewMultiCityResponse(preferCountry(results, uc.cfg.PreferredCountries[string(locale)]))
	return &resp, nil
}

// CheckTerm - правило терма для /city/v1/search, чтобы обработчик отдал его
// вместе с нарушениями остальных параметров
func (uc *CityUseCase) CheckTerm(query string) error {
	_, err := uc.resolver.validator.Term("query", query)
	return err
}

// Search - поиск городов по названию
func (uc *CityUseCase) Search(ctx context.Context, query string, locale domain.Locale, countryISO string) (*dto.MultiCityResponse, error) {
	term, err := uc.resolver.validator.Term("query", query)
	if err != nil {
		return nil, err
	}
	results, err := uc.resolver.SearchQuery(ctx, domain.LocationQuery{
		Term:       term,
		Locale:     locale,
		Types:      cityTypes,
		CountryISO: strings.ToUpper(countryISO),
		Limit:      uc.cfg.SearchLimit,
	}, domain.ModeSearch)
	if err != nil {
		return nil, err
	}
	resp := dto.NewMultiCityResponse(results)
	return &resp, nil
}

// Closest - ближайший город к точке. Без точки из запроса используется
// гео-IP из заголовков CDN (только избранные города), иначе город по умолчанию для языка.
func (uc *CityUseCase) Closest(ctx context.Context, point, edgePoint *domain.Point, locale domain.Locale) (*dto.CityResponse, error) {
	var (
		city  *domain.RankedResult
		err   error
		where = "default"
	)
	switch {
	case point != nil:
		where = "query"
		city, err = uc.closest(ctx, *point, locale, false)
	case edgePoint != nil && !edgePoint.IsZero():
		where = "edge"
		city, err = uc.closest(ctx, *edgePoint, locale, true)
	}
	if err != nil {
		return nil, err
	}

	if city == nil {
		def, err := uc.defaultCity(ctx, locale)
		if err != nil {
			return nil, err
		}
		city = &def
	}

	uc.logger.Debug("Closest city resolved",
		zap.String("id", city.ID),
		zap.String("from", where),
		zap.String("language", string(locale)))

	resp := dto.NewCityResponse(*city)
	return &resp, nil
}

// AssociatedFeatured - сам город, если он избранный, иначе ближайший к нему избранный
func (uc *CityUseCase) AssociatedFeatured(ctx context.Context, id string, locale domain.Locale) (*dto.CityResponse, error) {
	city, err := uc.get(ctx, id, locale)
	if err != nil {
		return nil, err
	}
	if city.Featured {
		resp := dto.NewCityResponse(city)
		return &resp, nil
	}

	featured, err := uc.closest(ctx, city.Location, locale, true)
	if err != nil {
		return nil, err
	}
	if featured == nil {
		def, err := uc.defaultCity(ctx, locale)
		if err != nil {
			return nil, err
		}
		featured = &def
	}
	resp := dto.NewCityResponse(*featured)
	return &resp, nil
}

func (uc *CityUseCase) get(ctx context.Context, id string, locale domain.Locale) (domain.RankedResult, error) {
	results, err := uc.resolver.Lookup(ctx, []string{id}, cityTypes, locale)
	if err != nil {
		return domain.RankedResult{}, err
	}
	if len(results) == 0 {
		return domain.RankedResult{}, errors.ErrLocationNotFound.WithDetails(map[string]interface{}{"id": id})
	}
	return results[0], nil
}

func (uc *CityUseCase) closest(ctx context.Context, p domain.Point, locale domain.Locale, featuredOnly bool) (*domain.RankedResult, error) {
	results, err := uc.resolver.SearchQuery(ctx, domain.LocationQuery{
		Locale:       locale,
		Geo:          &domain.GeoBias{Lat: p.Lat, Lon: p.Lon, RadiusKm: uc.maxRadius},
		Types:        cityTypes,
		FeaturedOnly: featuredOnly,
		Limit:        1,
	}, domain.ModeSearch)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (uc *CityUseCase) defaultCity(ctx context.Context, locale domain.Locale) (domain.RankedResult, error) {
	id, ok := uc.cfg.DefaultCities[string(locale)]
	if !ok {
		return domain.RankedResult{}, errors.ErrLocationNotFound.WithDetails(map[string]interface{}{
			"language": string(locale),
		})
	}
	return uc.get(ctx, id, locale)
}

// preferCountry - стабильная перестановка: города страны country вперёд
func preferCountry(results []domain.RankedResult, country string) []domain.RankedResult {
	out := append([]domain.RankedResult(nil), results...)
	if country == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CountryISO == country && out[j].CountryISO != country
	})
	return out
}
