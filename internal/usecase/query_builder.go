package usecase

import (
	"github.com/location-lookup/internal/domain"
)

// candidatePoolFactor - во сколько раз пул кандидатов больше запрошенного лимита
const candidatePoolFactor = 3

// QueryBuilder строит бэкенд-запросы из LocationQuery
type QueryBuilder struct {
	defaultLocale domain.Locale
	resultCap     int
}

func NewQueryBuilder(defaultLocale domain.Locale, resultCap int) *QueryBuilder {
	return &QueryBuilder{defaultLocale: defaultLocale, resultCap: resultCap}
}

// Build: один запрос для только текста или только гео, два (текст, затем гео), если есть оба.
// Без термина и координат - выборка по фильтрам (featured).
func (b *QueryBuilder) Build(q domain.LocationQuery) []domain.BackendQuery {
	base := b.base(q)

	switch {
	case q.HasTerm() && q.HasGeo():
		text := base
		text.Source = domain.SourceText
		text.Geo = nil

		geo := base
		geo.Source = domain.SourceGeo
		geo.Geo = copyGeo(q.Geo)
		return []domain.BackendQuery{text, geo}
	case q.HasGeo():
		geo := base
		geo.Source = domain.SourceGeo
		geo.Term = ""
		geo.Geo = copyGeo(q.Geo)
		return []domain.BackendQuery{geo}
	case q.HasTerm():
		text := base
		text.Source = domain.SourceText
		return []domain.BackendQuery{text}
	default:
		browse := base
		browse.Source = domain.SourceLookup
		return []domain.BackendQuery{browse}
	}
}

// Lookup - выборка по идентификаторам
func (b *QueryBuilder) Lookup(ids []string, types []domain.EntityType) domain.BackendQuery {
	return domain.BackendQuery{
		Source:        domain.SourceLookup,
		DefaultLocale: b.defaultLocale,
		Types:         domain.NormalizeTypes(types),
		IDs:           append([]string(nil), ids...),
		Size:          len(ids),
	}
}

func (b *QueryBuilder) base(q domain.LocationQuery) domain.BackendQuery {
	return domain.BackendQuery{
		Term:          q.Term,
		Locale:        q.Locale,
		DefaultLocale: b.defaultLocale,
		Types:         domain.NormalizeTypes(q.Types),
		CountryISO:    q.CountryISO,
		FeaturedOnly:  q.FeaturedOnly,
		Size:          b.size(q.Limit),
	}
}

// size = min(cap, limit*3), но не меньше limit
func (b *QueryBuilder) size(limit int) int {
	if limit < 1 {
		limit = 1
	}
	size := limit * candidatePoolFactor
	if b.resultCap > 0 && size > b.resultCap {
		size = b.resultCap
	}
	if size < limit {
		size = limit
	}
	return size
}

func copyGeo(g *domain.GeoBias) *domain.GeoBias {
	if g == nil {
		return nil
	}
	cp := *g
	return &cp
}
