package domain

import (
	"sort"
)

// EntityType - тип географической сущности в индексе
type EntityType string

const (
	EntityTypeCity   EntityType = "city"
	EntityTypeRegion EntityType = "region"
	EntityTypeVenue  EntityType = "venue"
)

// AllEntityTypes возвращает поддерживаемые типы в порядке приоритета
func AllEntityTypes() []EntityType {
	return []EntityType{EntityTypeCity, EntityTypeRegion, EntityTypeVenue}
}

// Priority - приоритет типа при равенстве score (меньше = важнее): city > region > venue
func (t EntityType) Priority() int {
	switch t {
	case EntityTypeCity:
		return 0
	case EntityTypeRegion:
		return 1
	case EntityTypeVenue:
		return 2
	default:
		return 3
	}
}

// IsValid проверяет, что тип входит в поддерживаемый набор
func (t EntityType) IsValid() bool {
	return t.Priority() < 3
}

// Locale - языковой тег, уже проверенный по списку поддерживаемых
type Locale string

// MatchQuality - оценка качества совпадения, присвоенная поисковым бэкендом
type MatchQuality string

const (
	MatchExact     MatchQuality = "exact"
	MatchPrefix    MatchQuality = "prefix"
	MatchFuzzy     MatchQuality = "fuzzy"
	MatchProximity MatchQuality = "proximity"
	MatchLookup    MatchQuality = "lookup"
	MatchNone      MatchQuality = "none"
)

// GeoBias - точка смещения поиска с радиусом
type GeoBias struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// LocationQuery - нормализованный запрос после валидации
type LocationQuery struct {
	Term         string
	Locale       Locale
	Geo          *GeoBias
	Limit        int
	Types        []EntityType
	CountryISO   string
	FeaturedOnly bool
}

// HasTerm - есть ли текстовая часть запроса
func (q LocationQuery) HasTerm() bool {
	return q.Term != ""
}

// HasGeo - есть ли гео-смещение
func (q LocationQuery) HasGeo() bool {
	return q.Geo != nil
}

// NormalizeTypes сортирует типы по приоритету и убирает дубликаты
func NormalizeTypes(types []EntityType) []EntityType {
	if len(types) == 0 {
		return nil
	}
	seen := make(map[EntityType]struct{}, len(types))
	result := make([]EntityType, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

// CandidateHit - сырой результат бэкенда; живёт только внутри одного цикла разрешения
type CandidateHit struct {
	ID           string
	Type         EntityType
	Score        float64
	Names        map[Locale]string
	RegionNames  map[Locale]string
	CountryISO   string
	Featured     bool
	Location     Point
	MatchQuality MatchQuality
}

// QueryHits - кандидаты одного бэкенд-запроса вместе с его источником
type QueryHits struct {
	Source QuerySource
	Hits   []CandidateHit
}

// RankedResult - кандидат с нормализованным score и позицией в выдаче
type RankedResult struct {
	ID             string       `json:"id"`
	Type           EntityType   `json:"type"`
	Name           string       `json:"name"`
	Locale         Locale       `json:"locale"`
	LocaleFallback bool         `json:"locale_fallback"`
	RegionName     string       `json:"region_name,omitempty"`
	CountryISO     string       `json:"country_iso,omitempty"`
	Featured       bool         `json:"featured"`
	Location       Point        `json:"location"`
	MatchQuality   MatchQuality `json:"match_quality"`
	Score          float64      `json:"score"`
	Rank           int          `json:"rank"`
}
