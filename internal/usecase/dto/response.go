package dto

import "github.com/location-lookup/internal/domain"

// LocationResult - один результат в ответе. Порядок полей фиксирован схемой ответа.
type LocationResult struct {
	ID             string              `json:"id"`
	Type           domain.EntityType   `json:"type"`
	Name           string              `json:"name"`
	Locale         domain.Locale       `json:"locale"`
	LocaleFallback bool                `json:"locale_fallback"`
	RegionName     string              `json:"region_name,omitempty"`
	CountryISO     string              `json:"country_iso,omitempty"`
	IsFeatured     bool                `json:"is_featured"`
	Lat            float64             `json:"lat"`
	Lon            float64             `json:"lon"`
	Score          float64             `json:"score"`
	Rank           int                 `json:"rank"`
	MatchQuality   domain.MatchQuality `json:"match_quality"`
	DistanceKm     *float64            `json:"distance_km,omitempty"`
}

// ResolveResponse - ответ эндпоинта с единственным ответом
type ResolveResponse struct {
	Status     domain.ResolutionStatus `json:"status"`
	Result     *LocationResult         `json:"result,omitempty"`
	Candidates []LocationResult        `json:"candidates,omitempty"`
}

// SearchResponse - упорядоченный список результатов
type SearchResponse struct {
	Results []LocationResult `json:"results"`
}

// CityResponse - город в схеме /city/v1
type CityResponse struct {
	ID         string `json:"id"`
	IsFeatured bool   `json:"isFeatured"`
	CountryISO string `json:"countryIso"`
	Name       string `json:"name"`
	RegionName string `json:"regionName"`
}

// MultiCityResponse - список городов
type MultiCityResponse struct {
	Cities []CityResponse `json:"cities"`
}

// HealthResponse - ответ health/readiness
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}
