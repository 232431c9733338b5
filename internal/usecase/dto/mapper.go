package dto

import (
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/utils"
)

const (
	scorePrecision    = 4
	distancePrecision = 3
)

// NewResolveResponse переводит ResolvedAnswer в схему ответа.
// origin != nil добавляет к результатам distance_km.
func NewResolveResponse(answer domain.ResolvedAnswer, origin *domain.GeoBias) ResolveResponse {
	resp := ResolveResponse{Status: answer.Status}
	if answer.Result != nil {
		r := NewLocationResult(*answer.Result, origin)
		resp.Result = &r
	}
	if len(answer.Candidates) > 0 {
		resp.Candidates = NewLocationResults(answer.Candidates, origin)
	}
	return resp
}

// NewSearchResponse - список результатов; пустой список сериализуется как []
func NewSearchResponse(results []domain.RankedResult, origin *domain.GeoBias) SearchResponse {
	return SearchResponse{Results: NewLocationResults(results, origin)}
}

func NewLocationResults(results []domain.RankedResult, origin *domain.GeoBias) []LocationResult {
	out := make([]LocationResult, len(results))
	for i, r := range results {
		out[i] = NewLocationResult(r, origin)
	}
	return out
}

func NewLocationResult(r domain.RankedResult, origin *domain.GeoBias) LocationResult {
	res := LocationResult{
		ID:             r.ID,
		Type:           r.Type,
		Name:           r.Name,
		Locale:         r.Locale,
		LocaleFallback: r.LocaleFallback,
		RegionName:     r.RegionName,
		CountryISO:     r.CountryISO,
		IsFeatured:     r.Featured,
		Lat:            r.Location.Lat,
		Lon:            r.Location.Lon,
		Score:          utils.RoundTo(r.Score, scorePrecision),
		Rank:           r.Rank,
		MatchQuality:   r.MatchQuality,
	}
	if origin != nil {
		d := utils.RoundTo(utils.HaversineDistance(origin.Lat, origin.Lon, r.Location.Lat, r.Location.Lon), distancePrecision)
		res.DistanceKm = &d
	}
	return res
}

// NewCityResponse - город в схеме /city/v1
func NewCityResponse(r domain.RankedResult) CityResponse {
	return CityResponse{
		ID:         r.ID,
		IsFeatured: r.Featured,
		CountryISO: r.CountryISO,
		Name:       r.Name,
		RegionName: r.RegionName,
	}
}

func NewMultiCityResponse(results []domain.RankedResult) MultiCityResponse {
	cities := make([]CityResponse, len(results))
	for i, r := range results {
		cities[i] = NewCityResponse(r)
	}
	return MultiCityResponse{Cities: cities}
}
