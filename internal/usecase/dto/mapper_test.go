package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/location-lookup/internal/domain"
)

func praha() domain.RankedResult {
	return domain.RankedResult{
		ID:           "101748113",
		Type:         domain.EntityTypeCity,
		Name:         "Praha",
		Locale:       "cs",
		RegionName:   "Hlavní město Praha",
		CountryISO:   "CZ",
		Featured:     true,
		Location:     domain.Point{Lat: 50.0755, Lon: 14.4378},
		MatchQuality: domain.MatchExact,
		Score:        0.912345,
		Rank:         1,
	}
}

func TestNewResolveResponse_UniqueFieldOrder(t *testing.T) {
	resp := NewResolveResponse(domain.Unique(praha()), nil)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"unique","result":{"id":"101748113","type":"city","name":"Praha","locale":"cs",
		"locale_fallback":false,"region_name":"Hlavní město Praha","country_iso":"CZ","is_featured":true,
		"lat":50.0755,"lon":14.4378,"score":0.9123,"rank":1,"match_quality":"exact"}}`, string(raw))
	assert.Regexp(t, `^\{"status":"unique","result":\{"id":.*"type":.*"name":.*"locale":.*"locale_fallback":.*"region_name":.*"country_iso":.*"is_featured":.*"lat":.*"lon":.*"score":.*"rank":.*"match_quality":`, string(raw))
}

func TestNewResolveResponse_AmbiguousAndNotFound(t *testing.T) {
	other := praha()
	other.ID, other.Rank = "2", 2

	amb := NewResolveResponse(domain.Ambiguous([]domain.RankedResult{praha(), other}), nil)
	assert.Equal(t, domain.StatusAmbiguous, amb.Status)
	assert.Nil(t, amb.Result)
	assert.Len(t, amb.Candidates, 2)

	raw, err := json.Marshal(NewResolveResponse(domain.NotFound(), nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"not_found"}`, string(raw))
}

func TestNewSearchResponse_DistanceOnlyWithGeoBias(t *testing.T) {
	origin := &domain.GeoBias{Lat: 50.0875, Lon: 14.4214, RadiusKm: 10}

	withGeo := NewSearchResponse([]domain.RankedResult{praha()}, origin)
	require.NotNil(t, withGeo.Results[0].DistanceKm)
	assert.InDelta(t, 1.77, *withGeo.Results[0].DistanceKm, 0.05)

	withoutGeo := NewSearchResponse([]domain.RankedResult{praha()}, nil)
	assert.Nil(t, withoutGeo.Results[0].DistanceKm)
}

func TestNewSearchResponse_EmptyIsArray(t *testing.T) {
	raw, err := json.Marshal(NewSearchResponse(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(raw))
}

func TestNewCityResponse(t *testing.T) {
	raw, err := json.Marshal(NewMultiCityResponse([]domain.RankedResult{praha()}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cities":[{"id":"101748113","isFeatured":true,"countryIso":"CZ","name":"Praha","regionName":"Hlavní město Praha"}]}`, string(raw))
}
