package elastic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/location-lookup/internal/domain"
)

// roundTrip приводит тело запроса к виду, в котором его увидит Elasticsearch
func roundTrip(t *testing.T, body object) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func dig(t *testing.T, v interface{}, path ...string) interface{} {
	t.Helper()
	for _, key := range path {
		m, ok := v.(map[string]interface{})
		require.True(t, ok, "expected object at %q", key)
		v = m[key]
	}
	return v
}

func TestBuildSearchBody_Text(t *testing.T) {
	body := roundTrip(t, buildSearchBody(domain.BackendQuery{
		Source:        domain.SourceText,
		Term:          "brno",
		Locale:        "cs",
		DefaultLocale: "en",
		Types:         []domain.EntityType{domain.EntityTypeCity},
		CountryISO:    "CZ",
		Size:          30,
	}))

	should := dig(t, body, "query", "bool", "should").([]interface{})
	assert.Len(t, should, 6, "three clauses per locale field")
	assert.Equal(t, "exact", dig(t, should[0], "match_phrase", "names.cs", "_name"))
	assert.Equal(t, "fuzzy", dig(t, should[5], "match", "names.en", "_name"))

	filter := dig(t, body, "query", "bool", "filter").([]interface{})
	require.Len(t, filter, 3)
	assert.Equal(t, []interface{}{"city"}, dig(t, filter[0], "terms", "type"))
	assert.Equal(t, "CZ", dig(t, filter[1], "term", "country_iso"))
	localeShould := dig(t, filter[2], "bool", "should").([]interface{})
	assert.Equal(t, "names.cs", dig(t, localeShould[0], "exists", "field"))
	assert.Equal(t, "names.en", dig(t, localeShould[1], "exists", "field"))
}

func TestBuildSearchBody_TextSameLocaleAsDefault(t *testing.T) {
	body := roundTrip(t, buildSearchBody(domain.BackendQuery{
		Source: domain.SourceText, Term: "london", Locale: "en", DefaultLocale: "en", Size: 10,
	}))

	should := dig(t, body, "query", "bool", "should").([]interface{})
	assert.Len(t, should, 3)
}

func TestBuildSearchBody_GeoWithTermFilter(t *testing.T) {
	body := roundTrip(t, buildSearchBody(domain.BackendQuery{
		Source:        domain.SourceGeo,
		Term:          "nádraží",
		Locale:        "cs",
		DefaultLocale: "en",
		Geo:           &domain.GeoBias{Lat: 49.19, Lon: 16.61, RadiusKm: 10},
		Size:          30,
	}))

	fs := dig(t, body, "query", "function_score")
	assert.Equal(t, "replace", dig(t, fs, "boost_mode"))
	gauss := dig(t, fs, "functions").([]interface{})[0]
	assert.Equal(t, "5km", dig(t, gauss, "gauss", "centroid", "scale"))

	filter := dig(t, fs, "query", "bool", "filter").([]interface{})
	require.Len(t, filter, 3)
	assert.Equal(t, "10km", dig(t, filter[1], "geo_distance", "distance"))
	_, scoring := dig(t, fs, "query", "bool").(map[string]interface{})["should"]
	assert.False(t, scoring, "term must not contribute to the geo score")
	assert.NotNil(t, dig(t, filter[2], "bool", "should"))
}

func TestBuildSearchBody_Lookup(t *testing.T) {
	body := roundTrip(t, buildSearchBody(domain.BackendQuery{
		Source: domain.SourceLookup, Locale: "cs", IDs: []string{"101748113"}, Size: 1,
	}))

	filter := dig(t, body, "query", "bool", "filter").([]interface{})
	require.Len(t, filter, 1)
	assert.Equal(t, []interface{}{"101748113"}, dig(t, filter[0], "ids", "values"))
	assert.NotNil(t, body["sort"])
}

func TestBuildSearchBody_FeaturedBrowse(t *testing.T) {
	body := roundTrip(t, buildSearchBody(domain.BackendQuery{
		Source: domain.SourceLookup, Types: []domain.EntityType{domain.EntityTypeCity}, FeaturedOnly: true, Size: 100,
	}))

	filter := dig(t, body, "query", "bool", "filter").([]interface{})
	require.Len(t, filter, 2)
	assert.Equal(t, true, dig(t, filter[1], "term", "is_featured"))
}

func TestMatchQuality(t *testing.T) {
	assert.Equal(t, domain.MatchExact, matchQuality(domain.SourceText, []string{"prefix", "exact"}))
	assert.Equal(t, domain.MatchPrefix, matchQuality(domain.SourceText, []string{"fuzzy", "prefix"}))
	assert.Equal(t, domain.MatchFuzzy, matchQuality(domain.SourceText, []string{"fuzzy"}))
	assert.Equal(t, domain.MatchNone, matchQuality(domain.SourceText, nil))
	assert.Equal(t, domain.MatchProximity, matchQuality(domain.SourceGeo, []string{"exact"}))
	assert.Equal(t, domain.MatchLookup, matchQuality(domain.SourceLookup, nil))
}
