package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
	apperrors "github.com/location-lookup/internal/pkg/errors"
	"github.com/location-lookup/internal/usecase"
)

func newCityUseCase(t *testing.T) (*usecase.CityUseCase, *MockBackend) {
	t.Helper()
	f := newResolverFixture(t, false)
	cfg := &config.CityConfig{
		DefaultCities:      map[string]string{"cs": "101748113"},
		PreferredCountries: map[string]string{"sk": "SK"},
		SearchLimit:        10,
		FeaturedLimit:      20,
	}
	return usecase.NewCityUseCase(f.uc, cfg, 500, zap.NewNop()), f.backend
}

func cityHit(id, name, country string, featured bool, p domain.Point) domain.CandidateHit {
	return domain.CandidateHit{
		ID:           id,
		Type:         domain.EntityTypeCity,
		Score:        1,
		Names:        map[domain.Locale]string{"cs": name},
		RegionNames:  map[domain.Locale]string{"cs": "Kraj"},
		CountryISO:   country,
		Featured:     featured,
		Location:     p,
		MatchQuality: domain.MatchLookup,
	}
}

func lookupOf(id string) interface{} {
	return mock.MatchedBy(func(q domain.BackendQuery) bool {
		return q.Source == domain.SourceLookup && len(q.IDs) == 1 && q.IDs[0] == id
	})
}

func geoFeatured(featured bool) interface{} {
	return mock.MatchedBy(func(q domain.BackendQuery) bool {
		return q.Source == domain.SourceGeo && q.FeaturedOnly == featured && q.Geo != nil && q.Geo.RadiusKm == 500
	})
}

var (
	prague = domain.Point{Lat: 50.0755, Lon: 14.4378}
	brno   = domain.Point{Lat: 49.1951, Lon: 16.6068}
)

func TestCityUseCase_Get(t *testing.T) {
	uc, backend := newCityUseCase(t)
	backend.On("Execute", mock.Anything, lookupOf("101748113"), time.Second).
		Return([]domain.CandidateHit{cityHit("101748113", "Praha", "CZ", true, prague)}, nil).Once()

	resp, err := uc.Get(context.Background(), "101748113", "cs")

	require.NoError(t, err)
	assert.Equal(t, "101748113", resp.ID)
	assert.Equal(t, "Praha", resp.Name)
	assert.Equal(t, "Kraj", resp.RegionName)
	assert.True(t, resp.IsFeatured)
	assert.Equal(t, "CZ", resp.CountryISO)
}

func TestCityUseCase_Get_UnknownID(t *testing.T) {
	uc, backend := newCityUseCase(t)
	backend.On("Execute", mock.Anything, lookupOf("42"), time.Second).Return([]domain.CandidateHit{}, nil).Once()

	_, err := uc.Get(context.Background(), "42", "cs")

	assert.ErrorIs(t, err, apperrors.ErrLocationNotFound)
}

func TestCityUseCase_Featured_PreferredCountryFirst(t *testing.T) {
	uc, backend := newCityUseCase(t)
	backend.On("Execute", mock.Anything, mock.MatchedBy(func(q domain.BackendQuery) bool {
		return q.Source == domain.SourceLookup && q.FeaturedOnly && len(q.IDs) == 0
	}), time.Second).Return([]domain.CandidateHit{
		cityHit("1", "Praha", "CZ", true, prague),
		cityHit("2", "Bratislava", "SK", true, domain.Point{Lat: 48.14, Lon: 17.1}),
		cityHit("3", "Brno", "CZ", true, brno),
		cityHit("4", "Košice", "SK", true, domain.Point{Lat: 48.72, Lon: 21.26}),
	}, nil).Once()

	resp, err := uc.Featured(context.Background(), "sk")

	require.NoError(t, err)
	var ids []string
	for _, c := range resp.Cities {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids)
}

func TestCityUseCase_Search(t *testing.T) {
	uc, backend := newCityUseCase(t)
	backend.On("Execute", mock.Anything, mock.MatchedBy(func(q domain.BackendQuery) bool {
		return q.Source == domain.SourceText && q.Term == "br" && q.CountryISO == "CZ"
	}), time.Second).Return([]domain.CandidateHit{cityHit("3", "Brno", "CZ", true, brno)}, nil).Once()

	resp, err := uc.Search(context.Background(), " br ", "cs", "cz")

	require.NoError(t, err)
	require.Len(t, resp.Cities, 1)
	assert.Equal(t, "Brno", resp.Cities[0].Name)
}

func TestCityUseCase_SearchRejectsBlankOrShortQuery(t *testing.T) {
	for _, query := range []string{"   ", "b"} {
		uc, backend := newCityUseCase(t)

		_, err := uc.Search(context.Background(), query, "cs", "")

		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr, "query %q", query)
		assert.Equal(t, []string{"query"}, verr.Fields())
		backend.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestCityUseCase_Closest(t *testing.T) {
	t.Run("query point", func(t *testing.T) {
		uc, backend := newCityUseCase(t)
		backend.On("Execute", mock.Anything, geoFeatured(false), time.Second).
			Return([]domain.CandidateHit{cityHit("3", "Brno", "CZ", true, brno)}, nil).Once()

		resp, err := uc.Closest(context.Background(), &brno, &prague, "cs")

		require.NoError(t, err)
		assert.Equal(t, "3", resp.ID)
	})

	t.Run("edge point limited to featured cities", func(t *testing.T) {
		uc, backend := newCityUseCase(t)
		backend.On("Execute", mock.Anything, geoFeatured(true), time.Second).
			Return([]domain.CandidateHit{cityHit("1", "Praha", "CZ", true, prague)}, nil).Once()

		resp, err := uc.Closest(context.Background(), nil, &prague, "cs")

		require.NoError(t, err)
		assert.Equal(t, "1", resp.ID)
	})

	t.Run("default city without coordinates", func(t *testing.T) {
		uc, backend := newCityUseCase(t)
		backend.On("Execute", mock.Anything, lookupOf("101748113"), time.Second).
			Return([]domain.CandidateHit{cityHit("101748113", "Praha", "CZ", true, prague)}, nil).Once()

		resp, err := uc.Closest(context.Background(), nil, &domain.Point{}, "cs")

		require.NoError(t, err)
		assert.Equal(t, "101748113", resp.ID)
		backend.AssertNumberOfCalls(t, "Execute", 1)
	})

	t.Run("no default city for language", func(t *testing.T) {
		uc, _ := newCityUseCase(t)

		_, err := uc.Closest(context.Background(), nil, nil, "de")

		assert.ErrorIs(t, err, apperrors.ErrLocationNotFound)
	})
}

func TestCityUseCase_AssociatedFeatured(t *testing.T) {
	t.Run("featured city is returned as is", func(t *testing.T) {
		uc, backend := newCityUseCase(t)
		backend.On("Execute", mock.Anything, lookupOf("3"), time.Second).
			Return([]domain.CandidateHit{cityHit("3", "Brno", "CZ", true, brno)}, nil).Once()

		resp, err := uc.AssociatedFeatured(context.Background(), "3", "cs")

		require.NoError(t, err)
		assert.Equal(t, "3", resp.ID)
		backend.AssertNumberOfCalls(t, "Execute", 1)
	})

	t.Run("nearest featured city", func(t *testing.T) {
		uc, backend := newCityUseCase(t)
		backend.On("Execute", mock.Anything, lookupOf("77"), time.Second).
			Return([]domain.CandidateHit{cityHit("77", "Blansko", "CZ", false, domain.Point{Lat: 49.36, Lon: 16.64})}, nil).Once()
		backend.On("Execute", mock.Anything, geoFeatured(true), time.Second).
			Return([]domain.CandidateHit{cityHit("3", "Brno", "CZ", true, brno)}, nil).Once()

		resp, err := uc.AssociatedFeatured(context.Background(), "77", "cs")

		require.NoError(t, err)
		assert.Equal(t, "3", resp.ID)
		assert.True(t, resp.IsFeatured)
	})
}
