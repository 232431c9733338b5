package validator

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/location-lookup/internal/pkg/errors"
)

type cityRequest struct {
	ID       string `query:"id" validate:"required"`
	Language string `query:"language" validate:"required,supported_locale"`
	Country  string `query:"countryIso" validate:"omitempty,iso3166_1_alpha2"`
	Lat      string `query:"lat" validate:"required_with=Lon,omitempty,latitude"`
	Lon      string `query:"lon" validate:"required_with=Lat,omitempty,longitude"`
}

func TestValidate_AggregatesViolationsByQueryName(t *testing.T) {
	require.NoError(t, RegisterSupportedLocales([]string{"cs", "en"}))

	err := Validate(cityRequest{Language: "fr", Country: "CZE", Lat: "50.1"})
	require.Error(t, err)

	var verr *errors.ValidationError
	require.True(t, stderrors.As(err, &verr))
	assert.Equal(t, []string{"id", "language", "countryIso", "lon"}, verr.Fields())
	assert.Equal(t, "is required", verr.Violations[0].Reason)
	assert.Equal(t, "is not a supported locale", verr.Violations[1].Reason)
	assert.Equal(t, "is required together with lat", verr.Violations[3].Reason)
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, RegisterSupportedLocales([]string{"cs", "en"}))

	assert.NoError(t, Validate(cityRequest{ID: "1", Language: "CS", Lat: "50.1", Lon: "14.4"}))
	assert.NoError(t, Validate(cityRequest{ID: "1", Language: "en"}))
}

func TestVar_Reasons(t *testing.T) {
	err := ToValidationError(GetValidator().Var("abc", "min=5"))
	var verr *errors.ValidationError
	require.True(t, stderrors.As(err, &verr))
	assert.Equal(t, "must be at least 5 characters long", verr.Violations[0].Reason)

	err = ToValidationError(GetValidator().Var(700.0, "max=500"))
	require.True(t, stderrors.As(err, &verr))
	assert.Equal(t, "must be at most 500", verr.Violations[0].Reason)
}
