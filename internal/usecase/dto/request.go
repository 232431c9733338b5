package dto

// LocationQueryParams - сырые параметры /api/v1/locations/*, как пришли в query string.
// Числа не разобраны, чтобы ошибки разбора попали в общий список нарушений.
type LocationQueryParams struct {
	Term       string `query:"term"`
	Locale     string `query:"locale"`
	Lat        string `query:"lat"`
	Lon        string `query:"lon"`
	Radius     string `query:"radius"`
	Type       string `query:"type"`
	Limit      string `query:"limit"`
	CountryISO string `query:"countryIso"`
}

// CityGetRequest - /city/v1/get
type CityGetRequest struct {
	ID       string `query:"id" validate:"required"`
	Language string `query:"language" validate:"required,supported_locale"`
}

// CityLanguageRequest - /city/v1/featured
type CityLanguageRequest struct {
	Language string `query:"language" validate:"required,supported_locale"`
}

// CitySearchRequest - /city/v1/search
type CitySearchRequest struct {
	Query      string `query:"query"`
	Language   string `query:"language" validate:"required,supported_locale"`
	CountryISO string `query:"countryIso" validate:"omitempty,iso3166_1_alpha2"`
}

// CityClosestRequest - /city/v1/closest; координаты необязательны, но только парой
type CityClosestRequest struct {
	Lat      string `query:"lat" validate:"required_with=Lon,omitempty,latitude"`
	Lon      string `query:"lon" validate:"required_with=Lat,omitempty,longitude"`
	Language string `query:"language" validate:"required,supported_locale"`
}
