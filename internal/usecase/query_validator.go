package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/errors"
	"github.com/location-lookup/internal/pkg/validator"
	"github.com/location-lookup/internal/usecase/dto"
)

// QueryValidator превращает сырые параметры в LocationQuery.
// Собирает все нарушения сразу, а не только первое.
type QueryValidator struct {
	cfg        *config.QueryConfig
	localesTag string
	typesTag   string
}

func NewQueryValidator(cfg *config.QueryConfig) *QueryValidator {
	types := domain.AllEntityTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return &QueryValidator{
		cfg:        cfg,
		localesTag: "oneof=" + strings.Join(cfg.Locales, " "),
		typesTag:   "oneof=" + strings.Join(names, " "),
	}
}

// violations - нарушения в порядке проверки полей
type violations []errors.FieldViolation

func (v *violations) add(field, reason string) {
	*v = append(*v, errors.FieldViolation{Field: field, Reason: reason})
}

// check прогоняет значение через правило валидатора и записывает причину отказа
func (v *violations) check(field string, value interface{}, tag string) bool {
	err := validator.GetValidator().Var(value, tag)
	if err == nil {
		return true
	}
	verr, ok := validator.ToValidationError(err).(*errors.ValidationError)
	if !ok || len(verr.Violations) == 0 {
		v.add(field, err.Error())
		return false
	}
	v.add(field, verr.Violations[0].Reason)
	return false
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &errors.ValidationError{Violations: v}
}

// Validate - term, locale, lat, lon, radius, type, limit, countryIso
func (qv *QueryValidator) Validate(p dto.LocationQueryParams) (domain.LocationQuery, error) {
	var vs violations
	q := domain.LocationQuery{}

	hasGeo := strings.TrimSpace(p.Lat) != "" && strings.TrimSpace(p.Lon) != ""

	// term
	switch term := collapseSpaces(p.Term); {
	case term == "" && !hasGeo:
		vs.add("term", "is required when lat and lon are not given")
	case term != "":
		q.Term, _ = qv.term(&vs, "term", term)
	}

	// locale
	if locale, ok := qv.locale(&vs, "locale", p.Locale, false); ok {
		q.Locale = locale
	}

	// lat / lon
	latOK, lonOK := false, false
	lat, hasLat := qv.parseFloat(&vs, "lat", p.Lat)
	if hasLat {
		latOK = vs.check("lat", lat, "min=-90,max=90")
	}
	if strings.TrimSpace(p.Lon) != "" && strings.TrimSpace(p.Lat) == "" {
		vs.add("lat", "is required together with lon")
	}
	lon, hasLon := qv.parseFloat(&vs, "lon", p.Lon)
	if hasLon {
		lonOK = vs.check("lon", lon, "min=-180,max=180")
	}
	if strings.TrimSpace(p.Lat) != "" && strings.TrimSpace(p.Lon) == "" {
		vs.add("lon", "is required together with lat")
	}

	// radius
	radiusKm := qv.cfg.DefaultRadiusKm
	radiusOK := true
	if strings.TrimSpace(p.Radius) != "" {
		switch {
		case !hasGeo:
			vs.add("radius", "requires lat and lon")
			radiusOK = false
		default:
			radius, ok := qv.parseFloat(&vs, "radius", p.Radius)
			if !ok {
				radiusOK = false
				break
			}
			radiusOK = vs.check("radius", radius,
				"min="+strconv.FormatFloat(qv.cfg.MinRadiusKm, 'f', -1, 64)+
					",max="+strconv.FormatFloat(qv.cfg.MaxRadiusKm, 'f', -1, 64))
			radiusKm = radius
		}
	}
	if hasGeo && latOK && lonOK && radiusOK {
		q.Geo = &domain.GeoBias{Lat: lat, Lon: lon, RadiusKm: radiusKm}
	}

	// type
	for _, raw := range strings.Split(p.Type, ",") {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		if vs.check("type", t, qv.typesTag) {
			q.Types = append(q.Types, domain.EntityType(t))
		}
	}
	q.Types = domain.NormalizeTypes(q.Types)

	// limit
	q.Limit = qv.cfg.DefaultLimit
	if raw := strings.TrimSpace(p.Limit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			vs.add("limit", "must be an integer")
		} else if vs.check("limit", limit, fmt.Sprintf("min=1,max=%d", qv.cfg.MaxLimit)) {
			q.Limit = limit
		}
	}

	// countryIso
	if raw := strings.TrimSpace(p.CountryISO); raw != "" {
		iso := strings.ToUpper(raw)
		if vs.check("countryIso", iso, "iso3166_1_alpha2") {
			q.CountryISO = iso
		}
	}

	if err := vs.err(); err != nil {
		return domain.LocationQuery{}, err
	}
	return q, nil
}

// Locale проверяет язык для эндпоинтов /city/v1, где он обязателен
func (qv *QueryValidator) Locale(raw string) (domain.Locale, error) {
	var vs violations
	locale, _ := qv.locale(&vs, "language", raw, true)
	if err := vs.err(); err != nil {
		return "", err
	}
	return locale, nil
}

// Term проверяет обязательный поисковый терм (query в /city/v1/search)
func (qv *QueryValidator) Term(field, raw string) (string, error) {
	var vs violations
	term := collapseSpaces(raw)
	if term == "" {
		vs.add(field, "is required")
	} else {
		term, _ = qv.term(&vs, field, term)
	}
	if err := vs.err(); err != nil {
		return "", err
	}
	return term, nil
}

// DefaultLocale - локаль по умолчанию
func (qv *QueryValidator) DefaultLocale() domain.Locale {
	return domain.Locale(qv.cfg.DefaultLocale)
}

func (qv *QueryValidator) locale(vs *violations, field, raw string, required bool) (domain.Locale, bool) {
	locale := strings.ToLower(strings.TrimSpace(raw))
	if locale == "" {
		if required {
			vs.add(field, "is required")
			return "", false
		}
		return domain.Locale(qv.cfg.DefaultLocale), true
	}
	if !vs.check(field, locale, qv.localesTag) {
		return "", false
	}
	return domain.Locale(locale), true
}

func (qv *QueryValidator) term(vs *violations, field, term string) (string, bool) {
	if !vs.check(field, term, fmt.Sprintf("min=%d,max=%d", qv.cfg.MinTermLen, qv.cfg.MaxTermLen)) {
		return "", false
	}
	return term, true
}

// collapseSpaces - trim и схлопывание внутренних пробелов; регистр сохраняется
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseFloat: (0, false) для пустого значения; ошибка разбора пишется в нарушения
func (qv *QueryValidator) parseFloat(vs *violations, field, raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		vs.add(field, "must be a number")
		return 0, false
	}
	return f, true
}
