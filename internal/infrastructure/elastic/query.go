package elastic

import (
	"strconv"

	"github.com/location-lookup/internal/domain"
)

type object = map[string]interface{}

// buildSearchBody переводит BackendQuery в тело _search
func buildSearchBody(q domain.BackendQuery) object {
	var query object
	switch q.Source {
	case domain.SourceGeo:
		query = geoQuery(q)
	case domain.SourceLookup:
		query = lookupQuery(q)
	default:
		query = textQuery(q)
	}

	body := object{
		"query":   query,
		"size":    q.Size,
		"_source": []string{"id", "type", "names", "region_names", "country_iso", "is_featured", "centroid"},
	}
	if q.Source == domain.SourceLookup {
		body["sort"] = []interface{}{object{"id": "asc"}}
	}
	return body
}

// textQuery - точное совпадение, префикс и нечёткий поиск по имени в локали запроса и в локали по умолчанию
func textQuery(q domain.BackendQuery) object {
	return object{
		"bool": object{
			"should":               nameClauses(q),
			"minimum_should_match": 1,
			"filter":               filters(q),
		},
	}
}

// geoQuery - близость к точке в пределах радиуса; термин, если есть, только фильтрует
func geoQuery(q domain.BackendQuery) object {
	filter := filters(q)
	filter = append(filter, object{
		"geo_distance": object{
			"distance": formatKm(q.Geo.RadiusKm),
			"centroid": object{"lat": q.Geo.Lat, "lon": q.Geo.Lon},
		},
	})
	if q.Term != "" {
		filter = append(filter, object{
			"bool": object{
				"should":               nameClauses(q),
				"minimum_should_match": 1,
			},
		})
	}

	return object{
		"function_score": object{
			"query": object{"bool": object{"filter": filter}},
			"functions": []interface{}{
				object{
					"gauss": object{
						"centroid": object{
							"origin": object{"lat": q.Geo.Lat, "lon": q.Geo.Lon},
							"scale":  formatKm(q.Geo.RadiusKm / 2),
							"offset": "0km",
							"decay":  0.5,
						},
					},
				},
			},
			"boost_mode": "replace",
		},
	}
}

// lookupQuery - выборка по id либо перебор по фильтрам (featured)
func lookupQuery(q domain.BackendQuery) object {
	filter := lookupFilters(q)
	if len(q.IDs) > 0 {
		filter = append(filter, object{"ids": object{"values": q.IDs}})
	}
	if len(filter) == 0 {
		return object{"match_all": object{}}
	}
	return object{"bool": object{"filter": filter}}
}

func nameClauses(q domain.BackendQuery) []interface{} {
	fields := []string{"names." + string(q.Locale)}
	if q.DefaultLocale != "" && q.DefaultLocale != q.Locale {
		fields = append(fields, "names."+string(q.DefaultLocale))
	}

	clauses := make([]interface{}, 0, len(fields)*3)
	for _, f := range fields {
		clauses = append(clauses,
			object{"match_phrase": object{f: object{"query": q.Term, "boost": 3, "_name": string(domain.MatchExact)}}},
			object{"match_phrase_prefix": object{f: object{"query": q.Term, "boost": 2, "_name": string(domain.MatchPrefix)}}},
			object{"match": object{f: object{"query": q.Term, "fuzziness": "AUTO", "_name": string(domain.MatchFuzzy)}}},
		)
	}
	return clauses
}

// filters - фильтры, общие для текстового и гео-запроса
func filters(q domain.BackendQuery) []interface{} {
	result := lookupFilters(q)
	if q.Locale != "" {
		locale := []interface{}{object{"exists": object{"field": "names." + string(q.Locale)}}}
		if q.DefaultLocale != "" && q.DefaultLocale != q.Locale {
			locale = append(locale, object{"exists": object{"field": "names." + string(q.DefaultLocale)}})
		}
		result = append(result, object{"bool": object{"should": locale, "minimum_should_match": 1}})
	}
	return result
}

// lookupFilters - тип, страна и featured; наличие имени в локали при выборке по id не требуется
func lookupFilters(q domain.BackendQuery) []interface{} {
	result := make([]interface{}, 0, 4)
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		result = append(result, object{"terms": object{"type": types}})
	}
	if q.CountryISO != "" {
		result = append(result, object{"term": object{"country_iso": q.CountryISO}})
	}
	if q.FeaturedOnly {
		result = append(result, object{"term": object{"is_featured": true}})
	}
	return result
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64) + "km"
}
