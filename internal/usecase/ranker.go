package usecase

import (
	"sort"
	"strings"

	"github.com/location-lookup/internal/domain"
)

// Ranker сводит кандидатов нескольких бэкенд-запросов в один упорядоченный список.
// Чистая функция: результат не зависит от порядка кандидатов на входе.
type Ranker struct {
	textWeight    float64
	geoWeight     float64
	defaultLocale domain.Locale
}

func NewRanker(textWeight, geoWeight float64, defaultLocale domain.Locale) *Ranker {
	return &Ranker{
		textWeight:    textWeight,
		geoWeight:     geoWeight,
		defaultLocale: defaultLocale,
	}
}

type scored struct {
	hit   domain.CandidateHit
	score float64
}

// Rank нормализует score внутри каждого запроса, взвешивает по источнику,
// схлопывает дубликаты по id (берётся максимум) и сортирует
func (r *Ranker) Rank(sets []domain.QueryHits, q domain.LocationQuery) []domain.RankedResult {
	weights := r.weights(sets)

	merged := make(map[string]scored)
	for _, set := range sets {
		normalized := normalize(set.Hits)
		w := weights[set.Source]
		for i, hit := range set.Hits {
			s := normalized[i] * w
			if prev, ok := merged[hit.ID]; ok && !better(s, hit, prev) {
				continue
			}
			merged[hit.ID] = scored{hit: hit, score: s}
		}
	}

	candidates := make([]scored, 0, len(merged))
	for _, c := range merged {
		candidates = append(candidates, c)
	}
	if len(candidates) == 1 {
		candidates[0].score = 1
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if pa, pb := a.hit.Type.Priority(), b.hit.Type.Priority(); pa != pb {
			return pa < pb
		}
		return lessID(a.hit.ID, b.hit.ID)
	})

	locale := q.Locale
	if locale == "" {
		locale = r.defaultLocale
	}

	results := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		name, nameLocale, fallback := localized(c.hit.Names, locale, r.defaultLocale)
		region, _, _ := localized(c.hit.RegionNames, locale, r.defaultLocale)
		results[i] = domain.RankedResult{
			ID:             c.hit.ID,
			Type:           c.hit.Type,
			Name:           name,
			Locale:         nameLocale,
			LocaleFallback: fallback,
			RegionName:     region,
			CountryISO:     c.hit.CountryISO,
			Featured:       c.hit.Featured,
			Location:       c.hit.Location,
			MatchQuality:   c.hit.MatchQuality,
			Score:          c.score,
			Rank:           i + 1,
		}
	}
	return results
}

// lessID - числовые id идут раньше остальных и сравниваются как числа ("9" < "10"),
// остальные как строки
func lessID(a, b string) bool {
	da, db := isDigits(a), isDigits(b)
	if da != db {
		return da
	}
	if da {
		na, nb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(na) != len(nb) {
			return len(na) < len(nb)
		}
		if na != nb {
			return na < nb
		}
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// better - заменяет ли новый вклад уже найденный; при равенстве побеждает
// вклад с лучшим качеством совпадения, чтобы итог не зависел от порядка запросов
func better(s float64, hit domain.CandidateHit, prev scored) bool {
	if s != prev.score {
		return s > prev.score
	}
	return qualityRank(hit.MatchQuality) < qualityRank(prev.hit.MatchQuality)
}

func qualityRank(m domain.MatchQuality) int {
	switch m {
	case domain.MatchExact:
		return 0
	case domain.MatchPrefix:
		return 1
	case domain.MatchFuzzy:
		return 2
	case domain.MatchProximity:
		return 3
	case domain.MatchLookup:
		return 4
	default:
		return 5
	}
}

// weights: текст и гео делят вес, только когда выполнялись оба запроса
func (r *Ranker) weights(sets []domain.QueryHits) map[domain.QuerySource]float64 {
	var hasText, hasGeo bool
	for _, s := range sets {
		switch s.Source {
		case domain.SourceText:
			hasText = true
		case domain.SourceGeo:
			hasGeo = true
		}
	}
	w := map[domain.QuerySource]float64{
		domain.SourceText:   1,
		domain.SourceGeo:    1,
		domain.SourceLookup: 1,
	}
	if hasText && hasGeo {
		w[domain.SourceText] = r.textWeight
		w[domain.SourceGeo] = r.geoWeight
	}
	return w
}

// normalize - min-max в [0, 1] внутри одного набора; один кандидат или все равны - 1.0
func normalize(hits []domain.CandidateHit) []float64 {
	out := make([]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}
	for i, h := range hits {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (h.Score - lo) / (hi - lo)
	}
	return out
}

// localized: запрошенная локаль, затем локаль по умолчанию, затем первая по алфавиту.
// Флаг fallback выставлен, если имя взято не из запрошенной локали.
func localized(names map[domain.Locale]string, locale, defaultLocale domain.Locale) (string, domain.Locale, bool) {
	if name, ok := names[locale]; ok && name != "" {
		return name, locale, false
	}
	if name, ok := names[defaultLocale]; ok && name != "" {
		return name, defaultLocale, true
	}
	keys := make([]string, 0, len(names))
	for k, v := range names {
		if v != "" {
			keys = append(keys, string(k))
		}
	}
	if len(keys) == 0 {
		return "", locale, false
	}
	sort.Strings(keys)
	first := domain.Locale(keys[0])
	return names[first], first, true
}
