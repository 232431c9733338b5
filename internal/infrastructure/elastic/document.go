package elastic

import (
	"github.com/location-lookup/internal/domain"
)

// locationDocument - документ индекса локаций
type locationDocument struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Names       map[string]string `json:"names"`
	RegionNames map[string]string `json:"region_names"`
	CountryISO  string            `json:"country_iso"`
	IsFeatured  bool              `json:"is_featured"`
	Centroid    struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"centroid"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID             string           `json:"_id"`
	Score          *float64         `json:"_score"`
	Source         locationDocument `json:"_source"`
	MatchedQueries []string         `json:"matched_queries"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

func (h searchHit) toCandidate(source domain.QuerySource) domain.CandidateHit {
	id := h.Source.ID
	if id == "" {
		id = h.ID
	}
	score := 1.0
	if h.Score != nil {
		score = *h.Score
	}
	return domain.CandidateHit{
		ID:           id,
		Type:         domain.EntityType(h.Source.Type),
		Score:        score,
		Names:        toLocaleMap(h.Source.Names),
		RegionNames:  toLocaleMap(h.Source.RegionNames),
		CountryISO:   h.Source.CountryISO,
		Featured:     h.Source.IsFeatured,
		Location:     domain.Point{Lat: h.Source.Centroid.Lat, Lon: h.Source.Centroid.Lon},
		MatchQuality: matchQuality(source, h.MatchedQueries),
	}
}

func toLocaleMap(m map[string]string) map[domain.Locale]string {
	if len(m) == 0 {
		return nil
	}
	result := make(map[domain.Locale]string, len(m))
	for k, v := range m {
		if v != "" {
			result[domain.Locale(k)] = v
		}
	}
	return result
}

// matchQuality - лучшее из сработавших именованных условий
func matchQuality(source domain.QuerySource, matched []string) domain.MatchQuality {
	switch source {
	case domain.SourceGeo:
		return domain.MatchProximity
	case domain.SourceLookup:
		return domain.MatchLookup
	}
	best := domain.MatchNone
	for _, name := range matched {
		switch domain.MatchQuality(name) {
		case domain.MatchExact:
			return domain.MatchExact
		case domain.MatchPrefix:
			best = domain.MatchPrefix
		case domain.MatchFuzzy:
			if best == domain.MatchNone {
				best = domain.MatchFuzzy
			}
		}
	}
	return best
}
