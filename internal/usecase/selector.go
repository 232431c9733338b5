package usecase

import "github.com/location-lookup/internal/domain"

// scoreEpsilon гасит погрешность float при сравнении с порогом неоднозначности
const scoreEpsilon = 1e-9

// Selector выбирает единственный ответ из ранжированного списка
type Selector struct {
	minConfidence float64
	margin        float64
}

func NewSelector(minConfidence, margin float64) *Selector {
	return &Selector{minConfidence: minConfidence, margin: margin}
}

// Select: пусто или лидер ниже порога уверенности - NotFound;
// два и более кандидата в пределах margin от лидера - Ambiguous; иначе Unique.
// Ожидает список, отсортированный Ranker.Rank.
func (s *Selector) Select(ranked []domain.RankedResult) domain.ResolvedAnswer {
	if len(ranked) == 0 {
		return domain.NotFound()
	}
	top := ranked[0]
	if top.Score+scoreEpsilon < s.minConfidence {
		return domain.NotFound()
	}

	leaders := 1
	for _, r := range ranked[1:] {
		if top.Score-r.Score < s.margin-scoreEpsilon {
			leaders++
			continue
		}
		break
	}
	if leaders >= 2 {
		return domain.Ambiguous(append([]domain.RankedResult(nil), ranked[:leaders]...))
	}
	return domain.Unique(top)
}
