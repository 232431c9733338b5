package domain

import "time"

// ResolutionStatus - дискриминатор исхода для эндпоинтов с единственным ответом
type ResolutionStatus string

const (
	StatusUnique    ResolutionStatus = "unique"
	StatusAmbiguous ResolutionStatus = "ambiguous"
	StatusNotFound  ResolutionStatus = "not_found"
)

// ResolvedAnswer - Unique, Ambiguous (минимум 2 кандидата) или NotFound
type ResolvedAnswer struct {
	Status     ResolutionStatus `json:"status"`
	Result     *RankedResult    `json:"result,omitempty"`
	Candidates []RankedResult   `json:"candidates,omitempty"`
}

// Unique - однозначный победитель
func Unique(r RankedResult) ResolvedAnswer {
	return ResolvedAnswer{Status: StatusUnique, Result: &r}
}

// Ambiguous - лидеры, неразличимые в пределах порога
func Ambiguous(leaders []RankedResult) ResolvedAnswer {
	return ResolvedAnswer{Status: StatusAmbiguous, Candidates: leaders}
}

// NotFound - подходящих кандидатов нет
func NotFound() ResolvedAnswer {
	return ResolvedAnswer{Status: StatusNotFound}
}

// ResolutionMode - режим разрешения, входит в отпечаток запроса
type ResolutionMode string

const (
	ModeResolve  ResolutionMode = "resolve"
	ModeSearch   ResolutionMode = "search"
	ModeFeatured ResolutionMode = "featured"
)

// Resolution - значение кеша: ответ для resolve либо упорядоченный список для search
type Resolution struct {
	Answer  *ResolvedAnswer `json:"answer,omitempty"`
	Results []RankedResult  `json:"results,omitempty"`
}

// CacheEntry - запись кеша; никогда не изменяется на месте
type CacheEntry struct {
	Fingerprint Fingerprint   `json:"fingerprint"`
	Resolution  Resolution    `json:"resolution"`
	StoredAt    time.Time     `json:"stored_at"`
	TTL         time.Duration `json:"ttl"`
}

// Expired - истёк ли TTL к моменту now
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.StoredAt.Add(e.TTL))
}

// Remaining - оставшееся время жизни записи
func (e *CacheEntry) Remaining(now time.Time) time.Duration {
	return e.StoredAt.Add(e.TTL).Sub(now)
}
