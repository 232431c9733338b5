package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionEvent - событие о завершённом разрешении запроса (для аналитики нагрузки)
type ResolutionEvent struct {
	ID             uuid.UUID        `json:"id"`
	Mode           ResolutionMode   `json:"mode"`
	Fingerprint    string           `json:"fingerprint"`
	Locale         Locale           `json:"locale"`
	Status         ResolutionStatus `json:"status,omitempty"`
	ResultCount    int              `json:"result_count"`
	CacheHit       bool             `json:"cache_hit"`
	BackendQueries int              `json:"backend_queries"`
	DurationMs     float64          `json:"duration_ms"`
	Error          string           `json:"error,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
