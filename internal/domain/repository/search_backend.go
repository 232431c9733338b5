package repository

import (
	"context"

	"github.com/location-lookup/internal/domain"
)

// SearchBackend определяет контракт поискового индекса (Elasticsearch, PostgreSQL)
type SearchBackend interface {
	// Search выполняет один запрос и возвращает кандидатов в порядке бэкенда.
	// Пустой результат не является ошибкой.
	Search(ctx context.Context, q domain.BackendQuery) ([]domain.CandidateHit, error)

	// Ping проверяет доступность бэкенда
	Ping(ctx context.Context) error

	// Name возвращает имя реализации для логов и метрик
	Name() string
}
