package repository

import (
	"context"

	"github.com/location-lookup/internal/domain"
)

// EventRepository - приёмник событий разрешения (Redis Streams или Kafka)
type EventRepository interface {
	// Publish отправляет пачку событий
	Publish(ctx context.Context, events []domain.ResolutionEvent) error

	// Close освобождает соединения
	Close() error
}
