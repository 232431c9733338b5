package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// streamMaxLen - приблизительный предел длины стрима (XADD MAXLEN ~)
const streamMaxLen = 100000

type streamRepository struct {
	client redis.Cmdable
	stream string
	logger *zap.Logger
}

// NewStreamRepository создает EventRepository поверх Redis Streams.
// Соединением владеет вызывающий: Close его не закрывает.
func NewStreamRepository(client redis.Cmdable, stream string, logger *zap.Logger) repository.EventRepository {
	return &streamRepository{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Publish добавляет события в стрим одним пайплайном, JSON в поле "data"
func (r *streamRepository) Publish(ctx context.Context, events []domain.ResolutionEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: r.stream,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"data": string(data),
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to publish to stream",
			zap.String("stream", r.stream),
			zap.Int("events", len(events)),
			zap.Error(err))
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("Events published to stream",
		zap.String("stream", r.stream),
		zap.Int("events", len(events)))
	return nil
}

func (r *streamRepository) Close() error {
	return nil
}
