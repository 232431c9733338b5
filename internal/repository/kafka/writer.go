package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer публикует события разрешения в топик Kafka
type Writer struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

var _ repository.EventRepository = (*Writer)(nil)

// NewWriter создаёт продюсер для топика событий
func NewWriter(cfg *config.EventsConfig, logger *zap.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish отправляет пачку одним WriteMessages; ключ - отпечаток запроса,
// так что события одного запроса попадают в одну партицию
func (w *Writer) Publish(ctx context.Context, events []domain.ResolutionEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := toMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		w.logger.Error("Failed to write events to kafka",
			zap.String("topic", w.writer.Topic),
			zap.Int("events", len(events)),
			zap.Error(err))
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func toMessage(event domain.ResolutionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize resolution event: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "mode", Value: []byte(event.Mode)},
	}
	if event.Status != "" {
		headers = append(headers, kafkago.Header{Key: "status", Value: []byte(event.Status)})
	}
	return kafkago.Message{
		Key:     []byte(event.Fingerprint),
		Value:   data,
		Time:    event.OccurredAt,
		Headers: headers,
	}, nil
}
