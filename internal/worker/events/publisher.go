package events

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"github.com/location-lookup/internal/pkg/metrics"
	"github.com/location-lookup/internal/worker"
	"go.uber.org/zap"
)

const (
	batchSize      = 100
	flushInterval  = time.Second
	publishTimeout = 5 * time.Second
)

// Publisher - буфер событий разрешения и воркер, отправляющий их пачками.
// Emit никогда не блокирует запрос: при полном буфере событие отбрасывается.
type Publisher struct {
	*worker.BaseWorker
	repo    repository.EventRepository
	queue   chan domain.ResolutionEvent
	clock   clockwork.Clock
	metrics *metrics.Metrics
}

// Option - опции Publisher
type Option func(*Publisher)

// WithClock подменяет часы для тикера сброса
func WithClock(c clockwork.Clock) Option {
	return func(p *Publisher) {
		p.clock = c
	}
}

func NewPublisher(repo repository.EventRepository, buffer int, mt *metrics.Metrics, logger *zap.Logger, opts ...Option) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	p := &Publisher{
		BaseWorker: worker.NewBaseWorker("resolution-events", logger),
		repo:       repo,
		queue:      make(chan domain.ResolutionEvent, buffer),
		clock:      clockwork.NewRealClock(),
		metrics:    mt,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit ставит событие в очередь
func (p *Publisher) Emit(event domain.ResolutionEvent) {
	select {
	case p.queue <- event:
	default:
		p.metrics.EventsDropped.Inc()
	}
}

// Start собирает пачки до batchSize или до тика flushInterval.
// После остановки дописывает то, что уже лежит в очереди.
func (p *Publisher) Start(ctx context.Context) error {
	ticker := p.clock.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]domain.ResolutionEvent, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.publish(batch)
		batch = batch[:0]
	}

	for {
		select {
		case event := <-p.queue:
			batch = append(batch, event)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.Chan():
			flush()
		case <-p.StopChan():
			p.drain(&batch)
			flush()
			return nil
		case <-ctx.Done():
			p.drain(&batch)
			flush()
			return nil
		}
	}
}

func (p *Publisher) drain(batch *[]domain.ResolutionEvent) {
	for {
		select {
		case event := <-p.queue:
			*batch = append(*batch, event)
			if len(*batch) >= batchSize {
				p.publish(*batch)
				*batch = (*batch)[:0]
			}
		default:
			return
		}
	}
}

// publish не наследует контекст воркера, чтобы последняя пачка ушла и после отмены
func (p *Publisher) publish(batch []domain.ResolutionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.repo.Publish(ctx, batch); err != nil {
		p.metrics.EventsDropped.Add(float64(len(batch)))
		p.Logger().Warn("Failed to publish resolution events",
			zap.Int("events", len(batch)),
			zap.Error(err))
		return
	}
	p.metrics.EventsPublished.Add(float64(len(batch)))
}
