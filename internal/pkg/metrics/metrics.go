package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "location_lookup"

// Metrics - счётчики и гистограммы кеша, бэкенда и разрешения запросов
type Metrics struct {
	// Кеш результатов
	CacheLookups   *prometheus.CounterVec // labels: result={hit,miss,expired}
	CacheEvictions prometheus.Counter
	CacheL2Errors  prometheus.Counter

	// Поисковый бэкенд
	BackendRequests *prometheus.CounterVec   // labels: source, outcome={success,empty,error}
	BackendDuration *prometheus.HistogramVec // labels: source
	BackendRetries  prometheus.Counter

	// Разрешение запросов
	Resolutions *prometheus.CounterVec // labels: mode, status

	// События
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
}

func build() *Metrics {
	return &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Resolution cache lookups by result.",
		}, []string{"result"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries evicted because a cache shard reached its capacity.",
		}),
		CacheL2Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_l2_errors_total",
			Help:      "Failed Redis operations of the second cache tier.",
		}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Search backend requests by query source and outcome.",
		}, []string{"source", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),
		BackendRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_retries_total",
			Help:      "Backend requests retried after a transient failure.",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Completed resolutions by mode and status.",
		}, []string{"mode", "status"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Resolution events delivered to the event sink.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Resolution events dropped because the buffer was full or the sink failed.",
		}),
	}
}

// NewMetrics создаёт метрики и регистрирует их в реестре Prometheus по умолчанию
func NewMetrics() *Metrics {
	m := build()
	prometheus.MustRegister(
		m.CacheLookups,
		m.CacheEvictions,
		m.CacheL2Errors,
		m.BackendRequests,
		m.BackendDuration,
		m.BackendRetries,
		m.Resolutions,
		m.EventsPublished,
		m.EventsDropped,
	)
	return m
}

// NewMetricsForTesting создаёт незарегистрированные метрики, чтобы тесты
// не падали с "duplicate metrics collector registration"
func NewMetricsForTesting() *Metrics {
	return build()
}
