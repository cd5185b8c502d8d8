package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

type Metrics struct {
	ReservationOperations *prometheus.CounterVec
	AvailabilityDuration  prometheus.Histogram
	AvailabilityCacheHits prometheus.Counter
	OutboxDispatched      prometheus.Counter
	OutboxFailed          prometheus.Counter
}

// NewMetrics registers the collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReservationOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Reservation lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
		AvailabilityDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "availability_duration_seconds",
			Help:    "Time spent computing area availability",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		}),
		AvailabilityCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "availability_cache_hits_total",
			Help: "Availability requests served from cache",
		}),
		OutboxDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "outbox_dispatched_total",
			Help: "Outbox messages delivered to every sink",
		}),
		OutboxFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "outbox_failed_total",
			Help: "Outbox delivery attempts that failed",
		}),
	}
}

// RecordOperation counts a lifecycle operation. The outcome label is the
// failure kind, "error" for system errors, or "ok".
func (m *Metrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.ReservationOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) RecordAvailability(d time.Duration, cached bool) {
	if m == nil {
		return
	}
	m.AvailabilityDuration.Observe(d.Seconds())
	if cached {
		m.AvailabilityCacheHits.Inc()
	}
}

func (m *Metrics) RecordDispatch(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.OutboxDispatched.Inc()
		return
	}
	m.OutboxFailed.Inc()
}

func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if f, ok := domain.AsFailure(err); ok {
		return f.Kind.String()
	}
	return "error"
}
