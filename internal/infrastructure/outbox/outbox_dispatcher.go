package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/application"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/observability"
)

// Publisher is the part of the event bus the dispatcher needs.
type Publisher interface {
	Publish(ctx context.Context, ev primitives.Event) error
}

// Dispatcher delivers pending outbox messages to the local handlers (audit,
// notifications) and publishes them on the bus. A message is marked processed
// only when every sink accepted it; otherwise its retry count grows.
// Delivery is at-least-once, so a sink may see the same event twice.
type Dispatcher struct {
	repo      domain.OutboxRepository
	publisher Publisher
	handlers  []application.EventHandler
	breakers  map[string]*gobreaker.CircuitBreaker
	maxRetry  int
	batchSize int
	metrics   *observability.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithHandlers(handlers ...application.EventHandler) DispatcherOption {
	return func(d *Dispatcher) { d.handlers = append(d.handlers, handlers...) }
}

func WithMetrics(m *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l.With().Str("component", "outbox").Logger() }
}

// NewDispatcher builds a dispatcher. publisher may be nil when no broker is configured.
func NewDispatcher(
	repo domain.OutboxRepository,
	publisher Publisher,
	maxRetry, batchSize int,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		repo:      repo,
		publisher: publisher,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		maxRetry:  maxRetry,
		batchSize: batchSize,
		logger:    zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, h := range d.handlers {
		d.breakers[h.Name()] = newBreaker("outbox." + h.Name())
	}
	if d.publisher != nil {
		d.breakers["bus"] = newBreaker("outbox.bus")
	}
	return d
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// DispatchOnce handles one batch and returns how many messages were processed.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	msgs, err := d.repo.GetPendingBatch(ctx, d.maxRetry, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	processed := 0
	for i := range msgs {
		msg := &msgs[i]
		log := d.logger.With().Str("outbox_id", msg.ID.String()).Str("type", msg.Type).Logger()

		ev, err := domain.DecodeReservationEvent(msg.Type, msg.PayloadJSON)
		if err != nil {
			log.Error().Err(err).Msg("outbox payload cannot be decoded")
			msg.RetryCount++
			d.metrics.RecordDispatch(false)
			d.save(ctx, *msg)
			continue
		}

		err = d.deliver(ctx, msg, ev)
		switch {
		case err == nil:
			now := d.now().Unix()
			msg.ProcessedAtUtc = &now
			processed++
		case errors.Is(err, gobreaker.ErrOpenState):
			// Sink is down; leave the message as is so it does not burn retries.
			log.Warn().Err(err).Msg("outbox sink circuit open, will retry later")
			d.metrics.RecordDispatch(false)
			continue
		default:
			msg.RetryCount++
			log.Warn().Err(err).Int("retry_count", msg.RetryCount).Msg("outbox delivery failed")
		}
		d.metrics.RecordDispatch(err == nil)
		d.save(ctx, *msg)
	}

	return processed, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg *domain.OutboxMessage, ev *domain.ReservationEvent) error {
	for _, h := range d.handlers {
		if err := d.run(h.Name(), func() error { return h.Handle(ctx, ev) }); err != nil {
			return fmt.Errorf("%s: %w", h.Name(), err)
		}
	}
	if d.publisher == nil {
		return nil
	}

	// Envelope estándar
	envelope := primitives.NewIntegrationEventEnvelope(msg.Type, msg.PayloadJSON)
	envelope.SetRoutingKey(msg.Type)
	if err := d.run("bus", func() error { return d.publisher.Publish(ctx, &envelope) }); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (d *Dispatcher) run(sink string, fn func() error) error {
	cb, ok := d.breakers[sink]
	if !ok {
		return fn()
	}
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (d *Dispatcher) save(ctx context.Context, msg domain.OutboxMessage) {
	if err := d.repo.Save(ctx, msg); err != nil {
		d.logger.Error().Err(err).Str("outbox_id", msg.ID.String()).Msg("failed to save outbox message")
	}
}
