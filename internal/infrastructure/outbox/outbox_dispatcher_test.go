package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/application"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/memory"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/observability"
)

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, ev primitives.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.types = append(p.types, ev.GetRoutingKey())
	return nil
}

func enqueueApproved(t *testing.T, store *memory.Store) *domain.Reservation {
	t.Helper()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	r := domain.NewReservation(uuid.New(), uuid.New(), domain.NewTimeWindow(now.Add(26*time.Hour), now.Add(28*time.Hour)), now)
	admin := uuid.New()
	require.NoError(t, r.Approve(admin, now))
	w := application.NewOutboxWriter(store.Outbox(), domain.FixedClock{At: now})
	require.NoError(t, w.Enqueue(context.Background(), domain.NewReservationApprovedEvent(admin, r, now)))
	return r
}

func TestDispatchOnce_DeliversToHandlersAndBus(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	pub := &recordingPublisher{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	r := enqueueApproved(t, store)

	d := NewDispatcher(store.Outbox(), pub, 5, 10,
		WithHandlers(application.NewAuditHandler(store), application.NewNotificationHandler(notifier)),
		WithMetrics(metrics),
		WithLogger(zerolog.Nop()),
	)

	n, err := d.DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"ReservationApproved"}, pub.types)
	require.Len(t, store.AuditEntries(), 1)
	assert.Equal(t, r.ID, store.AuditEntries()[0].EntityID)
	require.Len(t, notifier.Sent(), 1)
	assert.Equal(t, domain.NotifyUserApproved, notifier.Sent()[0].Kind)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.OutboxDispatched))

	msgs := store.OutboxMessages()
	require.NotNil(t, msgs[0].ProcessedAtUtc)

	n, err = d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "processed messages are not redelivered")
}

func TestDispatchOnce_FailureIncrementsRetry(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	notifier.Err = errors.New("smtp down")
	enqueueApproved(t, store)

	d := NewDispatcher(store.Outbox(), nil, 5, 10, WithHandlers(application.NewNotificationHandler(notifier)))

	n, err := d.DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	msgs := store.OutboxMessages()
	assert.Equal(t, 1, msgs[0].RetryCount)
	assert.Nil(t, msgs[0].ProcessedAtUtc)

	notifier.Err = nil
	n, err = d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDispatchOnce_RetriesDoNotDuplicateAudit(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	notifier.Err = errors.New("smtp down")
	r := enqueueApproved(t, store)

	d := NewDispatcher(store.Outbox(), nil, 5, 10,
		WithHandlers(application.NewAuditHandler(store), application.NewNotificationHandler(notifier)))

	for i := 0; i < 3; i++ {
		_, err := d.DispatchOnce(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 3, store.OutboxMessages()[0].RetryCount)
	require.Len(t, store.AuditEntries(), 1)
	assert.Equal(t, r.ID, store.AuditEntries()[0].EntityID)
}

func TestDispatchOnce_OpenCircuitKeepsRetryBudget(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	for i := 0; i < 7; i++ {
		enqueueApproved(t, store)
	}

	d := NewDispatcher(store.Outbox(), pub, 10, 10)

	_, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)

	failed := 0
	for _, m := range store.OutboxMessages() {
		failed += m.RetryCount
	}
	// Five consecutive failures trip the breaker; the rest are skipped untouched.
	assert.Equal(t, 5, failed)
}

func TestDispatchOnce_UndecodablePayload(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Outbox().Insert(context.Background(), domain.OutboxMessage{Type: "ReservationCreated", PayloadJSON: "{"}))

	d := NewDispatcher(store.Outbox(), nil, 5, 10)
	n, err := d.DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.OutboxMessages()[0].RetryCount)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	enqueueApproved(t, store)
	d := NewDispatcher(store.Outbox(), nil, 5, 10)
	s := NewScheduler(d, 1, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Start(ctx)

	require.Eventually(t, func() bool {
		return store.OutboxMessages()[0].ProcessedAtUtc != nil
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
