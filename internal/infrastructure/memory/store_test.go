package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Reservations()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	r := domain.NewReservation(uuid.New(), uuid.New(), domain.NewTimeWindow(now, now.Add(time.Hour)), now)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Insert(ctx, r))
		require.NoError(t, store.Outbox().Insert(ctx, domain.OutboxMessage{Type: "ReservationCreated"}))
		_, err := store.CreateZeroCostInvoice(ctx, r.RequesterID, r.AreaID, now)
		require.NoError(t, err)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.ReservationCount())
	assert.Empty(t, store.OutboxMessages())
	assert.Empty(t, store.Invoices())
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	r := domain.NewReservation(uuid.New(), uuid.New(), domain.NewTimeWindow(now, now.Add(time.Hour)), now)

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.Reservations().Insert(ctx, r)
	})

	require.NoError(t, err)
	got, err := store.Reservations().GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ReservationPending, got.Status)
}

func TestListOverlapping_FiltersByAreaStatusAndExclusion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Reservations()
	areaID := uuid.New()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	approved := domain.NewReservation(uuid.New(), areaID, domain.NewTimeWindow(base, base.Add(time.Hour)), base)
	approved.Status = domain.ReservationApproved
	pending := domain.NewReservation(uuid.New(), areaID, domain.NewTimeWindow(base, base.Add(time.Hour)), base)
	touching := domain.NewReservation(uuid.New(), areaID, domain.NewTimeWindow(base.Add(time.Hour), base.Add(2*time.Hour)), base)
	touching.Status = domain.ReservationApproved
	otherArea := domain.NewReservation(uuid.New(), uuid.New(), domain.NewTimeWindow(base, base.Add(time.Hour)), base)
	otherArea.Status = domain.ReservationApproved
	for _, r := range []*domain.Reservation{approved, pending, touching, otherArea} {
		require.NoError(t, repo.Insert(ctx, r))
	}

	got, err := repo.ListOverlapping(ctx, domain.ReservationQuery{
		AreaID:   areaID,
		From:     base.Add(30 * time.Minute),
		To:       base.Add(time.Hour),
		Statuses: []domain.ReservationStatus{domain.ReservationApproved},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, approved.ID, got[0].ID)

	got, err = repo.ListOverlapping(ctx, domain.ReservationQuery{
		AreaID:    areaID,
		From:      base,
		To:        base.Add(time.Hour),
		Statuses:  []domain.ReservationStatus{domain.ReservationApproved},
		ExcludeID: &approved.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOutbox_PendingBatchSkipsProcessedAndExhausted(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	outbox := store.Outbox()

	done := int64(1)
	msgs := []domain.OutboxMessage{
		{ID: uuid.New(), Type: "a", OccurredAtUtc: 3},
		{ID: uuid.New(), Type: "b", OccurredAtUtc: 1},
		{ID: uuid.New(), Type: "c", OccurredAtUtc: 2, RetryCount: 5},
		{ID: uuid.New(), Type: "d", OccurredAtUtc: 2, ProcessedAtUtc: &done},
	}
	for _, m := range msgs {
		require.NoError(t, outbox.Insert(ctx, m))
	}

	batch, err := outbox.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "b", batch[0].Type)
	assert.Equal(t, "a", batch[1].Type)

	batch[0].ProcessedAtUtc = &done
	require.NoError(t, outbox.Save(ctx, batch[0]))

	batch, err = outbox.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "a", batch[0].Type)
}

func TestFindByEmail_IsCaseInsensitive(t *testing.T) {
	store := NewStore()
	u := store.AddUser(domain.User{Name: "Ana", Email: "Ana@Club.mx", Role: domain.RoleMember, Status: domain.UserSolvent})

	got, err := store.FindByEmail(context.Background(), "ana@club.mx")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := store.FindByEmail(context.Background(), "nobody@club.mx")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLogAction_IgnoresRepeatedEvent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	eventID := uuid.New()

	require.NoError(t, s.LogAction(ctx, domain.AuditEntry{EventID: eventID, Action: "approved"}))
	require.NoError(t, s.LogAction(ctx, domain.AuditEntry{EventID: eventID, Action: "approved"}))
	require.NoError(t, s.LogAction(ctx, domain.AuditEntry{Action: "manual"}))
	require.NoError(t, s.LogAction(ctx, domain.AuditEntry{Action: "manual"}))

	assert.Len(t, s.AuditEntries(), 3, "entries without an event id are always written")
}
