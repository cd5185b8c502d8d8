package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

type fakeBus struct {
	events []primitives.Event
	err    error
}

func (b *fakeBus) Publish(_ context.Context, ev primitives.Event) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

func TestBusNotifier_AddressesRequester(t *testing.T) {
	bus := &fakeBus{}
	n := NewBusNotifier(bus)
	snap := domain.ReservationSnapshot{ID: uuid.New(), RequesterID: uuid.New(), Status: domain.ReservationRejected}

	require.NoError(t, n.NotifyUserOfRejection(context.Background(), snap, "torneo"))
	require.NoError(t, n.NotifyAdminsOfPendingReservation(context.Background(), snap))

	require.Len(t, bus.events, 2)
	rejected := bus.events[0].(*domain.ReservationNotification)
	assert.Equal(t, "ReservationNotification", rejected.GetRoutingKey())
	assert.Equal(t, domain.NotifyUserRejected, rejected.Kind)
	require.NotNil(t, rejected.RecipientID)
	assert.Equal(t, snap.RequesterID, *rejected.RecipientID)
	assert.Equal(t, "torneo", rejected.Reason)

	admins := bus.events[1].(*domain.ReservationNotification)
	assert.Nil(t, admins.RecipientID)
}

func TestBusNotifier_WrapsPublishErrors(t *testing.T) {
	bus := &fakeBus{err: errors.New("channel closed")}

	err := NewBusNotifier(bus).NotifyUserOfApproval(context.Background(), domain.ReservationSnapshot{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.reservation_approved")
}
