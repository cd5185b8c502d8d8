package messaging

import (
	"context"
	"fmt"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, ev primitives.Event) error
}

// BusNotifier implements domain.Notifier by publishing one
// ReservationNotification per notification. Admin notifications carry no
// recipient; the consumer fans them out to every administrator.
type BusNotifier struct {
	bus publisher
}

func NewBusNotifier(bus publisher) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) NotifyAdminsOfPendingReservation(ctx context.Context, r domain.ReservationSnapshot) error {
	return n.publish(ctx, domain.NewReservationNotification(domain.NotifyAdminsPending, nil, r, ""))
}

func (n *BusNotifier) NotifyUserOfApproval(ctx context.Context, r domain.ReservationSnapshot) error {
	return n.publish(ctx, domain.NewReservationNotification(domain.NotifyUserApproved, &r.RequesterID, r, ""))
}

func (n *BusNotifier) NotifyUserOfRejection(ctx context.Context, r domain.ReservationSnapshot, reason string) error {
	return n.publish(ctx, domain.NewReservationNotification(domain.NotifyUserRejected, &r.RequesterID, r, reason))
}

func (n *BusNotifier) NotifyUserOfCancellation(ctx context.Context, r domain.ReservationSnapshot, reason string) error {
	return n.publish(ctx, domain.NewReservationNotification(domain.NotifyUserCancelled, &r.RequesterID, r, reason))
}

func (n *BusNotifier) publish(ctx context.Context, ev *domain.ReservationNotification) error {
	if err := n.bus.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}
