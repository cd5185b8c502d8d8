package application

import (
	"context"
	"fmt"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// EventHandler receives events delivered from the outbox.
type EventHandler interface {
	Name() string
	Handle(ctx context.Context, ev primitives.Event) error
}

// AuditHandler writes one audit row per reservation event.

type AuditHandler struct {
	audit domain.AuditLogger
}

func NewAuditHandler(audit domain.AuditLogger) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) Name() string { return "audit" }

func (h *AuditHandler) Handle(ctx context.Context, ev primitives.Event) error {
	rev, ok := ev.(*domain.ReservationEvent)
	if !ok {
		return nil
	}
	after := rev.After
	return h.audit.LogAction(ctx, domain.AuditEntry{
		EventID:    rev.ID,
		ActorID:    rev.ActorID,
		EntityType: "Reservation",
		EntityID:   rev.After.ID,
		Action:     string(rev.Action),
		Before:     rev.Before,
		After:      &after,
		At:         rev.OccurredAtUtc,
	})
}

// NotificationHandler tells admins about new requests and requesters about decisions.

type NotificationHandler struct {
	notifier domain.Notifier
}

func NewNotificationHandler(n domain.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: n}
}

func (h *NotificationHandler) Name() string { return "notification" }

func (h *NotificationHandler) Handle(ctx context.Context, ev primitives.Event) error {
	rev, ok := ev.(*domain.ReservationEvent)
	if !ok {
		return nil
	}
	var err error
	switch rev.Action {
	case domain.ActionCreated:
		err = h.notifier.NotifyAdminsOfPendingReservation(ctx, rev.After)
	case domain.ActionApproved:
		err = h.notifier.NotifyUserOfApproval(ctx, rev.After)
	case domain.ActionRejected:
		err = h.notifier.NotifyUserOfRejection(ctx, rev.After, rev.Reason)
	case domain.ActionCancelled:
		// Requesters cancelling their own reservation are not notified.
		if rev.AdminAction {
			err = h.notifier.NotifyUserOfCancellation(ctx, rev.After, rev.Reason)
		}
	}
	if err != nil {
		return fmt.Errorf("notify %s: %w", rev.Action, err)
	}
	return nil
}
