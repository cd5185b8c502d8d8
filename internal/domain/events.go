package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
)

// =========== Eventos de dominio de reservaciones ===========

type ReservationAction string

const (
	ActionCreated   ReservationAction = "created"
	ActionUpdated   ReservationAction = "updated"
	ActionApproved  ReservationAction = "approved"
	ActionRejected  ReservationAction = "rejected"
	ActionCancelled ReservationAction = "cancelled"
)

var routingKeys = map[ReservationAction]string{
	ActionCreated:   "ReservationCreated",
	ActionUpdated:   "ReservationUpdated",
	ActionApproved:  "ReservationApproved",
	ActionRejected:  "ReservationRejected",
	ActionCancelled: "ReservationCancelled",
}

// ReservationEvent is emitted on every reservation state change and written to
// the outbox in the same transaction as the change itself.
type ReservationEvent struct {
	primitives.BaseEvent
	Action        ReservationAction    `json:"action"`
	ActorID       uuid.UUID            `json:"actorId"`
	AdminAction   bool                 `json:"adminAction"`
	Reason        string               `json:"reason,omitempty"`
	Before        *ReservationSnapshot `json:"before,omitempty"`
	After         ReservationSnapshot  `json:"after"`
	OccurredAtUtc time.Time            `json:"occurredAtUtc"`
}

func newReservationEvent(
	action ReservationAction,
	actorID uuid.UUID,
	adminAction bool,
	reason string,
	before *ReservationSnapshot,
	after ReservationSnapshot,
	now time.Time,
) *ReservationEvent {
	ev := &ReservationEvent{
		BaseEvent:     primitives.NewBaseEvent(),
		Action:        action,
		ActorID:       actorID,
		AdminAction:   adminAction,
		Reason:        reason,
		Before:        before,
		After:         after,
		OccurredAtUtc: now.UTC(),
	}
	ev.SetRoutingKey(routingKeys[action])
	return ev
}

func NewReservationCreatedEvent(actorID uuid.UUID, r *Reservation, now time.Time) *ReservationEvent {
	return newReservationEvent(ActionCreated, actorID, false, "", nil, r.Snapshot(), now)
}

func NewReservationUpdatedEvent(actorID uuid.UUID, adminAction bool, before, after *Reservation, now time.Time) *ReservationEvent {
	b := before.Snapshot()
	return newReservationEvent(ActionUpdated, actorID, adminAction, "", &b, after.Snapshot(), now)
}

func NewReservationApprovedEvent(adminID uuid.UUID, r *Reservation, now time.Time) *ReservationEvent {
	return newReservationEvent(ActionApproved, adminID, true, "", nil, r.Snapshot(), now)
}

func NewReservationRejectedEvent(adminID uuid.UUID, r *Reservation, reason string, now time.Time) *ReservationEvent {
	return newReservationEvent(ActionRejected, adminID, true, reason, nil, r.Snapshot(), now)
}

func NewReservationCancelledEvent(actorID uuid.UUID, adminAction bool, before, after *Reservation, reason string, now time.Time) *ReservationEvent {
	b := before.Snapshot()
	return newReservationEvent(ActionCancelled, actorID, adminAction, reason, &b, after.Snapshot(), now)
}

// DecodeReservationEvent rebuilds an event read back from the outbox.
func DecodeReservationEvent(eventType, payloadJSON string) (*ReservationEvent, error) {
	var ev ReservationEvent
	if err := json.Unmarshal([]byte(payloadJSON), &ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	if _, ok := routingKeys[ev.Action]; !ok {
		return nil, fmt.Errorf("decode %s: unknown action %q", eventType, ev.Action)
	}
	ev.SetRoutingKey(eventType)
	return &ev, nil
}

// =========== Notificaciones salientes ===========

type NotificationKind string

const (
	NotifyAdminsPending NotificationKind = "admins.pending_reservation"
	NotifyUserApproved  NotificationKind = "user.reservation_approved"
	NotifyUserRejected  NotificationKind = "user.reservation_rejected"
	NotifyUserCancelled NotificationKind = "user.reservation_cancelled"
)

// ReservationNotification is published for the notification service to fan out.
type ReservationNotification struct {
	primitives.BaseEvent
	Kind          NotificationKind    `json:"kind"`
	RecipientID   *uuid.UUID          `json:"recipientId,omitempty"`
	Reservation   ReservationSnapshot `json:"reservation"`
	Reason        string              `json:"reason,omitempty"`
	OccurredAtUtc time.Time           `json:"occurredAtUtc"`
}

func NewReservationNotification(kind NotificationKind, recipient *uuid.UUID, r ReservationSnapshot, reason string) *ReservationNotification {
	ev := &ReservationNotification{
		BaseEvent:     primitives.NewBaseEvent(),
		Kind:          kind,
		RecipientID:   recipient,
		Reservation:   r,
		Reason:        reason,
		OccurredAtUtc: time.Now().UTC(),
	}
	ev.SetRoutingKey("ReservationNotification")
	return ev
}
