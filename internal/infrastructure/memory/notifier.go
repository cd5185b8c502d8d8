package memory

import (
	"context"
	"sync"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

type SentNotification struct {
	Kind          domain.NotificationKind
	ReservationID string
	Reason        string
}

// Notifier records notifications instead of sending them.
type Notifier struct {
	mu   sync.Mutex
	sent []SentNotification
	Err  error
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) record(kind domain.NotificationKind, r domain.ReservationSnapshot, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, SentNotification{Kind: kind, ReservationID: r.ID.String(), Reason: reason})
	return nil
}

func (n *Notifier) NotifyAdminsOfPendingReservation(ctx context.Context, r domain.ReservationSnapshot) error {
	return n.record(domain.NotifyAdminsPending, r, "")
}

func (n *Notifier) NotifyUserOfApproval(ctx context.Context, r domain.ReservationSnapshot) error {
	return n.record(domain.NotifyUserApproved, r, "")
}

func (n *Notifier) NotifyUserOfRejection(ctx context.Context, r domain.ReservationSnapshot, reason string) error {
	return n.record(domain.NotifyUserRejected, r, reason)
}

func (n *Notifier) NotifyUserOfCancellation(ctx context.Context, r domain.ReservationSnapshot, reason string) error {
	return n.record(domain.NotifyUserCancelled, r, reason)
}

func (n *Notifier) Sent() []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentNotification(nil), n.sent...)
}
