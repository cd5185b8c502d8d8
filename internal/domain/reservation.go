package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pendiente"
	ReservationApproved  ReservationStatus = "Aprobada"
	ReservationRejected  ReservationStatus = "Rechazada"
	ReservationCancelled ReservationStatus = "Cancelada"
	ReservationCompleted ReservationStatus = "Completada"
	ReservationExpired   ReservationStatus = "Expirada"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:  {ReservationApproved, ReservationRejected, ReservationCancelled},
	ReservationApproved: {ReservationCancelled, ReservationCompleted, ReservationExpired},
}

func ParseReservationStatus(raw string) (ReservationStatus, error) {
	s := ReservationStatus(raw)
	switch s {
	case ReservationPending, ReservationApproved, ReservationRejected,
		ReservationCancelled, ReservationCompleted, ReservationExpired:
		return s, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", raw)
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentFree    PaymentStatus = "free"
	PaymentPaid    PaymentStatus = "paid"
)

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(raw)
	switch s {
	case PaymentPending, PaymentFree, PaymentPaid:
		return s, nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

type Reservation struct {
	ID             uuid.UUID
	RequesterID    uuid.UUID
	AreaID         uuid.UUID
	StartsAt       time.Time
	EndsAt         time.Time
	Status         ReservationStatus
	Title          string
	Notes          string
	DecisionReason string
	ApprovedBy     *uuid.UUID
	ReviewedAt     *time.Time
	PaymentStatus  PaymentStatus
	InvoiceID      *uuid.UUID
	Cost           decimal.Decimal
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Loaded explicitly by the service; repositories leave them nil.
	Area      *Area
	Requester *User
}

func NewReservation(requesterID, areaID uuid.UUID, window TimeWindow, now time.Time) *Reservation {
	return &Reservation{
		ID:            uuid.New(),
		RequesterID:   requesterID,
		AreaID:        areaID,
		StartsAt:      window.Start,
		EndsAt:        window.End,
		Status:        ReservationPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

func (r *Reservation) Window() TimeWindow {
	return NewTimeWindow(r.StartsAt, r.EndsAt)
}

func (r *Reservation) IsOwnedBy(userID uuid.UUID) bool {
	return r.RequesterID == userID
}

// transition moves the reservation to next, recording who reviewed it and when.
func (r *Reservation) transition(next ReservationStatus, reviewer *uuid.UUID, reason string, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return NewStateFailure("invalid_transition",
			fmt.Sprintf("reservation is %s and cannot become %s", r.Status, next))
	}
	at := now.UTC()
	r.Status = next
	r.ApprovedBy = reviewer
	r.ReviewedAt = &at
	r.DecisionReason = reason
	r.UpdatedAt = at
	return nil
}

func (r *Reservation) Approve(adminID uuid.UUID, now time.Time) error {
	return r.transition(ReservationApproved, &adminID, "", now)
}

func (r *Reservation) Reject(adminID uuid.UUID, reason string, now time.Time) error {
	return r.transition(ReservationRejected, &adminID, reason, now)
}

// Cancel records reviewer only for admin cancellations; a requester
// cancelling their own reservation leaves ApprovedBy untouched.
func (r *Reservation) Cancel(reviewer *uuid.UUID, reason string, now time.Time) error {
	keep := r.ApprovedBy
	if err := r.transition(ReservationCancelled, reviewer, reason, now); err != nil {
		return err
	}
	if reviewer == nil {
		r.ApprovedBy = keep
	}
	return nil
}

// Snapshot is the flat, serializable view used in events and audit rows.
type ReservationSnapshot struct {
	ID             uuid.UUID         `json:"id"`
	RequesterID    uuid.UUID         `json:"requesterId"`
	AreaID         uuid.UUID         `json:"areaId"`
	StartsAtUtc    time.Time         `json:"startsAtUtc"`
	EndsAtUtc      time.Time         `json:"endsAtUtc"`
	Status         ReservationStatus `json:"status"`
	Title          string            `json:"title,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	DecisionReason string            `json:"decisionReason,omitempty"`
	ApprovedBy     *uuid.UUID        `json:"approvedBy,omitempty"`
	ReviewedAtUtc  *time.Time        `json:"reviewedAtUtc,omitempty"`
	PaymentStatus  PaymentStatus     `json:"paymentStatus"`
	InvoiceID      *uuid.UUID        `json:"invoiceId,omitempty"`
	Cost           string            `json:"cost"`
	Currency       string            `json:"currency,omitempty"`
}

func (r *Reservation) Snapshot() ReservationSnapshot {
	return ReservationSnapshot{
		ID:             r.ID,
		RequesterID:    r.RequesterID,
		AreaID:         r.AreaID,
		StartsAtUtc:    r.StartsAt.UTC(),
		EndsAtUtc:      r.EndsAt.UTC(),
		Status:         r.Status,
		Title:          r.Title,
		Notes:          r.Notes,
		DecisionReason: r.DecisionReason,
		ApprovedBy:     r.ApprovedBy,
		ReviewedAtUtc:  r.ReviewedAt,
		PaymentStatus:  r.PaymentStatus,
		InvoiceID:      r.InvoiceID,
		Cost:           r.Cost.StringFixed(2),
		Currency:       r.Currency,
	}
}

// Clone returns a copy detached from the loaded Area and Requester.
func (r *Reservation) Clone() *Reservation {
	cp := *r
	cp.Area = nil
	cp.Requester = nil
	return &cp
}
