package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repositories return (nil, nil) when a row does not exist.

type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

type AreaRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Area, error)
	// GetForUpdate loads the area and locks it until the surrounding
	// transaction ends. Used to serialize conflict-check-then-write.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Area, error)
}

type ScheduleRepository interface {
	ListAreaSchedules(ctx context.Context, areaID uuid.UUID) ([]AreaSchedule, error)
	ListAcademySchedules(ctx context.Context, areaID uuid.UUID) ([]AcademySchedule, error)
}

type ReservationQuery struct {
	AreaID    uuid.UUID
	From      time.Time
	To        time.Time
	Statuses  []ReservationStatus
	ExcludeID *uuid.UUID
}

type ReservationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	Insert(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error
	// ListOverlapping returns reservations of the area whose window strictly
	// overlaps [From, To) and whose status is in Statuses.
	ListOverlapping(ctx context.Context, q ReservationQuery) ([]*Reservation, error)
}

type InvoiceService interface {
	CreateZeroCostInvoice(ctx context.Context, userID, areaID uuid.UUID, date time.Time) (uuid.UUID, error)
}

type AuditLogger interface {
	LogAction(ctx context.Context, entry AuditEntry) error
}

// AuditEntry is one audit row. EventID identifies the event that produced it;
// loggers write at most one row per EventID so redelivery does not duplicate.
type AuditEntry struct {
	EventID    uuid.UUID
	ActorID    uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Action     string
	Before     *ReservationSnapshot
	After      *ReservationSnapshot
	At         time.Time
}

type Notifier interface {
	NotifyAdminsOfPendingReservation(ctx context.Context, r ReservationSnapshot) error
	NotifyUserOfApproval(ctx context.Context, r ReservationSnapshot) error
	NotifyUserOfRejection(ctx context.Context, r ReservationSnapshot, reason string) error
	NotifyUserOfCancellation(ctx context.Context, r ReservationSnapshot, reason string) error
}

// UnitOfWork runs fn inside one transaction. Repositories called with the
// ctx handed to fn take part in it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AvailabilityCache interface {
	Get(ctx context.Context, key AvailabilityKey) (*Availability, bool)
	Set(ctx context.Context, key AvailabilityKey, a *Availability) error
	InvalidateArea(ctx context.Context, areaID uuid.UUID) error
}

type AvailabilityKey struct {
	AreaID      uuid.UUID
	From        time.Time
	To          time.Time
	SlotMinutes int
}

type OutboxRepository interface {
	Insert(ctx context.Context, msg OutboxMessage) error
	GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]OutboxMessage, error)
	Save(ctx context.Context, msg OutboxMessage) error
}

type OutboxMessage struct {
	ID             uuid.UUID
	Type           string
	PayloadJSON    string
	OccurredAtUtc  int64 // unix seconds
	RetryCount     int
	ProcessedAtUtc *int64
}
