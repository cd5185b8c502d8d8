package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/observability"
)

type ReservationServiceDeps struct {
	UnitOfWork   domain.UnitOfWork
	Users        domain.UserDirectory
	Areas        domain.AreaRepository
	Schedules    domain.ScheduleRepository
	Reservations domain.ReservationRepository
	Invoices     domain.InvoiceService
	Outbox       OutboxWriter
}

// ReservationService is the only writer of reservations. Every mutation runs
// in one unit of work and records its domain event in the outbox.
type ReservationService struct {
	uow          domain.UnitOfWork
	users        domain.UserDirectory
	areas        domain.AreaRepository
	reservations domain.ReservationRepository
	invoices     domain.InvoiceService
	outbox       OutboxWriter

	conflicts    *ConflictChecker
	pricing      *PricingCalculator
	availability *AvailabilityCalculator
	cache        domain.AvailabilityCache

	clock   domain.Clock
	policy  Policy
	metrics *observability.Metrics
	logger  zerolog.Logger
}

type ReservationServiceOption func(*ReservationService)

func WithPolicy(p Policy) ReservationServiceOption {
	return func(s *ReservationService) { s.policy = p }
}

func WithClock(c domain.Clock) ReservationServiceOption {
	return func(s *ReservationService) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l zerolog.Logger) ReservationServiceOption {
	return func(s *ReservationService) { s.logger = l.With().Str("component", "reservations").Logger() }
}

func WithMetrics(m *observability.Metrics) ReservationServiceOption {
	return func(s *ReservationService) { s.metrics = m }
}

func WithAvailabilityCache(c domain.AvailabilityCache) ReservationServiceOption {
	return func(s *ReservationService) { s.cache = c }
}

func NewReservationService(deps ReservationServiceDeps, opts ...ReservationServiceOption) *ReservationService {
	s := &ReservationService{
		uow:          deps.UnitOfWork,
		users:        deps.Users,
		areas:        deps.Areas,
		reservations: deps.Reservations,
		invoices:     deps.Invoices,
		outbox:       deps.Outbox,
		pricing:      NewPricingCalculator(),
		clock:        domain.SystemClock{},
		policy:       DefaultPolicy(),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.conflicts = NewConflictChecker(deps.Reservations, deps.Schedules, s.policy.location())
	s.availability = NewAvailabilityCalculator(deps.Areas, deps.Schedules, deps.Reservations, s.policy).
		WithCache(s.cache).
		WithObservability(s.logger, s.metrics)
	return s
}

type CreateReservationInput struct {
	AreaID   uuid.UUID
	StartsAt time.Time
	EndsAt   time.Time
	Title    string
	Notes    string
}

// UpdateReservationInput changes only the fields that are set.
type UpdateReservationInput struct {
	StartsAt *time.Time
	EndsAt   *time.Time
	Title    *string
	Notes    *string
}

func (s *ReservationService) CreateReservation(
	ctx context.Context,
	in CreateReservationInput,
	requesterID uuid.UUID,
) (res *domain.Reservation, err error) {
	defer func() { s.metrics.RecordOperation("create", err) }()

	requester, err := s.loadUser(ctx, requesterID, "user")
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, requester); err != nil {
		return nil, err
	}
	window, err := s.validateWindow(in.StartsAt, in.EndsAt)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		area, err := s.lockArea(ctx, in.AreaID)
		if err != nil {
			return err
		}
		if !area.AcceptsReservations() {
			return domain.NewValidationFailure("area_id", "area_not_reservable", "this area does not accept reservations")
		}
		if err := s.ensureNoConflict(ctx, area.ID, window, nil); err != nil {
			return err
		}

		r := domain.NewReservation(requester.ID, area.ID, window, now)
		r.Title = strings.TrimSpace(in.Title)
		r.Notes = strings.TrimSpace(in.Notes)

		quote := s.pricing.CalculateCost(area, requester.Role, window.Start, window.End)
		r.Cost = quote.FinalCost
		r.Currency = quote.Currency

		// Free use still goes through approval; only the invoice is settled up front.
		if area.FreeForMembers && requester.Role == domain.RoleMember {
			invoiceID, err := s.invoices.CreateZeroCostInvoice(ctx, requester.ID, area.ID, window.Start)
			if err != nil {
				return fmt.Errorf("create zero cost invoice: %w", err)
			}
			r.PaymentStatus = domain.PaymentFree
			r.InvoiceID = &invoiceID
		}

		if err := s.reservations.Insert(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		if err := s.outbox.Enqueue(ctx, domain.NewReservationCreatedEvent(requester.ID, r, now)); err != nil {
			return fmt.Errorf("enqueue created event: %w", err)
		}

		r.Area = area
		r.Requester = requester
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("area_id", res.AreaID.String()).
		Str("payment_status", string(res.PaymentStatus)).
		Msg("reservation created")
	return res, nil
}

// UpdateReservation is allowed only while the reservation is pending, and only
// for its requester or an admin.
func (s *ReservationService) UpdateReservation(
	ctx context.Context,
	id uuid.UUID,
	in UpdateReservationInput,
	requesterID uuid.UUID,
) (res *domain.Reservation, err error) {
	defer func() { s.metrics.RecordOperation("update", err) }()

	actor, err := s.loadUser(ctx, requesterID, "user")
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.loadReservation(ctx, id)
		if err != nil {
			return err
		}
		isAdmin := actor.Role.IsAdmin()
		if !isAdmin && !r.IsOwnedBy(actor.ID) {
			return domain.NewAuthorizationFailure("not_owner", "only the requester or an administrator can modify this reservation")
		}
		if r.Status != domain.ReservationPending {
			return domain.NewStateFailure("not_pending",
				fmt.Sprintf("only pending reservations can be modified; this one is %s", r.Status))
		}

		owner := actor
		if !r.IsOwnedBy(actor.ID) {
			if owner, err = s.loadUser(ctx, r.RequesterID, "requester"); err != nil {
				return err
			}
		}
		if err := s.checkEligibility(ctx, owner); err != nil {
			return err
		}

		area, err := s.lockArea(ctx, r.AreaID)
		if err != nil {
			return err
		}
		// Reload under the area lock so a concurrent decision is not overwritten.
		if r, err = s.loadReservation(ctx, id); err != nil {
			return err
		}
		if r.Status != domain.ReservationPending {
			return domain.NewStateFailure("not_pending", "reservation was decided while being modified")
		}
		before := r.Clone()

		start, end := r.StartsAt, r.EndsAt
		if in.StartsAt != nil {
			start = *in.StartsAt
		}
		if in.EndsAt != nil {
			end = *in.EndsAt
		}
		window := domain.NewTimeWindow(start, end)
		if !start.Equal(r.StartsAt) || !end.Equal(r.EndsAt) {
			if window, err = s.validateWindow(start, end); err != nil {
				return err
			}
		}
		if err := s.ensureNoConflict(ctx, r.AreaID, window, &r.ID); err != nil {
			return err
		}

		r.StartsAt, r.EndsAt = window.Start, window.End
		if in.Title != nil {
			r.Title = strings.TrimSpace(*in.Title)
		}
		if in.Notes != nil {
			r.Notes = strings.TrimSpace(*in.Notes)
		}
		if r.PaymentStatus == domain.PaymentPending {
			quote := s.pricing.CalculateCost(area, owner.Role, r.StartsAt, r.EndsAt)
			r.Cost, r.Currency = quote.FinalCost, quote.Currency
		}
		r.UpdatedAt = now

		if err := s.reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if err := s.outbox.Enqueue(ctx, domain.NewReservationUpdatedEvent(actor.ID, isAdmin, before, r, now)); err != nil {
			return fmt.Errorf("enqueue updated event: %w", err)
		}

		r.Area = area
		r.Requester = owner
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CancelReservation enforces ownership and the notice period for requesters;
// admins bypass both.
func (s *ReservationService) CancelReservation(
	ctx context.Context,
	id, requesterID uuid.UUID,
	reason string,
	isAdmin bool,
) (res *domain.Reservation, err error) {
	defer func() { s.metrics.RecordOperation("cancel", err) }()

	now := s.clock.Now()
	var wasApproved bool
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.loadReservation(ctx, id)
		if err != nil {
			return err
		}
		if !isAdmin && !r.IsOwnedBy(requesterID) {
			return domain.NewAuthorizationFailure("not_owner", "you can only cancel your own reservations")
		}
		if !isAdmin && r.Status == domain.ReservationApproved {
			notice := time.Duration(s.policy.CancelBeforeHours) * time.Hour
			if r.StartsAt.Sub(now) < notice {
				return domain.NewValidationFailure("starts_at", "cancellation_notice",
					fmt.Sprintf("approved reservations must be cancelled at least %d hours before they start", s.policy.CancelBeforeHours))
			}
		}

		before := r.Clone()
		var reviewer *uuid.UUID
		if isAdmin {
			reviewer = &requesterID
		}
		if err := r.Cancel(reviewer, strings.TrimSpace(reason), now); err != nil {
			return err
		}
		if err := s.reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		ev := domain.NewReservationCancelledEvent(requesterID, isAdmin, before, r, r.DecisionReason, now)
		if err := s.outbox.Enqueue(ctx, ev); err != nil {
			return fmt.Errorf("enqueue cancelled event: %w", err)
		}
		wasApproved = before.Status == domain.ReservationApproved
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasApproved {
		s.invalidateAvailability(ctx, res.AreaID)
	}
	return res, nil
}

// ApproveReservation re-checks conflicts under the area lock: another
// reservation may have been approved since the admin loaded the list.
func (s *ReservationService) ApproveReservation(
	ctx context.Context,
	id, adminID uuid.UUID,
) (res *domain.Reservation, err error) {
	defer func() { s.metrics.RecordOperation("approve", err) }()

	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.loadReservation(ctx, id)
		if err != nil {
			return err
		}
		if err := requirePending(r); err != nil {
			return err
		}
		if _, err := s.lockArea(ctx, r.AreaID); err != nil {
			return err
		}
		if r, err = s.loadReservation(ctx, id); err != nil {
			return err
		}
		if err := requirePending(r); err != nil {
			return err
		}
		if err := s.ensureNoConflict(ctx, r.AreaID, r.Window(), &r.ID); err != nil {
			return err
		}

		if err := r.Approve(adminID, now); err != nil {
			return err
		}
		if err := s.reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if err := s.outbox.Enqueue(ctx, domain.NewReservationApprovedEvent(adminID, r, now)); err != nil {
			return fmt.Errorf("enqueue approved event: %w", err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, res.AreaID)
	s.logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("admin_id", adminID.String()).
		Msg("reservation approved")
	return res, nil
}

func (s *ReservationService) RejectReservation(
	ctx context.Context,
	id, adminID uuid.UUID,
	reason string,
) (res *domain.Reservation, err error) {
	defer func() { s.metrics.RecordOperation("reject", err) }()

	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.loadReservation(ctx, id)
		if err != nil {
			return err
		}
		if err := requirePending(r); err != nil {
			return err
		}
		if err := r.Reject(adminID, strings.TrimSpace(reason), now); err != nil {
			return err
		}
		if err := s.reservations.Update(ctx, r); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if err := s.outbox.Enqueue(ctx, domain.NewReservationRejectedEvent(adminID, r, r.DecisionReason, now)); err != nil {
			return fmt.Errorf("enqueue rejected event: %w", err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetAreaAvailability is read-only and needs no authorization.
func (s *ReservationService) GetAreaAvailability(
	ctx context.Context,
	areaID uuid.UUID,
	from, to time.Time,
	slotMinutes *int,
) (*domain.Availability, error) {
	return s.availability.GetAvailability(ctx, areaID, from, to, slotMinutes)
}

func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Area, err = s.areas.GetByID(ctx, r.AreaID); err != nil {
		return nil, fmt.Errorf("load area: %w", err)
	}
	if r.Requester, err = s.users.GetUser(ctx, r.RequesterID); err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}
	return r, nil
}

// QuoteReservation prices a prospective booking without validating policy.
func (s *ReservationService) QuoteReservation(
	ctx context.Context,
	areaID, requesterID uuid.UUID,
	startsAt, endsAt time.Time,
) (Quote, error) {
	if !endsAt.After(startsAt) {
		return Quote{}, domain.NewValidationFailure("ends_at", "end_before_start", "end must be after start")
	}
	requester, err := s.loadUser(ctx, requesterID, "user")
	if err != nil {
		return Quote{}, err
	}
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return Quote{}, fmt.Errorf("load area: %w", err)
	}
	if area == nil {
		return Quote{}, domain.NewNotFoundFailure("area", "area not found")
	}
	return s.pricing.CalculateCost(area, requester.Role, startsAt, endsAt), nil
}

func (s *ReservationService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.loadUser(ctx, userID, "user")
	if err != nil {
		return false, err
	}
	return u.Role.IsAdmin(), nil
}

// =========== helpers ===========

func (s *ReservationService) loadUser(ctx context.Context, id uuid.UUID, field string) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, domain.NewNotFoundFailure(field, "user not found")
	}
	return u, nil
}

func (s *ReservationService) loadReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return nil, domain.NewNotFoundFailure("reservation", "reservation not found")
	}
	return r, nil
}

func (s *ReservationService) lockArea(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	area, err := s.areas.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock area: %w", err)
	}
	if area == nil {
		return nil, domain.NewNotFoundFailure("area", "area not found")
	}
	return area, nil
}

func (s *ReservationService) requireAdmin(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.loadUser(ctx, id, "admin")
	if err != nil {
		return nil, err
	}
	if !u.Role.IsAdmin() {
		return nil, domain.NewAuthorizationFailure("admin_required", "only administrators can review reservations")
	}
	return u, nil
}

func requirePending(r *domain.Reservation) error {
	if r.Status != domain.ReservationPending {
		return domain.NewStateFailure("not_pending",
			fmt.Sprintf("reservation is %s; only pending reservations can be reviewed", r.Status))
	}
	return nil
}

func (s *ReservationService) checkEligibility(ctx context.Context, u *domain.User) error {
	if !s.policy.roleAllowed(u.Role) {
		return domain.NewValidationFailure("user", "role_not_allowed", "your role is not allowed to request reservations")
	}
	if !u.IsSolvent() {
		return domain.NewValidationFailure("user", "user_not_solvent", "you must be current with your dues to request reservations")
	}
	if !u.Role.NeedsResponsibleMember() || u.ResponsibleEmail == "" {
		return nil
	}

	member, err := s.users.FindByEmail(ctx, u.ResponsibleEmail)
	if err != nil {
		return fmt.Errorf("load responsible member: %w", err)
	}
	switch {
	case member == nil:
		return domain.NewValidationFailure("responsible_email", "responsible_not_found", "the responsible member does not exist")
	case member.Role != domain.RoleMember:
		return domain.NewValidationFailure("responsible_email", "responsible_not_member", "the responsible person is not a member")
	case !member.IsSolvent():
		return domain.NewValidationFailure("responsible_email", "responsible_not_solvent", "the responsible member is not current with dues")
	}
	return nil
}

func (s *ReservationService) validateWindow(startsAt, endsAt time.Time) (domain.TimeWindow, error) {
	if startsAt.IsZero() {
		return domain.TimeWindow{}, domain.NewValidationFailure("starts_at", "required", "start time is required")
	}
	if endsAt.IsZero() {
		return domain.TimeWindow{}, domain.NewValidationFailure("ends_at", "required", "end time is required")
	}

	w := domain.NewTimeWindow(startsAt, endsAt)
	now := s.clock.Now()
	p := s.policy

	if !w.End.After(w.Start) {
		return w, domain.NewValidationFailure("ends_at", "end_before_start", "end must be after start")
	}
	if !domain.IsFuture(w.Start, now) {
		return w, domain.NewValidationFailure("starts_at", "start_in_past", "start must be in the future")
	}
	if w.Start.Before(now.Add(time.Duration(p.MinAdvanceHours) * time.Hour)) {
		return w, domain.NewValidationFailure("starts_at", "insufficient_notice",
			fmt.Sprintf("reservations must be requested at least %d hours in advance", p.MinAdvanceHours))
	}
	if w.Start.After(now.AddDate(0, 0, p.MaxAdvanceDays)) {
		return w, domain.NewValidationFailure("starts_at", "too_far_ahead",
			fmt.Sprintf("reservations can be requested at most %d days in advance", p.MaxAdvanceDays))
	}
	if domain.DurationHours(w.Start, w.End) > float64(p.MaxDurationHours) {
		return w, domain.NewValidationFailure("ends_at", "duration_exceeded",
			fmt.Sprintf("reservations cannot last more than %d hours", p.MaxDurationHours))
	}
	return w, nil
}

func (s *ReservationService) ensureNoConflict(ctx context.Context, areaID uuid.UUID, w domain.TimeWindow, exclude *uuid.UUID) error {
	blocks, err := s.conflicts.FindConflicts(ctx, areaID, w.Start, w.End, exclude)
	if err != nil {
		return err
	}
	if len(blocks) > 0 {
		return domain.NewConflictFailure("the area is already booked during the requested time", blocks)
	}
	return nil
}

// invalidateAvailability runs after commit; a failure only costs a stale read until the TTL.
func (s *ReservationService) invalidateAvailability(ctx context.Context, areaID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateArea(ctx, areaID); err != nil {
		s.logger.Warn().Err(err).Str("area_id", areaID.String()).Msg("availability cache invalidation failed")
	}
}
