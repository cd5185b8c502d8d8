package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// Users

type PgUserDirectory struct {
	db *sql.DB
}

func NewPgUserDirectory(db *sql.DB) *PgUserDirectory {
	return &PgUserDirectory{db: db}
}

const userColumns = `id, name, email, role, status, coalesce(responsible_email, '')`

func (r *PgUserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	q := `select ` + userColumns + ` from users where id = $1`
	return scanUser(conn(ctx, r.db).QueryRowContext(ctx, q, id))
}

func (r *PgUserDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `select ` + userColumns + ` from users where lower(email) = lower($1)`
	return scanUser(conn(ctx, r.db).QueryRowContext(ctx, q, strings.TrimSpace(email)))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var role, status string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &status, &u.ResponsibleEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if u.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	if u.Status, err = domain.ParseUserStatus(status); err != nil {
		return nil, err
	}
	return &u, nil
}

// Areas

type PgAreaRepository struct {
	db *sql.DB
}

func NewPgAreaRepository(db *sql.DB) *PgAreaRepository {
	return &PgAreaRepository{db: db}
}

const areaSelect = `
        select id, name, reservable, active, hourly_rate,
               member_discount_percent, currency, free_for_members
        from areas
        where id = $1
    `

func (r *PgAreaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	return scanArea(conn(ctx, r.db).QueryRowContext(ctx, areaSelect, id))
}

// GetForUpdate takes a row lock on the area; it must run inside WithinTx.
func (r *PgAreaRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	return scanArea(conn(ctx, r.db).QueryRowContext(ctx, areaSelect+` for update`, id))
}

func scanArea(row *sql.Row) (*domain.Area, error) {
	var a domain.Area
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Reservable,
		&a.Active,
		&a.HourlyRate,
		&a.MemberDiscountPercent,
		&a.Currency,
		&a.FreeForMembers,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Schedules

type PgScheduleRepository struct {
	db *sql.DB
}

func NewPgScheduleRepository(db *sql.DB) *PgScheduleRepository {
	return &PgScheduleRepository{db: db}
}

func (r *PgScheduleRepository) ListAreaSchedules(ctx context.Context, areaID uuid.UUID) ([]domain.AreaSchedule, error) {
	q := `
        select id, area_id, day_of_week, start_time::text, end_time::text, is_open
        from area_schedules
        where area_id = $1
        order by day_of_week, start_time
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AreaSchedule
	for rows.Next() {
		var s domain.AreaSchedule
		var start, end string
		if err := rows.Scan(&s.ID, &s.AreaID, &s.DayOfWeek, &start, &end, &s.IsOpen); err != nil {
			return nil, err
		}
		if s.StartTime, s.EndTime, err = parseClockRange(start, end); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *PgScheduleRepository) ListAcademySchedules(ctx context.Context, areaID uuid.UUID) ([]domain.AcademySchedule, error) {
	q := `
        select id, academy_id, area_id, day_of_week, start_time::text, end_time::text, capacity
        from academy_schedules
        where area_id = $1
        order by day_of_week, start_time
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AcademySchedule
	for rows.Next() {
		var s domain.AcademySchedule
		var start, end string
		if err := rows.Scan(&s.ID, &s.AcademyID, &s.AreaID, &s.DayOfWeek, &start, &end, &s.Capacity); err != nil {
			return nil, err
		}
		if s.StartTime, s.EndTime, err = parseClockRange(start, end); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func parseClockRange(start, end string) (domain.ClockTime, domain.ClockTime, error) {
	s, err := domain.ParseClockTime(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := domain.ParseClockTime(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}

// Reservations

type PgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) *PgReservationRepository {
	return &PgReservationRepository{db: db}
}

const reservationColumns = `
        id, requester_id, area_id, starts_at, ends_at, status,
        coalesce(title, ''), coalesce(notes, ''), coalesce(decision_reason, ''),
        approved_by, reviewed_at, payment_status, invoice_id,
        cost, currency, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var status, payment string
	var approvedBy, invoiceID uuid.NullUUID
	var reviewedAt sql.NullTime
	if err := row.Scan(
		&res.ID,
		&res.RequesterID,
		&res.AreaID,
		&res.StartsAt,
		&res.EndsAt,
		&status,
		&res.Title,
		&res.Notes,
		&res.DecisionReason,
		&approvedBy,
		&reviewedAt,
		&payment,
		&invoiceID,
		&res.Cost,
		&res.Currency,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if res.Status, err = domain.ParseReservationStatus(status); err != nil {
		return nil, err
	}
	if res.PaymentStatus, err = domain.ParsePaymentStatus(payment); err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		id := approvedBy.UUID
		res.ApprovedBy = &id
	}
	if invoiceID.Valid {
		id := invoiceID.UUID
		res.InvoiceID = &id
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		res.ReviewedAt = &t
	}
	res.StartsAt = res.StartsAt.UTC()
	res.EndsAt = res.EndsAt.UTC()
	return &res, nil
}

func (r *PgReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	q := `select ` + reservationColumns + ` from reservations where id = $1`
	res, err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

func (r *PgReservationRepository) Insert(ctx context.Context, res *domain.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	q := `
        insert into reservations
        (id, requester_id, area_id, starts_at, ends_at, status, title, notes, decision_reason,
         approved_by, reviewed_at, payment_status, invoice_id, cost, currency, created_at, updated_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    `
	_, err := conn(ctx, r.db).ExecContext(
		ctx, q,
		res.ID,
		res.RequesterID,
		res.AreaID,
		res.StartsAt,
		res.EndsAt,
		string(res.Status),
		res.Title,
		res.Notes,
		res.DecisionReason,
		nullUUID(res.ApprovedBy),
		nullTime(res.ReviewedAt),
		string(res.PaymentStatus),
		nullUUID(res.InvoiceID),
		res.Cost,
		res.Currency,
		res.CreatedAt,
		res.UpdatedAt,
	)
	return err
}

func (r *PgReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	q := `
        update reservations
        set starts_at = $2,
            ends_at = $3,
            status = $4,
            title = $5,
            notes = $6,
            decision_reason = $7,
            approved_by = $8,
            reviewed_at = $9,
            payment_status = $10,
            invoice_id = $11,
            cost = $12,
            currency = $13,
            updated_at = $14
        where id = $1
    `
	result, err := conn(ctx, r.db).ExecContext(
		ctx, q,
		res.ID,
		res.StartsAt,
		res.EndsAt,
		string(res.Status),
		res.Title,
		res.Notes,
		res.DecisionReason,
		nullUUID(res.ApprovedBy),
		nullTime(res.ReviewedAt),
		string(res.PaymentStatus),
		nullUUID(res.InvoiceID),
		res.Cost,
		res.Currency,
		res.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reservation %s not found", res.ID)
	}
	return nil
}

func (r *PgReservationRepository) ListOverlapping(ctx context.Context, q domain.ReservationQuery) ([]*domain.Reservation, error) {
	statuses := make([]string, 0, len(q.Statuses))
	for _, s := range q.Statuses {
		statuses = append(statuses, string(s))
	}

	// Half-open overlap: existing.start < to and from < existing.end.
	query := `select ` + reservationColumns + `
        from reservations
        where area_id = $1
          and starts_at < $3
          and ends_at > $2
          and (cardinality($4::text[]) = 0 or status = any($4::text[]))
          and ($5::uuid is null or id <> $5::uuid)
        order by starts_at
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, q.AreaID, q.From, q.To, statuses, nullUUID(q.ExcludeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Invoices

type PgInvoiceService struct {
	db *sql.DB
}

func NewPgInvoiceService(db *sql.DB) *PgInvoiceService {
	return &PgInvoiceService{db: db}
}

// CreateZeroCostInvoice records an already-paid invoice for free member use.
func (s *PgInvoiceService) CreateZeroCostInvoice(ctx context.Context, userID, areaID uuid.UUID, date time.Time) (uuid.UUID, error) {
	id := uuid.New()
	q := `
        insert into invoices (id, user_id, area_id, service_date, amount, status, issued_at)
        values ($1,$2,$3,$4,$5,'paid',$6)
    `
	if _, err := conn(ctx, s.db).ExecContext(
		ctx, q,
		id, userID, areaID, date.UTC().Format("2006-01-02"), decimal.Zero, time.Now().UTC(),
	); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Audit

type PgAuditLogger struct {
	db *sql.DB
}

func NewPgAuditLogger(db *sql.DB) *PgAuditLogger {
	return &PgAuditLogger{db: db}
}

func (l *PgAuditLogger) LogAction(ctx context.Context, entry domain.AuditEntry) error {
	before, err := snapshotJSON(entry.Before)
	if err != nil {
		return err
	}
	after, err := snapshotJSON(entry.After)
	if err != nil {
		return err
	}
	q := `
        insert into audit_logs (id, event_id, actor_id, entity_type, entity_id, action, before_json, after_json, created_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        on conflict (event_id) do nothing
    `
	_, err = conn(ctx, l.db).ExecContext(
		ctx, q,
		uuid.New(), uuid.NullUUID{UUID: entry.EventID, Valid: entry.EventID != uuid.Nil}, entry.ActorID, entry.EntityType, entry.EntityID, entry.Action, before, after, entry.At.UTC(),
	)
	return err
}

func snapshotJSON(s *domain.ReservationSnapshot) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
