package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// Store is an in-process backend implementing every repository port. It is
// used by tests and by BACKEND=memory; nothing survives a restart.
type Store struct {
	txMu sync.Mutex // serializes units of work, standing in for row locks

	mu                sync.RWMutex
	users             map[uuid.UUID]*domain.User
	areas             map[uuid.UUID]*domain.Area
	areaSchedules     map[uuid.UUID][]domain.AreaSchedule
	academySchedules  map[uuid.UUID][]domain.AcademySchedule
	reservations      map[uuid.UUID]*domain.Reservation
	invoices          map[uuid.UUID]Invoice
	outbox            []domain.OutboxMessage
	audit             []domain.AuditEntry
	failInsertOutbox  error
	failInsertInvoice error
}

type Invoice struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	AreaID   uuid.UUID
	Date     time.Time
	Amount   string
	Paid     bool
	IssuedAt time.Time
}

func NewStore() *Store {
	return &Store{
		users:            make(map[uuid.UUID]*domain.User),
		areas:            make(map[uuid.UUID]*domain.Area),
		areaSchedules:    make(map[uuid.UUID][]domain.AreaSchedule),
		academySchedules: make(map[uuid.UUID][]domain.AcademySchedule),
		reservations:     make(map[uuid.UUID]*domain.Reservation),
		invoices:         make(map[uuid.UUID]Invoice),
	}
}

// =========== seeding ===========

func (s *Store) AddUser(u domain.User) *domain.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
	cp := u
	return &cp
}

func (s *Store) AddArea(a domain.Area) *domain.Area {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas[a.ID] = &a
	cp := a
	return &cp
}

func (s *Store) AddAreaSchedule(sch domain.AreaSchedule) {
	if sch.ID == uuid.Nil {
		sch.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areaSchedules[sch.AreaID] = append(s.areaSchedules[sch.AreaID], sch)
}

func (s *Store) AddAcademySchedule(sch domain.AcademySchedule) {
	if sch.ID == uuid.Nil {
		sch.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.academySchedules[sch.AreaID] = append(s.academySchedules[sch.AreaID], sch)
}

// FailOutboxInserts makes every later outbox insert return err. Pass nil to reset.
func (s *Store) FailOutboxInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsertOutbox = err
}

func (s *Store) FailInvoices(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsertInvoice = err
}

// =========== inspection ===========

func (s *Store) ReservationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reservations)
}

func (s *Store) Invoices() []Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, inv)
	}
	return out
}

func (s *Store) OutboxMessages() []domain.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OutboxMessage(nil), s.outbox...)
}

func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

// =========== UnitOfWork ===========

type txKey struct{}

// WithinTx runs fn exclusively. On error every write made by fn is undone.
// Nested calls join the outer unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	savedReservations := make(map[uuid.UUID]*domain.Reservation, len(s.reservations))
	for id, r := range s.reservations {
		savedReservations[id] = r
	}
	savedInvoices := make(map[uuid.UUID]Invoice, len(s.invoices))
	for id, inv := range s.invoices {
		savedInvoices[id] = inv
	}
	savedOutbox := len(s.outbox)
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.reservations = savedReservations
		s.invoices = savedInvoices
		s.outbox = s.outbox[:savedOutbox]
		s.mu.Unlock()
		return err
	}
	return nil
}

// =========== UserDirectory ===========

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// =========== AreaRepository ===========

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.areas[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// GetForUpdate needs no lock of its own: the caller already holds txMu.
func (s *Store) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	return s.GetByID(ctx, id)
}

// =========== ScheduleRepository ===========

func (s *Store) ListAreaSchedules(ctx context.Context, areaID uuid.UUID) ([]domain.AreaSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AreaSchedule(nil), s.areaSchedules[areaID]...), nil
}

func (s *Store) ListAcademySchedules(ctx context.Context, areaID uuid.UUID) ([]domain.AcademySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AcademySchedule(nil), s.academySchedules[areaID]...), nil
}

// =========== ReservationRepository ===========

// Reservations exposes the store as a ReservationRepository. Its GetByID
// would otherwise collide with the area lookup.
func (s *Store) Reservations() domain.ReservationRepository {
	return reservationRepo{s}
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return res.Clone(), nil
}

func (r reservationRepo) Insert(ctx context.Context, res *domain.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.reservations[res.ID]; exists {
		return errors.New("reservation already exists")
	}
	r.s.reservations[res.ID] = res.Clone()
	return nil
}

func (r reservationRepo) Update(ctx context.Context, res *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.reservations[res.ID]; !exists {
		return errors.New("reservation not found")
	}
	r.s.reservations[res.ID] = res.Clone()
	return nil
}

func (r reservationRepo) ListOverlapping(ctx context.Context, q domain.ReservationQuery) ([]*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Reservation
	for _, res := range r.s.reservations {
		if res.AreaID != q.AreaID {
			continue
		}
		if q.ExcludeID != nil && res.ID == *q.ExcludeID {
			continue
		}
		if !hasStatus(q.Statuses, res.Status) {
			continue
		}
		if !domain.Overlaps(q.From, q.To, res.StartsAt, res.EndsAt) {
			continue
		}
		out = append(out, res.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func hasStatus(statuses []domain.ReservationStatus, st domain.ReservationStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// =========== InvoiceService ===========

func (s *Store) CreateZeroCostInvoice(ctx context.Context, userID, areaID uuid.UUID, date time.Time) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertInvoice != nil {
		return uuid.Nil, s.failInsertInvoice
	}
	inv := Invoice{
		ID:       uuid.New(),
		UserID:   userID,
		AreaID:   areaID,
		Date:     date.UTC(),
		Amount:   "0.00",
		Paid:     true,
		IssuedAt: time.Now().UTC(),
	}
	s.invoices[inv.ID] = inv
	return inv.ID, nil
}

// =========== AuditLogger ===========

func (s *Store) LogAction(ctx context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.EventID != uuid.Nil {
		for _, e := range s.audit {
			if e.EventID == entry.EventID {
				return nil
			}
		}
	}
	s.audit = append(s.audit, entry)
	return nil
}
