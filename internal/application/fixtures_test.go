package application

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/memory"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func on(day time.Time, hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store   *memory.Store
	clock   *testClock
	svc     *ReservationService
	area    *domain.Area
	member  *domain.User
	other   *domain.User
	admin   *domain.User
	tuesday time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &testClock{now: on(monday, 8, 0)}

	area := store.AddArea(domain.Area{
		Name:                  "Cancha de tenis 1",
		Reservable:            true,
		Active:                true,
		HourlyRate:            decimal.NewFromInt(10),
		MemberDiscountPercent: decimal.NewFromInt(20),
		Currency:              "MXN",
	})
	for day := 1; day <= 7; day++ {
		store.AddAreaSchedule(domain.AreaSchedule{
			AreaID:    area.ID,
			DayOfWeek: day,
			StartTime: domain.MustClockTime("07:00"),
			EndTime:   domain.MustClockTime("22:00"),
			IsOpen:    true,
		})
	}

	f := &fixture{
		store:   store,
		clock:   clock,
		area:    area,
		member:  store.AddUser(domain.User{Name: "Ana", Email: "ana@club.mx", Role: domain.RoleMember, Status: domain.UserSolvent}),
		other:   store.AddUser(domain.User{Name: "Luis", Email: "luis@club.mx", Role: domain.RoleMember, Status: domain.UserSolvent}),
		admin:   store.AddUser(domain.User{Name: "Admin", Email: "admin@club.mx", Role: domain.RoleAdmin, Status: domain.UserSolvent}),
		tuesday: monday.AddDate(0, 0, 1),
	}
	f.svc = NewReservationService(ReservationServiceDeps{
		UnitOfWork:   store,
		Users:        store,
		Areas:        store,
		Schedules:    store,
		Reservations: store.Reservations(),
		Invoices:     store,
		Outbox:       NewOutboxWriter(store.Outbox(), clock),
	}, WithClock(clock))
	return f
}

func (f *fixture) input(start, end time.Time) CreateReservationInput {
	return CreateReservationInput{AreaID: f.area.ID, StartsAt: start, EndsAt: end, Title: "Partido"}
}
