package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/infrastructure/observability"
)

// AvailabilityCalculator builds the calendar view of an area: operating
// hours minus approved reservations and academy sessions. It never writes.
type AvailabilityCalculator struct {
	areas        domain.AreaRepository
	schedules    domain.ScheduleRepository
	reservations domain.ReservationRepository
	cache        domain.AvailabilityCache
	policy       Policy
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

func NewAvailabilityCalculator(
	areas domain.AreaRepository,
	schedules domain.ScheduleRepository,
	reservations domain.ReservationRepository,
	policy Policy,
) *AvailabilityCalculator {
	return &AvailabilityCalculator{
		areas:        areas,
		schedules:    schedules,
		reservations: reservations,
		policy:       policy,
		logger:       zerolog.Nop(),
	}
}

func (a *AvailabilityCalculator) WithCache(cache domain.AvailabilityCache) *AvailabilityCalculator {
	a.cache = cache
	return a
}

func (a *AvailabilityCalculator) WithObservability(logger zerolog.Logger, metrics *observability.Metrics) *AvailabilityCalculator {
	a.logger = logger.With().Str("component", "availability").Logger()
	a.metrics = metrics
	return a
}

// GetAvailability computes availability for every calendar day in [from, to].
// slotMinutes nil returns whole free intervals; a pointer to 0 selects the
// default slot size.
func (a *AvailabilityCalculator) GetAvailability(
	ctx context.Context,
	areaID uuid.UUID,
	from, to time.Time,
	slotMinutes *int,
) (*domain.Availability, error) {
	started := time.Now()

	slot, err := a.resolveSlot(slotMinutes)
	if err != nil {
		return nil, err
	}
	rng, err := a.resolveRange(from, to)
	if err != nil {
		return nil, err
	}

	area, err := a.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("load area: %w", err)
	}
	if area == nil {
		return nil, domain.NewNotFoundFailure("area", "area not found")
	}

	key := domain.AvailabilityKey{AreaID: areaID, From: rng.Start, To: rng.End, SlotMinutes: slot}
	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, key); ok {
			a.metrics.RecordAvailability(time.Since(started), true)
			return cached, nil
		}
	}

	operating, err := a.operatingHours(ctx, areaID, rng)
	if err != nil {
		return nil, err
	}
	blocks, err := a.blocks(ctx, areaID, rng)
	if err != nil {
		return nil, err
	}

	free := make([]domain.TimeWindow, 0)
	for _, window := range operating {
		for _, gap := range SubtractBlocks(window, blocks) {
			if slot > 0 {
				free = append(free, gap.Slice(time.Duration(slot)*time.Minute)...)
				continue
			}
			free = append(free, gap)
		}
	}

	result := &domain.Availability{
		Area:           domain.AreaSummary{ID: area.ID, Name: area.Name, Currency: area.Currency},
		Range:          rng,
		SlotMinutes:    slot,
		OperatingHours: operating,
		Blocks:         blocks,
		FreeSlots:      free,
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, result); err != nil {
			a.logger.Warn().Err(err).Str("area_id", areaID.String()).Msg("availability cache write failed")
		}
	}
	a.metrics.RecordAvailability(time.Since(started), false)
	return result, nil
}

func (a *AvailabilityCalculator) resolveSlot(slotMinutes *int) (int, error) {
	if slotMinutes == nil {
		return 0, nil
	}
	slot := *slotMinutes
	if slot == 0 {
		slot = a.policy.DefaultSlotMinutes
	}
	if slot < a.policy.MinSlotMinutes || slot > a.policy.MaxSlotMinutes {
		return 0, domain.NewValidationFailure("slot_minutes", "slot_out_of_range",
			fmt.Sprintf("slot size must be between %d and %d minutes", a.policy.MinSlotMinutes, a.policy.MaxSlotMinutes))
	}
	return slot, nil
}

// resolveRange turns the inclusive day range into [first midnight, midnight after last day).
func (a *AvailabilityCalculator) resolveRange(from, to time.Time) (domain.TimeWindow, error) {
	if from.IsZero() {
		return domain.TimeWindow{}, domain.NewValidationFailure("from", "required", "from date is required")
	}
	if to.IsZero() {
		return domain.TimeWindow{}, domain.NewValidationFailure("to", "required", "to date is required")
	}
	loc := a.policy.location()
	first := dayStart(from.In(loc))
	last := dayStart(to.In(loc))
	if last.Before(first) {
		return domain.TimeWindow{}, domain.NewValidationFailure("to", "range_inverted", "to date must not be before from date")
	}
	days := daysBetween(first, last) + 1
	if a.policy.MaxRangeDays > 0 && days > a.policy.MaxRangeDays {
		return domain.TimeWindow{}, domain.NewValidationFailure("to", "range_too_long",
			fmt.Sprintf("availability can be requested for at most %d days", a.policy.MaxRangeDays))
	}
	return domain.NewTimeWindow(first, last.AddDate(0, 0, 1)), nil
}

func (a *AvailabilityCalculator) operatingHours(ctx context.Context, areaID uuid.UUID, rng domain.TimeWindow) ([]domain.TimeWindow, error) {
	schedules, err := a.schedules.ListAreaSchedules(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("list area schedules: %w", err)
	}
	byDay := make(map[int][]domain.AreaSchedule, 7)
	for _, s := range schedules {
		if s.IsOpen {
			byDay[s.DayOfWeek] = append(byDay[s.DayOfWeek], s)
		}
	}

	loc := a.policy.location()
	out := make([]domain.TimeWindow, 0)
	for day := rng.Start.In(loc); day.Before(rng.End); day = day.AddDate(0, 0, 1) {
		var windows []domain.TimeWindow
		for _, s := range byDay[domain.IsoWeekday(day)] {
			if w := s.WindowOn(day); !w.IsEmpty() {
				windows = append(windows, w)
			}
		}
		out = append(out, MergeWindows(windows)...)
	}
	return out, nil
}

func (a *AvailabilityCalculator) blocks(ctx context.Context, areaID uuid.UUID, rng domain.TimeWindow) ([]domain.Block, error) {
	approved, err := a.reservations.ListOverlapping(ctx, domain.ReservationQuery{
		AreaID:   areaID,
		From:     rng.Start,
		To:       rng.End,
		Statuses: []domain.ReservationStatus{domain.ReservationApproved},
	})
	if err != nil {
		return nil, fmt.Errorf("list approved reservations: %w", err)
	}
	blocks := make([]domain.Block, 0, len(approved))
	for _, r := range approved {
		blocks = append(blocks, domain.Block{Kind: domain.BlockReservation, ReferenceID: r.ID, Window: r.Window()})
	}

	academies, err := a.schedules.ListAcademySchedules(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("list academy schedules: %w", err)
	}
	for _, s := range academies {
		for _, w := range s.Occurrences(rng.Start, rng.End, a.policy.location()) {
			blocks = append(blocks, domain.Block{Kind: domain.BlockAcademy, ReferenceID: s.ID, Window: w})
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Window.Start.Before(blocks[j].Window.Start)
	})
	return blocks, nil
}

// MergeWindows unions overlapping or touching windows. The result is sorted.
func MergeWindows(windows []domain.TimeWindow) []domain.TimeWindow {
	if len(windows) == 0 {
		return nil
	}
	sorted := make([]domain.TimeWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []domain.TimeWindow{sorted[0]}
	for _, w := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// SubtractBlocks returns the parts of window not covered by blocks. Blocks
// must be sorted by start; the running maximum end keeps nested or
// overlapping blocks from opening false gaps.
func SubtractBlocks(window domain.TimeWindow, blocks []domain.Block) []domain.TimeWindow {
	var free []domain.TimeWindow
	cursor := window.Start
	for _, b := range blocks {
		if !b.Window.End.After(window.Start) || !b.Window.Start.Before(window.End) {
			continue
		}
		if b.Window.Start.After(cursor) {
			free = append(free, domain.TimeWindow{Start: cursor, End: b.Window.Start})
		}
		if b.Window.End.After(cursor) {
			cursor = b.Window.End
		}
	}
	if window.End.After(cursor) {
		free = append(free, domain.TimeWindow{Start: cursor, End: window.End})
	}
	return free
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
