package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// ConflictChecker finds approved reservations and academy sessions that
// overlap a candidate window in an area.
type ConflictChecker struct {
	reservations domain.ReservationRepository
	schedules    domain.ScheduleRepository
	loc          *time.Location
}

func NewConflictChecker(
	reservations domain.ReservationRepository,
	schedules domain.ScheduleRepository,
	loc *time.Location,
) *ConflictChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &ConflictChecker{
		reservations: reservations,
		schedules:    schedules,
		loc:          loc,
	}
}

// FindConflicts returns every block overlapping [startsAt, endsAt).
// excludeID skips one reservation (the one being updated); academy
// blocks are never excluded.
func (c *ConflictChecker) FindConflicts(
	ctx context.Context,
	areaID uuid.UUID,
	startsAt, endsAt time.Time,
	excludeID *uuid.UUID,
) ([]domain.Block, error) {
	approved, err := c.reservations.ListOverlapping(ctx, domain.ReservationQuery{
		AreaID:    areaID,
		From:      startsAt,
		To:        endsAt,
		Statuses:  []domain.ReservationStatus{domain.ReservationApproved},
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, fmt.Errorf("list overlapping reservations: %w", err)
	}

	var blocks []domain.Block
	for _, r := range approved {
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if !domain.Overlaps(startsAt, endsAt, r.StartsAt, r.EndsAt) {
			continue
		}
		blocks = append(blocks, domain.Block{
			Kind:        domain.BlockReservation,
			ReferenceID: r.ID,
			Window:      r.Window(),
		})
	}

	academies, err := c.schedules.ListAcademySchedules(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("list academy schedules: %w", err)
	}
	for _, a := range academies {
		for _, w := range a.Occurrences(startsAt, endsAt, c.loc) {
			blocks = append(blocks, domain.Block{
				Kind:        domain.BlockAcademy,
				ReferenceID: a.ID,
				Window:      w,
			})
		}
	}
	return blocks, nil
}

func (c *ConflictChecker) HasConflict(
	ctx context.Context,
	areaID uuid.UUID,
	startsAt, endsAt time.Time,
	excludeID *uuid.UUID,
) (bool, error) {
	blocks, err := c.FindConflicts(ctx, areaID, startsAt, endsAt, excludeID)
	if err != nil {
		return false, err
	}
	return len(blocks) > 0, nil
}
