package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Area is a reservable space of the club (court, pool, hall...).
type Area struct {
	ID                    uuid.UUID
	Name                  string
	Reservable            bool
	Active                bool
	HourlyRate            decimal.Decimal
	MemberDiscountPercent decimal.Decimal
	Currency              string
	FreeForMembers        bool
}

// AcceptsReservations is false for areas that are inactive or not flagged reservable.
func (a *Area) AcceptsReservations() bool {
	return a.Reservable && a.Active
}

// ClockTime is a time of day expressed in minutes since midnight.
type ClockTime int

// EndOfDay is the "24:00" that closes a window at midnight.
const EndOfDay ClockTime = 24 * 60

// ParseClockTime accepts "HH:MM" or "HH:MM:SS" (the seconds are ignored).
// "24:00" and "24:00:00" parse as EndOfDay, as Postgres time allows.
func ParseClockTime(s string) (ClockTime, error) {
	if s == "24:00" || s == "24:00:00" {
		return EndOfDay, nil
	}
	layout := "15:04"
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On places the time of day on the calendar date of day, in day's location.
// The wall clock is kept on DST transition days; EndOfDay is the next midnight.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

// IsoWeekday maps time.Weekday to 1 (Monday) .. 7 (Sunday).
func IsoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AreaSchedule is one weekly operating window of an area.
type AreaSchedule struct {
	ID        uuid.UUID
	AreaID    uuid.UUID
	DayOfWeek int
	StartTime ClockTime
	EndTime   ClockTime
	IsOpen    bool
}

// WindowOn returns the concrete window for the given calendar day.
func (s AreaSchedule) WindowOn(day time.Time) TimeWindow {
	return NewTimeWindow(s.StartTime.On(day), s.EndTime.On(day))
}

// AcademySchedule is a weekly block an academy holds inside an area.
type AcademySchedule struct {
	ID        uuid.UUID
	AcademyID uuid.UUID
	AreaID    uuid.UUID
	DayOfWeek int
	StartTime ClockTime
	EndTime   ClockTime
	Capacity  int
}

// Occurrences expands the weekly block into concrete windows that intersect
// [from, to). Calendar days are evaluated in loc.
func (s AcademySchedule) Occurrences(from, to time.Time, loc *time.Location) []TimeWindow {
	if !to.After(from) {
		return nil
	}
	var out []TimeWindow
	day := startOfDay(from.In(loc))
	last := startOfDay(to.In(loc))
	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if IsoWeekday(day) != s.DayOfWeek {
			continue
		}
		w := NewTimeWindow(s.StartTime.On(day), s.EndTime.On(day))
		if w.IsEmpty() {
			continue
		}
		if Overlaps(w.Start, w.End, from, to) {
			out = append(out, w)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
