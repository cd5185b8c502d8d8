package application

import (
	"time"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// Policy holds the booking rules the lifecycle enforces.
type Policy struct {
	MinAdvanceHours    int
	MaxAdvanceDays     int
	MaxDurationHours   int
	CancelBeforeHours  int
	DefaultSlotMinutes int
	MinSlotMinutes     int
	MaxSlotMinutes     int
	MaxRangeDays       int
	AllowedRoles       []domain.Role
	Location           *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		MinAdvanceHours:    2,
		MaxAdvanceDays:     30,
		MaxDurationHours:   8,
		CancelBeforeHours:  24,
		DefaultSlotMinutes: 60,
		MinSlotMinutes:     15,
		MaxSlotMinutes:     480,
		MaxRangeDays:       31,
		AllowedRoles:       domain.DefaultAllowedRoles(),
		Location:           time.UTC,
	}
}

func (p Policy) roleAllowed(r domain.Role) bool {
	for _, allowed := range p.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
