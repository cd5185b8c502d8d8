package domain

import (
	"github.com/google/uuid"
)

type BlockKind string

const (
	BlockReservation BlockKind = "reservation"
	BlockAcademy     BlockKind = "academy"
)

// Block is an interval that removes time from an area's availability.
type Block struct {
	Kind        BlockKind  `json:"kind"`
	ReferenceID uuid.UUID  `json:"referenceId"`
	Window      TimeWindow `json:"window"`
}

type AreaSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Currency string    `json:"currency,omitempty"`
}

// Availability is the calendar view of an area over a range of days.
type Availability struct {
	Area           AreaSummary  `json:"area"`
	Range          TimeWindow   `json:"range"`
	SlotMinutes    int          `json:"slotMinutes,omitempty"`
	OperatingHours []TimeWindow `json:"operatingHours"`
	Blocks         []Block      `json:"blocks"`
	FreeSlots      []TimeWindow `json:"freeSlots"`
}
