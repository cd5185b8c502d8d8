package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// Quote is the cost breakdown of a reservation. Amounts are rounded to cents.
type Quote struct {
	BaseCost  decimal.Decimal `json:"baseCost"`
	Discount  decimal.Decimal `json:"discount"`
	FinalCost decimal.Decimal `json:"finalCost"`
	Currency  string          `json:"currency"`
	Hours     float64         `json:"hours"`
}

var (
	secondsPerHour = decimal.New(3600, 0)
	hundred        = decimal.New(100, 0)
)

type PricingCalculator struct{}

func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{}
}

// CalculateCost prices the window for a requester of the given role.
// Free-for-members wins over the percentage discount.
func (pc *PricingCalculator) CalculateCost(area *domain.Area, role domain.Role, startsAt, endsAt time.Time) Quote {
	hours := domain.DurationHours(startsAt, endsAt)
	if area == nil || hours <= 0 {
		return pc.quote(decimal.Zero, decimal.Zero, currencyOf(area), hours)
	}

	// Exact hours from seconds so 1h50m does not pick up float noise.
	exactHours := decimal.New(int64(endsAt.Sub(startsAt)/time.Second), 0).Div(secondsPerHour)
	base := area.HourlyRate.Mul(exactHours)

	switch {
	case role == domain.RoleMember && area.FreeForMembers:
		return pc.quote(base, base, area.Currency, hours)
	case role == domain.RoleMember && area.MemberDiscountPercent.IsPositive():
		discount := base.Mul(area.MemberDiscountPercent).Div(hundred)
		return pc.quote(base, discount, area.Currency, hours)
	default:
		return pc.quote(base, decimal.Zero, area.Currency, hours)
	}
}

func (pc *PricingCalculator) quote(base, discount decimal.Decimal, currency string, hours float64) Quote {
	return Quote{
		BaseCost:  base.Round(2),
		Discount:  discount.Round(2),
		FinalCost: base.Sub(discount).Round(2),
		Currency:  currency,
		Hours:     hours,
	}
}

func currencyOf(area *domain.Area) string {
	if area == nil {
		return ""
	}
	return area.Currency
}
