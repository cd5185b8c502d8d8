package application

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

func TestCalculateCost(t *testing.T) {
	pc := NewPricingCalculator()
	start := on(monday, 10, 0)

	tests := []struct {
		name     string
		area     domain.Area
		role     domain.Role
		duration time.Duration
		base     string
		discount string
		final    string
	}{
		{
			name:     "free for members",
			area:     domain.Area{HourlyRate: decimal.NewFromInt(10), FreeForMembers: true, MemberDiscountPercent: decimal.NewFromInt(50)},
			role:     domain.RoleMember,
			duration: 3 * time.Hour,
			base:     "30", discount: "30", final: "0",
		},
		{
			name:     "member percentage discount",
			area:     domain.Area{HourlyRate: decimal.NewFromInt(10), MemberDiscountPercent: decimal.NewFromInt(20)},
			role:     domain.RoleMember,
			duration: 2 * time.Hour,
			base:     "20", discount: "4", final: "16",
		},
		{
			name:     "guests pay full rate",
			area:     domain.Area{HourlyRate: decimal.NewFromInt(10), MemberDiscountPercent: decimal.NewFromInt(20), FreeForMembers: true},
			role:     domain.RoleGuest,
			duration: 2 * time.Hour,
			base:     "20", discount: "0", final: "20",
		},
		{
			name:     "fractional hours are exact",
			area:     domain.Area{HourlyRate: decimal.NewFromInt(12)},
			role:     domain.RoleStudent,
			duration: 110 * time.Minute,
			base:     "22", discount: "0", final: "22",
		},
		{
			name:     "rounds to cents",
			area:     domain.Area{HourlyRate: decimal.RequireFromString("9.99"), MemberDiscountPercent: decimal.RequireFromString("33.3")},
			role:     domain.RoleMember,
			duration: time.Hour,
			base:     "9.99", discount: "3.33", final: "6.66",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := pc.CalculateCost(&tt.area, tt.role, start, start.Add(tt.duration))
			assert.True(t, decimal.RequireFromString(tt.base).Equal(q.BaseCost), "base %s", q.BaseCost)
			assert.True(t, decimal.RequireFromString(tt.discount).Equal(q.Discount), "discount %s", q.Discount)
			assert.True(t, decimal.RequireFromString(tt.final).Equal(q.FinalCost), "final %s", q.FinalCost)
			assert.InDelta(t, tt.duration.Hours(), q.Hours, 1e-9)
		})
	}
}

func TestCalculateCost_DegenerateInputs(t *testing.T) {
	pc := NewPricingCalculator()
	start := on(monday, 10, 0)

	q := pc.CalculateCost(nil, domain.RoleMember, start, start.Add(time.Hour))
	assert.True(t, q.FinalCost.IsZero())

	area := &domain.Area{HourlyRate: decimal.NewFromInt(10), Currency: "MXN"}
	q = pc.CalculateCost(area, domain.RoleMember, start, start)
	assert.True(t, q.FinalCost.IsZero())
	assert.Equal(t, "MXN", q.Currency)
}
