package discounts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestAmount(t *testing.T) {
	capAmount := d("200000")
	cases := []struct {
		name     string
		discount models.Discount
		subtotal string
		want     string
	}{
		{"percentage", models.Discount{Type: enums.DiscountTypePercentage, Value: d("10")}, "2990000", "299000"},
		{"percentage capped", models.Discount{Type: enums.DiscountTypePercentage, Value: d("10"), MaxDiscountAmount: &capAmount}, "2990000", "200000"},
		{"fixed", models.Discount{Type: enums.DiscountTypeFixed, Value: d("50000")}, "2990000", "50000"},
		{"fixed capped at subtotal", models.Discount{Type: enums.DiscountTypeFixed, Value: d("500000")}, "120000", "120000"},
		{"zero subtotal", models.Discount{Type: enums.DiscountTypeFixed, Value: d("500000")}, "0", "0"},
		{"unknown type", models.Discount{Type: "bogus", Value: d("1")}, "100", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Amount(tc.discount, d(tc.subtotal))
			assert.True(t, d(tc.want).Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestCheckUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := models.Discount{
		IsActive:       true,
		StartsAt:       now.Add(-time.Hour),
		EndsAt:         now.Add(time.Hour),
		MinOrderAmount: d("100000"),
	}
	assert.NoError(t, CheckUsable(base, d("100000"), now))

	inactive := base
	inactive.IsActive = false
	assert.True(t, pkgerrors.IsCode(CheckUsable(inactive, d("100000"), now), pkgerrors.CodeValidation))

	early := base
	early.StartsAt = now.Add(time.Minute)
	assert.Error(t, CheckUsable(early, d("100000"), now))

	expired := base
	expired.EndsAt = now.Add(-time.Minute)
	assert.Error(t, CheckUsable(expired, d("100000"), now))

	maxUses := 3
	exhausted := base
	exhausted.MaxUses = &maxUses
	exhausted.UsedCount = 3
	assert.Error(t, CheckUsable(exhausted, d("100000"), now))
	exhausted.UsedCount = 2
	assert.NoError(t, CheckUsable(exhausted, d("100000"), now))

	assert.Error(t, CheckUsable(base, d("99999"), now))
}
