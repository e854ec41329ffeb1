package discounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Amount is what d takes off subtotal. Percentages honour MaxDiscountAmount;
// the result never exceeds the subtotal.
func Amount(d models.Discount, subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch d.Type {
	case enums.DiscountTypePercentage:
		amount = subtotal.Mul(d.Value).Div(hundred)
		if d.MaxDiscountAmount != nil && amount.GreaterThan(*d.MaxDiscountAmount) {
			amount = *d.MaxDiscountAmount
		}
	case enums.DiscountTypeFixed:
		amount = d.Value
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2)
}

// CheckUsable applies the checks order placement and public validation share:
// active, inside the window, under the usage cap and above the minimum order.
func CheckUsable(d models.Discount, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case !d.IsActive:
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code is not active")
	case now.Before(d.StartsAt):
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code is not yet valid").
			WithDetails(map[string]any{"starts_at": d.StartsAt})
	case now.After(d.EndsAt):
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code has expired").
			WithDetails(map[string]any{"ends_at": d.EndsAt})
	case d.MaxUses != nil && d.UsedCount >= *d.MaxUses:
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code usage limit reached")
	case subtotal.LessThan(d.MinOrderAmount):
		return pkgerrors.New(pkgerrors.CodeValidation, "order does not meet the discount minimum").
			WithDetails(map[string]any{"min_order_amount": d.MinOrderAmount})
	}
	return nil
}
