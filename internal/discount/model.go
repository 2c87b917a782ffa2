package discount

import (
	"time"

	"dropmart-be/internal/apperr"
)

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

// Discount is immutable business data; only UsageCount moves, exactly once per
// successful redemption.
type Discount struct {
	Code          string
	Kind          Kind
	Value         int64 // percent for percentage, minor units for fixed
	ValidFrom     *time.Time
	ValidTo       *time.Time
	UsageLimit    *int
	UsageCount    int
	MinOrderValue int64
	Active        bool
}

// ValidateAt reports whether the discount may be applied to an order with the
// given subtotal at the given instant. Absent bounds mean unbounded; an absent
// usage limit means unlimited.
func (d *Discount) ValidateAt(now time.Time, subtotal int64) error {
	if !d.Active {
		return apperr.BadRequest("discount.inactive", "discount code is not active")
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return apperr.BadRequest("discount.not_started", "discount code is not valid yet")
	}
	if d.ValidTo != nil && now.After(*d.ValidTo) {
		return apperr.BadRequest("discount.expired", "discount code has expired")
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return apperr.Conflict("discount.exhausted", "discount code has been fully redeemed")
	}
	if subtotal < d.MinOrderValue {
		return apperr.BadRequest("discount.min_order_value", "order subtotal below discount minimum")
	}
	return nil
}

// Deduction returns the amount taken off the subtotal, never exceeding it.
func (d *Discount) Deduction(subtotal int64) int64 {
	var deduction int64
	switch d.Kind {
	case KindPercentage:
		deduction = subtotal * d.Value / 100
	case KindFixed:
		deduction = d.Value
	}
	if deduction > subtotal {
		deduction = subtotal
	}
	if deduction < 0 {
		deduction = 0
	}
	return deduction
}
