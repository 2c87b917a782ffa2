package discount

import (
	"testing"
	"time"

	"dropmart-be/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int            { return &n }
func timePtr(t time.Time) *time.Time { return &t }

func TestDiscount_ValidateAt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	base := Discount{
		Code:          "SAVE10",
		Kind:          KindPercentage,
		Value:         10,
		MinOrderValue: 5000,
		Active:        true,
	}

	t.Run("ValidWithoutBounds", func(t *testing.T) {
		d := base
		assert.NoError(t, d.ValidateAt(now, 10000))
	})

	t.Run("Inactive", func(t *testing.T) {
		d := base
		d.Active = false
		assert.True(t, apperr.IsKind(d.ValidateAt(now, 10000), apperr.KindBadRequest))
	})

	t.Run("BeforeWindow", func(t *testing.T) {
		d := base
		d.ValidFrom = timePtr(now.Add(time.Hour))
		assert.Error(t, d.ValidateAt(now, 10000))
	})

	t.Run("AfterWindow", func(t *testing.T) {
		d := base
		d.ValidTo = timePtr(now.Add(-time.Hour))
		assert.Error(t, d.ValidateAt(now, 10000))
	})

	t.Run("InsideWindow", func(t *testing.T) {
		d := base
		d.ValidFrom = timePtr(now.Add(-time.Hour))
		d.ValidTo = timePtr(now.Add(time.Hour))
		assert.NoError(t, d.ValidateAt(now, 10000))
	})

	t.Run("Exhausted", func(t *testing.T) {
		d := base
		d.UsageLimit = intPtr(100)
		d.UsageCount = 100
		err := d.ValidateAt(now, 10000)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("UnderUsageLimit", func(t *testing.T) {
		d := base
		d.UsageLimit = intPtr(100)
		d.UsageCount = 99
		assert.NoError(t, d.ValidateAt(now, 10000))
	})

	t.Run("BelowMinOrderValue", func(t *testing.T) {
		d := base
		assert.Error(t, d.ValidateAt(now, 4999))
	})
}

func TestDiscount_Deduction(t *testing.T) {
	t.Run("Percentage", func(t *testing.T) {
		d := Discount{Kind: KindPercentage, Value: 10}
		assert.EqualValues(t, 1000, d.Deduction(10000))
	})

	t.Run("Fixed", func(t *testing.T) {
		d := Discount{Kind: KindFixed, Value: 1500}
		assert.EqualValues(t, 1500, d.Deduction(10000))
	})

	t.Run("FixedClampedToSubtotal", func(t *testing.T) {
		d := Discount{Kind: KindFixed, Value: 99999}
		assert.EqualValues(t, 10000, d.Deduction(10000))
	})

	t.Run("HundredPercent", func(t *testing.T) {
		d := Discount{Kind: KindPercentage, Value: 100}
		assert.EqualValues(t, 10000, d.Deduction(10000))
	})
}
