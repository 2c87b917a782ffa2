package pricing

import (
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/discount"
	"dropmart-be/internal/tax"
)

// Line is one priced cart line. UnitPrice is in currency minor units.
type Line struct {
	VariantID string
	UnitPrice int64
	Quantity  int
}

type Destination struct {
	Country string
	State   string
}

// ShippingMethod is a flat-fee shipping option.
type ShippingMethod struct {
	ID   string
	Name string
	Fee  int64
}

// Summary is the monetary breakdown of an order. It is always recomputed from
// live data; client-supplied totals are never trusted.
type Summary struct {
	Subtotal         int64
	Shipping         int64
	Tax              int64
	Deduction        int64
	Total            int64
	ShippingMethodID string
	DiscountCode     string
}

// Engine computes monetary summaries. It holds no mutable state: identical
// inputs always yield an identical summary.
type Engine struct {
	methods map[string]ShippingMethod
	tax     tax.Calculator
}

func NewEngine(taxCalc tax.Calculator, methods []ShippingMethod) *Engine {
	byID := make(map[string]ShippingMethod, len(methods))
	for _, m := range methods {
		byID[m.ID] = m
	}
	return &Engine{methods: byID, tax: taxCalc}
}

// DefaultShippingMethods is the fixed flat-fee table.
func DefaultShippingMethods() []ShippingMethod {
	return []ShippingMethod{
		{ID: "standard", Name: "Standard (5-7 days)", Fee: 499},
		{ID: "express", Name: "Express (2-3 days)", Fee: 1299},
		{ID: "overnight", Name: "Overnight", Fee: 2499},
	}
}

func (e *Engine) MethodByID(id string) (ShippingMethod, bool) {
	m, ok := e.methods[id]
	return m, ok
}

// ComputeSummary prices the given lines. disc may be nil (no code supplied);
// when present it is validated against now and the computed subtotal.
func (e *Engine) ComputeSummary(
	lines []Line,
	shippingMethodID string,
	disc *discount.Discount,
	dest Destination,
	now time.Time,
) (*Summary, error) {

	var subtotal int64
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, apperr.BadRequest("pricing.invalid_quantity", "line quantity must be at least 1")
		}
		if l.UnitPrice < 0 {
			return nil, apperr.BadRequest("pricing.invalid_price", "line unit price must not be negative")
		}
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	method, ok := e.methods[shippingMethodID]
	if !ok {
		return nil, apperr.BadRequest("pricing.unknown_shipping_method", "unknown shipping method")
	}

	taxAmount := e.tax.Calculate(subtotal, method.Fee, dest.Country, dest.State)

	var deduction int64
	var code string
	if disc != nil {
		if err := disc.ValidateAt(now, subtotal); err != nil {
			return nil, err
		}
		deduction = disc.Deduction(subtotal)
		code = disc.Code
	}

	total := subtotal + method.Fee + taxAmount - deduction
	if total < 0 {
		total = 0
	}

	return &Summary{
		Subtotal:         subtotal,
		Shipping:         method.Fee,
		Tax:              taxAmount,
		Deduction:        deduction,
		Total:            total,
		ShippingMethodID: method.ID,
		DiscountCode:     code,
	}, nil
}
