package tax

import "strings"

// Calculator computes tax for an order. It is a pure external collaborator:
// identical inputs always yield an identical result.
type Calculator interface {
	Calculate(subtotal, shipping int64, country, state string) int64
}

// Rate is a tax rate in basis points (1000 = 10%).
type Rate int64

// FlatTable is a deterministic per-country (and optional per-state) rate table.
type FlatTable struct {
	countryRates map[string]Rate
	stateRates   map[string]Rate // keyed "COUNTRY/STATE"
	defaultRate  Rate
}

func NewFlatTable(defaultRate Rate) *FlatTable {
	return &FlatTable{
		countryRates: make(map[string]Rate),
		stateRates:   make(map[string]Rate),
		defaultRate:  defaultRate,
	}
}

func (t *FlatTable) SetCountryRate(country string, rate Rate) *FlatTable {
	t.countryRates[normalize(country)] = rate
	return t
}

func (t *FlatTable) SetStateRate(country, state string, rate Rate) *FlatTable {
	t.stateRates[normalize(country)+"/"+normalize(state)] = rate
	return t
}

// Calculate applies the most specific rate to subtotal + shipping,
// rounding down to minor units.
func (t *FlatTable) Calculate(subtotal, shipping int64, country, state string) int64 {
	rate := t.defaultRate
	if r, ok := t.countryRates[normalize(country)]; ok {
		rate = r
	}
	if r, ok := t.stateRates[normalize(country)+"/"+normalize(state)]; ok {
		rate = r
	}

	taxable := subtotal + shipping
	if taxable <= 0 {
		return 0
	}
	return taxable * int64(rate) / 10000
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
