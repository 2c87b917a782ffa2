package inventory

import "time"

// Record is the ledger row for one variant. Available stock is what advisory
// checks and commit-time decrements consult; it must never go negative.
type Record struct {
	VariantID string
	OnHand    int
	Reserved  int
	UpdatedAt time.Time
}

func (r Record) Available() int {
	return r.OnHand - r.Reserved
}
