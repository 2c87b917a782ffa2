package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusIssue     Status = "ISSUE"
	StatusCancelled Status = "CANCELLED"
)

// rank orders the happy path. Escape states carry no rank.
var rank = map[Status]int{
	StatusPending:   0,
	StatusPlaced:    1,
	StatusConfirmed: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

// CanTransition reports whether moving from one status to the next is legal.
// Progression is monotonic: forward along the happy path, or an escape to
// ISSUE/CANCELLED before anything has shipped. Backward moves and moves out of
// a terminal state are rejected.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}

	switch from {
	case StatusDelivered, StatusIssue, StatusCancelled:
		return false
	}

	if to == StatusIssue || to == StatusCancelled {
		return from == StatusPending || from == StatusPlaced || from == StatusConfirmed
	}

	fromRank, ok := rank[from]
	if !ok {
		return false
	}
	toRank, ok := rank[to]
	if !ok {
		return false
	}

	return toRank > fromRank
}

// DropshipOrder is one supplier's slice of a customer order.
type DropshipOrder struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	SupplierID string
	Status     Status

	TrackingNumber *string
	Carrier        *string

	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is one line assigned to a supplier's dropship order.
type Item struct {
	ID              uuid.UUID
	DropshipOrderID uuid.UUID

	VariantID   string
	Name        string
	SupplierSKU string
	Quantity    int
	UnitCost    int64
}

// Summary is derived by scanning current rows, never read from counters.
type Summary struct {
	Counts map[Status]int  `json:"counts"`
	Orders []DropshipOrder `json:"orders"`
}
