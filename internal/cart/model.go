package cart

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the mutable pre-purchase collection of line items for one identity.
// Exactly one of UserID / SessionToken is set.
type Cart struct {
	ID           uuid.UUID
	UserID       *int64
	SessionToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Item is one cart line. Unique per (cart, variant); adding the same variant
// again merges quantities instead of duplicating the row. UnitPrice and
// DisplayName are resolved from the catalog on read.
type Item struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	VariantID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time

	UnitPrice   int64
	DisplayName string
}

// Summary is what the cart endpoints return: the lines plus estimated totals
// computed from live data with the default shipping method.
type Summary struct {
	Items             []Item
	Subtotal          int64
	EstimatedShipping int64
	EstimatedTax      int64
	EstimatedTotal    int64
}

// ChangedPayload is the payload of cart.changed events consumed by the
// abandonment tracker.
type ChangedPayload struct {
	CartID    uuid.UUID
	Action    string
	VariantID string
	Quantity  int
}
