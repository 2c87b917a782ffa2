package checkout

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Address is frozen onto the session at creation time.
type Address struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Session is an immutable, time-bounded snapshot of a cart's contents and
// computed totals, keyed by the payment provider's session id. After creation
// only the status may change.
type Session struct {
	ID           string
	CartID       uuid.UUID
	UserID       *int64
	SessionToken *string
	Status       Status

	Items []SessionItem

	// Pricing, server-computed only
	Subtotal  int64
	Shipping  int64
	Tax       int64
	Deduction int64
	Total     int64
	Currency  string

	ShippingMethodID string
	DiscountCode     *string
	ShippingAddress  Address
	BillingAddress   Address

	RedirectURL string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionItem is one frozen line with its price and supplier resolved at
// snapshot time.
type SessionItem struct {
	ID        uuid.UUID
	SessionID string

	VariantID   string
	Name        string
	SupplierID  string
	SupplierSKU string

	Quantity  int
	UnitPrice int64
	UnitCost  int64
	Subtotal  int64
}

// OwnedBy reports whether the session belongs to the given user id or
// anonymous session token.
func (s *Session) OwnedBy(userID *int64, sessionToken *string) bool {
	if s.UserID != nil {
		return userID != nil && *userID == *s.UserID
	}
	if s.SessionToken != nil {
		return sessionToken != nil && *sessionToken == *s.SessionToken
	}
	return false
}
