package payment

import (
	"context"
	"time"
)

// SessionItem is one display line sent to the hosted payment page.
type SessionItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// SessionRequest asks the provider to open a hosted payment session.
type SessionRequest struct {
	ReferenceID   string        `json:"reference_id"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	Items         []SessionItem `json:"items"`
}

// Session is the provider's hosted session. Its ID is the idempotency key for
// the whole order pipeline.
type Session struct {
	ID          string
	RedirectURL string
	ExpiresAt   time.Time
}

// ConfirmationEvent is the out-of-band webhook payload the provider delivers
// once payment settles. The same event may be delivered more than once.
type ConfirmationEvent struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

const (
	EventStatusPaid    = "PAID"
	EventStatusFailed  = "FAILED"
	EventStatusExpired = "EXPIRED"
)

// Gateway is the hosted payment provider collaborator.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	VerifyWebhook(signature string, body []byte) error
}
