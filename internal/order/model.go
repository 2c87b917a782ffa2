package order

import (
	"time"

	"dropmart-be/internal/checkout"

	"github.com/google/uuid"
)

type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type ShippingStatus string

const (
	ShippingStatusUnshipped ShippingStatus = "UNSHIPPED"
	ShippingStatusPartial   ShippingStatus = "PARTIAL"
	ShippingStatusShipped   ShippingStatus = "SHIPPED"
	ShippingStatusDelivered ShippingStatus = "DELIVERED"
)

// Order is the permanent, frozen record of a completed purchase. Exactly one
// exists per confirmed checkout session.
type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	CheckoutSessionID string
	CartID            uuid.UUID
	UserID            *int64
	SessionToken      *string

	Status         Status
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus

	Subtotal  int64
	Shipping  int64
	Tax       int64
	Deduction int64
	Total     int64
	Currency  string

	DiscountCode    *string
	ShippingAddress checkout.Address
	BillingAddress  checkout.Address

	Items     []Item
	CreatedAt time.Time
}

// Item is a frozen order line with its price at purchase.
type Item struct {
	ID      uuid.UUID
	OrderID uuid.UUID

	VariantID   string
	Name        string
	SupplierID  string
	SupplierSKU string

	Quantity  int
	UnitPrice int64
	UnitCost  int64
	Subtotal  int64
}

// CreatedPayload is the payload of order.created events (search index sync).
type CreatedPayload struct {
	OrderID     uuid.UUID
	OrderNumber string
	Total       int64
}

// InconsistencyPayload is published when a commit-time decrement would have
// gone short; the confirmation is retryable.
type InconsistencyPayload struct {
	CheckoutSessionID string
	VariantID         string
	Requested         int
}
