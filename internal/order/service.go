package order

import (
	"context"
	"errors"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/checkout"
	"dropmart-be/internal/discount"
	"dropmart-be/internal/events"
	"dropmart-be/internal/inventory"
	"dropmart-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Splitter creates per-supplier fulfillment records for a committed order.
// Implemented by the fulfillment tracker; injected to keep the dependency
// pointing outward.
type Splitter interface {
	SplitOrder(ctx context.Context, o *Order) error
}

type Service interface {
	// ConfirmFromSession is the PENDING→COMPLETED transition: idempotent, one
	// order per checkout session no matter how often the confirmation is
	// delivered.
	ConfirmFromSession(ctx context.Context, sessionID string) (*Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
}

type service struct {
	repo      Repository
	sessions  checkout.Repository
	discounts discount.Repository
	splitter  Splitter
	bus       *events.Bus

	now func() time.Time
}

func NewService(
	repo Repository,
	sessions checkout.Repository,
	discounts discount.Repository,
	splitter Splitter,
	bus *events.Bus,
) Service {
	return &service{
		repo:      repo,
		sessions:  sessions,
		discounts: discounts,
		splitter:  splitter,
		bus:       bus,
		now:       time.Now,
	}
}

func (s *service) ConfirmFromSession(ctx context.Context, sessionID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ConfirmFromSession"),
		zap.String("session_id", sessionID),
	)

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.NotFound("checkout.session_not_found", "checkout session not found")
	}

	// Duplicate delivery is a no-op: return the already-created order.
	existing, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info("duplicate confirmation, returning existing order",
			zap.String("order_id", existing.ID.String()),
		)
		return existing, nil
	}

	switch sess.Status {
	case checkout.StatusCancelled:
		return nil, apperr.Conflict("checkout.cancelled", "checkout session was cancelled")
	case checkout.StatusExpired:
		return nil, apperr.Expired("checkout.session_expired", "checkout session has expired")
	case checkout.StatusCompleted:
		// Completed without an order row should not happen.
		return nil, apperr.Conflict("order.missing_for_session", "session completed but order not found")
	}

	now := s.now()
	if now.After(sess.ExpiresAt) {
		if err := s.sessions.MarkExpired(ctx, sessionID); err != nil {
			log.Warn("failed to mark session expired", zap.Error(err))
		}
		return nil, apperr.Expired("checkout.session_expired", "confirmation received after session expiry")
	}

	// Re-validate discount eligibility: it may have been exhausted between
	// session creation and confirmation. The transactional guard below is the
	// authoritative check; this one gives a precise error without burning a
	// transaction.
	if sess.DiscountCode != nil && *sess.DiscountCode != "" {
		d, err := s.discounts.GetByCode(ctx, *sess.DiscountCode)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, apperr.Conflict("discount.unknown", "discount code no longer exists")
		}
		if err := d.ValidateAt(now, sess.Subtotal); err != nil {
			return nil, err
		}
	}

	o := s.buildOrder(sess, now)

	err = s.repo.CreateFromSessionTx(ctx, o, sess)
	if errors.Is(err, ErrDuplicateConfirmation) {
		// Lost the race: another confirmation committed first.
		winner, loadErr := s.repo.GetBySessionID(ctx, sessionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if winner == nil {
			return nil, apperr.Conflict("order.commit_race", "order commit race could not be resolved")
		}
		log.Info("confirmation race resolved to existing order",
			zap.String("order_id", winner.ID.String()),
		)
		return winner, nil
	}
	if errors.Is(err, inventory.ErrShortDecrement) {
		s.bus.Publish(ctx, events.Event{
			Name:    events.InventoryInconsistency,
			Payload: InconsistencyPayload{CheckoutSessionID: sessionID},
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	log.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total", o.Total),
	)

	// Fulfillment split consumes the new order. A failure here is logged and
	// retried out of band; the payment is already settled, so the order
	// stands.
	if err := s.splitter.SplitOrder(ctx, o); err != nil {
		log.Error("fulfillment split failed", zap.Error(err))
	}

	s.bus.Publish(ctx, events.Event{
		Name: events.OrderCreated,
		Payload: CreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Total:       o.Total,
		},
	})

	return o, nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order.not_found", "order not found")
	}
	return o, nil
}

// buildOrder freezes the session snapshot into an order. Totals come from the
// snapshot, never from the confirmation payload.
func (s *service) buildOrder(sess *checkout.Session, now time.Time) *Order {
	o := &Order{
		ID:                uuid.New(),
		OrderNumber:       NewOrderNumber(now),
		CheckoutSessionID: sess.ID,
		CartID:            sess.CartID,
		UserID:            sess.UserID,
		SessionToken:      sess.SessionToken,

		Status:         StatusProcessing,
		PaymentStatus:  PaymentStatusPaid,
		ShippingStatus: ShippingStatusUnshipped,

		Subtotal:  sess.Subtotal,
		Shipping:  sess.Shipping,
		Tax:       sess.Tax,
		Deduction: sess.Deduction,
		Total:     sess.Total,
		Currency:  sess.Currency,

		DiscountCode:    sess.DiscountCode,
		ShippingAddress: sess.ShippingAddress,
		BillingAddress:  sess.BillingAddress,

		CreatedAt: now,
	}

	for _, it := range sess.Items {
		o.Items = append(o.Items, Item{
			ID:          uuid.New(),
			OrderID:     o.ID,
			VariantID:   it.VariantID,
			Name:        it.Name,
			SupplierID:  it.SupplierID,
			SupplierSKU: it.SupplierSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			Subtotal:    it.Subtotal,
		})
	}

	return o
}
