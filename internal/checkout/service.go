package checkout

import (
	"context"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/cart"
	"dropmart-be/internal/catalog"
	"dropmart-be/internal/discount"
	"dropmart-be/internal/identity"
	"dropmart-be/internal/inventory"
	"dropmart-be/internal/logger"
	"dropmart-be/internal/payment"
	"dropmart-be/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateSessionInput struct {
	ShippingMethodID string
	DiscountCode     *string
	ShippingAddress  Address
	BillingAddress   *Address
	CustomerEmail    string
}

// Service assembles checkout sessions: the DRAFT→PENDING transition plus the
// PENDING→EXPIRED / PENDING→CANCELLED escapes. PENDING→COMPLETED belongs to
// the order store.
type Service interface {
	CreateSession(ctx context.Context, id identity.Identity, input CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, id identity.Identity, sessionID string) (*Session, error)
	CancelSession(ctx context.Context, id identity.Identity, sessionID string) error
}

type service struct {
	repo     Repository
	cartRepo cart.Repository
	catalog  catalog.Repository
	stock    inventory.Repository
	engine   *pricing.Engine
	discount discount.Repository
	gateway  payment.Gateway
	currency string

	now func() time.Time
}

func NewService(
	repo Repository,
	cartRepo cart.Repository,
	catalogRepo catalog.Repository,
	stockRepo inventory.Repository,
	engine *pricing.Engine,
	discountRepo discount.Repository,
	gateway payment.Gateway,
	currency string,
) Service {
	return &service{
		repo:     repo,
		cartRepo: cartRepo,
		catalog:  catalogRepo,
		stock:    stockRepo,
		engine:   engine,
		discount: discountRepo,
		gateway:  gateway,
		currency: currency,
		now:      time.Now,
	}
}

// CreateSession snapshots the identity's cart into an immutable session keyed
// by the provider's payment-session id. Everything is re-validated and
// re-priced from live data here; nothing from add-to-cart time is trusted.
func (s *service) CreateSession(ctx context.Context, id identity.Identity, input CreateSessionInput) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateSession"),
	)

	c, err := s.cartRepo.GetCartByIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("cart.not_found", "cart not found")
	}

	items, err := s.cartRepo.GetItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.BadRequest("checkout.cart_empty", "cart is empty")
	}

	now := s.now()

	// Re-resolve every line against the live catalog and ledger.
	lines := make([]pricing.Line, 0, len(items))
	sessionItems := make([]SessionItem, 0, len(items))
	payItems := make([]payment.SessionItem, 0, len(items))

	for _, item := range items {
		variant, err := s.catalog.GetVariantByID(ctx, catalog.GetVariantOptions{
			VariantID:  item.VariantID,
			OnlyActive: true,
		})
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, apperr.BadRequest("checkout.product_inactive", "a cart item is no longer available")
		}

		available, err := s.stock.GetAvailable(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if available == 0 {
			return nil, apperr.OutOfStock("checkout.out_of_stock", "a cart item is out of stock")
		}
		if item.Quantity > available {
			return nil, apperr.InsufficientStock("checkout.insufficient_stock", item.Quantity, available)
		}

		name := variant.ProductName + " / " + variant.Name
		lineSubtotal := variant.Price * int64(item.Quantity)

		lines = append(lines, pricing.Line{
			VariantID: variant.ID,
			UnitPrice: variant.Price,
			Quantity:  item.Quantity,
		})
		sessionItems = append(sessionItems, SessionItem{
			ID:          uuid.New(),
			VariantID:   variant.ID,
			Name:        name,
			SupplierID:  variant.SupplierID,
			SupplierSKU: variant.SupplierSKU,
			Quantity:    item.Quantity,
			UnitPrice:   variant.Price,
			UnitCost:    variant.UnitCost,
			Subtotal:    lineSubtotal,
		})
		payItems = append(payItems, payment.SessionItem{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: variant.Price,
		})
	}

	var disc *discount.Discount
	if input.DiscountCode != nil && *input.DiscountCode != "" {
		disc, err = s.discount.GetByCode(ctx, *input.DiscountCode)
		if err != nil {
			return nil, err
		}
		if disc == nil {
			return nil, apperr.BadRequest("discount.unknown", "unknown discount code")
		}
	}

	dest := pricing.Destination{
		Country: input.ShippingAddress.Country,
		State:   input.ShippingAddress.State,
	}

	summary, err := s.engine.ComputeSummary(lines, input.ShippingMethodID, disc, dest, now)
	if err != nil {
		return nil, err
	}

	log.Info("checkout priced",
		zap.Int64("subtotal", summary.Subtotal),
		zap.Int64("total", summary.Total),
		zap.Int("items", len(sessionItems)),
	)

	paySession, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		ReferenceID:   uuid.New().String(),
		Amount:        summary.Total,
		Currency:      s.currency,
		CustomerEmail: input.CustomerEmail,
		Items:         payItems,
	})
	if err != nil {
		return nil, err
	}

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	session := &Session{
		ID:           paySession.ID,
		CartID:       c.ID,
		UserID:       c.UserID,
		SessionToken: c.SessionToken,
		Status:       StatusPending,

		Items: sessionItems,

		Subtotal:  summary.Subtotal,
		Shipping:  summary.Shipping,
		Tax:       summary.Tax,
		Deduction: summary.Deduction,
		Total:     summary.Total,
		Currency:  s.currency,

		ShippingMethodID: summary.ShippingMethodID,
		DiscountCode:     input.DiscountCode,
		ShippingAddress:  input.ShippingAddress,
		BillingAddress:   billing,

		RedirectURL: paySession.RedirectURL,
		ExpiresAt:   paySession.ExpiresAt,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return session, nil
}

func (s *service) GetSession(ctx context.Context, id identity.Identity, sessionID string) (*Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.NotFound("checkout.session_not_found", "checkout session not found")
	}

	if !session.OwnedBy(id.UserID, id.SessionToken) {
		return nil, apperr.Forbidden("checkout.forbidden", "checkout session belongs to another identity")
	}

	// Lazy expiry: an unconfirmed session past its TTL is flipped on read.
	if session.Status == StatusPending && s.now().After(session.ExpiresAt) {
		if err := s.repo.MarkExpired(ctx, sessionID); err != nil {
			logger.FromCtx(ctx).Warn("failed to mark session expired", zap.Error(err))
		}
		session.Status = StatusExpired
	}

	return session, nil
}

func (s *service) CancelSession(ctx context.Context, id identity.Identity, sessionID string) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperr.NotFound("checkout.session_not_found", "checkout session not found")
	}

	if !session.OwnedBy(id.UserID, id.SessionToken) {
		return apperr.Forbidden("checkout.forbidden", "checkout session belongs to another identity")
	}

	return s.repo.MarkCancelled(ctx, sessionID)
}
