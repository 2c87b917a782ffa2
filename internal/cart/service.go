package cart

import (
	"context"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/catalog"
	"dropmart-be/internal/events"
	"dropmart-be/internal/identity"
	"dropmart-be/internal/inventory"
	"dropmart-be/internal/logger"
	"dropmart-be/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the business logic for carts. Stock checks here are
// advisory only; correctness is enforced at order commit time.
type Service interface {
	GetOrCreateCart(ctx context.Context, id identity.Identity) (*Cart, error)
	Summary(ctx context.Context, id identity.Identity) (*Summary, error)
	AddItem(ctx context.Context, id identity.Identity, variantID string, quantity int) (*Summary, error)
	UpdateQuantity(ctx context.Context, id identity.Identity, variantID string, quantity int) (*Summary, error)
	RemoveItem(ctx context.Context, id identity.Identity, variantID string) (*Summary, error)
	Clear(ctx context.Context, id identity.Identity) (*Summary, error)
	MergeOnSignIn(ctx context.Context, sessionToken string, userID int64) (*Cart, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	stock   inventory.Repository
	engine  *pricing.Engine
	bus     *events.Bus

	defaultMethod string
	defaultDest   pricing.Destination
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	stockRepo inventory.Repository,
	engine *pricing.Engine,
	bus *events.Bus,
	defaultMethod string,
	defaultDest pricing.Destination,
) Service {
	return &service{
		repo:          repo,
		catalog:       catalogRepo,
		stock:         stockRepo,
		engine:        engine,
		bus:           bus,
		defaultMethod: defaultMethod,
		defaultDest:   defaultDest,
	}
}

// GetOrCreateCart returns the identity's cart, creating it lazily. At most one
// cart exists per identity value.
func (s *service) GetOrCreateCart(ctx context.Context, id identity.Identity) (*Cart, error) {
	if !id.Valid() {
		return nil, apperr.BadRequest("cart.invalid_identity", "identity must be a user id or a session token")
	}

	c, err := s.repo.GetCartByIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	return s.repo.CreateCart(ctx, id)
}

func (s *service) AddItem(ctx context.Context, id identity.Identity, variantID string, quantity int) (*Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.String("variant_id", variantID),
		zap.Int("quantity", quantity),
	)

	if quantity < 1 {
		return nil, apperr.BadRequest("cart.invalid_quantity", "quantity must be at least 1")
	}

	variant, err := s.catalog.GetVariantByID(ctx, catalog.GetVariantOptions{
		VariantID:  variantID,
		OnlyActive: true,
	})
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, apperr.NotFound("cart.variant_not_found", "product variant not found or inactive")
	}

	c, err := s.GetOrCreateCart(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItem(ctx, c.ID, variantID)
	if err != nil {
		return nil, err
	}

	cumulative := quantity
	if existing != nil {
		cumulative += existing.Quantity
	}

	available, err := s.stock.GetAvailable(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		log.Warn("variant out of stock")
		return nil, apperr.OutOfStock("cart.out_of_stock", "product variant is out of stock")
	}
	if cumulative > available {
		log.Warn("insufficient stock",
			zap.Int("requested", cumulative),
			zap.Int("available", available),
		)
		return nil, apperr.InsufficientStock("cart.insufficient_stock", cumulative, available)
	}

	if existing == nil {
		if _, err := s.repo.CreateItem(ctx, c.ID, variantID, quantity); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.UpdateItemQuantity(ctx, c.ID, variantID, cumulative); err != nil {
			return nil, err
		}
	}

	log.Info("item added to cart", zap.String("cart_id", c.ID.String()))

	s.notifyChanged(ctx, c.ID, "add", variantID, cumulative)

	return s.summarize(ctx, c.ID)
}

func (s *service) UpdateQuantity(ctx context.Context, id identity.Identity, variantID string, quantity int) (*Summary, error) {
	if quantity < 0 {
		return nil, apperr.BadRequest("cart.invalid_quantity", "quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, id, variantID)
	}

	c, err := s.requireCart(ctx, id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, c.ID, variantID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("cart.item_not_found", "cart item not found")
	}

	available, err := s.stock.GetAvailable(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if quantity > available {
		return nil, apperr.InsufficientStock("cart.insufficient_stock", quantity, available)
	}

	if err := s.repo.UpdateItemQuantity(ctx, c.ID, variantID, quantity); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, c.ID, "update", variantID, quantity)

	return s.summarize(ctx, c.ID)
}

func (s *service) RemoveItem(ctx context.Context, id identity.Identity, variantID string) (*Summary, error) {
	c, err := s.requireCart(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RemoveItem(ctx, c.ID, variantID); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, c.ID, "remove", variantID, 0)

	return s.summarize(ctx, c.ID)
}

func (s *service) Clear(ctx context.Context, id identity.Identity) (*Summary, error) {
	c, err := s.requireCart(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Clear(ctx, c.ID); err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, c.ID, "clear", "", 0)

	return s.summarize(ctx, c.ID)
}

func (s *service) Summary(ctx context.Context, id identity.Identity) (*Summary, error) {
	c, err := s.GetOrCreateCart(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, c.ID)
}

// MergeOnSignIn folds an anonymous cart into the user's cart: quantities are
// added per variant, capped at current available stock, and the anonymous
// cart is deleted. After sign-in exactly one cart exists for the user.
func (s *service) MergeOnSignIn(ctx context.Context, sessionToken string, userID int64) (*Cart, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MergeOnSignIn"),
		zap.Int64("user_id", userID),
	)

	userCart, err := s.GetOrCreateCart(ctx, identity.User(userID))
	if err != nil {
		return nil, err
	}

	guestCart, err := s.repo.GetCartByIdentity(ctx, identity.Anonymous(sessionToken))
	if err != nil {
		return nil, err
	}
	if guestCart == nil {
		return userCart, nil
	}

	guestItems, err := s.repo.GetItems(ctx, guestCart.ID)
	if err != nil {
		return nil, err
	}

	for _, gi := range guestItems {
		existing, err := s.repo.GetItem(ctx, userCart.ID, gi.VariantID)
		if err != nil {
			return nil, err
		}

		merged := gi.Quantity
		if existing != nil {
			merged += existing.Quantity
		}

		available, err := s.stock.GetAvailable(ctx, gi.VariantID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				continue
			}
			return nil, err
		}
		if merged > available {
			merged = available
		}
		if merged < 1 {
			continue
		}

		if existing == nil {
			if _, err := s.repo.CreateItem(ctx, userCart.ID, gi.VariantID, merged); err != nil {
				return nil, err
			}
		} else {
			if err := s.repo.UpdateItemQuantity(ctx, userCart.ID, gi.VariantID, merged); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.DeleteCart(ctx, guestCart.ID); err != nil {
		return nil, err
	}

	log.Info("guest cart merged",
		zap.String("user_cart_id", userCart.ID.String()),
		zap.Int("merged_lines", len(guestItems)),
	)

	s.notifyChanged(ctx, userCart.ID, "merge", "", 0)

	return userCart, nil
}

func (s *service) requireCart(ctx context.Context, id identity.Identity) (*Cart, error) {
	if !id.Valid() {
		return nil, apperr.BadRequest("cart.invalid_identity", "identity must be a user id or a session token")
	}

	c, err := s.repo.GetCartByIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("cart.not_found", "cart not found")
	}
	return c, nil
}

// summarize recomputes the cart's estimated totals from live data with the
// default shipping method and destination.
func (s *service) summarize(ctx context.Context, cartID uuid.UUID) (*Summary, error) {
	items, err := s.repo.GetItems(ctx, cartID)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{
			VariantID: it.VariantID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	sum, err := s.engine.ComputeSummary(lines, s.defaultMethod, nil, s.defaultDest, time.Now())
	if err != nil {
		return nil, err
	}

	return &Summary{
		Items:             items,
		Subtotal:          sum.Subtotal,
		EstimatedShipping: sum.Shipping,
		EstimatedTax:      sum.Tax,
		EstimatedTotal:    sum.Total,
	}, nil
}

// notifyChanged publishes a cart.changed event. Delivery is fire-and-forget:
// the abandonment tracker failing must never fail the cart mutation.
func (s *service) notifyChanged(ctx context.Context, cartID uuid.UUID, action, variantID string, qty int) {
	s.bus.Publish(ctx, events.Event{
		Name: events.CartChanged,
		Payload: ChangedPayload{
			CartID:    cartID,
			Action:    action,
			VariantID: variantID,
			Quantity:  qty,
		},
	})
}
