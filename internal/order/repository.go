package order

import (
	"context"
	"database/sql"
	"encoding/json"

	"dropmart-be/internal/cart"
	"dropmart-be/internal/checkout"
	"dropmart-be/internal/discount"
	"dropmart-be/internal/inventory"
	"dropmart-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

// ErrDuplicateConfirmation means another confirmation for the same session
// committed first. Callers load and return the winner's order; duplicate
// delivery is a successful no-op, not an error.
type duplicateConfirmation struct{}

func (duplicateConfirmation) Error() string { return "order already exists for checkout session" }

var ErrDuplicateConfirmation error = duplicateConfirmation{}

type Repository interface {
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	CreateFromSessionTx(ctx context.Context, o *Order, sess *checkout.Session) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateFromSessionTx is the single serializable unit of the pipeline:
// order insert (the UNIQUE(checkout_session_id) index is the idempotency
// key), discount redemption, guarded ledger decrements, frozen items,
// session flip, and cart clear all commit or roll back together.
func (r *repository) CreateFromSessionTx(ctx context.Context, o *Order, sess *checkout.Session) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateFromSessionTx"),
		zap.String("session_id", sess.ID),
		zap.String("order_id", o.ID.String()),
	)

	shipAddr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	billAddr, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, checkout_session_id, cart_id,
			user_id, session_token,
			status, payment_status, shipping_status,
			subtotal, shipping, tax, deduction, total, currency,
			discount_code, shipping_address, billing_address
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		o.ID, o.OrderNumber, o.CheckoutSessionID, o.CartID,
		o.UserID, o.SessionToken,
		o.Status, o.PaymentStatus, o.ShippingStatus,
		o.Subtotal, o.Shipping, o.Tax, o.Deduction, o.Total, o.Currency,
		o.DiscountCode, shipAddr, billAddr,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
		return ErrDuplicateConfirmation
	}
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	if o.DiscountCode != nil && *o.DiscountCode != "" {
		if err := discount.IncrementUsageTx(ctx, tx, *o.DiscountCode); err != nil {
			log.Warn("discount redemption failed at commit", zap.Error(err))
			return err
		}
	}

	for _, item := range o.Items {
		if err := inventory.ApplyDecrement(ctx, tx, item.VariantID, item.Quantity); err != nil {
			log.Warn("ledger decrement failed at commit",
				zap.String("variant_id", item.VariantID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, variant_id, name,
				supplier_id, supplier_sku,
				quantity, unit_price, unit_cost, subtotal
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			item.ID, o.ID, item.VariantID, item.Name,
			item.SupplierID, item.SupplierSKU,
			item.Quantity, item.UnitPrice, item.UnitCost, item.Subtotal,
		)
		if err != nil {
			log.Error("failed to insert order item", zap.Error(err))
			return err
		}
	}

	if err := checkout.MarkCompletedTx(ctx, tx, sess.ID); err != nil {
		return err
	}

	if err := cart.ClearTx(ctx, tx, sess.CartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("order committed", zap.String("order_number", o.OrderNumber))
	return nil
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	return r.getOne(ctx, `WHERE checkout_session_id = $1`, sessionID)
}

func (r *repository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `WHERE id = $1`, orderID)
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	var (
		o        Order
		shipAddr []byte
		billAddr []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, checkout_session_id, cart_id,
		       user_id, session_token,
		       status, payment_status, shipping_status,
		       subtotal, shipping, tax, deduction, total, currency,
		       discount_code, shipping_address, billing_address, created_at
		FROM orders
		`+where, arg).Scan(
		&o.ID, &o.OrderNumber, &o.CheckoutSessionID, &o.CartID,
		&o.UserID, &o.SessionToken,
		&o.Status, &o.PaymentStatus, &o.ShippingStatus,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Deduction, &o.Total, &o.Currency,
		&o.DiscountCode, &shipAddr, &billAddr, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(shipAddr, &o.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billAddr, &o.BillingAddress); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, variant_id, name,
		       supplier_id, supplier_sku,
		       quantity, unit_price, unit_cost, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY name
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.VariantID, &it.Name,
			&it.SupplierID, &it.SupplierSKU,
			&it.Quantity, &it.UnitPrice, &it.UnitCost, &it.Subtotal,
		); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}
