package checkout

import (
	"context"
	"database/sql"
	"encoding/json"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	MarkExpired(ctx context.Context, sessionID string) error
	MarkCancelled(ctx context.Context, sessionID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateSession persists the snapshot and its items in one transaction.
func (r *repository) CreateSession(ctx context.Context, s *Session) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateSession"),
		zap.String("session_id", s.ID),
	)

	shipAddr, err := json.Marshal(s.ShippingAddress)
	if err != nil {
		return err
	}
	billAddr, err := json.Marshal(s.BillingAddress)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkout_sessions (
			id, cart_id, user_id, session_token, status,
			subtotal, shipping, tax, deduction, total, currency,
			shipping_method_id, discount_code,
			shipping_address, billing_address,
			redirect_url, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		s.ID, s.CartID, s.UserID, s.SessionToken, s.Status,
		s.Subtotal, s.Shipping, s.Tax, s.Deduction, s.Total, s.Currency,
		s.ShippingMethodID, s.DiscountCode,
		shipAddr, billAddr,
		s.RedirectURL, s.ExpiresAt,
	)
	if err != nil {
		log.Error("failed to insert checkout session", zap.Error(err))
		return err
	}

	for _, item := range s.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO checkout_session_items (
				id, session_id, variant_id, name,
				supplier_id, supplier_sku,
				quantity, unit_price, unit_cost, subtotal
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			item.ID, s.ID, item.VariantID, item.Name,
			item.SupplierID, item.SupplierSKU,
			item.Quantity, item.UnitPrice, item.UnitCost, item.Subtotal,
		)
		if err != nil {
			log.Error("failed to insert checkout session item", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("checkout session persisted", zap.Int("items", len(s.Items)))
	return nil
}

// GetSession loads the session with its items, or nil when unknown.
func (r *repository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var (
		s        Session
		shipAddr []byte
		billAddr []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, user_id, session_token, status,
		       subtotal, shipping, tax, deduction, total, currency,
		       shipping_method_id, discount_code,
		       shipping_address, billing_address,
		       redirect_url, expires_at, created_at
		FROM checkout_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&s.ID, &s.CartID, &s.UserID, &s.SessionToken, &s.Status,
		&s.Subtotal, &s.Shipping, &s.Tax, &s.Deduction, &s.Total, &s.Currency,
		&s.ShippingMethodID, &s.DiscountCode,
		&shipAddr, &billAddr,
		&s.RedirectURL, &s.ExpiresAt, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(shipAddr, &s.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billAddr, &s.BillingAddress); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, variant_id, name,
		       supplier_id, supplier_sku,
		       quantity, unit_price, unit_cost, subtotal
		FROM checkout_session_items
		WHERE session_id = $1
		ORDER BY name
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it SessionItem
		if err := rows.Scan(
			&it.ID, &it.SessionID, &it.VariantID, &it.Name,
			&it.SupplierID, &it.SupplierSKU,
			&it.Quantity, &it.UnitPrice, &it.UnitCost, &it.Subtotal,
		); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) MarkExpired(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = 'EXPIRED'
		WHERE id = $1 AND status = 'PENDING'
	`, sessionID)
	return err
}

// MarkCancelled flips PENDING to CANCELLED; any other current status is a
// conflict since the machine has already left PENDING.
func (r *repository) MarkCancelled(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = 'CANCELLED'
		WHERE id = $1 AND status = 'PENDING'
	`, sessionID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict("checkout.not_pending", "checkout session is no longer pending")
	}

	return nil
}

// MarkCompletedTx flips the session to COMPLETED inside the order-commit
// transaction.
func MarkCompletedTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = 'COMPLETED'
		WHERE id = $1 AND status = 'PENDING'
	`, sessionID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict("checkout.not_pending", "checkout session is no longer pending")
	}

	return nil
}
