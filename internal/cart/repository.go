package cart

import (
	"context"
	"database/sql"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/identity"
	"dropmart-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

type Repository interface {
	GetCartByIdentity(ctx context.Context, id identity.Identity) (*Cart, error)
	CreateCart(ctx context.Context, id identity.Identity) (*Cart, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error

	GetItems(ctx context.Context, cartID uuid.UUID) ([]Item, error)
	GetItem(ctx context.Context, cartID uuid.UUID, variantID string) (*Item, error)
	CreateItem(ctx context.Context, cartID uuid.UUID, variantID string, quantity int) (*Item, error)
	UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, variantID string, quantity int) error
	RemoveItem(ctx context.Context, cartID uuid.UUID, variantID string) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetCartByIdentity(ctx context.Context, id identity.Identity) (*Cart, error) {
	query := `
	SELECT id, user_id, session_token, created_at, updated_at
	FROM carts
	WHERE `
	var arg any
	if id.IsUser() {
		query += `user_id = $1`
		arg = *id.UserID
	} else {
		query += `session_token = $1`
		arg = *id.SessionToken
	}

	var c Cart
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.UserID, &c.SessionToken, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateCart inserts a cart for the identity. A concurrent insert for the same
// identity loses the unique-index race; in that case the winner's row is
// returned so the at-most-one-cart-per-identity invariant holds.
func (r *repository) CreateCart(ctx context.Context, id identity.Identity) (*Cart, error) {
	var c Cart
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (id, user_id, session_token)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, session_token, created_at, updated_at
	`, uuid.New(), id.UserID, id.SessionToken).Scan(
		&c.ID, &c.UserID, &c.SessionToken, &c.CreatedAt, &c.UpdatedAt,
	)

	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
		return r.GetCartByIdentity(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("cart created", zap.String("cart_id", c.ID.String()))

	return &c, nil
}

func (r *repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}

func (r *repository) GetItems(ctx context.Context, cartID uuid.UUID) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			ci.id, ci.cart_id, ci.variant_id, ci.quantity,
			ci.created_at, ci.updated_at,
			v.price,
			p.name || ' / ' || v.name
		FROM cart_items ci
		JOIN variants v ON ci.variant_id = v.id
		JOIN products p ON v.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.VariantID, &it.Quantity,
			&it.CreatedAt, &it.UpdatedAt,
			&it.UnitPrice, &it.DisplayName,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) GetItem(ctx context.Context, cartID uuid.UUID, variantID string) (*Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, variant_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID).Scan(
		&it.ID, &it.CartID, &it.VariantID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &it, nil
}

func (r *repository) CreateItem(ctx context.Context, cartID uuid.UUID, variantID string, quantity int) (*Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, cart_id, variant_id, quantity, created_at, updated_at
	`, uuid.New(), cartID, variantID, quantity).Scan(
		&it.ID, &it.CartID, &it.VariantID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &it, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, variantID string, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE cart_id = $2 AND variant_id = $3
	`, quantity, cartID, variantID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("cart.item_not_found", "cart item not found")
	}

	return nil
}

func (r *repository) RemoveItem(ctx context.Context, cartID uuid.UUID, variantID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("cart.item_not_found", "cart item not found")
	}

	return nil
}

func (r *repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

// ClearTx empties a cart inside the order-commit transaction.
func ClearTx(ctx context.Context, tx *sql.Tx, cartID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
