package inventory

import (
	"context"
	"database/sql"

	"dropmart-be/internal/apperr"
)

// ErrShortDecrement means the guarded decrement matched no row: a checkout
// snapshot promised more stock than the ledger now holds. The caller must
// abort its transaction and surface a retryable inventory-inconsistency event,
// never silently under-decrement.
var ErrShortDecrement = apperr.Conflict(
	"inventory.short_decrement",
	"available stock changed since checkout, please retry",
)

type Repository interface {
	GetRecord(ctx context.Context, variantID string) (*Record, error)
	GetAvailable(ctx context.Context, variantID string) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetRecord(ctx context.Context, variantID string) (*Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx, `
		SELECT variant_id, on_hand, reserved, updated_at
		FROM inventory
		WHERE variant_id = $1
	`, variantID).Scan(&rec.VariantID, &rec.OnHand, &rec.Reserved, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("inventory.not_found", "no inventory record for variant")
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *repository) GetAvailable(ctx context.Context, variantID string) (int, error) {
	var available int
	err := r.db.QueryRowContext(ctx, `
		SELECT on_hand - reserved
		FROM inventory
		WHERE variant_id = $1
	`, variantID).Scan(&available)

	if err == sql.ErrNoRows {
		return 0, apperr.NotFound("inventory.not_found", "no inventory record for variant")
	}
	if err != nil {
		return 0, err
	}

	return available, nil
}

// ApplyDecrement consumes qty units of a variant inside an order-commit
// transaction. This is the ledger's only write path in the core. The WHERE
// guard keeps available stock from going negative; zero rows affected means
// the decrement would have been short.
func ApplyDecrement(ctx context.Context, tx *sql.Tx, variantID string, qty int) error {
	if qty <= 0 {
		return apperr.BadRequest("inventory.invalid_quantity", "decrement quantity must be positive")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET on_hand = on_hand - $1, updated_at = NOW()
		WHERE variant_id = $2 AND on_hand - reserved >= $1
	`, qty, variantID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrShortDecrement
	}

	return nil
}
