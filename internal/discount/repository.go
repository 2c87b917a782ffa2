package discount

import (
	"context"
	"database/sql"

	"dropmart-be/internal/apperr"
)

// ErrExhausted means a concurrent redemption consumed the last allowed use
// between validation and commit.
var ErrExhausted = apperr.Conflict(
	"discount.exhausted",
	"discount code has been fully redeemed",
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Discount, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetByCode returns the discount, or nil when the code is unknown.
func (r *repository) GetByCode(ctx context.Context, code string) (*Discount, error) {
	var d Discount
	err := r.db.QueryRowContext(ctx, `
		SELECT code, kind, value, valid_from, valid_to,
		       usage_limit, usage_count, min_order_value, active
		FROM discounts
		WHERE code = $1
	`, code).Scan(
		&d.Code,
		&d.Kind,
		&d.Value,
		&d.ValidFrom,
		&d.ValidTo,
		&d.UsageLimit,
		&d.UsageCount,
		&d.MinOrderValue,
		&d.Active,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// IncrementUsageTx consumes one redemption inside the order-commit
// transaction. The WHERE guard makes concurrent redemptions respect the usage
// limit: zero rows affected means the code was exhausted in the meantime.
func IncrementUsageTx(ctx context.Context, tx *sql.Tx, code string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE discounts
		SET usage_count = usage_count + 1
		WHERE code = $1
		  AND active
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`, code)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExhausted
	}

	return nil
}
