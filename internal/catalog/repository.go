package catalog

import (
	"context"
	"database/sql"
)

type Repository interface {
	GetVariantByID(ctx context.Context, opts GetVariantOptions) (*Variant, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetVariantByID returns the variant joined with its product, or nil when no
// row matches.
func (r *repository) GetVariantByID(ctx context.Context, opts GetVariantOptions) (*Variant, error) {
	query := `
	SELECT
		v.id,
		v.product_id,
		v.name,
		v.price,
		v.supplier_id,
		v.supplier_sku,
		v.unit_cost,
		p.name,
		p.status = 'active'
	FROM variants v
	JOIN products p ON v.product_id = p.id
	WHERE v.id = $1
	`
	args := []any{opts.VariantID}

	if opts.OnlyActive {
		query += ` AND p.status = 'active'`
	}

	var v Variant
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&v.ID,
		&v.ProductID,
		&v.Name,
		&v.Price,
		&v.SupplierID,
		&v.SupplierSKU,
		&v.UnitCost,
		&v.ProductName,
		&v.ProductActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &v, nil
}
