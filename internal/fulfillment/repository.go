package fulfillment

import (
	"context"
	"database/sql"

	"dropmart-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ListFilter struct {
	Status *Status
}

type Repository interface {
	CreateBatch(ctx context.Context, orders []DropshipOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*DropshipOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, trackingNumber, carrier *string) error
	List(ctx context.Context, filter ListFilter) ([]DropshipOrder, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateBatch persists one dropship order per supplier in a single
// transaction. ON CONFLICT DO NOTHING on (order_id, supplier_id) makes a
// replayed split a no-op instead of a duplicate.
func (r *repository) CreateBatch(ctx context.Context, orders []DropshipOrder) error {
	if len(orders) == 0 {
		return nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateBatch"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range orders {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO dropship_orders (id, order_id, supplier_id, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (order_id, supplier_id) DO NOTHING
		`, o.ID, o.OrderID, o.SupplierID, o.Status)
		if err != nil {
			log.Error("failed to insert dropship order", zap.Error(err))
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Replayed split: this supplier's order already exists.
			continue
		}

		for _, item := range o.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO dropship_order_items (
					id, dropship_order_id, variant_id, name,
					supplier_sku, quantity, unit_cost
				) VALUES ($1,$2,$3,$4,$5,$6,$7)
			`,
				item.ID, o.ID, item.VariantID, item.Name,
				item.SupplierSKU, item.Quantity, item.UnitCost,
			)
			if err != nil {
				log.Error("failed to insert dropship order item", zap.Error(err))
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("dropship orders persisted", zap.Int("suppliers", len(orders)))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*DropshipOrder, error) {
	var o DropshipOrder
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, supplier_id, status,
		       tracking_number, carrier, created_at, updated_at
		FROM dropship_orders
		WHERE id = $1
	`, id).Scan(
		&o.ID, &o.OrderID, &o.SupplierID, &o.Status,
		&o.TrackingNumber, &o.Carrier, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dropship_order_id, variant_id, name,
		       supplier_sku, quantity, unit_cost
		FROM dropship_order_items
		WHERE dropship_order_id = $1
		ORDER BY name
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.DropshipOrderID, &it.VariantID, &it.Name,
			&it.SupplierSKU, &it.Quantity, &it.UnitCost,
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

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, trackingNumber, carrier *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE dropship_orders
		SET status = $1,
		    tracking_number = COALESCE($2, tracking_number),
		    carrier = COALESCE($3, carrier),
		    updated_at = NOW()
		WHERE id = $4
	`, status, trackingNumber, carrier, id)
	return err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]DropshipOrder, error) {
	query := `
		SELECT id, order_id, supplier_id, status,
		       tracking_number, carrier, created_at, updated_at
		FROM dropship_orders
	`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []DropshipOrder
	for rows.Next() {
		var o DropshipOrder
		if err := rows.Scan(
			&o.ID, &o.OrderID, &o.SupplierID, &o.Status,
			&o.TrackingNumber, &o.Carrier, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// CountByStatus scans current rows; counts are never maintained as mutable
// counters, so they cannot drift.
func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM dropship_orders
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
