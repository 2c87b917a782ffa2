package fulfillment

import (
	"context"
	"sort"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/logger"
	"dropmart-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UpdateStatusInput struct {
	Status         Status
	TrackingNumber *string
	Carrier        *string
}

type Service interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*DropshipOrder, error)
	Summary(ctx context.Context, statusFilter *Status) (*Summary, error)
}

// service also implements order.Splitter.
type service struct {
	repo Repository
}

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

// SplitOrder groups a committed order's items by supplier and creates one
// PENDING dropship order per supplier. Replays are absorbed by the unique
// (order_id, supplier_id) constraint.
func (s *service) SplitOrder(ctx context.Context, o *order.Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SplitOrder"),
		zap.String("order_id", o.ID.String()),
	)

	bySupplier := make(map[string][]order.Item)
	for _, item := range o.Items {
		bySupplier[item.SupplierID] = append(bySupplier[item.SupplierID], item)
	}

	// Deterministic order keeps replays and logs stable.
	suppliers := make([]string, 0, len(bySupplier))
	for supplierID := range bySupplier {
		suppliers = append(suppliers, supplierID)
	}
	sort.Strings(suppliers)

	batch := make([]DropshipOrder, 0, len(suppliers))
	for _, supplierID := range suppliers {
		d := DropshipOrder{
			ID:         uuid.New(),
			OrderID:    o.ID,
			SupplierID: supplierID,
			Status:     StatusPending,
		}
		for _, item := range bySupplier[supplierID] {
			d.Items = append(d.Items, Item{
				ID:              uuid.New(),
				DropshipOrderID: d.ID,
				VariantID:       item.VariantID,
				Name:            item.Name,
				SupplierSKU:     item.SupplierSKU,
				Quantity:        item.Quantity,
				UnitCost:        item.UnitCost,
			})
		}
		batch = append(batch, d)
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return err
	}

	log.Info("order split into dropship orders", zap.Int("suppliers", len(batch)))
	return nil
}

// UpdateStatus validates the monotonicity rule and persists the new status.
// Transition triggers are external; this is the only gatekeeper.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*DropshipOrder, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("fulfillment.not_found", "dropship order not found")
	}

	if !CanTransition(d.Status, input.Status) {
		return nil, apperr.Conflict(
			"fulfillment.invalid_transition",
			"cannot move dropship order from "+string(d.Status)+" to "+string(input.Status),
		)
	}

	var trackingNumber, carrier *string
	if input.Status == StatusShipped || input.Status == StatusDelivered {
		trackingNumber = input.TrackingNumber
		carrier = input.Carrier
	}

	if err := s.repo.UpdateStatus(ctx, id, input.Status, trackingNumber, carrier); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("dropship order status updated",
		zap.String("dropship_order_id", id.String()),
		zap.String("from", string(d.Status)),
		zap.String("to", string(input.Status)),
	)

	return s.repo.GetByID(ctx, id)
}

func (s *service) Summary(ctx context.Context, statusFilter *Status) (*Summary, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.List(ctx, ListFilter{Status: statusFilter})
	if err != nil {
		return nil, err
	}

	return &Summary{Counts: counts, Orders: orders}, nil
}
