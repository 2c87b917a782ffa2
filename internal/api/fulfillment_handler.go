package api

import (
	"net/http"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/fulfillment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FulfillmentHandler struct {
	svc fulfillment.Service
}

func NewFulfillmentHandler(svc fulfillment.Service) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc}
}

type dropshipOrderResponse struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	SupplierID     string    `json:"supplierId"`
	Status         string    `json:"status"`
	TrackingNumber *string   `json:"trackingNumber,omitempty"`
	Carrier        *string   `json:"carrier,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type fulfillmentSummaryResponse struct {
	Counts map[string]int          `json:"counts"`
	Orders []dropshipOrderResponse `json:"orders"`
}

func toDropshipOrderResponse(d *fulfillment.DropshipOrder) dropshipOrderResponse {
	return dropshipOrderResponse{
		ID:             d.ID.String(),
		OrderID:        d.OrderID.String(),
		SupplierID:     d.SupplierID,
		Status:         string(d.Status),
		TrackingNumber: d.TrackingNumber,
		Carrier:        d.Carrier,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// GetSummary handles GET /v1/fulfillment/summary?status=SHIPPED
func (h *FulfillmentHandler) GetSummary(c *gin.Context) {
	var filter *fulfillment.Status
	if raw := c.Query("status"); raw != "" {
		status := fulfillment.Status(raw)
		filter = &status
	}

	sum, err := h.svc.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := fulfillmentSummaryResponse{
		Counts: make(map[string]int, len(sum.Counts)),
		Orders: make([]dropshipOrderResponse, 0, len(sum.Orders)),
	}
	for status, n := range sum.Counts {
		resp.Counts[string(status)] = n
	}
	for i := range sum.Orders {
		resp.Orders = append(resp.Orders, toDropshipOrderResponse(&sum.Orders[i]))
	}

	c.JSON(http.StatusOK, resp)
}

type updateStatusRequest struct {
	Status         string  `json:"status" binding:"required"`
	TrackingNumber *string `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
}

// UpdateStatus handles PATCH /v1/fulfillment/:id/status
func (h *FulfillmentHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.BadRequest("fulfillment.invalid_id", "dropship order id must be a uuid"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("fulfillment.invalid_body", "status is required"))
		return
	}

	d, err := h.svc.UpdateStatus(c.Request.Context(), id, fulfillment.UpdateStatusInput{
		Status:         fulfillment.Status(req.Status),
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDropshipOrderResponse(d))
}
