package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"dropmart-be/internal/checkout"
	"dropmart-be/internal/logger"
	"dropmart-be/internal/middleware"
	"dropmart-be/internal/order"
	"dropmart-be/internal/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	gateway  payment.Gateway
	orders   order.Service
	sessions checkout.Repository
}

func NewWebhookHandler(gateway payment.Gateway, orders order.Service, sessions checkout.Repository) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, orders: orders, sessions: sessions}
}

type webhookOrderResponse struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HandlePaymentEvent handles POST /v1/payments/webhook. Delivery is
// at-least-once: a PAID event for an already-confirmed session returns the
// existing order with 200.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := h.gateway.VerifyWebhook(c.GetHeader("X-Signature"), body); err != nil {
		respondError(c, err)
		return
	}

	var event payment.ConfirmationEvent
	if err := json.Unmarshal(body, &event); err != nil || event.SessionID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Status {
	case payment.EventStatusPaid:
		o, err := h.orders.ConfirmFromSession(ctx, event.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}

		middleware.CountOrderCreated()
		c.JSON(http.StatusOK, webhookOrderResponse{
			OrderID:     o.ID.String(),
			OrderNumber: o.OrderNumber,
			Status:      string(o.Status),
			Total:       o.Total,
			Currency:    o.Currency,
			CreatedAt:   o.CreatedAt,
		})

	case payment.EventStatusExpired, payment.EventStatusFailed:
		// The provider gave up on the session; flip it so later reads and
		// confirmations see a dead session.
		if err := h.sessions.MarkExpired(ctx, event.SessionID); err != nil {
			log.Warn("failed to expire session from webhook",
				zap.String("session_id", event.SessionID),
				zap.Error(err),
			)
		}
		c.Status(http.StatusOK)

	default:
		log.Warn("unknown webhook event status", zap.String("status", event.Status))
		c.Status(http.StatusOK)
	}
}
