package api

import (
	"net/http"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/checkout"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	svc checkout.Service
}

func NewCheckoutHandler(svc checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type createSessionRequest struct {
	ShippingMethodID string            `json:"shippingMethodId" binding:"required"`
	DiscountCode     *string           `json:"discountCode"`
	ShippingAddress  checkout.Address  `json:"shippingAddress" binding:"required"`
	BillingAddress   *checkout.Address `json:"billingAddress"`
	CustomerEmail    string            `json:"customerEmail"`
}

type createSessionResponse struct {
	SessionID   string    `json:"sessionId"`
	RedirectURL string    `json:"redirectUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status"`
	Subtotal  int64     `json:"subtotal"`
	Shipping  int64     `json:"shipping"`
	Tax       int64     `json:"tax"`
	Deduction int64     `json:"deduction"`
	Total     int64     `json:"total"`
	Currency  string    `json:"currency"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateSession handles POST /v1/checkout/sessions
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("checkout.invalid_body", "shippingMethodId and shippingAddress are required"))
		return
	}

	sess, err := h.svc.CreateSession(c.Request.Context(), id, checkout.CreateSessionInput{
		ShippingMethodID: req.ShippingMethodID,
		DiscountCode:     req.DiscountCode,
		ShippingAddress:  req.ShippingAddress,
		BillingAddress:   req.BillingAddress,
		CustomerEmail:    req.CustomerEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createSessionResponse{
		SessionID:   sess.ID,
		RedirectURL: sess.RedirectURL,
		ExpiresAt:   sess.ExpiresAt,
	})
}

// GetSession handles GET /v1/checkout/sessions/:id
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sess, err := h.svc.GetSession(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status),
		Subtotal:  sess.Subtotal,
		Shipping:  sess.Shipping,
		Tax:       sess.Tax,
		Deduction: sess.Deduction,
		Total:     sess.Total,
		Currency:  sess.Currency,
		ExpiresAt: sess.ExpiresAt,
	})
}

// CancelSession handles POST /v1/checkout/sessions/:id/cancel
func (h *CheckoutHandler) CancelSession(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.svc.CancelSession(c.Request.Context(), id, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
