package api

import (
	"net/http"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/cart"
	"dropmart-be/internal/identity"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	svc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

type cartItemResponse struct {
	VariantID   string `json:"variantId"`
	DisplayName string `json:"displayName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
}

type cartSummaryResponse struct {
	Items             []cartItemResponse `json:"items"`
	Subtotal          int64              `json:"subtotal"`
	EstimatedShipping int64              `json:"estimatedShipping"`
	EstimatedTax      int64              `json:"estimatedTax"`
	EstimatedTotal    int64              `json:"estimatedTotal"`
}

func toCartSummaryResponse(s *cart.Summary) cartSummaryResponse {
	resp := cartSummaryResponse{
		Items:             make([]cartItemResponse, 0, len(s.Items)),
		Subtotal:          s.Subtotal,
		EstimatedShipping: s.EstimatedShipping,
		EstimatedTax:      s.EstimatedTax,
		EstimatedTotal:    s.EstimatedTotal,
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			VariantID:   it.VariantID,
			DisplayName: it.DisplayName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return resp
}

func callerIdentity(c *gin.Context) (identity.Identity, error) {
	id, ok := identity.FromContext(c.Request.Context())
	if !ok || !id.Valid() {
		return identity.Identity{}, apperr.Forbidden("identity.unresolved", "request identity could not be resolved")
	}
	return id, nil
}

// GetSummary handles GET /v1/cart
func (h *CartHandler) GetSummary(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sum, err := h.svc.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCartSummaryResponse(sum))
}

type addItemRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// AddItem handles POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("cart.invalid_body", "variantId and a positive quantity are required"))
		return
	}

	sum, err := h.svc.AddItem(c.Request.Context(), id, req.VariantID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCartSummaryResponse(sum))
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateQuantity handles PATCH /v1/cart/items/:variantID. Quantity zero
// removes the line.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || *req.Quantity < 0 {
		respondError(c, apperr.BadRequest("cart.invalid_body", "quantity must be zero or positive"))
		return
	}

	sum, err := h.svc.UpdateQuantity(c.Request.Context(), id, c.Param("variantID"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCartSummaryResponse(sum))
}

// RemoveItem handles DELETE /v1/cart/items/:variantID
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sum, err := h.svc.RemoveItem(c.Request.Context(), id, c.Param("variantID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCartSummaryResponse(sum))
}

// Clear handles DELETE /v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sum, err := h.svc.Clear(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCartSummaryResponse(sum))
}
