package api

import (
	"net/http"
	"time"

	"dropmart-be/internal/apperr"
	"dropmart-be/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type orderItemResponse struct {
	VariantID string `json:"variantId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

type orderResponse struct {
	OrderID        string              `json:"orderId"`
	OrderNumber    string              `json:"orderNumber"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"paymentStatus"`
	ShippingStatus string              `json:"shippingStatus"`
	Subtotal       int64               `json:"subtotal"`
	Shipping       int64               `json:"shipping"`
	Tax            int64               `json:"tax"`
	Deduction      int64               `json:"deduction"`
	Total          int64               `json:"total"`
	Currency       string              `json:"currency"`
	Items          []orderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		OrderID:        o.ID.String(),
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		ShippingStatus: string(o.ShippingStatus),
		Subtotal:       o.Subtotal,
		Shipping:       o.Shipping,
		Tax:            o.Tax,
		Deduction:      o.Deduction,
		Total:          o.Total,
		Currency:       o.Currency,
		Items:          make([]orderItemResponse, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			VariantID: it.VariantID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return resp
}

// GetOrder handles GET /v1/orders/:id. Only the identity that placed the
// order may read it.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := callerIdentity(c)
	if err != nil {
		respondError(c, err)
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.BadRequest("order.invalid_id", "order id must be a uuid"))
		return
	}

	o, err := h.svc.GetByID(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !ownedBy(o, id.UserID, id.SessionToken) {
		respondError(c, apperr.Forbidden("order.forbidden", "order belongs to another identity"))
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(o))
}

func ownedBy(o *order.Order, userID *int64, sessionToken *string) bool {
	if o.UserID != nil {
		return userID != nil && *userID == *o.UserID
	}
	if o.SessionToken != nil {
		return sessionToken != nil && *sessionToken == *o.SessionToken
	}
	return false
}
