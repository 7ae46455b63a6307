package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/service/order"
)

type orderItemRequest struct {
	ProductID string            `json:"productId"`
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	Price     *decimal.Decimal  `json:"price"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

// createOrderRequest keeps shippingAddress and paymentMethod opaque: strings pass through,
// structured values are stored as their JSON text.
type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress json.RawMessage    `json:"shippingAddress"`
	PaymentMethod   json.RawMessage    `json:"paymentMethod"`
	Tax             *decimal.Decimal   `json:"tax"`
	Shipping        *decimal.Decimal   `json:"shipping"`
	Total           *decimal.Decimal   `json:"total"`
}

type statusRequest struct {
	Status                string     `json:"status"`
	TrackingNumber        *string    `json:"trackingNumber"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate"`
}

func (r createOrderRequest) input() order.CreateInput {
	in := order.CreateInput{
		ShippingAddress: opaque(r.ShippingAddress),
		PaymentMethod:   opaque(r.PaymentMethod),
		Tax:             orZero(r.Tax),
		Shipping:        orZero(r.Shipping),
	}
	if r.Total != nil {
		in.Total = decimal.NewNullDecimal(*r.Total)
	}
	for _, it := range r.Items {
		item := order.ItemInput{
			ProductID: it.ProductID,
			ID:        it.ID,
			Name:      it.Name,
			Image:     it.Image,
			Quantity:  it.Quantity,
			Options:   it.Options,
		}
		if it.Price != nil {
			item.Price = decimal.NewNullDecimal(*it.Price)
		}
		in.Items = append(in.Items, item)
	}
	return in
}

func opaque(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (h *handlers) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	o, err := h.deps.Orders.Create(c.Request.Context(), principal(c), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Order created successfully", "order": toOrder(*o)})
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": toOrders(orders)})
}

func (h *handlers) allOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListAll(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": toOrders(orders)})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrder(*o)})
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	o, err := h.deps.Orders.UpdateStatus(c.Request.Context(), principal(c), c.Param("id"), order.StatusInput{
		Status:                req.Status,
		TrackingNumber:        req.TrackingNumber,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated", "order": toOrder(*o)})
}
