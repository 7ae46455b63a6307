package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/cart"
)

type addToCartRequest struct {
	ProductID string            `json:"productId"`
	Quantity  *int              `json:"quantity"`
	Options   map[string]string `json:"options"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.deps.Cart.Get(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(view))
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	entry, err := h.deps.Cart.Add(c.Request.Context(), principal(c), cart.AddInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Options:   req.Options,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product added to cart", "item": toCartItem(*entry)})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	entry, err := h.deps.Cart.UpdateQuantity(c.Request.Context(), principal(c), c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart item updated", "item": toCartItem(*entry)})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	view, err := h.deps.Cart.Remove(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	body := cartBody(view)
	body["message"] = "Product removed from cart"
	c.JSON(http.StatusOK, body)
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.Cart.Clear(c.Request.Context(), principal(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared", "items": []cartItemResponse{}})
}
