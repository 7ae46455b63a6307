package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

func (h *handlers) getWishlist(c *gin.Context) {
	entries, err := h.deps.Wishlist.Get(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "items": toWishlistItems(entries)})
}

func (h *handlers) addToWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	entry, err := h.deps.Wishlist.Add(c.Request.Context(), principal(c), req.ProductID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product added to wishlist", "item": toWishlistItem(*entry)})
}

func (h *handlers) removeWishlistItem(c *gin.Context) {
	entries, err := h.deps.Wishlist.Remove(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product removed from wishlist", "items": toWishlistItems(entries)})
}

func (h *handlers) clearWishlist(c *gin.Context) {
	if err := h.deps.Wishlist.Clear(c.Request.Context(), principal(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Wishlist cleared", "items": []wishlistItemResponse{}})
}
