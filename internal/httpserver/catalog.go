package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/service/product"
)

// productRequest is the admin write payload. id is the business identifier.
type productRequest struct {
	Key           *string          `json:"id"`
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Brand         *string          `json:"brand"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Images        []string         `json:"images"`
	Category      *string          `json:"category"`
	Subcategory   *string          `json:"subcategory"`
	Rating        *float64         `json:"rating"`
	ReviewCount   *int             `json:"reviewCount"`
	InStock       *bool            `json:"inStock"`
	Featured      *bool            `json:"featured"`
	Deals         *bool            `json:"deals"`
}

func (r productRequest) input() product.Input {
	return product.Input{
		Key:           r.Key,
		Name:          r.Name,
		Description:   r.Description,
		Brand:         r.Brand,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Images:        r.Images,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Rating:        r.Rating,
		ReviewCount:   r.ReviewCount,
		InStock:       r.InStock,
		Featured:      r.Featured,
		Deals:         r.Deals,
	}
}

func (h *handlers) listProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	result, err := h.deps.Products.List(c.Request.Context(), product.ListInput{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Featured: c.Query("featured") == "true",
		Deals:    c.Query("deals") == "true",
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toProductList(result)})
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": toProduct(p)})
}

func (h *handlers) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	p, err := h.deps.Products.Create(c.Request.Context(), principal(c), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product created", "data": toProduct(p)})
}

func (h *handlers) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errInvalidBody)
		return
	}
	p, err := h.deps.Products.Update(c.Request.Context(), principal(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated", "data": toProduct(p)})
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.Products.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}
