package httpserver

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/service/auth"
	"storefront/internal/service/cart"
	"storefront/internal/service/product"
)

// respondError writes the failure envelope. Only the classified message reaches the client;
// the wrapped cause is logged for server-side failures.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	message := defaultMessage(kind)
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Message != "" {
		message = derr.Message
	}
	if kind == domain.KindInternal || kind == domain.KindUnavailable {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"success": false, "message": message})
}

func defaultMessage(kind domain.Kind) string {
	switch kind {
	case domain.KindNotFound:
		return "Resource not found"
	case domain.KindForbidden:
		return "Not authorized"
	case domain.KindInvalidArgument:
		return "Invalid request"
	case domain.KindConflict:
		return "Resource already exists"
	case domain.KindUnauthenticated:
		return "Not authorized"
	case domain.KindUnavailable:
		return "Database connection unavailable. Please try again later."
	default:
		return "Internal server error"
	}
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

// productResponse keeps the catalog contract: id is the business identifier, _id the
// storage identifier.
type productResponse struct {
	ID            string    `json:"id"`
	StorageID     string    `json:"_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Brand         string    `json:"brand"`
	Price         *float64  `json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	Images        []string  `json:"images"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	InStock       bool      `json:"inStock"`
	Featured      bool      `json:"featured"`
	Deals         bool      `json:"deals"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type paginationResponse struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

type productListResponse struct {
	Products   []productResponse  `json:"products"`
	Pagination paginationResponse `json:"pagination"`
}

type cartItemResponse struct {
	ID        string            `json:"_id"`
	User      string            `json:"user"`
	Product   *productResponse  `json:"product"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type wishlistItemResponse struct {
	ID        string           `json:"_id"`
	User      string           `json:"user"`
	Product   *productResponse `json:"product"`
	CreatedAt time.Time        `json:"createdAt"`
}

type orderItemResponse struct {
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	Price     float64           `json:"price"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

type orderOwnerResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type orderResponse struct {
	ID                    string              `json:"_id"`
	User                  any                 `json:"user"`
	Items                 []orderItemResponse `json:"items"`
	ShippingAddress       string              `json:"shippingAddress"`
	PaymentMethod         string              `json:"paymentMethod"`
	Subtotal              float64             `json:"subtotal"`
	Tax                   float64             `json:"tax"`
	Shipping              float64             `json:"shipping"`
	Total                 float64             `json:"total"`
	Status                string              `json:"status"`
	TrackingNumber        string              `json:"trackingNumber,omitempty"`
	EstimatedDeliveryDate *time.Time          `json:"estimatedDeliveryDate,omitempty"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

func toUser(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)}
}

func toSession(s *auth.Session) sessionResponse {
	return sessionResponse{User: toUser(s.User), Token: s.Token}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func nullMoney(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := money(d.Decimal)
	return &v
}

func toProduct(p *domain.Product) *productResponse {
	if p == nil {
		return nil
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return &productResponse{
		ID:            p.ReferenceID(),
		StorageID:     p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Brand:         p.Brand,
		Price:         nullMoney(p.Price),
		OriginalPrice: nullMoney(p.OriginalPrice),
		Images:        images,
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		InStock:       p.InStock,
		Featured:      p.Featured,
		Deals:         p.Deals,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductList(page *product.Page) productListResponse {
	out := make([]productResponse, 0, len(page.Products))
	for i := range page.Products {
		out = append(out, *toProduct(&page.Products[i]))
	}
	return productListResponse{
		Products: out,
		Pagination: paginationResponse{
			CurrentPage:   page.CurrentPage,
			TotalPages:    page.TotalPages,
			TotalProducts: page.TotalProducts,
			HasNext:       page.HasNext,
			HasPrev:       page.HasPrev,
		},
	}
}

func options(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func toCartItem(e domain.CartEntry) cartItemResponse {
	return cartItemResponse{
		ID:        e.ID,
		User:      e.UserID,
		Product:   toProduct(e.Product),
		Quantity:  e.Quantity,
		Options:   options(e.Options),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func cartBody(view *cart.View) gin.H {
	items := make([]cartItemResponse, 0, len(view.Items))
	for _, e := range view.Items {
		items = append(items, toCartItem(e))
	}
	return gin.H{
		"success":  true,
		"count":    view.Count,
		"subtotal": money(view.Subtotal),
		"tax":      money(view.Tax),
		"total":    money(view.Total),
		"items":    items,
	}
}

func toWishlistItems(entries []domain.WishlistEntry) []wishlistItemResponse {
	out := make([]wishlistItemResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toWishlistItem(e))
	}
	return out
}

func toWishlistItem(e domain.WishlistEntry) wishlistItemResponse {
	return wishlistItemResponse{ID: e.ID, User: e.UserID, Product: toProduct(e.Product), CreatedAt: e.CreatedAt}
}

func toOrder(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     money(it.Price),
			Quantity:  it.Quantity,
			Options:   options(it.Options),
		})
	}
	var user any = o.UserID
	if o.Owner != nil {
		user = orderOwnerResponse{ID: o.UserID, Username: o.Owner.Username, Email: o.Owner.Email}
	}
	return orderResponse{
		ID:                    o.ID,
		User:                  user,
		Items:                 items,
		ShippingAddress:       o.ShippingAddress,
		PaymentMethod:         o.PaymentMethod,
		Subtotal:              money(o.Subtotal),
		Tax:                   money(o.Tax),
		Shipping:              money(o.Shipping),
		Total:                 money(o.Total),
		Status:                string(o.Status),
		TrackingNumber:        o.TrackingNumber,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func toOrders(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	return out
}
