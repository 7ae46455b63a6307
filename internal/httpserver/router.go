package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/access"
	"storefront/internal/domain"
	"storefront/internal/service/auth"
	"storefront/internal/service/cart"
	"storefront/internal/service/order"
	"storefront/internal/service/product"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, login, password string) (*auth.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, p access.Principal) (*domain.User, error)
	UpdateProfile(ctx context.Context, p access.Principal, in auth.ProfileInput) (*domain.User, error)
}

type ProductService interface {
	List(ctx context.Context, in product.ListInput) (*product.Page, error)
	Get(ctx context.Context, ref string) (*domain.Product, error)
	Create(ctx context.Context, p access.Principal, in product.Input) (*domain.Product, error)
	Update(ctx context.Context, p access.Principal, ref string, in product.Input) (*domain.Product, error)
	Delete(ctx context.Context, p access.Principal, ref string) error
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type CartService interface {
	Get(ctx context.Context, p access.Principal) (*cart.View, error)
	Add(ctx context.Context, p access.Principal, in cart.AddInput) (*domain.CartEntry, error)
	UpdateQuantity(ctx context.Context, p access.Principal, entryRef string, quantity int) (*domain.CartEntry, error)
	Remove(ctx context.Context, p access.Principal, entryRef string) (*cart.View, error)
	Clear(ctx context.Context, p access.Principal) error
}

type WishlistService interface {
	Get(ctx context.Context, p access.Principal) ([]domain.WishlistEntry, error)
	Add(ctx context.Context, p access.Principal, productRef string) (*domain.WishlistEntry, error)
	Remove(ctx context.Context, p access.Principal, entryRef string) ([]domain.WishlistEntry, error)
	Clear(ctx context.Context, p access.Principal) error
}

type OrderService interface {
	Create(ctx context.Context, p access.Principal, in order.CreateInput) (*domain.Order, error)
	ListMine(ctx context.Context, p access.Principal) ([]domain.Order, error)
	Get(ctx context.Context, p access.Principal, id string) (*domain.Order, error)
	ListAll(ctx context.Context, p access.Principal) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, p access.Principal, id string, in order.StatusInput) (*domain.Order, error)
}

// Deps are the services behind the API routes.
type Deps struct {
	Auth       AuthService
	Products   ProductService
	Categories CategoryService
	Cart       CartService
	Wishlist   WishlistService
	Orders     OrderService
}

// Options tune router behavior per environment.
type Options struct {
	Production bool
	// CORSOrigins restricts cross-origin callers; empty reflects any origin.
	CORSOrigins []string
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, opts Options) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(customRecovery(logger), loggingMiddleware(logger), corsMiddleware(opts.CORSOrigins), securityHeaders())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	requireAuth := authMiddleware(deps.Auth, logger)

	api := router.Group("/api")
	api.GET("/health", apiHealthHandler(db))

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.register)
		authRoutes.POST("/login", h.login)
		authRoutes.GET("/profile", requireAuth, h.profile)
		authRoutes.PUT("/profile", requireAuth, h.updateProfile)
		authRoutes.POST("/logout", requireAuth, h.logout)
	}

	products := api.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/categories", h.listCategories)
		products.GET("/:id", h.getProduct)
		products.POST("", requireAuth, h.createProduct)
		products.PUT("/:id", requireAuth, h.updateProduct)
		products.DELETE("/:id", requireAuth, h.deleteProduct)
	}

	cartRoutes := api.Group("/cart", requireAuth)
	{
		cartRoutes.GET("", h.getCart)
		cartRoutes.POST("", h.addToCart)
		cartRoutes.DELETE("", h.clearCart)
		cartRoutes.PUT("/:id", h.updateCartItem)
		cartRoutes.DELETE("/:id", h.removeCartItem)
	}

	wishlist := api.Group("/wishlist", requireAuth)
	{
		wishlist.GET("", h.getWishlist)
		wishlist.POST("", h.addToWishlist)
		wishlist.DELETE("", h.clearWishlist)
		wishlist.DELETE("/:id", h.removeWishlistItem)
	}

	orders := api.Group("/orders", requireAuth)
	{
		orders.POST("", h.createOrder)
		orders.GET("", h.myOrders)
		orders.GET("/all", h.allOrders)
		orders.GET("/:id", h.getOrder)
		orders.PUT("/:id/status", h.updateOrderStatus)
	}

	router.NoRoute(func(c *gin.Context) {
		respondError(c, logger, domain.NotFound("Route not found"))
	})

	return router
}
