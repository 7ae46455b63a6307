package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/access"
	"storefront/internal/domain"
	"storefront/internal/service/auth"
	"storefront/internal/service/cart"
	"storefront/internal/service/order"
	"storefront/internal/service/product"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	shopper = &domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser}
	admin   = &domain.User{ID: "admin-1", Username: "root", Email: "root@example.com", Role: domain.RoleAdmin}
)

type stubAuthService struct {
	session    *auth.Session
	err        error
	lastLogin  string
	loggedOut  string
	lastUpdate auth.ProfileInput
}

func (s *stubAuthService) Register(_ context.Context, in auth.RegisterInput) (*auth.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.Session{User: &domain.User{ID: "new", Username: in.Username, Email: in.Email, Role: domain.RoleUser}, Token: "jwt"}, nil
}

func (s *stubAuthService) Login(_ context.Context, login, _ string) (*auth.Session, error) {
	s.lastLogin = login
	return s.session, s.err
}

func (s *stubAuthService) Authenticate(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case userToken:
		return shopper, nil
	case adminToken:
		return admin, nil
	default:
		return nil, domain.Unauthenticated("Not authorized, token failed")
	}
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubAuthService) Profile(_ context.Context, p access.Principal) (*domain.User, error) {
	if p.UserID == admin.ID {
		return admin, nil
	}
	return shopper, nil
}

func (s *stubAuthService) UpdateProfile(_ context.Context, _ access.Principal, in auth.ProfileInput) (*domain.User, error) {
	s.lastUpdate = in
	u := *shopper
	if in.Username != nil {
		u.Username = *in.Username
	}
	return &u, nil
}

type stubProductService struct {
	page      *product.Page
	product   *domain.Product
	err       error
	lastList  product.ListInput
	lastInput product.Input
	lastRef   string
	principal access.Principal
}

func (s *stubProductService) List(_ context.Context, in product.ListInput) (*product.Page, error) {
	s.lastList = in
	return s.page, s.err
}

func (s *stubProductService) Get(_ context.Context, ref string) (*domain.Product, error) {
	s.lastRef = ref
	return s.product, s.err
}

func (s *stubProductService) Create(_ context.Context, p access.Principal, in product.Input) (*domain.Product, error) {
	s.principal, s.lastInput = p, in
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.product, s.err
}

func (s *stubProductService) Update(_ context.Context, p access.Principal, ref string, in product.Input) (*domain.Product, error) {
	s.principal, s.lastRef, s.lastInput = p, ref, in
	return s.product, s.err
}

func (s *stubProductService) Delete(_ context.Context, p access.Principal, ref string) error {
	s.principal, s.lastRef = p, ref
	return s.err
}

type stubCategoryService struct {
	categories []domain.Category
	err        error
}

func (s *stubCategoryService) List(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

type stubCartService struct {
	view      *cart.View
	entry     *domain.CartEntry
	err       error
	lastAdd   cart.AddInput
	lastRef   string
	lastQty   int
	principal access.Principal
	cleared   bool
}

func (s *stubCartService) Get(_ context.Context, p access.Principal) (*cart.View, error) {
	s.principal = p
	return s.view, s.err
}

func (s *stubCartService) Add(_ context.Context, p access.Principal, in cart.AddInput) (*domain.CartEntry, error) {
	s.principal, s.lastAdd = p, in
	return s.entry, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, p access.Principal, ref string, qty int) (*domain.CartEntry, error) {
	s.principal, s.lastRef, s.lastQty = p, ref, qty
	return s.entry, s.err
}

func (s *stubCartService) Remove(_ context.Context, p access.Principal, ref string) (*cart.View, error) {
	s.principal, s.lastRef = p, ref
	return s.view, s.err
}

func (s *stubCartService) Clear(_ context.Context, p access.Principal) error {
	s.principal, s.cleared = p, true
	return s.err
}

type stubWishlistService struct {
	entries []domain.WishlistEntry
	err     error
	lastRef string
}

func (s *stubWishlistService) Get(context.Context, access.Principal) ([]domain.WishlistEntry, error) {
	return s.entries, s.err
}

func (s *stubWishlistService) Add(_ context.Context, p access.Principal, ref string) (*domain.WishlistEntry, error) {
	s.lastRef = ref
	if s.err != nil {
		return nil, s.err
	}
	return &domain.WishlistEntry{ID: "w-1", UserID: p.UserID, ProductID: ref}, nil
}

func (s *stubWishlistService) Remove(_ context.Context, _ access.Principal, ref string) ([]domain.WishlistEntry, error) {
	s.lastRef = ref
	return s.entries, s.err
}

func (s *stubWishlistService) Clear(context.Context, access.Principal) error {
	return s.err
}

type stubOrderService struct {
	order      *domain.Order
	orders     []domain.Order
	err        error
	lastCreate order.CreateInput
	lastStatus order.StatusInput
	lastID     string
}

func (s *stubOrderService) Create(_ context.Context, _ access.Principal, in order.CreateInput) (*domain.Order, error) {
	s.lastCreate = in
	return s.order, s.err
}

func (s *stubOrderService) ListMine(context.Context, access.Principal) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) Get(_ context.Context, _ access.Principal, id string) (*domain.Order, error) {
	s.lastID = id
	return s.order, s.err
}

func (s *stubOrderService) ListAll(_ context.Context, p access.Principal) ([]domain.Order, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.orders, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ access.Principal, id string, in order.StatusInput) (*domain.Order, error) {
	s.lastID, s.lastStatus = id, in
	return s.order, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func testDeps() Deps {
	return Deps{
		Auth:       &stubAuthService{},
		Products:   &stubProductService{},
		Categories: &stubCategoryService{},
		Cart:       &stubCartService{},
		Wishlist:   &stubWishlistService{},
		Orders:     &stubOrderService{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return buildRouter(zap.NewNop(), stubPinger{}, deps, Options{})
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var errBoom = errors.New("boom")
