package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/service/cart"
)

func TestGetCart_Totals(t *testing.T) {
	svc := &stubCartService{view: &cart.View{
		Items: []domain.CartEntry{{
			ID:       "c-1",
			UserID:   shopper.ID,
			Quantity: 2,
			Product:  &domain.Product{ID: "p-1", Name: "Mug", Price: decimal.NewNullDecimal(decimal.NewFromInt(10))},
		}},
		Count:    1,
		Subtotal: decimal.NewFromInt(20),
		Tax:      decimal.RequireFromString("1.6"),
		Total:    decimal.RequireFromString("21.6"),
	}}
	deps := testDeps()
	deps.Cart = svc
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/api/cart", userToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) || body["subtotal"] != float64(20) || body["tax"] != 1.6 || body["total"] != 21.6 {
		t.Fatalf("unexpected totals %v", body)
	}
	items, _ := body["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["quantity"] != float64(2) {
		t.Fatalf("unexpected items %v", body["items"])
	}
	if svc.principal.UserID != shopper.ID {
		t.Fatalf("expected principal from token, got %+v", svc.principal)
	}
}

func TestAddToCart(t *testing.T) {
	svc := &stubCartService{entry: &domain.CartEntry{ID: "c-1", UserID: shopper.ID, ProductID: "p-1", Quantity: 3}}
	deps := testDeps()
	deps.Cart = svc
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/api/cart", userToken, `{"productId":"laptop-1","quantity":3,"options":{"color":"red"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.lastAdd.ProductID != "laptop-1" || svc.lastAdd.Quantity == nil || *svc.lastAdd.Quantity != 3 || svc.lastAdd.Options["color"] != "red" {
		t.Fatalf("unexpected add input %+v", svc.lastAdd)
	}

	rec = doRequest(router, http.MethodPost, "/api/cart", userToken, `{"productId":"laptop-1"}`)
	if rec.Code != http.StatusCreated || svc.lastAdd.Quantity != nil {
		t.Fatalf("expected omitted quantity to stay nil, got %+v", svc.lastAdd)
	}
}

func TestCartErrors_StatusMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{domain.Forbidden("User not authorized"), http.StatusForbidden, "User not authorized"},
		{domain.NotFound("Cart item not found"), http.StatusNotFound, "Cart item not found"},
		{domain.InvalidArgument("Quantity must be at least 1"), http.StatusBadRequest, "Quantity must be at least 1"},
		{domain.StoreError(fmt.Errorf("%w: dial tcp", domain.ErrUnavailable), "Error updating cart"), http.StatusServiceUnavailable, "Database connection unavailable. Please try again later."},
		{domain.StoreError(errBoom, "Error updating cart"), http.StatusInternalServerError, "Error updating cart"},
		{errBoom, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		deps := testDeps()
		deps.Cart = &stubCartService{err: tc.err}
		router := newTestRouter(t, deps)

		rec := doRequest(router, http.MethodPut, "/api/cart/c-1", userToken, `{"quantity":2}`)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		body := decodeBody(t, rec)
		if body["success"] != false || body["message"] != tc.message {
			t.Fatalf("%v: unexpected body %v", tc.err, body)
		}
		if strings.Contains(rec.Body.String(), "boom") || strings.Contains(rec.Body.String(), "dial tcp") {
			t.Fatalf("internal cause leaked: %s", rec.Body.String())
		}
	}
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	svc := &stubCartService{
		entry: &domain.CartEntry{ID: "c-1", UserID: shopper.ID, Quantity: 5},
		view:  &cart.View{},
	}
	deps := testDeps()
	deps.Cart = svc
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPut, "/api/cart/c-1", userToken, `{"quantity":5}`)
	if rec.Code != http.StatusOK || svc.lastRef != "c-1" || svc.lastQty != 5 {
		t.Fatalf("unexpected update %d %q %d", rec.Code, svc.lastRef, svc.lastQty)
	}

	rec = doRequest(router, http.MethodDelete, "/api/cart/laptop-1", userToken, "")
	body := decodeBody(t, rec)
	if rec.Code != http.StatusOK || svc.lastRef != "laptop-1" || body["message"] != "Product removed from cart" {
		t.Fatalf("unexpected remove %d %v", rec.Code, body)
	}
	if items, _ := body["items"].([]any); items == nil || len(items) != 0 {
		t.Fatalf("expected empty items array, got %v", body["items"])
	}

	rec = doRequest(router, http.MethodDelete, "/api/cart", userToken, "")
	if rec.Code != http.StatusOK || !svc.cleared {
		t.Fatalf("expected cart cleared, got %d", rec.Code)
	}
}
