package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func sampleOrder() *domain.Order {
	eta := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:     "o-1",
		UserID: shopper.ID,
		Items: []domain.OrderLineItem{
			{ProductID: "laptop-1", Name: "Laptop", Image: "/laptop.jpg", Price: decimal.RequireFromString("999.99"), Quantity: 1},
		},
		ShippingAddress:       "1 Main St",
		PaymentMethod:         "card",
		Subtotal:              decimal.RequireFromString("999.99"),
		Tax:                   decimal.RequireFromString("80"),
		Shipping:              decimal.Zero,
		Total:                 decimal.RequireFromString("1079.99"),
		Status:                domain.OrderStatusPending,
		EstimatedDeliveryDate: &eta,
	}
}

func TestCreateOrder_BindsPayload(t *testing.T) {
	svc := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.Orders = svc
	router := newTestRouter(t, deps)

	payload := `{
		"items":[{"id":"laptop-1","name":"Laptop","price":999.99,"quantity":1},{"productId":"ghost","quantity":2}],
		"shippingAddress":{"street":"1 Main St","city":"Springfield"},
		"paymentMethod":"card",
		"tax":80,
		"total":1079.99
	}`
	rec := doRequest(router, http.MethodPost, "/api/orders", userToken, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	in := svc.lastCreate
	if len(in.Items) != 2 || in.Items[0].ID != "laptop-1" || in.Items[1].ProductID != "ghost" {
		t.Fatalf("unexpected items %+v", in.Items)
	}
	if !in.Items[0].Price.Valid || in.Items[1].Price.Valid {
		t.Fatalf("expected only the first item to carry a price: %+v", in.Items)
	}
	if in.ShippingAddress != `{"street":"1 Main St","city":"Springfield"}` || in.PaymentMethod != "card" {
		t.Fatalf("unexpected opaque fields %q %q", in.ShippingAddress, in.PaymentMethod)
	}
	if !in.Tax.Equal(decimal.NewFromInt(80)) || !in.Shipping.IsZero() || !in.Total.Valid {
		t.Fatalf("unexpected amounts %+v", in)
	}

	body := decodeBody(t, rec)
	order, _ := body["order"].(map[string]any)
	if body["message"] != "Order created successfully" || order["total"] != 1079.99 || order["user"] != shopper.ID {
		t.Fatalf("unexpected body %v", body)
	}
	if order["estimatedDeliveryDate"] != "2026-03-04T12:00:00Z" {
		t.Fatalf("unexpected eta %v", order["estimatedDeliveryDate"])
	}
}

func TestCreateOrder_TotalOptional(t *testing.T) {
	svc := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.Orders = svc
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/api/orders", userToken, `{"items":[{"productId":"a","quantity":1}],"shippingAddress":"x","paymentMethod":"y"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.lastCreate.Total.Valid {
		t.Fatalf("expected absent total to stay unset")
	}
}

func TestOpaque(t *testing.T) {
	cases := map[string]string{
		``:                "",
		`null`:            "",
		`"plain"`:         "plain",
		` {"a":1} `:       `{"a":1}`,
		`["visa","4242"]`: `["visa","4242"]`,
	}
	for raw, want := range cases {
		if got := opaque([]byte(raw)); got != want {
			t.Fatalf("opaque(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestAllOrders_AdminOnly(t *testing.T) {
	o := sampleOrder()
	o.Owner = &domain.OrderOwner{Username: "alice", Email: "alice@example.com"}
	deps := testDeps()
	deps.Orders = &stubOrderService{orders: []domain.Order{*o}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/api/orders/all", userToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Not authorized as an admin" {
		t.Fatalf("unexpected message %v", body["message"])
	}

	rec = doRequest(router, http.MethodGet, "/api/orders/all", adminToken, "")
	body := decodeBody(t, rec)
	orders, _ := body["orders"].([]any)
	if rec.Code != http.StatusOK || len(orders) != 1 || body["count"] != float64(1) {
		t.Fatalf("unexpected listing %d %v", rec.Code, body)
	}
	owner, _ := orders[0].(map[string]any)["user"].(map[string]any)
	if owner["username"] != "alice" || owner["_id"] != shopper.ID {
		t.Fatalf("expected populated owner, got %v", owner)
	}
}

func TestGetOrder_RoutesByID(t *testing.T) {
	svc := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.Orders = svc
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/api/orders/o-1", userToken, "")
	if rec.Code != http.StatusOK || svc.lastID != "o-1" {
		t.Fatalf("unexpected get %d %q", rec.Code, svc.lastID)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	svc := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.Orders = svc
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPut, "/api/orders/o-1/status", adminToken,
		`{"status":"shipped","trackingNumber":"TRK1","estimatedDeliveryDate":"2026-03-05T00:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	in := svc.lastStatus
	if svc.lastID != "o-1" || in.Status != "shipped" || in.TrackingNumber == nil || *in.TrackingNumber != "TRK1" {
		t.Fatalf("unexpected status input %+v", in)
	}
	if in.EstimatedDeliveryDate == nil || !in.EstimatedDeliveryDate.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected eta %v", in.EstimatedDeliveryDate)
	}

	svc.err = domain.InvalidArgument("Cannot change order status from delivered to pending")
	rec = doRequest(router, http.MethodPut, "/api/orders/o-1/status", adminToken, `{"status":"pending"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
