package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is known.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is allowed. Re-applying the current
// status is allowed so tracking data can be attached without moving the order.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.IsValid() {
		return false
	}
	from := s
	if from == "" {
		from = OrderStatusPending
	}
	if from == next {
		return true
	}
	switch from {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

// OrderLineItem is frozen at order creation and never re-read from the catalog.
type OrderLineItem struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int
	Options   map[string]string
}

// Order is a placed order. Only Status, TrackingNumber and EstimatedDeliveryDate change
// after creation.
type Order struct {
	ID                    string
	UserID                string
	Items                 []OrderLineItem
	ShippingAddress       string
	PaymentMethod         string
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	Shipping              decimal.Decimal
	Total                 decimal.Decimal
	Status                OrderStatus
	TrackingNumber        string
	EstimatedDeliveryDate *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Owner is populated by admin listings.
	Owner *OrderOwner
}

// OrderOwner is the subset of the owning user shown in admin listings.
type OrderOwner struct {
	Username string
	Email    string
}
