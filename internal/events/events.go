// Package events publishes order lifecycle events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"time"

	"storefront/internal/domain"
)

const (
	ExchangeName = "storefront.orders"
	ExchangeType = "topic"

	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent is the message body. Type doubles as the routing key.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewOrderEvent snapshots the order fields carried by every event.
func NewOrderEvent(kind string, o *domain.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       kind,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Total:      o.Total.InexactFloat64(),
		OccurredAt: at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }
