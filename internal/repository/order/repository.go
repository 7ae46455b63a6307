package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// StatusUpdate carries the mutable order fields. Nil pointers leave the column unchanged.
type StatusUpdate struct {
	Status                domain.OrderStatus
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
}

// Repository persists orders. Line items are stored as an immutable JSON document.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// ListAll returns every order newest first with the owner's username and email.
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*domain.Order, error)
}
