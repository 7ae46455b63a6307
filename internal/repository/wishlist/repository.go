package wishlist

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists wishlist entries. Create reports domain.ErrAlreadyExists for a
// duplicate (user, product) pair.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
	GetByID(ctx context.Context, id string) (*domain.WishlistEntry, error)
	FindByUserProduct(ctx context.Context, userID, productRef string) (*domain.WishlistEntry, error)
	Create(ctx context.Context, userID, productID string) (*domain.WishlistEntry, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
