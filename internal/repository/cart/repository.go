package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists cart entries. Reads join the current catalog product.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartEntry, error)
	GetByID(ctx context.Context, id string) (*domain.CartEntry, error)
	// FindByUserProduct matches productRef against the product's storage or business identifier.
	FindByUserProduct(ctx context.Context, userID, productRef string) (*domain.CartEntry, error)
	// AddOrIncrement creates the (user, product) entry or adds quantity to the existing one.
	AddOrIncrement(ctx context.Context, userID, productID string, quantity int, options map[string]string) (*domain.CartEntry, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
