package category

import "context"

// Repository lists the categories in use by catalog products.
type Repository interface {
	ListNames(ctx context.Context) ([]string, error)
}
