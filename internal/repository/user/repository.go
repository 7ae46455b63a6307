package user

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists and fetches user accounts.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByLogin matches either the username or the email, case-insensitively.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	Update(ctx context.Context, u domain.User) (*domain.User, error)
}
