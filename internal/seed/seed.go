package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
)

// ProductWriter upserts catalog rows by business identifier.
type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// UserWriter creates accounts.
type UserWriter interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

type userSeed struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

var demoUsers = []userSeed{
	{Username: "admin", Email: "admin@example.com", Password: "admin123", Role: domain.RoleAdmin},
	{Username: "testuser", Email: "test@example.com", Password: "password123", Role: domain.RoleUser},
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

var demoProducts = []domain.Product{
	{
		Key:         "demo-headphones",
		Name:        "Wireless Headphones",
		Description: "Over-ear headphones with active noise cancellation",
		Brand:       "SoundWave",
		Price:       price("129.99"),
		Images:      []string{"/images/headphones.jpg"},
		Category:    "Electronics",
		Subcategory: "Audio",
		Rating:      4.5,
		ReviewCount: 212,
		InStock:     true,
		Featured:    true,
	},
	{
		Key:           "demo-sneakers",
		Name:          "Running Sneakers",
		Description:   "Lightweight trainers for daily runs",
		Brand:         "Stride",
		Price:         price("79.50"),
		OriginalPrice: price("99.00"),
		Images:        []string{"/images/sneakers.jpg"},
		Category:      "Fashion",
		Subcategory:   "Shoes",
		Rating:        4.2,
		ReviewCount:   87,
		InStock:       true,
		Deals:         true,
	},
	{
		Key:         "demo-mug",
		Name:        "Ceramic Mug",
		Description: "Stoneware mug, dishwasher safe",
		Brand:       "Hearth",
		Price:       price("12.99"),
		Images:      []string{"/images/mug.jpg"},
		Category:    "Home",
		Subcategory: "Kitchen",
		Rating:      4.8,
		ReviewCount: 40,
		InStock:     true,
	},
	{
		Key:         "demo-novel",
		Name:        "Paperback Novel",
		Description: "Bestselling mystery novel",
		Brand:       "Inkwell",
		Price:       price("14.25"),
		Images:      []string{"/images/novel.jpg"},
		Category:    "Books",
		Rating:      4.1,
		ReviewCount: 19,
		InStock:     false,
	},
}

// Apply upserts the demo catalog and creates the demo accounts. Existing accounts are left
// untouched, so running it twice is safe.
func Apply(ctx context.Context, products ProductWriter, users UserWriter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, p := range demoProducts {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	logger.Info("seeded products", zap.Int("count", len(demoProducts)))

	for _, u := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		_, err = users.Create(ctx, domain.User{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: string(hash),
			Role:         u.Role,
		})
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			logger.Info("user already present", zap.String("username", u.Username))
		case err != nil:
			return fmt.Errorf("create user %s: %w", u.Username, err)
		default:
			logger.Info("seeded user", zap.String("username", u.Username), zap.String("role", string(u.Role)))
		}
	}
	return nil
}
