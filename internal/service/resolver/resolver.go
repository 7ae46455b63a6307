// Package resolver maps client-supplied product references onto catalog products.
//
// A Resolver is an ordered list of lookups tried until one matches. Cart and wishlist
// use the strict configuration (business id, then storage id); order creation uses the
// lenient one, which adds a name match and finally synthesizes a placeholder so it never
// reports a miss.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Reference carries whatever the client sent to identify a product.
type Reference struct {
	ID    string
	Name  string
	Image string
	Price decimal.NullDecimal
}

// Source is the catalog the lookups query.
type Source interface {
	GetByKey(ctx context.Context, key string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
}

// Lookup returns domain.ErrNotFound on a miss. Any other error aborts resolution.
type Lookup func(ctx context.Context, ref Reference) (*domain.Product, error)

type Resolver struct {
	lookups []Lookup
}

func New(lookups ...Lookup) *Resolver {
	return &Resolver{lookups: lookups}
}

// Strict matches by business identifier, then storage identifier.
func Strict(src Source) *Resolver {
	return New(ByKey(src), ByStorageID(src))
}

// Lenient extends Strict with a display-name match and a synthesized placeholder.
func Lenient(src Source) *Resolver {
	return New(ByKey(src), ByStorageID(src), ByName(src), Placeholder())
}

// Resolve returns the first match, or domain.ErrNotFound when every lookup misses.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (*domain.Product, error) {
	for _, lookup := range r.lookups {
		p, err := lookup(ctx, ref)
		if err == nil && p != nil {
			return p, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrNotFound
}

func ByKey(src Source) Lookup {
	return func(ctx context.Context, ref Reference) (*domain.Product, error) {
		id := strings.TrimSpace(ref.ID)
		if id == "" {
			return nil, domain.ErrNotFound
		}
		return src.GetByKey(ctx, id)
	}
}

// ByStorageID skips references that are not well-formed storage identifiers and queries
// the canonical form of the rest.
func ByStorageID(src Source) Lookup {
	return func(ctx context.Context, ref Reference) (*domain.Product, error) {
		u, err := uuid.Parse(strings.TrimSpace(ref.ID))
		if err != nil {
			return nil, domain.ErrNotFound
		}
		return src.GetByID(ctx, u.String())
	}
}

func ByName(src Source) Lookup {
	return func(ctx context.Context, ref Reference) (*domain.Product, error) {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			return nil, domain.ErrNotFound
		}
		return src.GetByName(ctx, name)
	}
}

// Placeholder always matches, building a product from the reference fragments.
func Placeholder() Lookup {
	return func(_ context.Context, ref Reference) (*domain.Product, error) {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			name = domain.UnknownProductName
		}
		image := strings.TrimSpace(ref.Image)
		if image == "" {
			image = domain.PlaceholderImage
		}
		price := decimal.Zero
		if ref.Price.Valid && !ref.Price.Decimal.IsNegative() {
			price = ref.Price.Decimal
		}
		return &domain.Product{
			Key:         strings.TrimSpace(ref.ID),
			Name:        name,
			Images:      []string{image},
			Price:       decimal.NewNullDecimal(price),
			Placeholder: true,
		}, nil
	}
}
