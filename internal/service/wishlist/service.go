// Package wishlist implements the per-user wishlist. Unlike the cart, adding a product
// that is already saved is rejected rather than merged.
package wishlist

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/access"
	"storefront/internal/domain"
	wishlistrepo "storefront/internal/repository/wishlist"
	"storefront/internal/service/resolver"
)

type Service struct {
	repo     wishlistrepo.Repository
	resolver *resolver.Resolver
	logger   *zap.Logger
}

func New(repo wishlistrepo.Repository, products resolver.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		resolver: resolver.Strict(products),
		logger:   logger.Named("wishlist_service"),
	}
}

// Get returns the principal's saved products, skipping entries whose product was deleted.
func (s *Service) Get(ctx context.Context, p access.Principal) ([]domain.WishlistEntry, error) {
	entries, err := s.repo.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to load wishlist")
	}
	out := make([]domain.WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.Product == nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, p access.Principal, productRef string) (*domain.WishlistEntry, error) {
	ref := strings.TrimSpace(productRef)
	if ref == "" {
		return nil, domain.InvalidArgument("Product ID is required")
	}
	product, err := s.resolver.Resolve(ctx, resolver.Reference{ID: ref})
	if err != nil {
		return nil, domain.StoreError(err, "Product not found")
	}

	entry, err := s.repo.Create(ctx, p.UserID, product.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, &domain.Error{Kind: domain.KindConflict, Message: "Product already in wishlist", Err: err}
		}
		return nil, domain.StoreError(err, "Failed to add item to wishlist")
	}
	entry.Product = product
	return entry, nil
}

// Remove deletes one entry, found by entry id or product reference, and returns the rest.
func (s *Service) Remove(ctx context.Context, p access.Principal, entryRef string) ([]domain.WishlistEntry, error) {
	ref := strings.TrimSpace(entryRef)
	if ref == "" {
		return nil, domain.NotFound("Wishlist item not found")
	}
	entry, err := s.repo.GetByID(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		entry, err = s.repo.FindByUserProduct(ctx, p.UserID, ref)
	}
	if err != nil {
		return nil, domain.StoreError(err, "Wishlist item not found")
	}
	if err := access.RequireOwner(p, entry.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, entry.ID); err != nil {
		return nil, domain.StoreError(err, "Failed to remove wishlist item")
	}
	return s.Get(ctx, p)
}

func (s *Service) Clear(ctx context.Context, p access.Principal) error {
	n, err := s.repo.DeleteByUser(ctx, p.UserID)
	if err != nil {
		return domain.StoreError(err, "Failed to clear wishlist")
	}
	s.logger.Debug("wishlist cleared", zap.String("user_id", p.UserID), zap.Int64("removed", n))
	return nil
}
