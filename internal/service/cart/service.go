// Package cart implements the per-user shopping cart: strict product resolution,
// quantity merging on add and ownership-guarded entry mutation.
package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/access"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
	"storefront/internal/service/resolver"
)

// View is a cart with its computed totals. Items holds only priced entries.
type View struct {
	Items    []domain.CartEntry
	Count    int
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// AddInput is a request to put a product in the cart. A nil Quantity means one.
type AddInput struct {
	ProductID string
	Quantity  *int
	Options   map[string]string
}

type Service struct {
	repo     cartrepo.Repository
	resolver *resolver.Resolver
	logger   *zap.Logger
}

func New(repo cartrepo.Repository, products resolver.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		resolver: resolver.Strict(products),
		logger:   logger.Named("cart_service"),
	}
}

// Get returns the principal's cart. Entries whose product is gone or unpriced are left out
// of both the list and the totals.
func (s *Service) Get(ctx context.Context, p access.Principal) (*View, error) {
	entries, err := s.repo.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to load cart")
	}
	return summarize(entries), nil
}

func summarize(entries []domain.CartEntry) *View {
	view := &View{Items: make([]domain.CartEntry, 0, len(entries)), Subtotal: decimal.Zero}
	for _, e := range entries {
		if !e.Priced() {
			continue
		}
		view.Items = append(view.Items, e)
		view.Subtotal = view.Subtotal.Add(e.Product.Price.Decimal.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	view.Count = len(view.Items)
	view.Tax = view.Subtotal.Mul(domain.TaxRate).Round(2)
	view.Total = view.Subtotal.Add(view.Tax)
	return view
}

// Add resolves the product and merges quantity into the existing entry for it, if any.
func (s *Service) Add(ctx context.Context, p access.Principal, in AddInput) (*domain.CartEntry, error) {
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 1 {
		return nil, domain.InvalidArgument("Quantity must be at least 1")
	}
	ref := strings.TrimSpace(in.ProductID)
	if ref == "" {
		return nil, domain.InvalidArgument("Product ID is required")
	}

	product, err := s.resolver.Resolve(ctx, resolver.Reference{ID: ref})
	if err != nil {
		return nil, domain.StoreError(err, "Product not found")
	}

	entry, err := s.repo.AddOrIncrement(ctx, p.UserID, product.ID, quantity, in.Options)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to add item to cart")
	}
	entry.Product = product
	s.logger.Debug("cart item added",
		zap.String("user_id", p.UserID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", entry.Quantity),
	)
	return entry, nil
}

// UpdateQuantity sets an entry's quantity. entryRef may be the entry id or a product reference.
func (s *Service) UpdateQuantity(ctx context.Context, p access.Principal, entryRef string, quantity int) (*domain.CartEntry, error) {
	if quantity < 1 {
		return nil, domain.InvalidArgument("Quantity must be at least 1")
	}
	entry, err := s.findEntry(ctx, p, entryRef)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, entry.ID, quantity); err != nil {
		return nil, domain.StoreError(err, "Failed to update cart item")
	}
	entry.Quantity = quantity
	return entry, nil
}

// Remove deletes one entry and returns what is left of the cart.
func (s *Service) Remove(ctx context.Context, p access.Principal, entryRef string) (*View, error) {
	entry, err := s.findEntry(ctx, p, entryRef)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, entry.ID); err != nil {
		return nil, domain.StoreError(err, "Failed to remove cart item")
	}
	return s.Get(ctx, p)
}

// Clear empties the principal's cart. Clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, p access.Principal) error {
	n, err := s.repo.DeleteByUser(ctx, p.UserID)
	if err != nil {
		return domain.StoreError(err, "Failed to clear cart")
	}
	s.logger.Debug("cart cleared", zap.String("user_id", p.UserID), zap.Int64("removed", n))
	return nil
}

// findEntry looks the entry up by its own id first, then by (user, product).
func (s *Service) findEntry(ctx context.Context, p access.Principal, entryRef string) (*domain.CartEntry, error) {
	ref := strings.TrimSpace(entryRef)
	if ref == "" {
		return nil, domain.NotFound("Cart item not found")
	}
	entry, err := s.repo.GetByID(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		entry, err = s.repo.FindByUserProduct(ctx, p.UserID, ref)
	}
	if err != nil {
		return nil, domain.StoreError(err, "Cart item not found")
	}
	if err := access.RequireOwner(p, entry.UserID); err != nil {
		return nil, err
	}
	return entry, nil
}
