// Package product serves catalog browsing and admin catalog management.
package product

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/access"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/service/resolver"
)

const (
	defaultLimit = 12
	maxLimit     = 100
)

type ListInput struct {
	Query    string
	Category string
	Featured bool
	Deals    bool
	Page     int
	Limit    int
}

// Page is one page of a product listing.
type Page struct {
	Products      []domain.Product
	CurrentPage   int
	TotalPages    int
	TotalProducts int
	HasNext       bool
	HasPrev       bool
}

// Input carries product fields for create and update. On update nil fields are kept.
type Input struct {
	Key           *string
	Name          *string
	Description   *string
	Brand         *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Images        []string
	Category      *string
	Subcategory   *string
	Rating        *float64
	ReviewCount   *int
	InStock       *bool
	Featured      *bool
	Deals         *bool
}

type invalidator interface {
	Invalidate(ctx context.Context, p domain.Product) error
}

type Service struct {
	repo     productrepo.Repository
	resolver *resolver.Resolver
	cache    invalidator
	logger   *zap.Logger
}

// New builds the service. lookups serves single-product reads and may be a cache in front
// of repo; cache may be nil.
func New(repo productrepo.Repository, lookups resolver.Source, cache invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		resolver: resolver.Strict(lookups),
		cache:    cache,
		logger:   logger.Named("product_service"),
	}
}

func (s *Service) List(ctx context.Context, in ListInput) (*Page, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	products, total, err := s.repo.List(ctx, domain.ProductFilter{
		Query:    strings.TrimSpace(in.Query),
		Category: strings.TrimSpace(in.Category),
		Featured: in.Featured,
		Deals:    in.Deals,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		return nil, domain.StoreError(err, "Failed to load products")
	}
	totalPages := (total + limit - 1) / limit
	return &Page{
		Products:      products,
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNext:       page < totalPages,
		HasPrev:       page > 1,
	}, nil
}

// Get resolves ref as a business identifier, then as a storage identifier.
func (s *Service) Get(ctx context.Context, ref string) (*domain.Product, error) {
	p, err := s.resolver.Resolve(ctx, resolver.Reference{ID: ref})
	if err != nil {
		return nil, domain.StoreError(err, "Product not found")
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, p access.Principal, in Input) (*domain.Product, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.InvalidArgument("Product name is required")
	}
	if in.Price == nil {
		return nil, domain.InvalidArgument("Product price is required")
	}
	product := domain.Product{InStock: true}
	if err := apply(&product, in); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, writeError(err, "Failed to create product")
	}
	s.logger.Info("product created", zap.String("product_id", created.ID), zap.String("key", created.Key))
	return created, nil
}

func (s *Service) Update(ctx context.Context, p access.Principal, ref string, in Input) (*domain.Product, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	next := *current
	if err := apply(&next, in); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return nil, writeError(err, "Failed to update product")
	}
	s.invalidate(ctx, *current)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, p access.Principal, ref string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	current, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, current.ID); err != nil {
		return domain.StoreError(err, "Product not found")
	}
	s.invalidate(ctx, *current)
	s.logger.Info("product deleted", zap.String("product_id", current.ID))
	return nil
}

func (s *Service) invalidate(ctx context.Context, p domain.Product) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, p)
}

func writeError(err error, msg string) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return &domain.Error{Kind: domain.KindConflict, Message: "Product with this id already exists", Err: err}
	}
	return domain.StoreError(err, msg)
}

func apply(p *domain.Product, in Input) error {
	if in.Key != nil {
		p.Key = strings.TrimSpace(*in.Key)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.InvalidArgument("Product name is required")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return domain.InvalidArgument("Price must not be negative")
		}
		p.Price = decimal.NewNullDecimal(*in.Price)
	}
	if in.OriginalPrice != nil {
		if in.OriginalPrice.IsNegative() {
			return domain.InvalidArgument("Price must not be negative")
		}
		p.OriginalPrice = decimal.NewNullDecimal(*in.OriginalPrice)
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Subcategory != nil {
		p.Subcategory = strings.TrimSpace(*in.Subcategory)
	}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			return domain.InvalidArgument("Rating must be between 0 and 5")
		}
		p.Rating = *in.Rating
	}
	if in.ReviewCount != nil {
		p.ReviewCount = *in.ReviewCount
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Deals != nil {
		p.Deals = *in.Deals
	}
	return nil
}
