package category

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the categories in use, numbered in first-seen order.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	names, err := s.repo.ListNames(ctx)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to load categories")
	}
	out := make([]domain.Category, 0, len(names))
	for i, name := range names {
		out = append(out, domain.Category{ID: i, Name: name})
	}
	return out, nil
}
