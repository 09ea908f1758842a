package products

import (
	"context"
	"fmt"

	"github.com/meridian-pos/meridian/internal/masterdata/units"
	"github.com/meridian-pos/meridian/internal/shared"
)

type Service struct {
	repo     Repository
	unitRepo units.Repository
}

func NewService(repo Repository, unitRepo units.Repository) *Service {
	return &Service{repo: repo, unitRepo: unitRepo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("invalid product id: %w", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(ctx, product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return fmt.Errorf("invalid product id: %w", shared.ErrValidation)
	}
	if err := s.validate(ctx, product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid product id: %w", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
