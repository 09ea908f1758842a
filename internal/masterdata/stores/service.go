package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Store, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Store, error) {
	if id <= 0 {
		return Store{}, fmt.Errorf("invalid store id: %w", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, store Store) (Store, error) {
	if err := s.validate(store); err != nil {
		return Store{}, err
	}
	return s.repo.Create(ctx, store)
}

func (s *Service) Update(ctx context.Context, id int64, store Store) error {
	if id <= 0 {
		return fmt.Errorf("invalid store id: %w", shared.ErrValidation)
	}
	if err := s.validate(store); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, store)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid store id: %w", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(store Store) error {
	if strings.TrimSpace(store.Code) == "" {
		return fmt.Errorf("store code is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(store.Name) == "" {
		return fmt.Errorf("store name is required: %w", shared.ErrValidation)
	}
	return nil
}
