package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian/internal/shared"
)

// validate enforces the unit invariants: every referenced unit must exist,
// rates must be positive, and the maximum unit's rate must not be below the
// minimum unit's rate.
func (s *Service) validate(ctx context.Context, p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("product code is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required: %w", shared.ErrValidation)
	}
	if p.MinUnitPrice < 0 || p.MaxUnitPrice < 0 || p.AvgCost < 0 {
		return fmt.Errorf("prices must not be negative: %w", shared.ErrValidation)
	}

	minUnit, err := s.unitRepo.Get(ctx, p.MinUnitID)
	if err != nil {
		return fmt.Errorf("resolve min unit: %w", err)
	}
	maxUnit, err := s.unitRepo.Get(ctx, p.MaxUnitID)
	if err != nil {
		return fmt.Errorf("resolve max unit: %w", err)
	}
	if _, err := s.unitRepo.Get(ctx, p.BaseUnitID); err != nil {
		return fmt.Errorf("resolve base unit: %w", err)
	}

	if minUnit.Rate <= 0 || maxUnit.Rate <= 0 {
		return fmt.Errorf("unit rates must be positive: %w", shared.ErrValidation)
	}
	if maxUnit.Rate < minUnit.Rate {
		return fmt.Errorf("max unit rate %v is below min unit rate %v: %w", maxUnit.Rate, minUnit.Rate, shared.ErrValidation)
	}
	return nil
}
