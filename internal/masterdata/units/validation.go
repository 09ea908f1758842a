package units

import (
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian/internal/shared"
)

func (s *Service) validate(u Unit) error {
	if strings.TrimSpace(u.Code) == "" {
		return fmt.Errorf("unit code is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("unit name is required: %w", shared.ErrValidation)
	}
	if u.Rate <= 0 {
		return fmt.Errorf("unit rate must be positive: %w", shared.ErrValidation)
	}
	return nil
}
