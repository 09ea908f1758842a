package employees

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Employee, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	if id <= 0 {
		return Employee{}, fmt.Errorf("invalid employee id: %w", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers an employee. pin is the plain POS PIN; it is stored only as
// a bcrypt hash.
func (s *Service) Create(ctx context.Context, employee Employee, pin string) (Employee, error) {
	if strings.TrimSpace(employee.Name) == "" {
		return Employee{}, fmt.Errorf("employee name is required: %w", shared.ErrValidation)
	}
	if pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return Employee{}, fmt.Errorf("hash pin: %w", err)
		}
		employee.PINHash = string(hash)
	}
	return s.repo.Create(ctx, employee)
}

func (s *Service) Update(ctx context.Context, id int64, employee Employee) error {
	if id <= 0 {
		return fmt.Errorf("invalid employee id: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(employee.Name) == "" {
		return fmt.Errorf("employee name is required: %w", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, employee)
}

// SetPIN replaces the employee's POS PIN.
func (s *Service) SetPIN(ctx context.Context, id int64, pin string) error {
	if id <= 0 {
		return fmt.Errorf("invalid employee id: %w", shared.ErrValidation)
	}
	if len(pin) < 4 {
		return fmt.Errorf("pin must be at least 4 digits: %w", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return s.repo.SetPINHash(ctx, id, string(hash))
}

// VerifyPIN checks a PIN against the stored hash. Session handling is left to
// an outer layer; this only answers yes or no.
func (s *Service) VerifyPIN(ctx context.Context, id int64, pin string) error {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PINHash), []byte(pin)); err != nil {
		return fmt.Errorf("pin mismatch: %w", shared.ErrValidation)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid employee id: %w", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
