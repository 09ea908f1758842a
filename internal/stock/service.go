package stock

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// LedgerPort abstracts the stock ledger for the service and its tests.
type LedgerPort interface {
	GetQuantity(ctx context.Context, storeID, productID int64) (float64, error)
	Adjust(ctx context.Context, q db.Querier, storeID, productID, unitID int64, transactionQuantity float64) (float64, error)
	SetQuantity(ctx context.Context, q db.Querier, storeID, productID int64, quantity float64) error
	ListEntries(ctx context.Context, storeID int64, limit int) ([]Entry, error)
}

// RepositoryPort abstracts adjustment persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, db.Querier) error) error
	InsertAdjustment(ctx context.Context, q db.Querier, adj Adjustment) (int64, error)
	ListAdjustments(ctx context.Context, storeID int64, limit int) ([]Adjustment, error)
	LowStock(ctx context.Context, storeID int64) ([]LowStockRow, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the manual stock workflows: corrections with a reason,
// recounts, and the read-side reports. Document-driven stock movement never
// passes through here; it calls the Ledger inside the document transaction.
type Service struct {
	repo     RepositoryPort
	ledger   LedgerPort
	audit    AuditPort
	cache    *QuantityCache
	lowStock singleflight.Group
}

// NewService builds Service. audit and cache may be nil.
func NewService(repo RepositoryPort, ledger LedgerPort, audit AuditPort, cache *QuantityCache) *Service {
	return &Service{repo: repo, ledger: ledger, audit: audit, cache: cache}
}

// Quantity returns the current stock quantity, preferring the read cache.
func (s *Service) Quantity(ctx context.Context, storeID, productID int64) (float64, error) {
	if storeID <= 0 || productID <= 0 {
		return 0, fmt.Errorf("store and product are required: %w", shared.ErrValidation)
	}
	if s.cache != nil {
		if qty, ok := s.cache.Get(ctx, storeID, productID); ok {
			return qty, nil
		}
	}
	qty, err := s.ledger.GetQuantity(ctx, storeID, productID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, storeID, productID, qty)
	}
	return qty, nil
}

// PostAdjustment applies a signed manual correction in transaction units.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (Adjustment, error) {
	if input.StoreID <= 0 || input.ProductID <= 0 || input.UnitID <= 0 {
		return Adjustment{}, fmt.Errorf("store, product and unit are required: %w", shared.ErrValidation)
	}
	if input.Quantity == 0 {
		return Adjustment{}, ErrInvalidQuantity
	}
	if input.Reason == "" {
		return Adjustment{}, fmt.Errorf("adjustment reason is required: %w", shared.ErrValidation)
	}

	adj := Adjustment{
		StoreID:   input.StoreID,
		ProductID: input.ProductID,
		UnitID:    input.UnitID,
		Quantity:  input.Quantity,
		Reason:    input.Reason,
		Note:      input.Note,
		ActorID:   input.ActorID,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		newQty, err := s.ledger.Adjust(ctx, q, input.StoreID, input.ProductID, input.UnitID, input.Quantity)
		if err != nil {
			return err
		}
		adj.NewBaseQty = newQty
		id, err := s.repo.InsertAdjustment(ctx, q, adj)
		if err != nil {
			return err
		}
		adj.ID = id
		return nil
	})
	if err != nil {
		return Adjustment{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, input.StoreID, input.ProductID)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "stock:adjust",
			Entity:   "stock_entry",
			EntityID: fmt.Sprintf("%d:%d", input.StoreID, input.ProductID),
			Meta: map[string]any{
				"unit_id":  input.UnitID,
				"quantity": input.Quantity,
				"reason":   input.Reason,
			},
		})
	}
	return adj, nil
}

// PostRecount overwrites the entry with a counted absolute quantity in base
// units. Recorded as an adjustment with no transaction unit.
func (s *Service) PostRecount(ctx context.Context, storeID, productID int64, countedQty float64, actorID int64, note string) (Adjustment, error) {
	if storeID <= 0 || productID <= 0 {
		return Adjustment{}, fmt.Errorf("store and product are required: %w", shared.ErrValidation)
	}
	if countedQty < 0 {
		return Adjustment{}, fmt.Errorf("counted quantity must not be negative: %w", shared.ErrValidation)
	}

	adj := Adjustment{
		StoreID:    storeID,
		ProductID:  productID,
		Quantity:   countedQty,
		NewBaseQty: countedQty,
		Reason:     "RECOUNT",
		Note:       note,
		ActorID:    actorID,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		if err := s.ledger.SetQuantity(ctx, q, storeID, productID, countedQty); err != nil {
			return err
		}
		id, err := s.repo.InsertAdjustment(ctx, q, adj)
		if err != nil {
			return err
		}
		adj.ID = id
		return nil
	})
	if err != nil {
		return Adjustment{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, storeID, productID)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "stock:recount",
			Entity:   "stock_entry",
			EntityID: fmt.Sprintf("%d:%d", storeID, productID),
			Meta:     map[string]any{"counted": countedQty},
		})
	}
	return adj, nil
}

// Entries lists a store's stock entries.
func (s *Service) Entries(ctx context.Context, storeID int64, limit int) ([]Entry, error) {
	if storeID <= 0 {
		return nil, fmt.Errorf("store is required: %w", shared.ErrValidation)
	}
	return s.ledger.ListEntries(ctx, storeID, limit)
}

// ListAdjustments returns recent manual adjustments.
func (s *Service) ListAdjustments(ctx context.Context, storeID int64, limit int) ([]Adjustment, error) {
	if storeID <= 0 {
		return nil, fmt.Errorf("store is required: %w", shared.ErrValidation)
	}
	return s.repo.ListAdjustments(ctx, storeID, limit)
}

// LowStock returns entries at or below their minimum level. Concurrent
// requests for the same store collapse into one query.
func (s *Service) LowStock(ctx context.Context, storeID int64) ([]LowStockRow, error) {
	if storeID <= 0 {
		return nil, fmt.Errorf("store is required: %w", shared.ErrValidation)
	}
	key := fmt.Sprintf("lowstock:%d", storeID)
	v, err, _ := s.lowStock.Do(key, func() (interface{}, error) {
		return s.repo.LowStock(ctx, storeID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]LowStockRow), nil
}
