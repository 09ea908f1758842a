package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryLedger struct {
	rates      map[int64]float64
	quantities map[[2]int64]float64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		rates:      map[int64]float64{},
		quantities: map[[2]int64]float64{},
	}
}

func (l *memoryLedger) GetQuantity(_ context.Context, storeID, productID int64) (float64, error) {
	return l.quantities[[2]int64{storeID, productID}], nil
}

func (l *memoryLedger) Adjust(_ context.Context, _ db.Querier, storeID, productID, unitID int64, transactionQuantity float64) (float64, error) {
	if transactionQuantity == 0 {
		return 0, ErrInvalidQuantity
	}
	rate, ok := l.rates[unitID]
	if !ok {
		return 0, ErrUnitNotFound
	}
	key := [2]int64{storeID, productID}
	l.quantities[key] += ToBaseQuantity(transactionQuantity, rate)
	return l.quantities[key], nil
}

func (l *memoryLedger) SetQuantity(_ context.Context, _ db.Querier, storeID, productID int64, quantity float64) error {
	l.quantities[[2]int64{storeID, productID}] = quantity
	return nil
}

func (l *memoryLedger) ListEntries(_ context.Context, storeID int64, _ int) ([]Entry, error) {
	var result []Entry
	for key, qty := range l.quantities {
		if key[0] == storeID {
			result = append(result, Entry{StoreID: key[0], ProductID: key[1], Quantity: qty})
		}
	}
	return result, nil
}

type memoryStockRepo struct {
	nextID      int64
	adjustments []Adjustment
	lowStock    []LowStockRow
}

func (r *memoryStockRepo) WithTx(ctx context.Context, fn func(context.Context, db.Querier) error) error {
	return fn(ctx, nil)
}

func (r *memoryStockRepo) InsertAdjustment(_ context.Context, _ db.Querier, adj Adjustment) (int64, error) {
	r.nextID++
	adj.ID = r.nextID
	r.adjustments = append(r.adjustments, adj)
	return adj.ID, nil
}

func (r *memoryStockRepo) ListAdjustments(_ context.Context, storeID int64, _ int) ([]Adjustment, error) {
	var result []Adjustment
	for _, a := range r.adjustments {
		if a.StoreID == storeID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memoryStockRepo) LowStock(_ context.Context, _ int64) ([]LowStockRow, error) {
	return r.lowStock, nil
}

func newTestStockService(t *testing.T) (*Service, *memoryLedger, *memoryStockRepo) {
	t.Helper()
	ledger := newMemoryLedger()
	ledger.rates[1] = 1
	ledger.rates[2] = 12
	repo := &memoryStockRepo{}
	return NewService(repo, ledger, nil, nil), ledger, repo
}

func TestPostAdjustmentAppliesConvertedQuantity(t *testing.T) {
	svc, ledger, repo := newTestStockService(t)

	adj, err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 2, Quantity: 3, Reason: "DAMAGE", ActorID: 9,
	})
	require.NoError(t, err)
	require.InDelta(t, 36.0, adj.NewBaseQty, 1e-9)
	require.InDelta(t, 36.0, ledger.quantities[[2]int64{1, 7}], 1e-9)
	require.Len(t, repo.adjustments, 1)
	require.Equal(t, "DAMAGE", repo.adjustments[0].Reason)
	require.NotZero(t, adj.ID)
}

func TestPostAdjustmentRejectsZeroQuantity(t *testing.T) {
	svc, _, repo := newTestStockService(t)

	_, err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 1, Quantity: 0, Reason: "DAMAGE",
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.ErrorIs(t, err, shared.ErrValidation, "must map to a client error over HTTP")
	require.Empty(t, repo.adjustments)
}

func TestPostAdjustmentUnknownUnitLeavesNoTrace(t *testing.T) {
	svc, ledger, repo := newTestStockService(t)

	_, err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 999, Quantity: 2, Reason: "DAMAGE",
	})
	require.ErrorIs(t, err, ErrUnitNotFound)
	require.Empty(t, repo.adjustments)
	require.Zero(t, ledger.quantities[[2]int64{1, 7}])
}

func TestPostAdjustmentRequiresReason(t *testing.T) {
	svc, _, _ := newTestStockService(t)

	_, err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 1, Quantity: 2,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPostRecountOverwritesQuantity(t *testing.T) {
	svc, ledger, repo := newTestStockService(t)
	ledger.quantities[[2]int64{1, 7}] = 50

	adj, err := svc.PostRecount(context.Background(), 1, 7, 42.5, 9, "monthly count")
	require.NoError(t, err)
	require.InDelta(t, 42.5, ledger.quantities[[2]int64{1, 7}], 1e-9)
	require.Equal(t, "RECOUNT", adj.Reason)
	require.Len(t, repo.adjustments, 1)
}

func TestPostRecountRejectsNegative(t *testing.T) {
	svc, _, _ := newTestStockService(t)

	_, err := svc.PostRecount(context.Background(), 1, 7, -1, 9, "")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAdjustmentsCancelOut(t *testing.T) {
	svc, ledger, _ := newTestStockService(t)

	_, err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 2, Quantity: 5.5, Reason: "FOUND", ActorID: 9,
	})
	require.NoError(t, err)
	_, err = svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 2, Quantity: -5.5, Reason: "LOST", ActorID: 9,
	})
	require.NoError(t, err)
	require.Zero(t, ledger.quantities[[2]int64{1, 7}])
}

func TestQuantityValidatesIdentifiers(t *testing.T) {
	svc, _, _ := newTestStockService(t)

	_, err := svc.Quantity(context.Background(), 0, 7)
	require.ErrorIs(t, err, shared.ErrValidation)
}

type failingRepo struct {
	memoryStockRepo
}

func (r *failingRepo) InsertAdjustment(context.Context, db.Querier, Adjustment) (int64, error) {
	return 0, errors.New("insert failed")
}

func TestPostAdjustmentPropagatesInsertError(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.rates[1] = 1
	svc := NewService(&failingRepo{}, ledger, nil, nil)

	_, err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		StoreID: 1, ProductID: 7, UnitID: 1, Quantity: 2, Reason: "DAMAGE",
	})
	require.Error(t, err)
}
