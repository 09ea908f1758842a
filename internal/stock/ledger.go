package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/platform/db"
)

// Ledger owns the stock_entries table. Reads go through the pool; Adjust and
// SetQuantity take the caller's transaction so document processing can move
// stock atomically with the document itself.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger constructs a Ledger.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// GetQuantity returns the current base-unit quantity, zero when no entry
// exists yet.
func (l *Ledger) GetQuantity(ctx context.Context, storeID, productID int64) (float64, error) {
	var qty float64
	err := l.pool.QueryRow(ctx, `SELECT quantity FROM stock_entries WHERE store_id = $1 AND product_id = $2`,
		storeID, productID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("stock: get quantity: %w", err)
	}
	return qty, nil
}

// Adjust applies a signed transaction-unit quantity to the entry, converting
// through the unit's rate. The row is locked for the duration of the enclosing
// transaction, so concurrent adjustments to the same (store, product) key
// serialize on the storage engine. Returns the new base-unit quantity.
func (l *Ledger) Adjust(ctx context.Context, q db.Querier, storeID, productID, unitID int64, transactionQuantity float64) (float64, error) {
	if transactionQuantity == 0 {
		return 0, ErrInvalidQuantity
	}

	var rate float64
	err := q.QueryRow(ctx, `SELECT rate FROM units WHERE id = $1`, unitID).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("unit %d: %w", unitID, ErrUnitNotFound)
		}
		return 0, fmt.Errorf("stock: resolve unit rate: %w", err)
	}

	delta := ToBaseQuantity(transactionQuantity, rate)

	var current float64
	err = q.QueryRow(ctx, `SELECT quantity FROM stock_entries WHERE store_id = $1 AND product_id = $2 FOR UPDATE`,
		storeID, productID).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("stock: lock entry: %w", err)
	}

	newQty := current + delta
	_, err = q.Exec(ctx, `INSERT INTO stock_entries (store_id, product_id, quantity, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (store_id, product_id) DO UPDATE SET quantity = $3, updated_at = NOW()`,
		storeID, productID, newQty)
	if err != nil {
		return 0, fmt.Errorf("stock: write entry: %w", err)
	}
	return newQty, nil
}

// SetQuantity overwrites the entry with an absolute base-unit quantity. Used
// only by the manual recount workflow, never by document processing.
func (l *Ledger) SetQuantity(ctx context.Context, q db.Querier, storeID, productID int64, quantity float64) error {
	_, err := q.Exec(ctx, `INSERT INTO stock_entries (store_id, product_id, quantity, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (store_id, product_id) DO UPDATE SET quantity = $3, updated_at = NOW()`,
		storeID, productID, quantity)
	if err != nil {
		return fmt.Errorf("stock: set quantity: %w", err)
	}
	return nil
}

// ListEntries returns all entries for a store, newest first.
func (l *Ledger) ListEntries(ctx context.Context, storeID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := l.pool.Query(ctx, `SELECT store_id, product_id, quantity, updated_at
FROM stock_entries WHERE store_id = $1 ORDER BY updated_at DESC LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("stock: list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.StoreID, &e.ProductID, &e.Quantity, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
