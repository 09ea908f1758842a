package stock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/platform/db"
)

// Repository persists manual adjustments and serves stock reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, db.Querier) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// InsertAdjustment records a manual adjustment row.
func (r *Repository) InsertAdjustment(ctx context.Context, q db.Querier, adj Adjustment) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `INSERT INTO stock_adjustments (store_id, product_id, unit_id, quantity, new_base_qty, reason, note, actor_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id`,
		adj.StoreID, adj.ProductID, nullInt(adj.UnitID), adj.Quantity, adj.NewBaseQty, adj.Reason, adj.Note, nullInt(adj.ActorID)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("stock: insert adjustment: %w", err)
	}
	return id, nil
}

// ListAdjustments returns recent manual adjustments for a store.
func (r *Repository) ListAdjustments(ctx context.Context, storeID int64, limit int) ([]Adjustment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, store_id, product_id, COALESCE(unit_id, 0), quantity, new_base_qty, reason, COALESCE(note, ''), COALESCE(actor_id, 0), created_at
FROM stock_adjustments WHERE store_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("stock: list adjustments: %w", err)
	}
	defer rows.Close()

	var result []Adjustment
	for rows.Next() {
		var a Adjustment
		if err := rows.Scan(&a.ID, &a.StoreID, &a.ProductID, &a.UnitID, &a.Quantity, &a.NewBaseQty, &a.Reason, &a.Note, &a.ActorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// LowStock lists entries at or below their product's minimum stock level.
func (r *Repository) LowStock(ctx context.Context, storeID int64) ([]LowStockRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT se.store_id, st.name, se.product_id, p.name, se.quantity, p.min_stock_level
FROM stock_entries se
JOIN products p ON p.id = se.product_id
JOIN stores st ON st.id = se.store_id
WHERE se.store_id = $1 AND p.min_stock_level > 0 AND se.quantity <= p.min_stock_level
ORDER BY se.quantity / p.min_stock_level ASC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("stock: low stock query: %w", err)
	}
	defer rows.Close()

	var result []LowStockRow
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.StoreID, &row.StoreName, &row.ProductID, &row.ProductName, &row.Quantity, &row.MinStockLevel); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
