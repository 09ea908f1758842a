package documents

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/parties"
	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
	"github.com/meridian-pos/meridian/internal/stock"
)

// Repository serves document reads and opens the processor's transactions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetWithItems(ctx context.Context, t DocType, id int64) (*Document, error)
	List(ctx context.Context, t DocType, filters shared.ListFilters) ([]Document, int, error)
}

// TxRepository is the transaction-scoped surface the processor works against.
// Every call joins the same storage transaction; a returned error aborts all
// of them.
type TxRepository interface {
	ResolveEmployeeStore(ctx context.Context, employeeID int64) (int64, error)
	InsertDocument(ctx context.Context, t DocType, doc Document) (int64, error)
	UpdateHeader(ctx context.Context, t DocType, doc Document) error
	ReplaceItems(ctx context.Context, t DocType, documentID int64, items []LineItem) error
	GetDocument(ctx context.Context, t DocType, id int64) (*Document, error)
	GetItems(ctx context.Context, t DocType, documentID int64) ([]LineItem, error)
	SoftDelete(ctx context.Context, t DocType, id int64) error
	ProductAvgCost(ctx context.Context, productID int64) (float64, error)

	AdjustStock(ctx context.Context, storeID, productID, unitID int64, transactionQuantity float64) error
	AdjustClientDebt(ctx context.Context, clientID int64, delta float64) error
	AdjustSupplierIndebtedness(ctx context.Context, supplierID int64, delta float64) error
}

type repository struct {
	db      db.Querier
	pool    *pgxpool.Pool
	stock   *stock.Ledger
	parties *parties.Ledger
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool, stockLedger *stock.Ledger, partyLedger *parties.Ledger) Repository {
	return &repository{db: pool, pool: pool, stock: stockLedger, parties: partyLedger}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		txRepo := &repository{db: tx, pool: r.pool, stock: r.stock, parties: r.parties}
		return fn(ctx, txRepo)
	})
}

func (r *repository) ResolveEmployeeStore(ctx context.Context, employeeID int64) (int64, error) {
	var storeID *int64
	err := r.db.QueryRow(ctx, `SELECT store_id FROM employees WHERE id = $1`, employeeID).Scan(&storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("employee %d: %w", employeeID, shared.ErrNotFound)
		}
		return 0, fmt.Errorf("documents: resolve employee store: %w", err)
	}
	if storeID == nil || *storeID == 0 {
		return 0, fmt.Errorf("employee %d: %w", employeeID, ErrNoAssignedStore)
	}
	return *storeID, nil
}

const headerColumns = `id, doc_number, counterparty_id, employee_id, store_id, payment_type,
total_amount, amount_paid, amount_remaining, COALESCE(note, ''), is_deleted, is_synced, last_modified, created_at`

func (r *repository) InsertDocument(ctx context.Context, t DocType, doc Document) (int64, error) {
	p, err := policyFor(t)
	if err != nil {
		return 0, err
	}
	var id int64
	query := fmt.Sprintf(`INSERT INTO %s (doc_number, counterparty_id, employee_id, store_id, payment_type,
total_amount, amount_paid, amount_remaining, note, is_deleted, is_synced, last_modified, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, FALSE, NOW(), NOW()) RETURNING id`, p.table)
	err = r.db.QueryRow(ctx, query,
		doc.DocNumber, doc.CounterpartyID, doc.EmployeeID, doc.StoreID, doc.PaymentType,
		doc.TotalAmount, doc.AmountPaid, doc.AmountRemaining, doc.Note).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("document number %s: %w", doc.DocNumber, shared.ErrDuplicate)
		}
		return 0, fmt.Errorf("documents: insert %s: %w", t, err)
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, t DocType, doc Document) error {
	p, err := policyFor(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET counterparty_id = $1, employee_id = $2, store_id = $3, payment_type = $4,
total_amount = $5, amount_paid = $6, amount_remaining = $7, note = $8, is_synced = FALSE, last_modified = NOW()
WHERE id = $9`, p.table)
	tag, err := r.db.Exec(ctx, query,
		doc.CounterpartyID, doc.EmployeeID, doc.StoreID, doc.PaymentType,
		doc.TotalAmount, doc.AmountPaid, doc.AmountRemaining, doc.Note, doc.ID)
	if err != nil {
		return fmt.Errorf("documents: update %s header: %w", t, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", doc.ID, shared.ErrNotFound)
	}
	return nil
}

// ReplaceItems deletes all existing lines and inserts the new set. Runs under
// the caller's transaction, so readers never see the gap.
func (r *repository) ReplaceItems(ctx context.Context, t DocType, documentID int64, items []LineItem) error {
	p, err := policyFor(t)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, p.itemTable), documentID); err != nil {
		return fmt.Errorf("documents: delete %s items: %w", t, err)
	}
	for _, item := range items {
		query := fmt.Sprintf(`INSERT INTO %s (document_id, product_id, unit_id, quantity, unit_price, line_total, cost_at_sale)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, p.itemTable)
		if _, err := r.db.Exec(ctx, query,
			documentID, item.ProductID, item.UnitID, item.Quantity, item.UnitPrice, item.LineTotal, item.CostAtSale); err != nil {
			return fmt.Errorf("documents: insert %s item: %w", t, err)
		}
	}
	return nil
}

func (r *repository) GetDocument(ctx context.Context, t DocType, id int64) (*Document, error) {
	p, err := policyFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, headerColumns, p.table)
	doc, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %d: %w", id, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("documents: get %s: %w", t, err)
	}
	doc.Type = t
	return doc, nil
}

func (r *repository) GetItems(ctx context.Context, t DocType, documentID int64) ([]LineItem, error) {
	p, err := policyFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, document_id, product_id, unit_id, quantity, unit_price, line_total, cost_at_sale
FROM %s WHERE document_id = $1 ORDER BY id`, p.itemTable)
	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("documents: get %s items: %w", t, err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.ProductID, &item.UnitID,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &item.CostAtSale); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SoftDelete flags the header; line items stay for history.
func (r *repository) SoftDelete(ctx context.Context, t DocType, id int64) error {
	p, err := policyFor(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET is_deleted = TRUE, is_synced = FALSE, last_modified = NOW() WHERE id = $1`, p.table)
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("documents: soft delete %s: %w", t, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) ProductAvgCost(ctx context.Context, productID int64) (float64, error) {
	var cost float64
	err := r.db.QueryRow(ctx, `SELECT avg_cost FROM products WHERE id = $1`, productID).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
		}
		return 0, fmt.Errorf("documents: product avg cost: %w", err)
	}
	return cost, nil
}

func (r *repository) AdjustStock(ctx context.Context, storeID, productID, unitID int64, transactionQuantity float64) error {
	_, err := r.stock.Adjust(ctx, r.db, storeID, productID, unitID, transactionQuantity)
	return err
}

func (r *repository) AdjustClientDebt(ctx context.Context, clientID int64, delta float64) error {
	return r.parties.AdjustClientDebt(ctx, r.db, clientID, delta)
}

func (r *repository) AdjustSupplierIndebtedness(ctx context.Context, supplierID int64, delta float64) error {
	return r.parties.AdjustSupplierIndebtedness(ctx, r.db, supplierID, delta)
}

func (r *repository) GetWithItems(ctx context.Context, t DocType, id int64) (*Document, error) {
	doc, err := r.GetDocument(ctx, t, id)
	if err != nil {
		return nil, err
	}
	items, err := r.GetItems(ctx, t, id)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

func (r *repository) List(ctx context.Context, t DocType, filters shared.ListFilters) ([]Document, int, error) {
	p, err := policyFor(t)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"1=1"}
	if !filters.IncludeDeleted {
		where = append(where, "is_deleted = FALSE")
	}
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, "doc_number ILIKE $"+strconv.Itoa(len(args)))
	}
	if filters.StoreID != nil {
		args = append(args, *filters.StoreID)
		where = append(where, "store_id = $"+strconv.Itoa(len(args)))
	}
	whereClause := "WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, p.table, whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("documents: count %s: %w", t, err)
	}

	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		headerColumns, p.table, whereClause, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("documents: list %s: %w", t, err)
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		doc.Type = t
		result = append(result, *doc)
	}
	return result, total, rows.Err()
}

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.DocNumber, &doc.CounterpartyID, &doc.EmployeeID, &doc.StoreID, &doc.PaymentType,
		&doc.TotalAmount, &doc.AmountPaid, &doc.AmountRemaining, &doc.Note, &doc.IsDeleted, &doc.IsSynced,
		&doc.LastModified, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
