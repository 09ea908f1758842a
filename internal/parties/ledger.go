// Package parties owns the two counterparty balance ledgers: client debt and
// supplier indebtedness.
package parties

import (
	"context"
	"fmt"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Ledger applies signed balance deltas. Adjustments are expressed as a single
// UPDATE ... SET balance = balance + delta so concurrent documents against the
// same party never lose updates; the balance is never read-modify-written in
// application code.
type Ledger struct{}

// NewLedger returns a Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// AdjustClientDebt increments the client's debt by delta (delta may be
// negative). The caller supplies the transaction the adjustment must join.
func (l *Ledger) AdjustClientDebt(ctx context.Context, q db.Querier, clientID int64, delta float64) error {
	tag, err := q.Exec(ctx, `UPDATE clients SET debt = debt + $1, updated_at = NOW() WHERE id = $2`, delta, clientID)
	if err != nil {
		return fmt.Errorf("parties: adjust client debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", clientID, shared.ErrNotFound)
	}
	return nil
}

// AdjustSupplierIndebtedness increments the supplier's indebtedness by delta.
func (l *Ledger) AdjustSupplierIndebtedness(ctx context.Context, q db.Querier, supplierID int64, delta float64) error {
	tag, err := q.Exec(ctx, `UPDATE suppliers SET indebtedness = indebtedness + $1, updated_at = NOW() WHERE id = $2`, delta, supplierID)
	if err != nil {
		return fmt.Errorf("parties: adjust supplier indebtedness: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier %d: %w", supplierID, shared.ErrNotFound)
	}
	return nil
}
