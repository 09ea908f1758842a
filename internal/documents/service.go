package documents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort abstracts the processor's operation counters.
type MetricsPort interface {
	CountDocumentOp(docType, operation, outcome string)
	CountStockMovement()
}

// StockCachePort drops cached stock quantities once a document transaction
// has committed. Satisfied by *stock.QuantityCache.
type StockCachePort interface {
	Invalidate(ctx context.Context, storeID, productID int64)
}

// Processor implements document create, update and delete. Each operation is
// one storage transaction covering the document rows, every stock movement
// and the counterparty balance; nothing is visible outside the transaction
// until it commits.
//
// Updates and deletes never diff line items: they reverse the previously
// applied effects with negated deltas and, for updates, apply the new state
// from scratch. The unit conversion is a plain multiplication, so the reverse
// pass nets out exactly against what the original pass applied.
type Processor struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
	cache   StockCachePort
}

// NewProcessor builds a Processor. audit, metrics and cache may be nil.
func NewProcessor(repo Repository, audit AuditPort, metrics MetricsPort, cache StockCachePort) *Processor {
	return &Processor{repo: repo, audit: audit, metrics: metrics, cache: cache}
}

// Create persists a new document and applies its stock and balance effects.
func (p *Processor) Create(ctx context.Context, t DocType, input DocumentInput) (*Document, error) {
	pol, err := policyFor(t)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	doc := buildDocument(t, pol, input)
	var touched [][2]int64
	err = p.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		storeID, err := tx.ResolveEmployeeStore(ctx, input.EmployeeID)
		if err != nil {
			return err
		}
		doc.StoreID = storeID

		items, err := buildItems(ctx, tx, pol, input.Items)
		if err != nil {
			return err
		}

		id, err := tx.InsertDocument(ctx, t, doc)
		if err != nil {
			return err
		}
		doc.ID = id
		for i := range items {
			items[i].DocumentID = id
		}
		if err := tx.ReplaceItems(ctx, t, id, items); err != nil {
			return err
		}

		touched = stockKeys(doc.StoreID, items)
		return p.applyEffects(ctx, tx, pol, doc, items, 1)
	})
	p.countOp(t, "create", err)
	if err != nil {
		return nil, err
	}

	p.invalidateStock(ctx, touched)
	p.recordAudit(ctx, t, "create", doc)
	return p.repo.GetWithItems(ctx, t, doc.ID)
}

// Update replaces the document's state. Old effects are reversed from the
// stored header and items, never from caller-supplied state, then the new
// state is applied as if freshly created.
func (p *Processor) Update(ctx context.Context, t DocType, id int64, input DocumentInput) (*Document, error) {
	pol, err := policyFor(t)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("document id is required: %w", shared.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var touched [][2]int64
	err = p.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetDocument(ctx, t, id)
		if err != nil {
			return err
		}
		if old.IsDeleted {
			return fmt.Errorf("document %d: %w", id, ErrDeleted)
		}
		oldItems, err := tx.GetItems(ctx, t, id)
		if err != nil {
			return err
		}
		// Reversal targets the store recorded at creation time, not the
		// employee's current assignment.
		touched = stockKeys(old.StoreID, oldItems)
		if err := p.applyEffects(ctx, tx, pol, *old, oldItems, -1); err != nil {
			return err
		}

		doc := buildDocument(t, pol, input)
		doc.ID = id
		doc.DocNumber = old.DocNumber
		storeID, err := tx.ResolveEmployeeStore(ctx, input.EmployeeID)
		if err != nil {
			return err
		}
		doc.StoreID = storeID

		items, err := buildItems(ctx, tx, pol, input.Items)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].DocumentID = id
		}

		if err := tx.UpdateHeader(ctx, t, doc); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, t, id, items); err != nil {
			return err
		}
		touched = append(touched, stockKeys(doc.StoreID, items)...)
		return p.applyEffects(ctx, tx, pol, doc, items, 1)
	})
	p.countOp(t, "update", err)
	if err != nil {
		return nil, err
	}

	p.invalidateStock(ctx, touched)
	p.recordAudit(ctx, t, "update", Document{ID: id, EmployeeID: input.EmployeeID})
	return p.repo.GetWithItems(ctx, t, id)
}

// Delete reverses the document's effects and flags it deleted. Deleting an
// already-deleted document is a no-op.
func (p *Processor) Delete(ctx context.Context, t DocType, id int64) error {
	pol, err := policyFor(t)
	if err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("document id is required: %w", shared.ErrValidation)
	}

	var (
		skipped bool
		actorID int64
		touched [][2]int64
	)
	err = p.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocument(ctx, t, id)
		if err != nil {
			return err
		}
		if doc.IsDeleted {
			skipped = true
			return nil
		}
		actorID = doc.EmployeeID
		items, err := tx.GetItems(ctx, t, id)
		if err != nil {
			return err
		}
		touched = stockKeys(doc.StoreID, items)
		if err := p.applyEffects(ctx, tx, pol, *doc, items, -1); err != nil {
			return err
		}
		return tx.SoftDelete(ctx, t, id)
	})
	p.countOp(t, "delete", err)
	if err != nil {
		return err
	}

	if !skipped {
		p.invalidateStock(ctx, touched)
		p.recordAudit(ctx, t, "delete", Document{ID: id, EmployeeID: actorID})
	}
	return nil
}

// Get returns the document with its line items.
func (p *Processor) Get(ctx context.Context, t DocType, id int64) (*Document, error) {
	return p.repo.GetWithItems(ctx, t, id)
}

// List returns non-deleted documents of the given type.
func (p *Processor) List(ctx context.Context, t DocType, filters shared.ListFilters) ([]Document, int, error) {
	return p.repo.List(ctx, t, filters)
}

// applyEffects moves stock for every line item and, when the policy calls for
// it, the counterparty balance. direction is +1 to apply the document's
// effects and -1 to reverse them.
func (p *Processor) applyEffects(ctx context.Context, tx TxRepository, pol policy, doc Document, items []LineItem, direction float64) error {
	for _, item := range items {
		qty := direction * pol.stockSign * item.Quantity
		if err := tx.AdjustStock(ctx, doc.StoreID, item.ProductID, item.UnitID, qty); err != nil {
			return err
		}
		if p.metrics != nil {
			p.metrics.CountStockMovement()
		}
	}

	delta := pol.balanceDelta(doc)
	if delta == 0 {
		return nil
	}
	delta *= direction
	if pol.party == partyClient {
		return tx.AdjustClientDebt(ctx, doc.CounterpartyID, delta)
	}
	return tx.AdjustSupplierIndebtedness(ctx, doc.CounterpartyID, delta)
}

// stockKeys lists the (store, product) pairs whose quantities a set of line
// items moves.
func stockKeys(storeID int64, items []LineItem) [][2]int64 {
	keys := make([][2]int64, 0, len(items))
	for _, item := range items {
		keys = append(keys, [2]int64{storeID, item.ProductID})
	}
	return keys
}

func (p *Processor) invalidateStock(ctx context.Context, keys [][2]int64) {
	if p.cache == nil {
		return
	}
	for _, k := range keys {
		p.cache.Invalidate(ctx, k[0], k[1])
	}
}

func buildDocument(t DocType, pol policy, input DocumentInput) Document {
	total := input.Total()
	return Document{
		Type:            t,
		DocNumber:       newDocNumber(pol),
		CounterpartyID:  input.CounterpartyID,
		EmployeeID:      input.EmployeeID,
		PaymentType:     input.PaymentType,
		TotalAmount:     total,
		AmountPaid:      input.AmountPaid,
		AmountRemaining: total - input.AmountPaid,
		Note:            input.Note,
	}
}

func buildItems(ctx context.Context, tx TxRepository, pol policy, inputs []LineItemInput) ([]LineItem, error) {
	items := make([]LineItem, 0, len(inputs))
	for _, in := range inputs {
		item := LineItem{
			ProductID: in.ProductID,
			UnitID:    in.UnitID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			LineTotal: in.Quantity * in.UnitPrice,
		}
		if pol.captureCost {
			cost, err := tx.ProductAvgCost(ctx, in.ProductID)
			if err != nil {
				return nil, err
			}
			item.CostAtSale = cost
		}
		items = append(items, item)
	}
	return items, nil
}

func validateInput(input DocumentInput) error {
	if input.CounterpartyID <= 0 {
		return fmt.Errorf("counterparty is required: %w", shared.ErrValidation)
	}
	if input.EmployeeID <= 0 {
		return fmt.Errorf("employee is required: %w", shared.ErrValidation)
	}
	if input.PaymentType != PaymentCash && input.PaymentType != PaymentDeferred {
		return fmt.Errorf("payment type must be CASH or DEFERRED: %w", shared.ErrValidation)
	}
	if input.AmountPaid < 0 {
		return fmt.Errorf("amount paid must not be negative: %w", shared.ErrValidation)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("at least one line item is required: %w", shared.ErrValidation)
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 || item.UnitID <= 0 {
			return fmt.Errorf("item %d: product and unit are required: %w", i+1, shared.ErrValidation)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive: %w", i+1, shared.ErrValidation)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("item %d: unit price must not be negative: %w", i+1, shared.ErrValidation)
		}
	}
	return nil
}

func newDocNumber(pol policy) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return pol.numberPrefix + "-" + strings.ToUpper(raw[:10])
}

func (p *Processor) countOp(t DocType, operation string, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.CountDocumentOp(string(t), operation, outcome)
}

func (p *Processor) recordAudit(ctx context.Context, t DocType, action string, doc Document) {
	if p.audit == nil {
		return
	}
	_ = p.audit.Record(ctx, shared.AuditLog{
		ActorID:  doc.EmployeeID,
		Action:   "document:" + action,
		Entity:   strings.ToLower(string(t)),
		EntityID: strconv.FormatInt(doc.ID, 10),
	})
}
