package documents

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/shared"
	"github.com/meridian-pos/meridian/internal/stock"
)

// memoryState is the in-memory counterpart of the document, stock and party
// tables. WithTx copies the whole state and only publishes the copy when the
// callback succeeds, so rollback behaves like the real transaction.
type memoryState struct {
	docs      map[DocType]map[int64]Document
	items     map[DocType]map[int64][]LineItem
	stock     map[[2]int64]float64
	rates     map[int64]float64
	clients   map[int64]float64
	suppliers map[int64]float64
	employees map[int64]int64
	costs     map[int64]float64
	nextID    int64
}

func newMemoryState() *memoryState {
	s := &memoryState{
		docs:      map[DocType]map[int64]Document{},
		items:     map[DocType]map[int64][]LineItem{},
		stock:     map[[2]int64]float64{},
		rates:     map[int64]float64{},
		clients:   map[int64]float64{},
		suppliers: map[int64]float64{},
		employees: map[int64]int64{},
		costs:     map[int64]float64{},
	}
	for _, t := range []DocType{TypeSalesOrder, TypeSalesReturn, TypePurchase, TypePurchaseReturn} {
		s.docs[t] = map[int64]Document{}
		s.items[t] = map[int64][]LineItem{}
	}
	return s
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	c.nextID = s.nextID
	for t, docs := range s.docs {
		for id, doc := range docs {
			c.docs[t][id] = doc
		}
	}
	for t, itemSets := range s.items {
		for id, items := range itemSets {
			c.items[t][id] = append([]LineItem(nil), items...)
		}
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.rates {
		c.rates[k] = v
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.costs {
		c.costs[k] = v
	}
	return c
}

type memoryDocRepo struct {
	state *memoryState
}

func (r *memoryDocRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	working := r.state.clone()
	if err := fn(ctx, &memoryTx{state: working}); err != nil {
		return err
	}
	*r.state = *working
	return nil
}

func (r *memoryDocRepo) GetWithItems(_ context.Context, t DocType, id int64) (*Document, error) {
	doc, ok := r.state.docs[t][id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, shared.ErrNotFound)
	}
	doc.Items = append([]LineItem(nil), r.state.items[t][id]...)
	return &doc, nil
}

func (r *memoryDocRepo) List(_ context.Context, t DocType, _ shared.ListFilters) ([]Document, int, error) {
	var result []Document
	for _, doc := range r.state.docs[t] {
		if !doc.IsDeleted {
			result = append(result, doc)
		}
	}
	return result, len(result), nil
}

type memoryTx struct {
	state *memoryState
}

func (tx *memoryTx) ResolveEmployeeStore(_ context.Context, employeeID int64) (int64, error) {
	storeID, ok := tx.state.employees[employeeID]
	if !ok {
		return 0, fmt.Errorf("employee %d: %w", employeeID, shared.ErrNotFound)
	}
	if storeID == 0 {
		return 0, fmt.Errorf("employee %d: %w", employeeID, ErrNoAssignedStore)
	}
	return storeID, nil
}

func (tx *memoryTx) InsertDocument(_ context.Context, t DocType, doc Document) (int64, error) {
	tx.state.nextID++
	doc.ID = tx.state.nextID
	doc.IsSynced = false
	doc.LastModified = time.Now()
	doc.CreatedAt = time.Now()
	doc.Items = nil
	tx.state.docs[t][doc.ID] = doc
	return doc.ID, nil
}

func (tx *memoryTx) UpdateHeader(_ context.Context, t DocType, doc Document) error {
	existing, ok := tx.state.docs[t][doc.ID]
	if !ok {
		return fmt.Errorf("document %d: %w", doc.ID, shared.ErrNotFound)
	}
	doc.IsDeleted = existing.IsDeleted
	doc.CreatedAt = existing.CreatedAt
	doc.IsSynced = false
	doc.LastModified = time.Now()
	doc.Items = nil
	tx.state.docs[t][doc.ID] = doc
	return nil
}

func (tx *memoryTx) ReplaceItems(_ context.Context, t DocType, documentID int64, items []LineItem) error {
	tx.state.items[t][documentID] = append([]LineItem(nil), items...)
	return nil
}

func (tx *memoryTx) GetDocument(_ context.Context, t DocType, id int64) (*Document, error) {
	doc, ok := tx.state.docs[t][id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, shared.ErrNotFound)
	}
	return &doc, nil
}

func (tx *memoryTx) GetItems(_ context.Context, t DocType, documentID int64) ([]LineItem, error) {
	return append([]LineItem(nil), tx.state.items[t][documentID]...), nil
}

func (tx *memoryTx) SoftDelete(_ context.Context, t DocType, id int64) error {
	doc, ok := tx.state.docs[t][id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, shared.ErrNotFound)
	}
	doc.IsDeleted = true
	doc.IsSynced = false
	doc.LastModified = time.Now()
	tx.state.docs[t][id] = doc
	return nil
}

func (tx *memoryTx) ProductAvgCost(_ context.Context, productID int64) (float64, error) {
	return tx.state.costs[productID], nil
}

func (tx *memoryTx) AdjustStock(_ context.Context, storeID, productID, unitID int64, transactionQuantity float64) error {
	rate, ok := tx.state.rates[unitID]
	if !ok {
		return fmt.Errorf("unit %d: %w", unitID, stock.ErrUnitNotFound)
	}
	tx.state.stock[[2]int64{storeID, productID}] += stock.ToBaseQuantity(transactionQuantity, rate)
	return nil
}

func (tx *memoryTx) AdjustClientDebt(_ context.Context, clientID int64, delta float64) error {
	if _, ok := tx.state.clients[clientID]; !ok {
		return fmt.Errorf("client %d: %w", clientID, shared.ErrNotFound)
	}
	tx.state.clients[clientID] += delta
	return nil
}

func (tx *memoryTx) AdjustSupplierIndebtedness(_ context.Context, supplierID int64, delta float64) error {
	if _, ok := tx.state.suppliers[supplierID]; !ok {
		return fmt.Errorf("supplier %d: %w", supplierID, shared.ErrNotFound)
	}
	tx.state.suppliers[supplierID] += delta
	return nil
}

const (
	testStore    = int64(1)
	testEmployee = int64(10)
	testClient   = int64(20)
	testSupplier = int64(30)
	testProduct  = int64(40)
	minUnit      = int64(50) // rate 1
	caseUnit     = int64(51) // rate 12
)

func newTestState() *memoryState {
	state := newMemoryState()
	state.employees[testEmployee] = testStore
	state.clients[testClient] = 0
	state.suppliers[testSupplier] = 0
	state.rates[minUnit] = 1
	state.rates[caseUnit] = 12
	state.costs[testProduct] = 7.5
	return state
}

func newTestProcessor(t *testing.T) (*Processor, *memoryState) {
	t.Helper()
	state := newTestState()
	return NewProcessor(&memoryDocRepo{state: state}, nil, nil, nil), state
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type recordingCache struct {
	dropped [][2]int64
}

func (c *recordingCache) Invalidate(_ context.Context, storeID, productID int64) {
	c.dropped = append(c.dropped, [2]int64{storeID, productID})
}

func salesOrderInput(qty, price, paid float64, payment PaymentType) DocumentInput {
	return DocumentInput{
		CounterpartyID: testClient,
		EmployeeID:     testEmployee,
		PaymentType:    payment,
		AmountPaid:     paid,
		Items: []LineItemInput{
			{ProductID: testProduct, UnitID: minUnit, Quantity: qty, UnitPrice: price},
		},
	}
}

func stockAt(state *memoryState, storeID, productID int64) float64 {
	return state.stock[[2]int64{storeID, productID}]
}

func TestCreateDeferredSalesOrder(t *testing.T) {
	proc, state := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.InDelta(t, 50.0, doc.TotalAmount, 1e-9)
	require.InDelta(t, 50.0, doc.AmountRemaining, 1e-9)
	require.Equal(t, testStore, doc.StoreID)
	require.True(t, strings.HasPrefix(doc.DocNumber, "SO-"))
	require.False(t, doc.IsSynced)
	require.Len(t, doc.Items, 1)

	require.InDelta(t, 50.0, state.clients[testClient], 1e-9)
	require.InDelta(t, -5.0, stockAt(state, testStore, testProduct), 1e-9)
}

func TestCreateCashSalesOrderLeavesDebt(t *testing.T) {
	proc, state := newTestProcessor(t)

	_, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 50, PaymentCash))
	require.NoError(t, err)
	require.Zero(t, state.clients[testClient])
	require.InDelta(t, -5.0, stockAt(state, testStore, testProduct), 1e-9)
}

func TestCreatePartiallyPaidDeferredOrder(t *testing.T) {
	proc, state := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(10, 10, 30, PaymentDeferred))
	require.NoError(t, err)
	require.InDelta(t, 70.0, doc.AmountRemaining, 1e-9)
	require.InDelta(t, 70.0, state.clients[testClient], 1e-9)
}

func TestUpdateRecomputesEffects(t *testing.T) {
	proc, state := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)

	updated, err := proc.Update(context.Background(), TypeSalesOrder, doc.ID, salesOrderInput(3, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.InDelta(t, 30.0, updated.TotalAmount, 1e-9)
	require.Equal(t, doc.DocNumber, updated.DocNumber)

	require.InDelta(t, 30.0, state.clients[testClient], 1e-9)
	require.InDelta(t, -3.0, stockAt(state, testStore, testProduct), 1e-9)
}

func TestUpdateWithIdenticalStateIsNeutral(t *testing.T) {
	proc, state := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	debtBefore := state.clients[testClient]
	stockBefore := stockAt(state, testStore, testProduct)

	_, err = proc.Update(context.Background(), TypeSalesOrder, doc.ID, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.InDelta(t, debtBefore, state.clients[testClient], 1e-9)
	require.InDelta(t, stockBefore, stockAt(state, testStore, testProduct), 1e-9)
}

func TestDeleteRestoresStockAndDebt(t *testing.T) {
	proc, state := newTestProcessor(t)
	state.stock[[2]int64{testStore, testProduct}] = 100

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.InDelta(t, 95.0, stockAt(state, testStore, testProduct), 1e-9)

	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))
	require.Zero(t, state.clients[testClient])
	require.InDelta(t, 100.0, stockAt(state, testStore, testProduct), 1e-9)

	stored := state.docs[TypeSalesOrder][doc.ID]
	require.True(t, stored.IsDeleted)
	require.False(t, stored.IsSynced)
	require.Len(t, state.items[TypeSalesOrder][doc.ID], 1, "items kept for history")
}

func TestDeleteIsIdempotent(t *testing.T) {
	proc, state := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))

	debt := state.clients[testClient]
	qty := stockAt(state, testStore, testProduct)
	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))
	require.InDelta(t, debt, state.clients[testClient], 1e-9)
	require.InDelta(t, qty, stockAt(state, testStore, testProduct), 1e-9)
}

func TestUpdateDeletedDocumentFails(t *testing.T) {
	proc, _ := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))

	_, err = proc.Update(context.Background(), TypeSalesOrder, doc.ID, salesOrderInput(3, 10, 0, PaymentDeferred))
	require.ErrorIs(t, err, ErrDeleted)
}

func TestCreateAbortsWholeDocumentOnBadUnit(t *testing.T) {
	proc, state := newTestProcessor(t)
	input := DocumentInput{
		CounterpartyID: testClient,
		EmployeeID:     testEmployee,
		PaymentType:    PaymentDeferred,
		Items: []LineItemInput{
			{ProductID: testProduct, UnitID: minUnit, Quantity: 2, UnitPrice: 10},
			{ProductID: testProduct, UnitID: 999, Quantity: 1, UnitPrice: 10},
		},
	}

	_, err := proc.Create(context.Background(), TypeSalesOrder, input)
	require.ErrorIs(t, err, stock.ErrUnitNotFound)

	require.Zero(t, stockAt(state, testStore, testProduct), "first item's movement rolled back")
	require.Zero(t, state.clients[testClient])
	require.Empty(t, state.docs[TypeSalesOrder], "no header persisted")
}

func TestCreateRequiresAssignedStore(t *testing.T) {
	proc, state := newTestProcessor(t)
	state.employees[testEmployee] = 0

	_, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.ErrorIs(t, err, ErrNoAssignedStore)
	require.Empty(t, state.docs[TypeSalesOrder])
}

func TestCreateValidatesInput(t *testing.T) {
	proc, _ := newTestProcessor(t)

	cases := []struct {
		name  string
		input DocumentInput
	}{
		{"missing counterparty", DocumentInput{EmployeeID: testEmployee, PaymentType: PaymentCash,
			Items: []LineItemInput{{ProductID: testProduct, UnitID: minUnit, Quantity: 1}}}},
		{"empty items", DocumentInput{CounterpartyID: testClient, EmployeeID: testEmployee, PaymentType: PaymentCash}},
		{"zero quantity", DocumentInput{CounterpartyID: testClient, EmployeeID: testEmployee, PaymentType: PaymentCash,
			Items: []LineItemInput{{ProductID: testProduct, UnitID: minUnit, Quantity: 0}}}},
		{"bad payment type", DocumentInput{CounterpartyID: testClient, EmployeeID: testEmployee, PaymentType: "LATER",
			Items: []LineItemInput{{ProductID: testProduct, UnitID: minUnit, Quantity: 1}}}},
		{"negative paid", DocumentInput{CounterpartyID: testClient, EmployeeID: testEmployee, PaymentType: PaymentCash,
			AmountPaid: -1, Items: []LineItemInput{{ProductID: testProduct, UnitID: minUnit, Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := proc.Create(context.Background(), TypeSalesOrder, tc.input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestSalesReturnReversesStockAndDebt(t *testing.T) {
	proc, state := newTestProcessor(t)
	state.clients[testClient] = 80

	input := DocumentInput{
		CounterpartyID: testClient,
		EmployeeID:     testEmployee,
		PaymentType:    PaymentDeferred,
		Items: []LineItemInput{
			{ProductID: testProduct, UnitID: minUnit, Quantity: 4, UnitPrice: 10},
		},
	}
	_, err := proc.Create(context.Background(), TypeSalesReturn, input)
	require.NoError(t, err)

	require.InDelta(t, 4.0, stockAt(state, testStore, testProduct), 1e-9, "returned goods come back in")
	require.InDelta(t, 40.0, state.clients[testClient], 1e-9, "debt reduced by the unpaid remainder")
}

func TestPurchaseBooksFullTotalRegardlessOfPaymentType(t *testing.T) {
	proc, state := newTestProcessor(t)

	input := DocumentInput{
		CounterpartyID: testSupplier,
		EmployeeID:     testEmployee,
		PaymentType:    PaymentCash,
		AmountPaid:     120,
		Items: []LineItemInput{
			{ProductID: testProduct, UnitID: caseUnit, Quantity: 1, UnitPrice: 120},
		},
	}
	_, err := proc.Create(context.Background(), TypePurchase, input)
	require.NoError(t, err)

	require.InDelta(t, 12.0, stockAt(state, testStore, testProduct), 1e-9)
	require.InDelta(t, 120.0, state.suppliers[testSupplier], 1e-9)
}

func TestPurchaseReturnReducesIndebtedness(t *testing.T) {
	proc, state := newTestProcessor(t)
	state.suppliers[testSupplier] = 200
	state.stock[[2]int64{testStore, testProduct}] = 24

	input := DocumentInput{
		CounterpartyID: testSupplier,
		EmployeeID:     testEmployee,
		PaymentType:    PaymentDeferred,
		Items: []LineItemInput{
			{ProductID: testProduct, UnitID: caseUnit, Quantity: 1, UnitPrice: 120},
		},
	}
	_, err := proc.Create(context.Background(), TypePurchaseReturn, input)
	require.NoError(t, err)

	require.InDelta(t, 12.0, stockAt(state, testStore, testProduct), 1e-9)
	require.InDelta(t, 80.0, state.suppliers[testSupplier], 1e-9)
}

func TestSalesOrderSnapshotsProductCost(t *testing.T) {
	proc, _ := newTestProcessor(t)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentCash))
	require.NoError(t, err)
	require.InDelta(t, 7.5, doc.Items[0].CostAtSale, 1e-9)
}

func TestMutationsRecordActingEmployee(t *testing.T) {
	state := newTestState()
	audit := &recordingAudit{}
	proc := NewProcessor(&memoryDocRepo{state: state}, audit, nil, nil)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	_, err = proc.Update(context.Background(), TypeSalesOrder, doc.ID, salesOrderInput(3, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))

	require.Len(t, audit.logs, 3)
	for i, action := range []string{"document:create", "document:update", "document:delete"} {
		require.Equal(t, action, audit.logs[i].Action)
		require.Equal(t, testEmployee, audit.logs[i].ActorID, action)
	}
}

func TestMutationsDropCachedQuantities(t *testing.T) {
	state := newTestState()
	cache := &recordingCache{}
	proc := NewProcessor(&memoryDocRepo{state: state}, nil, nil, cache)

	doc, err := proc.Create(context.Background(), TypeSalesOrder, salesOrderInput(5, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.Equal(t, [][2]int64{{testStore, testProduct}}, cache.dropped)

	// Update drops both the reversed and the reapplied key.
	cache.dropped = nil
	_, err = proc.Update(context.Background(), TypeSalesOrder, doc.ID, salesOrderInput(3, 10, 0, PaymentDeferred))
	require.NoError(t, err)
	require.Equal(t, [][2]int64{{testStore, testProduct}, {testStore, testProduct}}, cache.dropped)

	cache.dropped = nil
	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))
	require.Equal(t, [][2]int64{{testStore, testProduct}}, cache.dropped)

	cache.dropped = nil
	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))
	require.Empty(t, cache.dropped, "repeated delete moves nothing")
}

func TestFailedCreateLeavesCacheAlone(t *testing.T) {
	state := newTestState()
	cache := &recordingCache{}
	proc := NewProcessor(&memoryDocRepo{state: state}, nil, nil, cache)

	input := salesOrderInput(1, 10, 0, PaymentDeferred)
	input.Items[0].UnitID = 999
	_, err := proc.Create(context.Background(), TypeSalesOrder, input)
	require.ErrorIs(t, err, stock.ErrUnitNotFound)
	require.Empty(t, cache.dropped)
}

func TestCreateUpdateDeleteRoundTripWithConversion(t *testing.T) {
	proc, state := newTestProcessor(t)
	state.stock[[2]int64{testStore, testProduct}] = 30

	input := DocumentInput{
		CounterpartyID: testClient,
		EmployeeID:     testEmployee,
		PaymentType:    PaymentDeferred,
		Items: []LineItemInput{
			{ProductID: testProduct, UnitID: caseUnit, Quantity: 2, UnitPrice: 100},
			{ProductID: testProduct, UnitID: minUnit, Quantity: 3, UnitPrice: 9},
		},
	}
	doc, err := proc.Create(context.Background(), TypeSalesOrder, input)
	require.NoError(t, err)
	require.InDelta(t, 227.0, doc.TotalAmount, 1e-9)
	require.InDelta(t, 30.0-24.0-3.0, stockAt(state, testStore, testProduct), 1e-9)

	input.Items = input.Items[:1]
	_, err = proc.Update(context.Background(), TypeSalesOrder, doc.ID, input)
	require.NoError(t, err)
	require.InDelta(t, 30.0-24.0, stockAt(state, testStore, testProduct), 1e-9)
	require.InDelta(t, 200.0, state.clients[testClient], 1e-9)

	require.NoError(t, proc.Delete(context.Background(), TypeSalesOrder, doc.ID))
	require.InDelta(t, 30.0, stockAt(state, testStore, testProduct), 1e-9)
	require.Zero(t, state.clients[testClient])
}
