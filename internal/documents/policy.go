package documents

import "fmt"

type partyKind int

const (
	partyClient partyKind = iota
	partySupplier
)

type debtBasis int

const (
	// basisRemaining moves the balance by TotalAmount - AmountPaid.
	basisRemaining debtBasis = iota
	// basisTotal moves the balance by TotalAmount regardless of AmountPaid.
	basisTotal
)

// policy captures everything that differs between the four document types so
// the processor runs a single code path. stockSign is +1 for goods arriving
// and -1 for goods leaving; balanceSign is applied to the basis amount on the
// counterparty's balance. gated restricts the balance movement to DEFERRED
// documents.
type policy struct {
	table        string
	itemTable    string
	numberPrefix string
	stockSign    float64
	party        partyKind
	balanceSign  float64
	basis        debtBasis
	gated        bool
	captureCost  bool
}

// The purchase entry is deliberately ungated and uses the full total: the
// system this replaces always booked the whole purchase amount against the
// supplier, independent of payment type. Kept as-is; see DESIGN.md.
var policies = map[DocType]policy{
	TypeSalesOrder: {
		table:       "sales_orders",
		itemTable:   "sales_order_items",
		numberPrefix: "SO",
		stockSign:   -1,
		party:       partyClient,
		balanceSign: 1,
		basis:       basisRemaining,
		gated:       true,
		captureCost: true,
	},
	TypeSalesReturn: {
		table:       "sales_returns",
		itemTable:   "sales_return_items",
		numberPrefix: "SR",
		stockSign:   1,
		party:       partyClient,
		balanceSign: -1,
		basis:       basisRemaining,
		gated:       true,
		captureCost: true,
	},
	TypePurchase: {
		table:       "purchases",
		itemTable:   "purchase_items",
		numberPrefix: "PU",
		stockSign:   1,
		party:       partySupplier,
		balanceSign: 1,
		basis:       basisTotal,
		gated:       false,
	},
	TypePurchaseReturn: {
		table:       "purchase_returns",
		itemTable:   "purchase_return_items",
		numberPrefix: "PR",
		stockSign:   -1,
		party:       partySupplier,
		balanceSign: -1,
		basis:       basisRemaining,
		gated:       true,
	},
}

func policyFor(t DocType) (policy, error) {
	p, ok := policies[t]
	if !ok {
		return policy{}, fmt.Errorf("documents: unknown document type %q", t)
	}
	return p, nil
}

// balanceDelta returns the signed amount the counterparty balance moves by
// when the document is applied. Zero means no movement.
func (p policy) balanceDelta(doc Document) float64 {
	if p.gated && doc.PaymentType != PaymentDeferred {
		return 0
	}
	amount := doc.AmountRemaining
	if p.basis == basisTotal {
		amount = doc.TotalAmount
	}
	return p.balanceSign * amount
}
