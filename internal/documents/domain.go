package documents

import (
	"errors"
	"time"
)

// DocType identifies one of the four business-document families. Each type
// persists into its own header and item tables.
type DocType string

const (
	TypeSalesOrder     DocType = "SALES_ORDER"
	TypeSalesReturn    DocType = "SALES_RETURN"
	TypePurchase       DocType = "PURCHASE"
	TypePurchaseReturn DocType = "PURCHASE_RETURN"
)

// PaymentType controls whether the unpaid remainder moves the counterparty's
// balance.
type PaymentType string

const (
	PaymentCash     PaymentType = "CASH"
	PaymentDeferred PaymentType = "DEFERRED"
)

// Document is the persisted header shared by all four types. Amounts are
// derived from the line items on every write; AmountRemaining is always
// TotalAmount - AmountPaid.
type Document struct {
	ID              int64       `json:"id"`
	Type            DocType     `json:"type"`
	DocNumber       string      `json:"doc_number"`
	CounterpartyID  int64       `json:"counterparty_id"`
	EmployeeID      int64       `json:"employee_id"`
	StoreID         int64       `json:"store_id"`
	PaymentType     PaymentType `json:"payment_type"`
	TotalAmount     float64     `json:"total_amount"`
	AmountPaid      float64     `json:"amount_paid"`
	AmountRemaining float64     `json:"amount_remaining"`
	Note            string      `json:"note,omitempty"`
	IsDeleted       bool        `json:"is_deleted"`
	IsSynced        bool        `json:"is_synced"`
	LastModified    time.Time   `json:"last_modified"`
	CreatedAt       time.Time   `json:"created_at"`

	Items []LineItem `json:"items,omitempty"`
}

// LineItem is one line of a document. Quantity is in the transaction unit;
// CostAtSale snapshots the product's average cost for sales-side documents so
// gain/loss stays stable after later cost changes.
type LineItem struct {
	ID         int64   `json:"id"`
	DocumentID int64   `json:"document_id"`
	ProductID  int64   `json:"product_id"`
	UnitID     int64   `json:"unit_id"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
	CostAtSale float64 `json:"cost_at_sale,omitempty"`
}

// DocumentInput is the caller-supplied state for create and update.
type DocumentInput struct {
	CounterpartyID int64           `json:"counterparty_id" validate:"required,gt=0"`
	EmployeeID     int64           `json:"employee_id" validate:"required,gt=0"`
	PaymentType    PaymentType     `json:"payment_type" validate:"required,oneof=CASH DEFERRED"`
	AmountPaid     float64         `json:"amount_paid" validate:"gte=0"`
	Note           string          `json:"note" validate:"max=500"`
	Items          []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// LineItemInput is one requested line.
type LineItemInput struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	UnitID    int64   `json:"unit_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// Total returns the derived document total.
func (in DocumentInput) Total() float64 {
	var total float64
	for _, item := range in.Items {
		total += item.Quantity * item.UnitPrice
	}
	return total
}

// ErrNoAssignedStore indicates the acting employee has no store assignment,
// so stock movement cannot be attributed.
var ErrNoAssignedStore = errors.New("documents: employee has no assigned store")

// ErrDeleted indicates an update was attempted on a soft-deleted document.
var ErrDeleted = errors.New("documents: document is deleted")
