package stock

import (
	"errors"
	"fmt"
	"time"

	"github.com/meridian-pos/meridian/internal/shared"
)

// Entry is the per-(store, product) stock record. Quantity is always held in
// the product's base unit; rows are created lazily on first adjustment.
type Entry struct {
	StoreID   int64     `json:"store_id"`
	ProductID int64     `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Adjustment records a manual stock correction outside document processing.
type Adjustment struct {
	ID         int64     `json:"id"`
	StoreID    int64     `json:"store_id"`
	ProductID  int64     `json:"product_id"`
	UnitID     int64     `json:"unit_id"`
	Quantity   float64   `json:"quantity"`
	NewBaseQty float64   `json:"new_base_qty"`
	Reason     string    `json:"reason"`
	Note       string    `json:"note,omitempty"`
	ActorID    int64     `json:"actor_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AdjustmentInput describes a manual adjustment request.
type AdjustmentInput struct {
	StoreID   int64   `json:"store_id" validate:"required,gt=0"`
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	UnitID    int64   `json:"unit_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required"`
	Reason    string  `json:"reason" validate:"required,max=120"`
	Note      string  `json:"note" validate:"max=500"`
	ActorID   int64   `json:"actor_id" validate:"required,gt=0"`
}

// LowStockRow is one line of the low-stock report.
type LowStockRow struct {
	StoreID       int64   `json:"store_id"`
	StoreName     string  `json:"store_name"`
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Quantity      float64 `json:"quantity"`
	MinStockLevel float64 `json:"min_stock_level"`
}

// ErrUnitNotFound indicates the transaction unit does not exist.
var ErrUnitNotFound = errors.New("stock: transaction unit not found")

// ErrInvalidQuantity indicates a zero adjustment quantity. It wraps the shared
// validation sentinel so the HTTP layer maps it to a client error.
var ErrInvalidQuantity = fmt.Errorf("stock: quantity must be non zero: %w", shared.ErrValidation)

// ToBaseQuantity converts a transaction-unit quantity into base units. The
// conversion is a plain multiplication so applying it with q and then with -q
// nets to exactly zero; both the apply and the revert paths in document
// processing go through this function.
func ToBaseQuantity(transactionQuantity, transactionUnitRate float64) float64 {
	return transactionQuantity * transactionUnitRate
}
