package products

import "time"

// Product describes a sellable item. Stock for a product is tracked in its
// base unit; the minimum and maximum units are the two transaction units a
// cashier can pick, each convertible to the base unit through its rate.
type Product struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	BaseUnitID    int64     `json:"base_unit_id"`
	MinUnitID     int64     `json:"min_unit_id"`
	MaxUnitID     int64     `json:"max_unit_id"`
	MinUnitPrice  float64   `json:"min_unit_price"`
	MaxUnitPrice  float64   `json:"max_unit_price"`
	AvgCost       float64   `json:"avg_cost"`
	MinStockLevel float64   `json:"min_stock_level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
