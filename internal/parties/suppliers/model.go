package suppliers

import "time"

// Supplier is a vendor; unpaid purchases accumulate as indebtedness, mutated
// only through parties.Ledger.
type Supplier struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Indebtedness float64   `json:"indebtedness"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
