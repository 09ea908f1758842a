package clients

import "time"

// Client is a customer whose deferred purchases accumulate as debt. Debt is
// mutated only through parties.Ledger; the CRUD surface treats it read-only.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Debt      float64   `json:"debt"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
