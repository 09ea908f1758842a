package employees

import "time"

// Employee is a staff member. StoreID is the store the employee operates;
// documents created by an employee move stock in that store.
type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	StoreID   *int64    `json:"store_id,omitempty"`
	PINHash   string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
