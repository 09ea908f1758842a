package units

// Unit represents a unit of measure. Rate is the conversion factor from this
// unit to a product's base unit; base units carry a rate of 1.
type Unit struct {
	ID   int64   `json:"id"`
	Code string  `json:"code"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}
