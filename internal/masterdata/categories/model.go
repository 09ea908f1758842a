package categories

// Category groups products for navigation and reporting.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
