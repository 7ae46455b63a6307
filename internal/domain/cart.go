package domain

import "time"

// CartEntry is one (user, product) line of a cart. Product is nil when the referenced
// catalog row no longer exists.
type CartEntry struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	Options   map[string]string
	Product   *Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priced reports whether the entry contributes to cart totals.
func (e CartEntry) Priced() bool {
	return e.Product != nil && e.Product.Price.Valid
}
