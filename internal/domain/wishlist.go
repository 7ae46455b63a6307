package domain

import "time"

// WishlistEntry records that a user saved a product.
type WishlistEntry struct {
	ID        string
	UserID    string
	ProductID string
	Product   *Product
	CreatedAt time.Time
}
