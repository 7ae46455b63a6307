package product

import "storefront/internal/domain"

// JoinedColumns selects the product fields embedded in cart and wishlist rows.
// The products table must be LEFT JOINed under the alias p.
const JoinedColumns = `p.id::text, COALESCE(p.key, ''), COALESCE(p.name, ''), COALESCE(p.description, ''),
       COALESCE(p.brand, ''), p.price_cents, p.original_price_cents, COALESCE(p.images, '[]'::jsonb),
       COALESCE(p.category, ''), COALESCE(p.in_stock, FALSE), COALESCE(p.rating, 0)`

// Joined receives a LEFT JOINed product row.
type Joined struct {
	id          *string
	key         string
	name        string
	description string
	brand       string
	price       *int64
	original    *int64
	images      []string
	category    string
	inStock     bool
	rating      float64
}

// Dest returns scan targets in JoinedColumns order.
func (j *Joined) Dest() []any {
	return []any{&j.id, &j.key, &j.name, &j.description, &j.brand, &j.price, &j.original, &j.images, &j.category, &j.inStock, &j.rating}
}

// Product returns nil when the join found no catalog row.
func (j *Joined) Product() *domain.Product {
	if j.id == nil {
		return nil
	}
	return &domain.Product{
		ID:            *j.id,
		Key:           j.key,
		Name:          j.name,
		Description:   j.description,
		Brand:         j.brand,
		Price:         nullFromCents(j.price),
		OriginalPrice: nullFromCents(j.original),
		Images:        j.images,
		Category:      j.category,
		InStock:       j.inStock,
		Rating:        j.rating,
	}
}
