package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImage is used for products synthesized from client fragments.
const PlaceholderImage = "/placeholder.jpg"

// UnknownProductName names a synthesized product when the client sent no name.
const UnknownProductName = "Unknown Product"

// Product is a catalog entry. ID is the storage identifier, Key the business identifier.
// Price is invalid (not Valid) for incomplete catalog rows.
type Product struct {
	ID            string
	Key           string
	Name          string
	Description   string
	Brand         string
	Price         decimal.NullDecimal
	OriginalPrice decimal.NullDecimal
	Images        []string
	Category      string
	Subcategory   string
	Rating        float64
	ReviewCount   int
	InStock       bool
	Featured      bool
	Deals         bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Placeholder marks a product synthesized during order creation; it has no storage row.
	Placeholder bool
}

// ReferenceID is the identifier frozen into order lines: the business id when present.
func (p Product) ReferenceID() string {
	if p.Key != "" {
		return p.Key
	}
	return p.ID
}

// PrimaryImage returns the first image or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Query    string
	Category string
	Featured bool
	Deals    bool
	Offset   int
	Limit    int
}
