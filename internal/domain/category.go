package domain

// Category is a distinct catalog category, numbered in first-seen order.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
