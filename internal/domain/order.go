package domain

import "time"

// OrderIntent records that a session opened the checkout of a product.
type OrderIntent struct {
	ID          string    `json:"id"` // unique per intent, stable across redeliveries
	ProductID   int       `json:"product_id"`
	ProductName string    `json:"product_name"`
	SessionID   string    `json:"session_id"`
	CheckoutURL string    `json:"checkout_url"`
	CreatedAt   time.Time `json:"created_at"`
}
