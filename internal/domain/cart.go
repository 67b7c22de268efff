package domain

import "time"

type CartStatus string

const (
	CartStatusOpen       CartStatus = "open"
	CartStatusCheckedOut CartStatus = "checked_out"
)

// Cart is the ephemeral pre-order container. Stock is not held for cart items;
// reservations are created only when the cart is checked out.
type Cart struct {
	ID         string
	TenantID   string
	CustomerID string
	Status     CartStatus
	CreatedAt  time.Time
	Items      []CartItem
}

type CartItem struct {
	ID        string
	CartID    string
	VariantID string
	Quantity  int
}
