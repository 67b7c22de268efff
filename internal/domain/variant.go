package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is a purchasable SKU-level unit of a product. Stock is tracked per
// variant: Stock counts owned units, ReservedStock the units held by active
// reservations. ReservedStock never exceeds Stock.
type Variant struct {
	ID            string
	TenantID      string
	SKU           string
	Name          string
	Price         decimal.Decimal
	Stock         int
	ReservedStock int
	CreatedAt     time.Time
}

// Available returns the units that can still be reserved.
func (v Variant) Available() int {
	return v.Stock - v.ReservedStock
}

// CanReserve reports whether quantity units are available.
func (v Variant) CanReserve(quantity int) bool {
	return quantity > 0 && v.Available() >= quantity
}
