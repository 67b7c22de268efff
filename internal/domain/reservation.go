package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCommitted ReservationStatus = "committed"
	ReservationStatusReleased  ReservationStatus = "released"
)

// Reservation is a temporary hold on a quantity of a variant's stock. Active
// reservations keep the units out of the available pool until they are either
// committed to an order or released back. Committed and released are terminal.
type Reservation struct {
	ID            string
	TenantID      string
	VariantID     string
	Quantity      int
	OrderID       *string
	Status        ReservationStatus
	ExpiresAt     time.Time
	ReleaseReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Expired reports whether the reservation's hold window has passed.
func (r Reservation) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
