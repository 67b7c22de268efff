package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrVariantNotFound        = errors.New("variant not found")
	ErrVariantAlreadyExists   = errors.New("variant already exists")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidStockAdjustment = errors.New("stock adjustment would drop below reserved units")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrReservationNotActive   = errors.New("reservation not active")
	ErrReservationExpired     = errors.New("reservation expired")
	ErrOrderNotFound          = errors.New("order not found")
	ErrIllegalTransition      = errors.New("illegal order transition")
	ErrTrackingRequired       = errors.New("tracking number and courier partner required")
	ErrCartNotFound           = errors.New("cart not found")
	ErrCartEmpty              = errors.New("cart has no items")
	ErrCartClosed             = errors.New("cart already checked out")
	ErrInvalidID              = errors.New("invalid id")
	ErrSKURequired            = errors.New("sku required")
	ErrInvalidPrice           = errors.New("invalid price")
	ErrInvalidCapacity        = errors.New("invalid stock quantity")
)

// PartialCommitError reports an order confirmation that could not commit every
// reservation. The transition is rolled back as a whole; the failing reservation
// ids let the caller decide between refund and retry.
type PartialCommitError struct {
	OrderID        string
	ReservationIDs []string
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf(
		"order %s: failed to commit reservations %s",
		e.OrderID,
		strings.Join(e.ReservationIDs, ", "),
	)
}
