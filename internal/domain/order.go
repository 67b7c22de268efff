package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusPacked          OrderStatus = "packed"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusReturnRequested OrderStatus = "return_requested"
	OrderStatusReturned        OrderStatus = "returned"
	OrderStatusRefunded        OrderStatus = "refunded"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// orderTransitions is the single source of truth for the order state machine.
// An absent key means the status is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:  {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:       {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:          {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:         {OrderStatusDelivered},
	OrderStatusDelivered:       {OrderStatusReturnRequested},
	OrderStatusReturnRequested: {OrderStatusReturned, OrderStatusDelivered},
	OrderStatusReturned:        {OrderStatusRefunded},
}

// CanTransitionTo reports whether the state machine permits moving to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanBeCancelled reports whether the order may still be cancelled outright.
func (s OrderStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}

// CanBeReturned reports whether a return may be requested.
func (s OrderStatus) CanBeReturned() bool {
	return s.CanTransitionTo(OrderStatusReturnRequested)
}

// Order is a customer's in-progress or completed purchase. Transition
// timestamps are set exactly once, when the corresponding edge is taken.
type Order struct {
	ID                 string
	TenantID           string
	CustomerID         string
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	TotalAmount        decimal.Decimal
	TrackingNumber     string
	CourierPartner     string
	CancellationReason string
	ConfirmedAt        *time.Time
	PackedAt           *time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	Items              []OrderItem
}

// OrderItem is one purchased line. Each item references the reservation that
// holds (and after confirmation, permanently consumed) its units.
type OrderItem struct {
	ID            string
	OrderID       string
	VariantID     string
	ReservationID string
	Quantity      int
	UnitPrice     decimal.Decimal
}
