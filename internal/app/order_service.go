package app

import (
	"context"
	"errors"

	"github.com/sonic7adarsh/bharatshop/internal/clock"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	SaveTransition(ctx context.Context, order domain.Order) error
}

// ReservationResolver is the slice of the reservation engine the order state
// machine drives on confirmation, cancellation, and refund.
type ReservationResolver interface {
	Commit(ctx context.Context, reservationID, orderID string) error
	Unwind(ctx context.Context, reservationID, reason string) error
}

// OrderService enforces the order state machine: a transition either applies
// its status write and every reservation side effect in one transaction, or
// leaves the order and its reservations untouched.
type OrderService struct {
	repo         OrderRepository
	reservations ReservationResolver
	clock        clock.Clock
}

func NewOrderService(repo OrderRepository, reservations ReservationResolver, clk clock.Clock) *OrderService {
	return &OrderService{
		repo:         repo,
		reservations: reservations,
		clock:        clk,
	}
}

type TransitionInput struct {
	TrackingNumber     string
	CourierPartner     string
	CancellationReason string
}

func (s *OrderService) Transition(ctx context.Context, orderID string, target domain.OrderStatus, in TransitionInput) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(target) {
			return domain.ErrIllegalTransition
		}

		switch target {
		case domain.OrderStatusConfirmed:
			if err := s.commitAll(txCtx, &order); err != nil {
				return err
			}
			order.ConfirmedAt = &now
			order.PaymentStatus = domain.PaymentStatusPaid

		case domain.OrderStatusPacked:
			order.PackedAt = &now

		case domain.OrderStatusShipped:
			if in.TrackingNumber == "" || in.CourierPartner == "" {
				return domain.ErrTrackingRequired
			}
			order.TrackingNumber = in.TrackingNumber
			order.CourierPartner = in.CourierPartner
			order.ShippedAt = &now

		case domain.OrderStatusDelivered:
			if order.DeliveredAt == nil {
				order.DeliveredAt = &now
			}

		case domain.OrderStatusCancelled:
			reason := in.CancellationReason
			if reason == "" {
				reason = "cancelled"
			}
			for _, item := range order.Items {
				if err := s.reservations.Unwind(txCtx, item.ReservationID, reason); err != nil {
					return err
				}
			}
			order.CancellationReason = reason
			order.CancelledAt = &now
			if order.PaymentStatus == domain.PaymentStatusPending {
				order.PaymentStatus = domain.PaymentStatusFailed
			}

		case domain.OrderStatusRefunded:
			for _, item := range order.Items {
				if err := s.reservations.Unwind(txCtx, item.ReservationID, "refunded"); err != nil {
					return err
				}
			}
			order.PaymentStatus = domain.PaymentStatusRefunded
		}

		order.Status = target
		if err := s.repo.SaveTransition(txCtx, order); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// commitAll commits every reservation on the order. Reservations that already
// resolved or expired are collected so the caller learns exactly which lines
// failed; any failure aborts the enclosing transaction.
func (s *OrderService) commitAll(ctx context.Context, order *domain.Order) error {
	var failed []string
	for _, item := range order.Items {
		err := s.reservations.Commit(ctx, item.ReservationID, order.ID)
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrReservationExpired) ||
			errors.Is(err, domain.ErrReservationNotActive) ||
			errors.Is(err, domain.ErrReservationNotFound) {
			failed = append(failed, item.ReservationID)
			continue
		}
		return err
	}
	if len(failed) > 0 {
		return &domain.PartialCommitError{OrderID: order.ID, ReservationIDs: failed}
	}
	return nil
}
