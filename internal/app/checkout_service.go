package app

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sonic7adarsh/bharatshop/internal/clock"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type CheckoutRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateCart(ctx context.Context, cart domain.Cart) error
	GetCartForUpdate(ctx context.Context, cartID string) (domain.Cart, error)
	UpsertCartItem(ctx context.Context, item domain.CartItem) error
	MarkCartCheckedOut(ctx context.Context, cartID string) error
	GetVariant(ctx context.Context, tenantID, variantID string) (domain.Variant, error)
	CreateOrder(ctx context.Context, order domain.Order) error
}

// Reserver is the slice of the reservation engine checkout needs.
type Reserver interface {
	Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error)
}

// OrderTransitioner drives the order state machine from payment outcomes.
type OrderTransitioner interface {
	Transition(ctx context.Context, orderID string, target domain.OrderStatus, in TransitionInput) (domain.Order, error)
}

// CheckoutService turns an open cart into a pending-payment order, reserving
// stock for every line in one transaction, and routes payment gateway outcomes
// into the matching order transition.
type CheckoutService struct {
	repo         CheckoutRepository
	reservations Reserver
	orders       OrderTransitioner
	clock        clock.Clock
}

func NewCheckoutService(repo CheckoutRepository, reservations Reserver, orders OrderTransitioner, clk clock.Clock) *CheckoutService {
	return &CheckoutService{
		repo:         repo,
		reservations: reservations,
		orders:       orders,
		clock:        clk,
	}
}

type CreateCartInput struct {
	TenantID   string
	CustomerID string
}

func (s *CheckoutService) CreateCart(ctx context.Context, in CreateCartInput) (domain.Cart, error) {
	if in.TenantID == "" || in.CustomerID == "" {
		return domain.Cart{}, domain.ErrInvalidID
	}

	cart := domain.Cart{
		ID:         newID(),
		TenantID:   in.TenantID,
		CustomerID: in.CustomerID,
		Status:     domain.CartStatusOpen,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// GetCart returns a cart with its line items.
func (s *CheckoutService) GetCart(ctx context.Context, cartID string) (domain.Cart, error) {
	if cartID == "" {
		return domain.Cart{}, domain.ErrInvalidID
	}
	return s.repo.GetCartForUpdate(ctx, cartID)
}

type AddCartItemInput struct {
	CartID    string
	VariantID string
	Quantity  int
}

// AddItem adds a line to an open cart, merging quantity when the variant is
// already present. No stock is held yet; reservations happen at checkout.
func (s *CheckoutService) AddItem(ctx context.Context, in AddCartItemInput) (domain.Cart, error) {
	if in.Quantity <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	var result domain.Cart
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cart, err := s.repo.GetCartForUpdate(txCtx, in.CartID)
		if err != nil {
			return err
		}
		if cart.Status != domain.CartStatusOpen {
			return domain.ErrCartClosed
		}
		if _, err := s.repo.GetVariant(txCtx, cart.TenantID, in.VariantID); err != nil {
			return err
		}

		item := domain.CartItem{
			ID:        newID(),
			CartID:    cart.ID,
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
		}
		if err := s.repo.UpsertCartItem(txCtx, item); err != nil {
			return err
		}

		result, err = s.repo.GetCartForUpdate(txCtx, in.CartID)
		return err
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return result, nil
}

// Checkout reserves stock for every cart line and creates the order in
// pending_payment. Any line failing to reserve aborts the whole checkout and
// no stock stays held.
func (s *CheckoutService) Checkout(ctx context.Context, cartID string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cart, err := s.repo.GetCartForUpdate(txCtx, cartID)
		if err != nil {
			return err
		}
		if cart.Status != domain.CartStatusOpen {
			return domain.ErrCartClosed
		}
		if len(cart.Items) == 0 {
			return domain.ErrCartEmpty
		}

		order := domain.Order{
			ID:            newID(),
			TenantID:      cart.TenantID,
			CustomerID:    cart.CustomerID,
			Status:        domain.OrderStatusPendingPayment,
			PaymentStatus: domain.PaymentStatusPending,
			TotalAmount:   decimal.Zero,
			CreatedAt:     now,
		}

		for _, line := range cart.Items {
			variant, err := s.repo.GetVariant(txCtx, cart.TenantID, line.VariantID)
			if err != nil {
				return err
			}
			res, err := s.reservations.Reserve(txCtx, ReserveInput{
				TenantID:  cart.TenantID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
			})
			if err != nil {
				return err
			}

			order.Items = append(order.Items, domain.OrderItem{
				ID:            newID(),
				OrderID:       order.ID,
				VariantID:     line.VariantID,
				ReservationID: res.ID,
				Quantity:      line.Quantity,
				UnitPrice:     variant.Price,
			})
			order.TotalAmount = order.TotalAmount.Add(variant.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if err := s.repo.MarkCartCheckedOut(txCtx, cart.ID); err != nil {
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

type PaymentResultInput struct {
	OrderID   string
	Succeeded bool
	Reason    string
}

// HandlePaymentResult maps a payment gateway outcome onto the state machine:
// success confirms the order (committing its reservations), failure cancels it
// (releasing them).
func (s *CheckoutService) HandlePaymentResult(ctx context.Context, in PaymentResultInput) (domain.Order, error) {
	if in.Succeeded {
		return s.orders.Transition(ctx, in.OrderID, domain.OrderStatusConfirmed, TransitionInput{})
	}

	reason := in.Reason
	if reason == "" {
		reason = "payment failed"
	}
	return s.orders.Transition(ctx, in.OrderID, domain.OrderStatusCancelled, TransitionInput{
		CancellationReason: reason,
	})
}
