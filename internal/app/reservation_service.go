package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sonic7adarsh/bharatshop/internal/clock"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVariantForUpdate(ctx context.Context, tenantID, variantID string) (domain.Variant, error)
	UpdateVariantCounters(ctx context.Context, variantID string, stock, reservedStock int) error
	AddVariantStock(ctx context.Context, variantID string, quantity int) error
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	MarkCommitted(ctx context.Context, id, orderID string, now time.Time) error
	MarkReleased(ctx context.Context, id, reason string, now time.Time) error
	ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// ReservationService owns every mutation of the per-variant stock counters.
// Each operation is one transaction holding the relevant row locks, so
// concurrent calls on the same variant serialize and can never oversell.
type ReservationService struct {
	repo       ReservationRepository
	clock      clock.Clock
	logger     *log.Logger
	ttl        time.Duration
	sweepBatch int
}

const defaultReservationTTL = 15 * time.Minute
const defaultSweepBatch = 100

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:       repo,
		clock:      clk,
		logger:     log.Default(),
		ttl:        defaultReservationTTL,
		sweepBatch: defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithReservationTTL overrides the default hold window for new reservations.
func WithReservationTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithSweepBatchSize caps how many expired reservations one sweep pass releases.
func WithSweepBatchSize(n int) ReservationServiceOption {
	return func(s *ReservationService) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// WithReservationLogger overrides the logger used by the expiry sweep.
func WithReservationLogger(l *log.Logger) ReservationServiceOption {
	return func(s *ReservationService) {
		if l != nil {
			s.logger = l
		}
	}
}

type ReserveInput struct {
	TenantID  string
	VariantID string
	Quantity  int
}

// Reserve holds quantity units of the variant's stock until the reservation is
// committed, released, or expires. The availability check and the counter
// update happen under the variant's row lock.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error) {
	if in.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		variant, err := s.repo.GetVariantForUpdate(txCtx, in.TenantID, in.VariantID)
		if err != nil {
			return err
		}
		if !variant.CanReserve(in.Quantity) {
			return domain.ErrInsufficientStock
		}

		if err := s.repo.UpdateVariantCounters(txCtx, variant.ID, variant.Stock, variant.ReservedStock+in.Quantity); err != nil {
			return err
		}

		res := domain.Reservation{
			ID:        newID(),
			TenantID:  in.TenantID,
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
			Status:    domain.ReservationStatusActive,
			ExpiresAt: now.Add(s.ttl),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Commit permanently consumes a reservation's units for the given order: the
// reservation becomes committed and both stock and reserved stock drop by its
// quantity. Committing an already-committed reservation for the same order is
// a no-op; for a different order it fails.
func (s *ReservationService) Commit(ctx context.Context, reservationID, orderID string) error {
	now := s.clock.Now()

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusCommitted:
			if res.OrderID != nil && *res.OrderID == orderID {
				return nil
			}
			return domain.ErrReservationNotActive
		case domain.ReservationStatusReleased:
			return domain.ErrReservationNotActive
		}

		if res.Expired(now) {
			return domain.ErrReservationExpired
		}

		variant, err := s.repo.GetVariantForUpdate(txCtx, res.TenantID, res.VariantID)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateVariantCounters(txCtx, variant.ID, variant.Stock-res.Quantity, variant.ReservedStock-res.Quantity); err != nil {
			return err
		}
		return s.repo.MarkCommitted(txCtx, res.ID, orderID, now)
	})
}

// Release returns a reservation's units to the available pool. Releasing an
// already-released reservation is a no-op; a committed one cannot be released.
func (s *ReservationService) Release(ctx context.Context, reservationID, reason string) error {
	_, err := s.release(ctx, reservationID, reason)
	return err
}

func (s *ReservationService) release(ctx context.Context, reservationID, reason string) (bool, error) {
	now := s.clock.Now()
	released := false

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusReleased:
			return nil
		case domain.ReservationStatusCommitted:
			return domain.ErrReservationNotActive
		}

		variant, err := s.repo.GetVariantForUpdate(txCtx, res.TenantID, res.VariantID)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateVariantCounters(txCtx, variant.ID, variant.Stock, variant.ReservedStock-res.Quantity); err != nil {
			return err
		}
		if err := s.repo.MarkReleased(txCtx, res.ID, reason, now); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}

// Unwind resolves a reservation during order cancellation or refund. Active
// reservations are released as usual; committed ones have already consumed
// stock, so their units are restocked while the reservation stays committed.
func (s *ReservationService) Unwind(ctx context.Context, reservationID, reason string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusReleased:
			return nil
		case domain.ReservationStatusCommitted:
			return s.repo.AddVariantStock(txCtx, res.VariantID, res.Quantity)
		}

		variant, err := s.repo.GetVariantForUpdate(txCtx, res.TenantID, res.VariantID)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateVariantCounters(txCtx, variant.ID, variant.Stock, variant.ReservedStock-res.Quantity); err != nil {
			return err
		}
		return s.repo.MarkReleased(txCtx, res.ID, reason, s.clock.Now())
	})
}

// SweepExpired releases every active reservation whose hold window has passed
// and returns how many it released. A failure on one reservation is logged and
// does not stop the rest; concurrent sweeps are safe because each release
// rechecks status under the reservation's row lock.
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	ids, err := s.repo.ListExpiredIDs(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, id := range ids {
		changed, err := s.release(ctx, id, "expired")
		if err != nil {
			if errors.Is(err, domain.ErrReservationNotActive) || errors.Is(err, domain.ErrReservationNotFound) {
				continue
			}
			s.logger.Printf("sweep: release reservation %s: %v", id, err)
			continue
		}
		if changed {
			released++
		}
	}
	return released, nil
}
