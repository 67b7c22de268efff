package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sonic7adarsh/bharatshop/internal/clock"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

func TestReservationService_Reserve(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute

	makeSvc := func(variants ...domain.Variant) (*ReservationService, *fakeStore) {
		store := newFakeStore()
		for _, v := range variants {
			store.putVariant(v)
		}
		svc := NewReservationService(store, clock.NewFixed(now), WithReservationTTL(ttl))
		return svc, store
	}

	t.Run("reserves when stock available", func(t *testing.T) {
		svc, store := makeSvc(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 10, ReservedStock: 3})

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.ID == "" {
			t.Fatalf("expected reservation ID to be set")
		}
		if res.Status != domain.ReservationStatusActive {
			t.Fatalf("expected status active, got %s", res.Status)
		}
		if res.ExpiresAt != now.Add(ttl) {
			t.Fatalf("expected expires_at %v, got %v", now.Add(ttl), res.ExpiresAt)
		}

		v := store.variants["var-1"]
		if v.Stock != 10 || v.ReservedStock != 7 {
			t.Fatalf("expected counters (10, 7), got (%d, %d)", v.Stock, v.ReservedStock)
		}
	})

	t.Run("rejects when available stock insufficient", func(t *testing.T) {
		svc, store := makeSvc(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5, ReservedStock: 3})

		_, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 3})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if len(store.reservations) != 0 {
			t.Fatalf("expected no reservation on failure, got %d", len(store.reservations))
		}
		v := store.variants["var-1"]
		if v.ReservedStock != 3 {
			t.Fatalf("expected reserved stock unchanged, got %d", v.ReservedStock)
		}
	})

	t.Run("serialized competitors cannot oversell", func(t *testing.T) {
		svc, _ := makeSvc(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})

		if _, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 3}); err != nil {
			t.Fatalf("first reserve: %v", err)
		}
		_, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 3})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock for second competitor, got %v", err)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _ := makeSvc(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})

		for _, qty := range []int{0, -2} {
			if _, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: qty}); err != domain.ErrInvalidQuantity {
				t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", qty, err)
			}
		}
	})

	t.Run("unknown variant or wrong tenant", func(t *testing.T) {
		svc, _ := makeSvc(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})

		if _, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "missing", Quantity: 1}); err != domain.ErrVariantNotFound {
			t.Fatalf("expected ErrVariantNotFound, got %v", err)
		}
		if _, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-2", VariantID: "var-1", Quantity: 1}); err != domain.ErrVariantNotFound {
			t.Fatalf("expected ErrVariantNotFound for foreign tenant, got %v", err)
		}
	})
}

func TestReservationService_Commit(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	setup := func(res domain.Reservation) (*ReservationService, *fakeStore) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 10, ReservedStock: res.Quantity})
		store.putReservation(res)
		return NewReservationService(store, clock.NewFixed(now)), store
	}

	active := domain.Reservation{
		ID:        "res-1",
		TenantID:  "t-1",
		VariantID: "var-1",
		Quantity:  4,
		Status:    domain.ReservationStatusActive,
		ExpiresAt: now.Add(5 * time.Minute),
	}

	t.Run("commit consumes stock", func(t *testing.T) {
		svc, store := setup(active)

		if err := svc.Commit(context.Background(), "res-1", "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		res := store.reservations["res-1"]
		if res.Status != domain.ReservationStatusCommitted {
			t.Fatalf("expected status committed, got %s", res.Status)
		}
		if res.OrderID == nil || *res.OrderID != "order-1" {
			t.Fatalf("expected order id set, got %v", res.OrderID)
		}

		v := store.variants["var-1"]
		if v.Stock != 6 || v.ReservedStock != 0 {
			t.Fatalf("expected counters (6, 0), got (%d, %d)", v.Stock, v.ReservedStock)
		}
	})

	t.Run("commit is idempotent for the same order", func(t *testing.T) {
		svc, store := setup(active)

		if err := svc.Commit(context.Background(), "res-1", "order-1"); err != nil {
			t.Fatalf("first commit: %v", err)
		}
		if err := svc.Commit(context.Background(), "res-1", "order-1"); err != nil {
			t.Fatalf("expected idempotent retry to succeed, got %v", err)
		}

		v := store.variants["var-1"]
		if v.Stock != 6 || v.ReservedStock != 0 {
			t.Fatalf("expected counters unchanged on retry, got (%d, %d)", v.Stock, v.ReservedStock)
		}
	})

	t.Run("commit for a different order fails", func(t *testing.T) {
		svc, _ := setup(active)

		if err := svc.Commit(context.Background(), "res-1", "order-1"); err != nil {
			t.Fatalf("first commit: %v", err)
		}
		if err := svc.Commit(context.Background(), "res-1", "order-2"); err != domain.ErrReservationNotActive {
			t.Fatalf("expected ErrReservationNotActive, got %v", err)
		}
	})

	t.Run("expired reservation cannot commit", func(t *testing.T) {
		expired := active
		expired.ExpiresAt = now.Add(-1 * time.Second)
		svc, store := setup(expired)

		if err := svc.Commit(context.Background(), "res-1", "order-1"); err != domain.ErrReservationExpired {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
		v := store.variants["var-1"]
		if v.Stock != 10 || v.ReservedStock != 4 {
			t.Fatalf("expected counters untouched, got (%d, %d)", v.Stock, v.ReservedStock)
		}
	})

	t.Run("released reservation cannot commit", func(t *testing.T) {
		released := active
		released.Status = domain.ReservationStatusReleased
		svc, _ := setup(released)

		if err := svc.Commit(context.Background(), "res-1", "order-1"); err != domain.ErrReservationNotActive {
			t.Fatalf("expected ErrReservationNotActive, got %v", err)
		}
	})

	t.Run("missing reservation", func(t *testing.T) {
		svc, _ := setup(active)

		if err := svc.Commit(context.Background(), "missing", "order-1"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})
}

func TestReservationService_Release(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("release restores availability", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})
		svc := NewReservationService(store, clock.NewFixed(now))

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 2})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := svc.Release(context.Background(), res.ID, "customer abandoned"); err != nil {
			t.Fatalf("release: %v", err)
		}

		v := store.variants["var-1"]
		if v.Stock != 5 || v.ReservedStock != 0 {
			t.Fatalf("expected counters (5, 0), got (%d, %d)", v.Stock, v.ReservedStock)
		}
		if store.reservations[res.ID].ReleaseReason != "customer abandoned" {
			t.Fatalf("expected release reason recorded")
		}

		// Same quantity can be reserved again.
		if _, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 2}); err != nil {
			t.Fatalf("re-reserve after release: %v", err)
		}
	})

	t.Run("double release is a no-op", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})
		svc := NewReservationService(store, clock.NewFixed(now))

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 2})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := svc.Release(context.Background(), res.ID, "first"); err != nil {
			t.Fatalf("first release: %v", err)
		}
		if err := svc.Release(context.Background(), res.ID, "second"); err != nil {
			t.Fatalf("expected no-op on double release, got %v", err)
		}

		v := store.variants["var-1"]
		if v.ReservedStock != 0 {
			t.Fatalf("expected reserved stock 0 after double release, got %d", v.ReservedStock)
		}
	})

	t.Run("committed reservation cannot be released", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})
		svc := NewReservationService(store, clock.NewFixed(now))

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 2})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := svc.Commit(context.Background(), res.ID, "order-1"); err != nil {
			t.Fatalf("commit: %v", err)
		}
		if err := svc.Release(context.Background(), res.ID, "late"); err != domain.ErrReservationNotActive {
			t.Fatalf("expected ErrReservationNotActive, got %v", err)
		}
	})

	t.Run("reserve then commit nets out reserved stock", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 8, ReservedStock: 1})
		svc := NewReservationService(store, clock.NewFixed(now))

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 3})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := svc.Commit(context.Background(), res.ID, "order-1"); err != nil {
			t.Fatalf("commit: %v", err)
		}

		v := store.variants["var-1"]
		if v.Stock != 5 {
			t.Fatalf("expected stock reduced by quantity to 5, got %d", v.Stock)
		}
		if v.ReservedStock != 1 {
			t.Fatalf("expected reserved stock back at baseline 1, got %d", v.ReservedStock)
		}
	})
}

func TestReservationService_Unwind(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("unwind releases an active reservation", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})
		svc := NewReservationService(store, clock.NewFixed(now))

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 2})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := svc.Unwind(context.Background(), res.ID, "order cancelled"); err != nil {
			t.Fatalf("unwind: %v", err)
		}

		if store.reservations[res.ID].Status != domain.ReservationStatusReleased {
			t.Fatalf("expected reservation released")
		}
		if store.variants["var-1"].ReservedStock != 0 {
			t.Fatalf("expected reserved stock restored")
		}
	})

	t.Run("unwind restocks a committed reservation", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 5})
		svc := NewReservationService(store, clock.NewFixed(now))

		res, err := svc.Reserve(context.Background(), ReserveInput{TenantID: "t-1", VariantID: "var-1", Quantity: 2})
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := svc.Commit(context.Background(), res.ID, "order-1"); err != nil {
			t.Fatalf("commit: %v", err)
		}
		if err := svc.Unwind(context.Background(), res.ID, "order cancelled"); err != nil {
			t.Fatalf("unwind: %v", err)
		}

		v := store.variants["var-1"]
		if v.Stock != 5 || v.ReservedStock != 0 {
			t.Fatalf("expected counters restored to (5, 0), got (%d, %d)", v.Stock, v.ReservedStock)
		}
		// The reservation itself stays committed; only the units return.
		if store.reservations[res.ID].Status != domain.ReservationStatusCommitted {
			t.Fatalf("expected reservation to remain committed")
		}
	})
}

func TestReservationService_SweepExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("releases expired reservations only", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 10, ReservedStock: 6})
		store.putReservation(domain.Reservation{
			ID: "res-expired", TenantID: "t-1", VariantID: "var-1", Quantity: 2,
			Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-1 * time.Minute),
		})
		store.putReservation(domain.Reservation{
			ID: "res-live", TenantID: "t-1", VariantID: "var-1", Quantity: 4,
			Status: domain.ReservationStatusActive, ExpiresAt: now.Add(5 * time.Minute),
		})
		svc := NewReservationService(store, clock.NewFixed(now))

		released, err := svc.SweepExpired(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if released != 1 {
			t.Fatalf("expected 1 released, got %d", released)
		}
		if store.reservations["res-expired"].Status != domain.ReservationStatusReleased {
			t.Fatalf("expected expired reservation released")
		}
		if store.reservations["res-live"].Status != domain.ReservationStatusActive {
			t.Fatalf("expected live reservation untouched")
		}
		if store.variants["var-1"].ReservedStock != 4 {
			t.Fatalf("expected reserved stock 4 after sweep, got %d", store.variants["var-1"].ReservedStock)
		}
	})

	t.Run("second sweep finds nothing", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 10, ReservedStock: 2})
		store.putReservation(domain.Reservation{
			ID: "res-expired", TenantID: "t-1", VariantID: "var-1", Quantity: 2,
			Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-1 * time.Minute),
		})
		svc := NewReservationService(store, clock.NewFixed(now))

		if _, err := svc.SweepExpired(context.Background()); err != nil {
			t.Fatalf("first sweep: %v", err)
		}
		released, err := svc.SweepExpired(context.Background())
		if err != nil {
			t.Fatalf("second sweep: %v", err)
		}
		if released != 0 {
			t.Fatalf("expected 0 released on second sweep, got %d", released)
		}
	})

	t.Run("respects the batch size", func(t *testing.T) {
		store := newFakeStore()
		store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 10, ReservedStock: 3})
		for _, id := range []string{"res-a", "res-b", "res-c"} {
			store.putReservation(domain.Reservation{
				ID: id, TenantID: "t-1", VariantID: "var-1", Quantity: 1,
				Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-1 * time.Minute),
			})
		}
		svc := NewReservationService(store, clock.NewFixed(now), WithSweepBatchSize(2))

		released, err := svc.SweepExpired(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if released != 2 {
			t.Fatalf("expected 2 released in first batch, got %d", released)
		}
	})
}

func TestReservationService_SweepTolerantOfResolvedRows(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.putVariant(domain.Variant{ID: "var-1", TenantID: "t-1", Stock: 10, ReservedStock: 2})
	store.putReservation(domain.Reservation{
		ID: "res-1", TenantID: "t-1", VariantID: "var-1", Quantity: 2,
		Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-1 * time.Minute),
	})
	svc := NewReservationService(store, clock.NewFixed(now))

	// Another instance resolves the row between listing and releasing.
	listed, err := store.ListExpiredIDs(context.Background(), now, 10)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one expired id, got %v %v", listed, err)
	}
	if err := svc.Commit(context.Background(), "res-1", "order-1"); !errors.Is(err, domain.ErrReservationExpired) {
		t.Fatalf("expected expired commit to fail, got %v", err)
	}
	if err := svc.Release(context.Background(), "res-1", "raced"); err != nil {
		t.Fatalf("release: %v", err)
	}

	released, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if released != 0 {
		t.Fatalf("expected sweep to skip already-released row, got %d", released)
	}
}
