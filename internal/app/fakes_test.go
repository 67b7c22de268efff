package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

// fakeStore backs every service repository interface in-memory. WithTx
// snapshots state and restores it on error, and nested WithTx joins the outer
// call, mirroring how the postgres repositories compose transactions.
type fakeStore struct {
	mu           sync.Mutex
	variants     map[string]domain.Variant
	reservations map[string]domain.Reservation
	orders       map[string]domain.Order
	carts        map[string]domain.Cart
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		variants:     make(map[string]domain.Variant),
		reservations: make(map[string]domain.Reservation),
		orders:       make(map[string]domain.Order),
		carts:        make(map[string]domain.Cart),
	}
}

func (f *fakeStore) putVariant(v domain.Variant) {
	f.variants[v.ID] = v
}

func (f *fakeStore) putReservation(r domain.Reservation) {
	f.reservations[r.ID] = r
}

func (f *fakeStore) putOrder(o domain.Order) {
	f.orders[o.ID] = o
}

func (f *fakeStore) putCart(c domain.Cart) {
	f.carts[c.ID] = c
}

type fakeTxKey struct{}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	snap := f.snapshot()
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, struct{}{})); err != nil {
		f.mu.Lock()
		f.restore(snap)
		f.mu.Unlock()
		return err
	}
	return nil
}

type storeSnapshot struct {
	variants     map[string]domain.Variant
	reservations map[string]domain.Reservation
	orders       map[string]domain.Order
	carts        map[string]domain.Cart
}

func (f *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		variants:     make(map[string]domain.Variant, len(f.variants)),
		reservations: make(map[string]domain.Reservation, len(f.reservations)),
		orders:       make(map[string]domain.Order, len(f.orders)),
		carts:        make(map[string]domain.Cart, len(f.carts)),
	}
	for k, v := range f.variants {
		snap.variants[k] = v
	}
	for k, v := range f.reservations {
		snap.reservations[k] = v
	}
	for k, v := range f.orders {
		snap.orders[k] = v
	}
	for k, v := range f.carts {
		snap.carts[k] = v
	}
	return snap
}

func (f *fakeStore) restore(snap storeSnapshot) {
	f.variants = snap.variants
	f.reservations = snap.reservations
	f.orders = snap.orders
	f.carts = snap.carts
}

func (f *fakeStore) GetVariantForUpdate(_ context.Context, tenantID, variantID string) (domain.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[variantID]
	if !ok || v.TenantID != tenantID {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return v, nil
}

func (f *fakeStore) UpdateVariantCounters(_ context.Context, variantID string, stock, reservedStock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	v.Stock = stock
	v.ReservedStock = reservedStock
	f.variants[variantID] = v
	return nil
}

func (f *fakeStore) AddVariantStock(_ context.Context, variantID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	v.Stock += quantity
	f.variants[variantID] = v
	return nil
}

func (f *fakeStore) CreateReservation(_ context.Context, res domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeStore) GetReservationForUpdate(_ context.Context, id string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeStore) MarkCommitted(_ context.Context, id, orderID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = domain.ReservationStatusCommitted
	res.OrderID = &orderID
	res.UpdatedAt = now
	f.reservations[id] = res
	return nil
}

func (f *fakeStore) MarkReleased(_ context.Context, id, reason string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	res.Status = domain.ReservationStatusReleased
	res.ReleaseReason = reason
	res.UpdatedAt = now
	f.reservations[id] = res
	return nil
}

func (f *fakeStore) ListExpiredIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, res := range f.reservations {
		if res.Status == domain.ReservationStatusActive && res.Expired(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) GetOrderForUpdate(_ context.Context, orderID string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) SaveTransition(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) CreateCart(_ context.Context, cart domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cart.ID] = cart
	return nil
}

func (f *fakeStore) GetCartForUpdate(_ context.Context, cartID string) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return c, nil
}

func (f *fakeStore) UpsertCartItem(_ context.Context, item domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[item.CartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].VariantID == item.VariantID {
			c.Items[i].Quantity += item.Quantity
			f.carts[item.CartID] = c
			return nil
		}
	}
	c.Items = append(c.Items, item)
	f.carts[item.CartID] = c
	return nil
}

func (f *fakeStore) MarkCartCheckedOut(_ context.Context, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	c.Status = domain.CartStatusCheckedOut
	f.carts[cartID] = c
	return nil
}

func (f *fakeStore) GetVariant(_ context.Context, tenantID, variantID string) (domain.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[variantID]
	if !ok || v.TenantID != tenantID {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return v, nil
}

func (f *fakeStore) CreateVariant(_ context.Context, variant domain.Variant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.variants {
		if v.TenantID == variant.TenantID && v.SKU == variant.SKU {
			return domain.ErrVariantAlreadyExists
		}
	}
	f.variants[variant.ID] = variant
	return nil
}

func (f *fakeStore) ListVariants(_ context.Context, tenantID string) ([]domain.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Variant
	for _, v := range f.variants {
		if v.TenantID == tenantID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (f *fakeStore) AdjustVariantStock(_ context.Context, tenantID, variantID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[variantID]
	if !ok || v.TenantID != tenantID {
		return domain.ErrVariantNotFound
	}
	if v.Stock+delta < v.ReservedStock || v.Stock+delta < 0 {
		return domain.ErrInvalidStockAdjustment
	}
	v.Stock += delta
	f.variants[variantID] = v
	return nil
}
