package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, tenant_id, customer_id, status, payment_status, total_amount::text,
       tracking_number, courier_partner, cancellation_reason,
       confirmed_at, packed_at, shipped_at, delivered_at, cancelled_at, created_at
FROM orders
WHERE id = $1
FOR UPDATE`

	var o domain.Order
	var total string
	err := r.queryRow(ctx, query, orderID).Scan(
		&o.ID,
		&o.TenantID,
		&o.CustomerID,
		&o.Status,
		&o.PaymentStatus,
		&total,
		&o.TrackingNumber,
		&o.CourierPartner,
		&o.CancellationReason,
		&o.ConfirmedAt,
		&o.PackedAt,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order for update: %w", err)
	}
	o.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse order total: %w", err)
	}

	o.Items, err = r.listItems(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
SELECT id, order_id, variant_id, reservation_id, quantity, unit_price::text
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var price string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.ReservationID, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.UnitPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order items: %w", rows.Err())
	}
	return items, nil
}

// SaveTransition persists every field a state transition may touch.
func (r *OrderRepository) SaveTransition(ctx context.Context, order domain.Order) error {
	const stmt = `
UPDATE orders
SET status = $2,
    payment_status = $3,
    tracking_number = $4,
    courier_partner = $5,
    cancellation_reason = $6,
    confirmed_at = $7,
    packed_at = $8,
    shipped_at = $9,
    delivered_at = $10,
    cancelled_at = $11
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		order.ID,
		order.Status,
		order.PaymentStatus,
		order.TrackingNumber,
		order.CourierPartner,
		order.CancellationReason,
		order.ConfirmedAt,
		order.PackedAt,
		order.ShippedAt,
		order.DeliveredAt,
		order.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("save order transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
