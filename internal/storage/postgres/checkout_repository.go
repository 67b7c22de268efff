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

type CheckoutRepository struct {
	pool *pgxpool.Pool
}

func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

func (r *CheckoutRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CheckoutRepository) CreateCart(ctx context.Context, cart domain.Cart) error {
	const stmt = `
INSERT INTO carts (id, tenant_id, customer_id, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, cart.ID, cart.TenantID, cart.CustomerID, cart.Status, cart.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *CheckoutRepository) GetCartForUpdate(ctx context.Context, cartID string) (domain.Cart, error) {
	const query = `
SELECT id, tenant_id, customer_id, status, created_at
FROM carts
WHERE id = $1
FOR UPDATE`

	var c domain.Cart
	err := r.queryRow(ctx, query, cartID).
		Scan(&c.ID, &c.TenantID, &c.CustomerID, &c.Status, &c.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Cart{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("get cart for update: %w", err)
	}

	const itemsQuery = `
SELECT id, cart_id, variant_id, quantity
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC`

	rows, err := r.query(ctx, itemsQuery, cartID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, item)
	}
	if rows.Err() != nil {
		return domain.Cart{}, fmt.Errorf("iterate cart items: %w", rows.Err())
	}
	return c, nil
}

func (r *CheckoutRepository) UpsertCartItem(ctx context.Context, item domain.CartItem) error {
	const stmt = `
INSERT INTO cart_items (id, cart_id, variant_id, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, variant_id)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	_, err := r.exec(ctx, stmt, item.ID, item.CartID, item.VariantID, item.Quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCartNotFound
		}
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *CheckoutRepository) MarkCartCheckedOut(ctx context.Context, cartID string) error {
	const stmt = `UPDATE carts SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, cartID, domain.CartStatusCheckedOut)
	if err != nil {
		return fmt.Errorf("mark cart checked out: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

func (r *CheckoutRepository) GetVariant(ctx context.Context, tenantID, variantID string) (domain.Variant, error) {
	const query = `
SELECT id, tenant_id, sku, name, price::text, stock, reserved_stock, created_at
FROM variants
WHERE id = $1 AND tenant_id = $2`

	var v domain.Variant
	var price string
	err := r.queryRow(ctx, query, variantID, tenantID).
		Scan(&v.ID, &v.TenantID, &v.SKU, &v.Name, &price, &v.Stock, &v.ReservedStock, &v.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Variant{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Variant{}, domain.ErrVariantNotFound
		}
		return domain.Variant{}, fmt.Errorf("get variant: %w", err)
	}
	v.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Variant{}, fmt.Errorf("parse variant price: %w", err)
	}
	return v, nil
}

func (r *CheckoutRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const orderStmt = `
INSERT INTO orders (id, tenant_id, customer_id, status, payment_status, total_amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, orderStmt,
		order.ID,
		order.TenantID,
		order.CustomerID,
		order.Status,
		order.PaymentStatus,
		order.TotalAmount.String(),
		order.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}

	const itemStmt = `
INSERT INTO order_items (id, order_id, variant_id, reservation_id, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range order.Items {
		_, err := r.exec(ctx, itemStmt,
			item.ID,
			item.OrderID,
			item.VariantID,
			item.ReservationID,
			item.Quantity,
			item.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

func (r *CheckoutRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CheckoutRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *CheckoutRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
