package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) GetVariantForUpdate(ctx context.Context, tenantID, variantID string) (domain.Variant, error) {
	const query = `
SELECT id, tenant_id, sku, name, price::text, stock, reserved_stock, created_at
FROM variants
WHERE id = $1 AND tenant_id = $2
FOR UPDATE`

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
		return domain.Variant{}, fmt.Errorf("get variant for update: %w", err)
	}
	v.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Variant{}, fmt.Errorf("parse variant price: %w", err)
	}
	return v, nil
}

func (r *ReservationRepository) UpdateVariantCounters(ctx context.Context, variantID string, stock, reservedStock int) error {
	const stmt = `UPDATE variants SET stock = $2, reserved_stock = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, variantID, stock, reservedStock)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update variant counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func (r *ReservationRepository) AddVariantStock(ctx context.Context, variantID string, quantity int) error {
	const stmt = `UPDATE variants SET stock = stock + $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, variantID, quantity)
	if err != nil {
		return fmt.Errorf("add variant stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, tenant_id, variant_id, quantity, order_id, status, expires_at, release_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.TenantID,
		res.VariantID,
		res.Quantity,
		res.OrderID,
		res.Status,
		res.ExpiresAt,
		res.ReleaseReason,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrVariantNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `
SELECT id, tenant_id, variant_id, quantity, order_id, status, expires_at, release_reason, created_at, updated_at
FROM reservations
WHERE id = $1
FOR UPDATE`

	var res domain.Reservation
	err := r.queryRow(ctx, query, id).Scan(
		&res.ID,
		&res.TenantID,
		&res.VariantID,
		&res.Quantity,
		&res.OrderID,
		&res.Status,
		&res.ExpiresAt,
		&res.ReleaseReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation for update: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) MarkCommitted(ctx context.Context, id, orderID string, now time.Time) error {
	const stmt = `
UPDATE reservations
SET status = $2, order_id = $3, updated_at = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, domain.ReservationStatusCommitted, orderID, now)
	if err != nil {
		return fmt.Errorf("mark reservation committed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) MarkReleased(ctx context.Context, id, reason string, now time.Time) error {
	const stmt = `
UPDATE reservations
SET status = $2, release_reason = $3, updated_at = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, domain.ReservationStatusReleased, reason, now)
	if err != nil {
		return fmt.Errorf("mark reservation released: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id
FROM reservations
WHERE status = 'active' AND expires_at < $1
ORDER BY expires_at ASC
LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expired reservations: %w", rows.Err())
	}
	return ids, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
