package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) CreateVariant(ctx context.Context, variant domain.Variant) error {
	const stmt = `
INSERT INTO variants (id, tenant_id, sku, name, price, stock, reserved_stock, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`

	_, err := r.pool.Exec(ctx, stmt,
		variant.ID,
		variant.TenantID,
		variant.SKU,
		variant.Name,
		variant.Price.String(),
		variant.Stock,
		variant.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVariantAlreadyExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create variant: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetVariant(ctx context.Context, tenantID, variantID string) (domain.Variant, error) {
	const query = `
SELECT id, tenant_id, sku, name, price::text, stock, reserved_stock, created_at
FROM variants
WHERE id = $1 AND tenant_id = $2`

	var v domain.Variant
	var price string
	err := r.pool.QueryRow(ctx, query, variantID, tenantID).
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

func (r *CatalogRepository) ListVariants(ctx context.Context, tenantID string) ([]domain.Variant, error) {
	const query = `
SELECT id, tenant_id, sku, name, price::text, stock, reserved_stock, created_at
FROM variants
WHERE tenant_id = $1
ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		var price string
		if err := rows.Scan(&v.ID, &v.TenantID, &v.SKU, &v.Name, &price, &v.Stock, &v.ReservedStock, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		v.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse variant price: %w", err)
		}
		variants = append(variants, v)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate variants: %w", rows.Err())
	}
	return variants, nil
}

// AdjustVariantStock applies a manual restock or correction in one guarded
// statement: the row must belong to the tenant and the owned count may never
// drop below the reserved count.
func (r *CatalogRepository) AdjustVariantStock(ctx context.Context, tenantID, variantID string, delta int) error {
	const stmt = `
UPDATE variants
SET stock = stock + $3
WHERE id = $1 AND tenant_id = $2 AND stock + $3 >= reserved_stock AND stock + $3 >= 0`

	tag, err := r.pool.Exec(ctx, stmt, variantID, tenantID, delta)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("adjust variant stock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const existsQuery = `SELECT EXISTS (SELECT 1 FROM variants WHERE id = $1 AND tenant_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, existsQuery, variantID, tenantID).Scan(&exists); err != nil {
		return fmt.Errorf("check variant: %w", err)
	}
	if !exists {
		return domain.ErrVariantNotFound
	}
	return domain.ErrInvalidStockAdjustment
}
