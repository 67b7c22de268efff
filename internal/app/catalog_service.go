package app

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"github.com/sonic7adarsh/bharatshop/internal/clock"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

type CatalogRepository interface {
	CreateVariant(ctx context.Context, variant domain.Variant) error
	GetVariant(ctx context.Context, tenantID, variantID string) (domain.Variant, error)
	ListVariants(ctx context.Context, tenantID string) ([]domain.Variant, error)
	AdjustVariantStock(ctx context.Context, tenantID, variantID string, delta int) error
}

// CatalogService manages a tenant's sellable variants and manual stock
// adjustments (restocks and corrections).
type CatalogService struct {
	repo   CatalogRepository
	clock  clock.Clock
	logger *log.Logger
}

type CatalogServiceOption func(*CatalogService)

// WithCatalogLogger overrides the logger used for the stock adjustment trail.
func WithCatalogLogger(l *log.Logger) CatalogServiceOption {
	return func(s *CatalogService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock, opts ...CatalogServiceOption) *CatalogService {
	svc := &CatalogService{
		repo:   repo,
		clock:  clk,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateVariantInput struct {
	TenantID string
	SKU      string
	Name     string
	Price    decimal.Decimal
	Stock    int
}

func (s *CatalogService) CreateVariant(ctx context.Context, in CreateVariantInput) (domain.Variant, error) {
	if in.TenantID == "" {
		return domain.Variant{}, domain.ErrInvalidID
	}
	if in.SKU == "" {
		return domain.Variant{}, domain.ErrSKURequired
	}
	if in.Price.IsNegative() {
		return domain.Variant{}, domain.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return domain.Variant{}, domain.ErrInvalidCapacity
	}

	variant := domain.Variant{
		ID:        newID(),
		TenantID:  in.TenantID,
		SKU:       in.SKU,
		Name:      in.Name,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return domain.Variant{}, err
	}
	return variant, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, tenantID, variantID string) (domain.Variant, error) {
	if tenantID == "" || variantID == "" {
		return domain.Variant{}, domain.ErrInvalidID
	}
	return s.repo.GetVariant(ctx, tenantID, variantID)
}

func (s *CatalogService) ListVariants(ctx context.Context, tenantID string) ([]domain.Variant, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListVariants(ctx, tenantID)
}

type AdjustStockInput struct {
	TenantID  string
	VariantID string
	Delta     int
	Reason    string
}

// AdjustStock restocks (positive delta) or corrects (negative delta) a
// variant's owned units. The adjustment never touches reserved stock and is
// rejected when it would drop owned units below the reserved count.
func (s *CatalogService) AdjustStock(ctx context.Context, in AdjustStockInput) (domain.Variant, error) {
	if in.TenantID == "" || in.VariantID == "" {
		return domain.Variant{}, domain.ErrInvalidID
	}
	if in.Delta == 0 {
		return domain.Variant{}, domain.ErrInvalidQuantity
	}

	if err := s.repo.AdjustVariantStock(ctx, in.TenantID, in.VariantID, in.Delta); err != nil {
		return domain.Variant{}, err
	}

	reason := in.Reason
	if reason == "" {
		reason = "unspecified"
	}
	s.logger.Printf("stock adjustment: tenant=%s variant=%s delta=%+d reason=%q", in.TenantID, in.VariantID, in.Delta, reason)

	return s.repo.GetVariant(ctx, in.TenantID, in.VariantID)
}
