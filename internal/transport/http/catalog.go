package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sonic7adarsh/bharatshop/internal/app"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

// CatalogService is the minimal interface needed for the admin catalog
// endpoints.
type CatalogService interface {
	CreateVariant(ctx context.Context, in app.CreateVariantInput) (domain.Variant, error)
	ListVariants(ctx context.Context, tenantID string) ([]domain.Variant, error)
	AdjustStock(ctx context.Context, in app.AdjustStockInput) (domain.Variant, error)
}

// HandleAdminVariants returns an HTTP handler for admin variant
// creation/listing.
func HandleAdminVariants(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			tenantID := r.URL.Query().Get("tenant_id")
			if tenantID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "tenant_id is required")
				return
			}
			variants, err := svc.ListVariants(r.Context(), tenantID)
			if err != nil {
				writeCatalogError(w, err)
				return
			}
			resp := make([]variantResponse, 0, len(variants))
			for _, v := range variants {
				resp = append(resp, variantToResponse(v))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createVariantRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.TenantID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "tenant_id is required")
				return
			}
			if req.SKU == "" {
				writeError(w, http.StatusBadRequest, codeSKURequired, domain.ErrSKURequired.Error())
				return
			}

			price := decimal.Zero
			if req.Price != "" {
				var err error
				price, err = decimal.NewFromString(req.Price)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidPrice, "invalid price format")
					return
				}
			}

			variant, err := svc.CreateVariant(r.Context(), app.CreateVariantInput{
				TenantID: req.TenantID,
				SKU:      req.SKU,
				Name:     req.Name,
				Price:    price,
				Stock:    req.Stock,
			})
			if err != nil {
				writeCatalogError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(variantToResponse(variant))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminVariantStock returns an HTTP handler for
// POST /admin/variants/{id}/stock.
func HandleAdminVariantStock(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		variantID, ok := parseAdminVariantStockPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req adjustStockRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.TenantID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "tenant_id is required")
			return
		}

		variant, err := svc.AdjustStock(r.Context(), app.AdjustStockInput{
			TenantID:  req.TenantID,
			VariantID: variantID,
			Delta:     req.Delta,
			Reason:    req.Reason,
		})
		if err != nil {
			writeCatalogError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(variantToResponse(variant))
	}
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrSKURequired):
		writeError(w, http.StatusBadRequest, codeSKURequired, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrInvalidCapacity):
		writeError(w, http.StatusBadRequest, codeInvalidStock, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, codeVariantNotFound, err.Error())
	case errors.Is(err, domain.ErrVariantAlreadyExists):
		writeError(w, http.StatusConflict, codeVariantAlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInvalidStockAdjustment):
		writeError(w, http.StatusConflict, codeInvalidStockAdjustment, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseAdminVariantStockPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		return "", false
	}
	if parts[0] != "admin" || parts[1] != "variants" || parts[3] != "stock" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type createVariantRequest struct {
	TenantID string `json:"tenant_id"`
	SKU      string `json:"sku"`
	Name     string `json:"name,omitempty"`
	Price    string `json:"price,omitempty"`
	Stock    int    `json:"stock,omitempty"`
}

type adjustStockRequest struct {
	TenantID string `json:"tenant_id"`
	Delta    int    `json:"delta"`
	Reason   string `json:"reason,omitempty"`
}

type variantResponse struct {
	ID            string `json:"id"`
	TenantID      string `json:"tenant_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Stock         int    `json:"stock"`
	ReservedStock int    `json:"reserved_stock"`
	Available     int    `json:"available"`
}

func variantToResponse(v domain.Variant) variantResponse {
	return variantResponse{
		ID:            v.ID,
		TenantID:      v.TenantID,
		SKU:           v.SKU,
		Name:          v.Name,
		Price:         v.Price.StringFixed(2),
		Stock:         v.Stock,
		ReservedStock: v.ReservedStock,
		Available:     v.Available(),
	}
}
