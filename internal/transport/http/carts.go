package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sonic7adarsh/bharatshop/internal/app"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

// CartService is the minimal interface needed for the cart endpoints.
type CartService interface {
	CreateCart(ctx context.Context, in app.CreateCartInput) (domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (domain.Cart, error)
	AddItem(ctx context.Context, in app.AddCartItemInput) (domain.Cart, error)
	Checkout(ctx context.Context, cartID string) (domain.Order, error)
}

// HandleCreateCart returns an HTTP handler for opening a cart.
func HandleCreateCart(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createCartRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.TenantID == "" || req.CustomerID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "tenant_id and customer_id are required")
			return
		}

		cart, err := svc.CreateCart(r.Context(), app.CreateCartInput{
			TenantID:   req.TenantID,
			CustomerID: req.CustomerID,
		})
		if err != nil {
			writeCartError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(cartToResponse(cart))
	}
}

// HandleCartActions routes /carts/{id}, /carts/{id}/items and /carts/{id}/checkout.
func HandleCartActions(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, action, ok := parseCartActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if action == "" {
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}

			cart, err := svc.GetCart(r.Context(), cartID)
			if err != nil {
				writeCartError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(cartToResponse(cart))
			return
		}

		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch action {
		case "items":
			var req addCartItemRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.VariantID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "variant_id is required")
				return
			}

			cart, err := svc.AddItem(r.Context(), app.AddCartItemInput{
				CartID:    cartID,
				VariantID: req.VariantID,
				Quantity:  req.Quantity,
			})
			if err != nil {
				writeCartError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(cartToResponse(cart))
		case "checkout":
			order, err := svc.Checkout(r.Context(), cartID)
			if err != nil {
				writeCartError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(orderToResponse(order))
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrCartNotFound):
		writeError(w, http.StatusNotFound, codeCartNotFound, err.Error())
	case errors.Is(err, domain.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, codeVariantNotFound, err.Error())
	case errors.Is(err, domain.ErrCartEmpty):
		writeError(w, http.StatusUnprocessableEntity, codeCartEmpty, err.Error())
	case errors.Is(err, domain.ErrCartClosed):
		writeError(w, http.StatusConflict, codeCartClosed, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseCartActionPath(path string) (cartID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 && len(parts) != 3 {
		return "", "", false
	}
	if parts[0] != "carts" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		return parts[1], "", true
	}
	return parts[1], parts[2], true
}

type createCartRequest struct {
	TenantID   string `json:"tenant_id"`
	CustomerID string `json:"customer_id"`
}

type addCartItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemResponse struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	ID         string             `json:"id"`
	TenantID   string             `json:"tenant_id"`
	CustomerID string             `json:"customer_id"`
	Status     string             `json:"status"`
	Items      []cartItemResponse `json:"items"`
}

func cartToResponse(cart domain.Cart) cartResponse {
	resp := cartResponse{
		ID:         cart.ID,
		TenantID:   cart.TenantID,
		CustomerID: cart.CustomerID,
		Status:     string(cart.Status),
		Items:      make([]cartItemResponse, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return resp
}
