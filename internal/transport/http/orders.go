package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sonic7adarsh/bharatshop/internal/app"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

// OrderTransitioner is the minimal interface needed to drive an order through
// its lifecycle.
type OrderTransitioner interface {
	Transition(ctx context.Context, orderID string, target domain.OrderStatus, in app.TransitionInput) (domain.Order, error)
}

// HandleOrderTransition returns an HTTP handler for POST /orders/{id}/transition.
func HandleOrderTransition(svc OrderTransitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		orderID, ok := parseOrderTransitionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req transitionRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Status == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "status is required")
			return
		}

		order, err := svc.Transition(r.Context(), orderID, domain.OrderStatus(req.Status), app.TransitionInput{
			TrackingNumber:     req.TrackingNumber,
			CourierPartner:     req.CourierPartner,
			CancellationReason: req.CancellationReason,
		})
		if err != nil {
			writeOrderError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(orderToResponse(order))
	}
}

func writeOrderError(w http.ResponseWriter, err error) {
	var partial *domain.PartialCommitError
	if errors.As(err, &partial) {
		writeError(w, http.StatusConflict, codePartialCommitFailure, partial.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrIllegalTransition):
		writeError(w, http.StatusConflict, codeIllegalTransition, err.Error())
	case errors.Is(err, domain.ErrTrackingRequired):
		writeError(w, http.StatusBadRequest, codeTrackingRequired, err.Error())
	case errors.Is(err, domain.ErrReservationExpired):
		writeError(w, http.StatusConflict, codeReservationExpired, err.Error())
	case errors.Is(err, domain.ErrReservationNotActive):
		writeError(w, http.StatusConflict, codeReservationNotActive, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseOrderTransitionPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "orders" || parts[2] != "transition" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type transitionRequest struct {
	Status             string `json:"status"`
	TrackingNumber     string `json:"tracking_number,omitempty"`
	CourierPartner     string `json:"courier_partner,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

type orderItemResponse struct {
	VariantID     string `json:"variant_id"`
	ReservationID string `json:"reservation_id"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	TenantID       string              `json:"tenant_id"`
	CustomerID     string              `json:"customer_id"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	TotalAmount    string              `json:"total_amount"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	CourierPartner string              `json:"courier_partner,omitempty"`
	Items          []orderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

func orderToResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:             order.ID,
		TenantID:       order.TenantID,
		CustomerID:     order.CustomerID,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		TotalAmount:    order.TotalAmount.StringFixed(2),
		TrackingNumber: order.TrackingNumber,
		CourierPartner: order.CourierPartner,
		Items:          make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			VariantID:     item.VariantID,
			ReservationID: item.ReservationID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice.StringFixed(2),
		})
	}
	return resp
}
