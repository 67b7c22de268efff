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

// ReservationService is the minimal interface needed for the reservation
// endpoints.
type ReservationService interface {
	Reserve(ctx context.Context, in app.ReserveInput) (domain.Reservation, error)
	Release(ctx context.Context, reservationID, reason string) error
}

// HandleCreateReservation returns an HTTP handler for placing a direct hold
// on a variant's stock.
func HandleCreateReservation(svc ReservationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.TenantID == "" || req.VariantID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "tenant_id and variant_id are required")
			return
		}

		res, err := svc.Reserve(r.Context(), app.ReserveInput{
			TenantID:  req.TenantID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			writeReservationError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(reservationResponse{
			ID:        res.ID,
			VariantID: res.VariantID,
			Quantity:  res.Quantity,
			Status:    string(res.Status),
			ExpiresAt: res.ExpiresAt,
		})
	}
}

// HandleReleaseReservation returns an HTTP handler for
// POST /reservations/{id}/release.
func HandleReleaseReservation(svc ReservationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		reservationID, ok := parseReleaseReservationPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req releaseReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		reason := req.Reason
		if reason == "" {
			reason = "released"
		}
		if err := svc.Release(r.Context(), reservationID, reason); err != nil {
			writeReservationError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, codeVariantNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrReservationNotActive):
		writeError(w, http.StatusConflict, codeReservationNotActive, err.Error())
	case errors.Is(err, domain.ErrReservationExpired):
		writeError(w, http.StatusConflict, codeReservationExpired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseReleaseReservationPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "reservations" || parts[2] != "release" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type createReservationRequest struct {
	TenantID  string `json:"tenant_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type releaseReservationRequest struct {
	Reason string `json:"reason,omitempty"`
}

type reservationResponse struct {
	ID        string    `json:"id"`
	VariantID string    `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}
