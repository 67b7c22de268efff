package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sonic7adarsh/bharatshop/internal/app"
	"github.com/sonic7adarsh/bharatshop/internal/domain"
)

// PaymentResultHandler is the minimal interface needed for the payment
// gateway callback.
type PaymentResultHandler interface {
	HandlePaymentResult(ctx context.Context, in app.PaymentResultInput) (domain.Order, error)
}

// HandlePaymentCallback returns an HTTP handler for the gateway's
// success/failure webhook.
func HandlePaymentCallback(svc PaymentResultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req paymentCallbackRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.OrderID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "order_id is required")
			return
		}

		order, err := svc.HandlePaymentResult(r.Context(), app.PaymentResultInput{
			OrderID:   req.OrderID,
			Succeeded: req.Succeeded,
			Reason:    req.Reason,
		})
		if err != nil {
			writeOrderError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(orderToResponse(order))
	}
}

type paymentCallbackRequest struct {
	OrderID   string `json:"order_id"`
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason,omitempty"`
}
