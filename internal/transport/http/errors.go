package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed       = "method_not_allowed"
	codeNotFound               = "not_found"
	codeInvalidRequestBody     = "invalid_request_body"
	codeInvalidID              = "invalid_id"
	codeInvalidQuantity        = "invalid_quantity"
	codeInvalidStock           = "invalid_stock"
	codeInvalidStockAdjustment = "invalid_stock_adjustment"
	codeSKURequired            = "sku_required"
	codeInvalidPrice           = "invalid_price"
	codeVariantNotFound        = "variant_not_found"
	codeVariantAlreadyExists   = "variant_already_exists"
	codeInsufficientStock      = "insufficient_stock"
	codeReservationNotFound    = "reservation_not_found"
	codeReservationNotActive   = "reservation_not_active"
	codeReservationExpired     = "reservation_expired"
	codeOrderNotFound          = "order_not_found"
	codeIllegalTransition      = "illegal_transition"
	codeTrackingRequired       = "tracking_required"
	codePartialCommitFailure   = "partial_commit_failure"
	codeCartNotFound           = "cart_not_found"
	codeCartEmpty              = "cart_empty"
	codeCartClosed             = "cart_closed"
	codeForbidden              = "forbidden"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
