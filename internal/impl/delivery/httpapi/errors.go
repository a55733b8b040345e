package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	impl_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/audit"
	impl_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/quote"
	impl_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
)

const (
	codeInvalidInput   = "INVALID_INPUT"
	codeInvalidAmount  = "INVALID_AMOUNT"
	codeQuoteNotFound  = "QUOTE_NOT_FOUND"
	codeQuoteExpired   = "QUOTE_EXPIRED"
	codeNotFound       = "NOT_FOUND"
	codeStorageFailure = "STORAGE_FAILURE"
	codeInternal       = "INTERNAL"
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, impl_quote.ErrInvalidInput),
		errors.Is(err, impl_transfer.ErrInvalidInput),
		errors.Is(err, impl_audit.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, domain_quote.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, codeInvalidAmount
	case errors.Is(err, domain_quote.ErrQuoteNotFound):
		return http.StatusNotFound, codeQuoteNotFound
	case errors.Is(err, domain_quote.ErrQuoteExpired):
		return http.StatusUnprocessableEntity, codeQuoteExpired
	case errors.Is(err, impl_transfer.ErrTransferNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, port_persistence.ErrStorageFailure):
		return http.StatusServiceUnavailable, codeStorageFailure
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "code", code, "error", err)
		msg = http.StatusText(status)
	}

	respondJSON(w, status, errorBody{Error: code, Message: msg})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
