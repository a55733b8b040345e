package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	port_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/quote"
	port_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/transfer"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

type createQuoteRequest struct {
	BeneficiaryID string          `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type submitTransferRequest struct {
	QuoteID string `json:"quote_id"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) postQuote(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req createQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.createQuote.Execute(r.Context(), port_quote.CreateQuoteInput{
		UserID:        userID,
		BeneficiaryID: req.BeneficiaryID,
		Amount:        req.Amount,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/quotes/"+view.QuoteID)
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handler) getQuoteByID(w http.ResponseWriter, r *http.Request) {
	view, err := h.getQuote.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) postTransfer(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req submitTransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	out, err := h.submitTransfer.Execute(r.Context(), port_transfer.SubmitTransferInput{
		UserID:         userID,
		QuoteID:        req.QuoteID,
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/transfers/"+out.TransferID)
	if out.Replayed {
		w.Header().Set(headerReplayed, "true")
		respondJSON(w, http.StatusOK, out)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

func (h *Handler) getTransferByID(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryTransfers.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, err := h.queryTransfers.ListTransfers(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transfers": views})
}

func (h *Handler) listAuditEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, err := h.queryAudit.ListAuditEvents(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": views})
}

func requireUser(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.Header.Get(headerUserID))
	if userID == "" {
		return "", fmt.Errorf("%w: missing %s header", errBadRequest, headerUserID)
	}
	return userID, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err)
	}
	return nil
}
