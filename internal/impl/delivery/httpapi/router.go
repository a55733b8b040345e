// Package httpapi exposes the remittance use cases over HTTP.
package httpapi

import (
	"net/http"
	"time"

	port_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/audit"
	port_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/quote"
	port_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/transfer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	headerUserID         = "X-User-ID"
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type Handler struct {
	createQuote    port_quote.CreateQuoteUseCase
	getQuote       port_quote.GetQuoteUseCase
	submitTransfer port_transfer.SubmitTransferUseCase
	queryTransfers port_transfer.QueryTransfersUseCase
	queryAudit     port_audit.QueryAuditUseCase
}

func NewHandler(
	createQuote port_quote.CreateQuoteUseCase,
	getQuote port_quote.GetQuoteUseCase,
	submitTransfer port_transfer.SubmitTransferUseCase,
	queryTransfers port_transfer.QueryTransfersUseCase,
	queryAudit port_audit.QueryAuditUseCase,
) *Handler {
	return &Handler{
		createQuote:    createQuote,
		getQuote:       getQuote,
		submitTransfer: submitTransfer,
		queryTransfers: queryTransfers,
		queryAudit:     queryAudit,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(instrument)

		r.Post("/quotes", h.postQuote)
		r.Get("/quotes/{id}", h.getQuoteByID)

		r.Post("/transfers", h.postTransfer)
		r.Get("/transfers", h.listTransfers)
		r.Get("/transfers/{id}", h.getTransferByID)

		r.Get("/audit-events", h.listAuditEvents)
	})

	return r
}
