package port_persistence

import (
	"context"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	"github.com/google/uuid"
)

type QuoteRepository interface {
	Create(ctx context.Context, q *domain_quote.Quote) error
	GetByID(ctx context.Context, quoteID uuid.UUID) (*domain_quote.Quote, error)
}
