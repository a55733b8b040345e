package memory

import (
	"context"
	"fmt"
	"time"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type quoteRow struct {
	id            uuid.UUID
	userID        uuid.UUID
	beneficiaryID uuid.UUID
	amount        decimal.Decimal
	fxRate        decimal.Decimal
	fee           decimal.Decimal
	receiveAmount decimal.Decimal
	createdAt     time.Time
	expiresAt     time.Time
}

func (r quoteRow) toDomain() *domain_quote.Quote {
	return domain_quote.Restore(domain_quote.RestoreParams{
		QuoteID:       r.id,
		UserID:        r.userID,
		BeneficiaryID: r.beneficiaryID,
		Amount:        r.amount,
		FXRate:        r.fxRate,
		Fee:           r.fee,
		ReceiveAmount: r.receiveAmount,
		CreatedAt:     r.createdAt,
		ExpiresAt:     r.expiresAt,
	})
}

type QuoteRepo struct {
	s *Store
}

func (r *QuoteRepo) Create(ctx context.Context, q *domain_quote.Quote) error {
	row := quoteRow{
		id:            q.ID(),
		userID:        q.UserID(),
		beneficiaryID: q.BeneficiaryID(),
		amount:        q.Amount(),
		fxRate:        q.FXRate(),
		fee:           q.Fee(),
		receiveAmount: q.ReceiveAmount(),
		createdAt:     q.CreatedAt(),
		expiresAt:     q.ExpiresAt(),
	}

	return r.s.write(ctx, mutation{
		check: func() error {
			if _, exists := r.s.quotes[row.id]; exists {
				return fmt.Errorf("%w: quote %s", port_persistence.ErrDuplicateKey, row.id)
			}
			return nil
		},
		apply: func() { r.s.quotes[row.id] = row },
	})
}

func (r *QuoteRepo) GetByID(ctx context.Context, quoteID uuid.UUID) (*domain_quote.Quote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.quotes[quoteID]
	if !ok {
		return nil, port_persistence.ErrNotFound
	}

	return row.toDomain(), nil
}
