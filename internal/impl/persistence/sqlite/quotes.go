package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

type QuoteRepo struct {
	s *Store
}

func (r *QuoteRepo) Create(ctx context.Context, q *domain_quote.Quote) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "quote",
		`INSERT INTO quotes (id, user_id, beneficiary_id, amount, fx_rate, fee, receive_amount, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		q.ID().String(), q.UserID().String(), q.BeneficiaryID().String(),
		q.Amount().String(), q.FXRate().String(), q.Fee().String(), q.ReceiveAmount().String(),
		toUnix(q.CreatedAt()), toUnix(q.ExpiresAt()),
	)
}

func (r *QuoteRepo) GetByID(ctx context.Context, quoteID uuid.UUID) (*domain_quote.Quote, error) {
	var (
		p                    domain_quote.RestoreParams
		createdAt, expiresAt int64
	)

	err := r.s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, beneficiary_id, amount, fx_rate, fee, receive_amount, created_at, expires_at
		 FROM quotes WHERE id = ?`,
		quoteID.String(),
	).Scan(&p.QuoteID, &p.UserID, &p.BeneficiaryID, &p.Amount, &p.FXRate, &p.Fee, &p.ReceiveAmount, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	p.CreatedAt = fromUnix(createdAt)
	p.ExpiresAt = fromUnix(expiresAt)
	return domain_quote.Restore(p), nil
}
