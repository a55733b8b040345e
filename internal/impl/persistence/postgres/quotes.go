package postgres

import (
	"context"
	"errors"
	"fmt"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type QuoteRepo struct {
	s *Store
}

func (r *QuoteRepo) Create(ctx context.Context, q *domain_quote.Quote) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "quote",
		`INSERT INTO quotes (id, user_id, beneficiary_id, amount, fx_rate, fee, receive_amount, created_at, expires_at)
		 VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9)
		 ON CONFLICT DO NOTHING`,
		q.ID(), q.UserID(), q.BeneficiaryID(),
		q.Amount().String(), q.FXRate().String(), q.Fee().String(), q.ReceiveAmount().String(),
		q.CreatedAt(), q.ExpiresAt(),
	)
}

func (r *QuoteRepo) GetByID(ctx context.Context, quoteID uuid.UUID) (*domain_quote.Quote, error) {
	var (
		p                                  domain_quote.RestoreParams
		amount, fxRate, fee, receiveAmount string
	)

	err := r.s.conn(ctx).QueryRow(ctx,
		`SELECT id, user_id, beneficiary_id, amount::text, fx_rate::text, fee::text, receive_amount::text, created_at, expires_at
		 FROM quotes WHERE id = $1`,
		quoteID,
	).Scan(&p.QuoteID, &p.UserID, &p.BeneficiaryID, &amount, &fxRate, &fee, &receiveAmount, &p.CreatedAt, &p.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{amount, &p.Amount},
		{fxRate, &p.FXRate},
		{fee, &p.Fee},
		{receiveAmount, &p.ReceiveAmount},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("decode quote %s: %w", quoteID, err)
		}
		*f.dst = d
	}

	p.CreatedAt = utc(p.CreatedAt)
	p.ExpiresAt = utc(p.ExpiresAt)
	return domain_quote.Restore(p), nil
}
