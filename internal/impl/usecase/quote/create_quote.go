package impl_quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/platform"
	port_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/quote"
	"github.com/google/uuid"
)

var (
	_ port_quote.CreateQuoteUseCase = (*QuoteEngine)(nil)
	_ port_quote.GetQuoteUseCase    = (*QuoteEngine)(nil)
)

type QuoteEngine struct {
	uow     port_persistence.UnitOfWork
	quotes  port_persistence.QuoteRepository
	audit   port_persistence.AuditRepository
	clock   port_platform.Clock
	ids     port_platform.IDGenerator
	pricing domain_quote.Pricing
}

func NewQuoteEngine(
	uow port_persistence.UnitOfWork,
	quotes port_persistence.QuoteRepository,
	audit port_persistence.AuditRepository,
	clock port_platform.Clock,
	ids port_platform.IDGenerator,
	pricing domain_quote.Pricing,
) *QuoteEngine {
	return &QuoteEngine{
		uow:     uow,
		quotes:  quotes,
		audit:   audit,
		clock:   clock,
		ids:     ids,
		pricing: pricing,
	}
}

// Execute prices and persists a quote together with its QUOTE_CREATED audit event.
func (u *QuoteEngine) Execute(ctx context.Context, in port_quote.CreateQuoteInput) (port_quote.QuoteView, error) {
	userID, err := uuid.Parse(strings.TrimSpace(in.UserID))
	if err != nil {
		return port_quote.QuoteView{}, fmt.Errorf("%w: user_id: %v", ErrInvalidInput, err)
	}

	beneficiaryID, err := uuid.Parse(strings.TrimSpace(in.BeneficiaryID))
	if err != nil {
		return port_quote.QuoteView{}, fmt.Errorf("%w: beneficiary_id: %v", ErrInvalidInput, err)
	}

	if err := domain_quote.ValidateAmount(in.Amount); err != nil {
		return port_quote.QuoteView{}, err
	}

	q, err := domain_quote.New(domain_quote.NewParams{
		QuoteID:       u.ids.NewUUID(),
		UserID:        userID,
		BeneficiaryID: beneficiaryID,
		Amount:        in.Amount,
		Pricing:       u.pricing,
		Now:           u.clock.Now(),
	})
	if err != nil {
		return port_quote.QuoteView{}, err
	}

	created, _ := q.PullCreated()
	ev, err := domain_audit.FromDomainEvent(u.ids.NewUUID(), created)
	if err != nil {
		return port_quote.QuoteView{}, err
	}

	err = u.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.quotes.Create(ctx, q); err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		if err := u.audit.Append(ctx, ev); err != nil {
			return fmt.Errorf("append audit event: %w", err)
		}
		return nil
	})
	if err != nil {
		return port_quote.QuoteView{}, fmt.Errorf("%w: %w", port_persistence.ErrStorageFailure, err)
	}

	slog.InfoContext(ctx, "quote created",
		"quote_id", q.ID(),
		"user_id", q.UserID(),
		"amount", q.Amount().String(),
		"fee", q.Fee().String(),
		"receive_amount", q.ReceiveAmount().String(),
		"expires_at", q.ExpiresAt(),
	)

	return toView(q), nil
}

func (u *QuoteEngine) GetQuote(ctx context.Context, quoteID string) (port_quote.QuoteView, error) {
	id, err := uuid.Parse(strings.TrimSpace(quoteID))
	if err != nil {
		return port_quote.QuoteView{}, fmt.Errorf("%w: quote_id: %v", ErrInvalidInput, err)
	}

	q, err := u.quotes.GetByID(ctx, id)
	if errors.Is(err, port_persistence.ErrNotFound) {
		return port_quote.QuoteView{}, domain_quote.ErrQuoteNotFound
	}
	if err != nil {
		return port_quote.QuoteView{}, fmt.Errorf("%w: get quote: %w", port_persistence.ErrStorageFailure, err)
	}

	return toView(q), nil
}
