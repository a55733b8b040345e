package impl_transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	impl_idempotency "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/idempotency"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/platform"
	port_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/transfer"
	"github.com/google/uuid"
)

const DefaultETA = "Usually within 1 minute"

var (
	_ port_transfer.SubmitTransferUseCase = (*TransferLedger)(nil)
	_ port_transfer.QueryTransfersUseCase = (*TransferLedger)(nil)
)

type idempotencyGuard interface {
	Execute(ctx context.Context, key string, requestHash string, op impl_idempotency.Operation) (impl_idempotency.Outcome, error)
}

type TransferLedger struct {
	guard     idempotencyGuard
	quotes    port_persistence.QuoteRepository
	transfers port_persistence.TransferRepository
	audit     port_persistence.AuditRepository
	clock     port_platform.Clock
	ids       port_platform.IDGenerator
	eta       string
}

func NewTransferLedger(
	guard idempotencyGuard,
	quotes port_persistence.QuoteRepository,
	transfers port_persistence.TransferRepository,
	audit port_persistence.AuditRepository,
	clock port_platform.Clock,
	ids port_platform.IDGenerator,
	eta string,
) *TransferLedger {
	if strings.TrimSpace(eta) == "" {
		eta = DefaultETA
	}

	return &TransferLedger{
		guard:     guard,
		quotes:    quotes,
		transfers: transfers,
		audit:     audit,
		clock:     clock,
		ids:       ids,
		eta:       eta,
	}
}

// Execute submits a transfer against a live quote. Retries carrying the same
// idempotency key get the first response back without a second transfer.
func (l *TransferLedger) Execute(ctx context.Context, in port_transfer.SubmitTransferInput) (port_transfer.SubmitTransferOutput, error) {
	userID, err := uuid.Parse(strings.TrimSpace(in.UserID))
	if err != nil {
		return port_transfer.SubmitTransferOutput{}, fmt.Errorf("%w: user_id: %v", ErrInvalidInput, err)
	}

	quoteID, err := uuid.Parse(strings.TrimSpace(in.QuoteID))
	if err != nil {
		return port_transfer.SubmitTransferOutput{}, fmt.Errorf("%w: quote_id: %v", ErrInvalidInput, err)
	}

	key := strings.TrimSpace(in.IdempotencyKey)

	guardKey := ""
	if key != "" {
		guardKey = ScopedIdempotencyKey(userID, key)
	}

	outcome, err := l.guard.Execute(ctx, guardKey, HashSubmitTransferInput(in), func(ctx context.Context) (impl_idempotency.Snapshot, error) {
		return l.submit(ctx, userID, quoteID, key)
	})
	if err != nil {
		return port_transfer.SubmitTransferOutput{}, err
	}

	var out port_transfer.SubmitTransferOutput
	if err := json.Unmarshal(outcome.Body, &out); err != nil {
		return port_transfer.SubmitTransferOutput{}, fmt.Errorf("%w: decode transfer snapshot: %w", port_persistence.ErrStorageFailure, err)
	}
	out.Replayed = outcome.Replayed

	if out.Replayed {
		slog.InfoContext(ctx, "transfer submission replayed", "transfer_id", out.TransferID, "idempotency_key", key)
	}

	return out, nil
}

func (l *TransferLedger) submit(ctx context.Context, userID, quoteID uuid.UUID, key string) (impl_idempotency.Snapshot, error) {
	q, err := l.quotes.GetByID(ctx, quoteID)
	if errors.Is(err, port_persistence.ErrNotFound) {
		return impl_idempotency.Snapshot{}, domain_quote.ErrQuoteNotFound
	}
	if err != nil {
		return impl_idempotency.Snapshot{}, fmt.Errorf("%w: get quote: %w", port_persistence.ErrStorageFailure, err)
	}

	if q.UserID() != userID {
		return impl_idempotency.Snapshot{}, domain_quote.ErrQuoteNotFound
	}

	t, err := domain_transfer.New(domain_transfer.NewParams{
		TransferID:     l.ids.NewUUID(),
		UserID:         userID,
		Quote:          q,
		IdempotencyKey: key,
		Now:            l.clock.Now(),
	})
	if err != nil {
		return impl_idempotency.Snapshot{}, err
	}

	events := t.PullEvents()
	auditEvents := make([]domain_audit.Event, 0, len(events))
	for _, ev := range events {
		ae, err := domain_audit.FromDomainEvent(l.ids.NewUUID(), ev)
		if err != nil {
			return impl_idempotency.Snapshot{}, err
		}
		auditEvents = append(auditEvents, ae)
	}

	if err := l.transfers.Create(ctx, t); err != nil {
		return impl_idempotency.Snapshot{}, fmt.Errorf("%w: create transfer: %w", port_persistence.ErrStorageFailure, err)
	}

	for _, ae := range auditEvents {
		if err := l.audit.Append(ctx, ae); err != nil {
			return impl_idempotency.Snapshot{}, fmt.Errorf("%w: append audit event: %w", port_persistence.ErrStorageFailure, err)
		}
	}

	out := port_transfer.SubmitTransferOutput{
		TransferID: t.ID().String(),
		Status:     string(t.Status()),
		ETA:        l.eta,
		CreatedAt:  t.CreatedAt(),
	}

	body, err := json.Marshal(out)
	if err != nil {
		return impl_idempotency.Snapshot{}, fmt.Errorf("encode transfer snapshot: %w", err)
	}

	slog.InfoContext(ctx, "transfer submitted",
		"transfer_id", t.ID(),
		"user_id", userID,
		"quote_id", quoteID,
		"idempotency_key", key,
	)

	return impl_idempotency.Snapshot{ResourceID: out.TransferID, Body: body}, nil
}
