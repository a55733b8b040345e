package impl_transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/transfer"
	"github.com/google/uuid"
)

func (l *TransferLedger) GetTransfer(ctx context.Context, transferID string) (port_transfer.TransferView, error) {
	id, err := uuid.Parse(strings.TrimSpace(transferID))
	if err != nil {
		return port_transfer.TransferView{}, fmt.Errorf("%w: transfer_id: %v", ErrInvalidInput, err)
	}

	t, err := l.transfers.GetByID(ctx, id)
	if errors.Is(err, port_persistence.ErrNotFound) {
		return port_transfer.TransferView{}, ErrTransferNotFound
	}
	if err != nil {
		return port_transfer.TransferView{}, fmt.Errorf("%w: get transfer: %w", port_persistence.ErrStorageFailure, err)
	}

	return ToView(t), nil
}

func (l *TransferLedger) ListTransfers(ctx context.Context, userID string) ([]port_transfer.TransferView, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: user_id: %v", ErrInvalidInput, err)
	}

	transfers, err := l.transfers.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list transfers: %w", port_persistence.ErrStorageFailure, err)
	}

	views := make([]port_transfer.TransferView, 0, len(transfers))
	for _, t := range transfers {
		views = append(views, ToView(t))
	}

	return views, nil
}

func ToView(t *domain_transfer.Transfer) port_transfer.TransferView {
	return port_transfer.TransferView{
		TransferID:     t.ID().String(),
		UserID:         t.UserID().String(),
		QuoteID:        t.QuoteID().String(),
		Status:         string(t.Status()),
		IdempotencyKey: t.IdempotencyKey(),
		FailureReason:  t.FailureReason(),
		CreatedAt:      t.CreatedAt(),
		UpdatedAt:      t.UpdatedAt(),
		SettledAt:      t.SettledAt(),
	}
}
