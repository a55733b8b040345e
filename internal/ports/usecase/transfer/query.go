package port_transfer

import (
	"context"
	"time"
)

type TransferView struct {
	TransferID     string     `json:"transfer_id"`
	UserID         string     `json:"user_id"`
	QuoteID        string     `json:"quote_id"`
	Status         string     `json:"status"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

type QueryTransfersUseCase interface {
	GetTransfer(ctx context.Context, transferID string) (TransferView, error)
	ListTransfers(ctx context.Context, userID string) ([]TransferView, error)
}
