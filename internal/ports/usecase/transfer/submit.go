package port_transfer

import (
	"context"
	"time"
)

type SubmitTransferInput struct {
	UserID         string
	QuoteID        string
	IdempotencyKey string
}

type SubmitTransferOutput struct {
	TransferID string    `json:"transfer_id"`
	Status     string    `json:"status"`
	ETA        string    `json:"eta"`
	CreatedAt  time.Time `json:"created_at"`
	// Replayed is true when the output was served from a stored idempotency record.
	Replayed bool `json:"-"`
}

type SubmitTransferUseCase interface {
	Execute(ctx context.Context, input SubmitTransferInput) (SubmitTransferOutput, error)
}
