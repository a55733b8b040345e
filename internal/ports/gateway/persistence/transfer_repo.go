package port_persistence

import (
	"context"
	"errors"
	"time"

	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("persistence: not found")
	ErrDuplicateKey   = errors.New("persistence: duplicate key")
	ErrStatusConflict = errors.New("persistence: status changed concurrently")

	// ErrStorageFailure classifies infrastructure errors surfaced by use cases.
	ErrStorageFailure = errors.New("persistence: storage failure")
)

type TransferRepository interface {
	Create(ctx context.Context, t *domain_transfer.Transfer) error
	GetByID(ctx context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain_transfer.Transfer, error)
	// ListPendingCreatedBefore returns PENDING transfers with created_at <= cutoff, oldest first.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain_transfer.Transfer, error)
	// Transition persists t's status, settled_at, failure reason and updated_at only if
	// the stored status still equals expected; otherwise it returns ErrStatusConflict.
	Transition(ctx context.Context, t *domain_transfer.Transfer, expected domain_transfer.Status) error
}
