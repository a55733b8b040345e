package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

// transferRow is a value copy; callers mutate their own *Transfer, never the stored one.
type transferRow struct {
	id             uuid.UUID
	userID         uuid.UUID
	quoteID        uuid.UUID
	status         domain_transfer.Status
	idempotencyKey string
	failureReason  string
	createdAt      time.Time
	updatedAt      time.Time
	settledAt      *time.Time
}

func rowFromTransfer(t *domain_transfer.Transfer) transferRow {
	return transferRow{
		id:             t.ID(),
		userID:         t.UserID(),
		quoteID:        t.QuoteID(),
		status:         t.Status(),
		idempotencyKey: t.IdempotencyKey(),
		failureReason:  t.FailureReason(),
		createdAt:      t.CreatedAt(),
		updatedAt:      t.UpdatedAt(),
		settledAt:      t.SettledAt(),
	}
}

// ownerKey is unique per user, matching the (user_id, idempotency_key) index of the SQL stores.
func (r transferRow) ownerKey() string {
	return r.userID.String() + ":" + r.idempotencyKey
}

func (r transferRow) toDomain() *domain_transfer.Transfer {
	return domain_transfer.Restore(domain_transfer.RestoreParams{
		TransferID:     r.id,
		UserID:         r.userID,
		QuoteID:        r.quoteID,
		Status:         r.status,
		IdempotencyKey: r.idempotencyKey,
		FailureReason:  r.failureReason,
		CreatedAt:      r.createdAt,
		UpdatedAt:      r.updatedAt,
		SettledAt:      r.settledAt,
	})
}

type TransferRepo struct {
	s *Store
}

func (r *TransferRepo) Create(ctx context.Context, t *domain_transfer.Transfer) error {
	row := rowFromTransfer(t)

	return r.s.write(ctx, mutation{
		check: func() error {
			if _, exists := r.s.transfers[row.id]; exists {
				return fmt.Errorf("%w: transfer %s", port_persistence.ErrDuplicateKey, row.id)
			}
			if row.idempotencyKey != "" {
				if _, exists := r.s.transferKeys[row.ownerKey()]; exists {
					return fmt.Errorf("%w: transfer idempotency key %q", port_persistence.ErrDuplicateKey, row.idempotencyKey)
				}
			}
			return nil
		},
		apply: func() {
			r.s.transfers[row.id] = row
			if row.idempotencyKey != "" {
				r.s.transferKeys[row.ownerKey()] = row.id
			}
		},
	})
}

func (r *TransferRepo) GetByID(ctx context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.transfers[transferID]
	if !ok {
		return nil, port_persistence.ErrNotFound
	}

	return row.toDomain(), nil
}

// ListByUser returns the user's transfers, newest first.
func (r *TransferRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain_transfer.Transfer, error) {
	r.s.mu.RLock()
	rows := make([]transferRow, 0)
	for _, row := range r.s.transfers {
		if row.userID == userID {
			rows = append(rows, row)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].createdAt.Equal(rows[j].createdAt) {
			return rows[i].id.String() > rows[j].id.String()
		}
		return rows[i].createdAt.After(rows[j].createdAt)
	})

	out := make([]*domain_transfer.Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TransferRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain_transfer.Transfer, error) {
	r.s.mu.RLock()
	rows := make([]transferRow, 0)
	for _, row := range r.s.transfers {
		if row.status == domain_transfer.StatusPending && !row.createdAt.After(cutoff) {
			rows = append(rows, row)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].createdAt.Equal(rows[j].createdAt) {
			return rows[i].id.String() < rows[j].id.String()
		}
		return rows[i].createdAt.Before(rows[j].createdAt)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]*domain_transfer.Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TransferRepo) Transition(ctx context.Context, t *domain_transfer.Transfer, expected domain_transfer.Status) error {
	next := rowFromTransfer(t)

	return r.s.write(ctx, mutation{
		check: func() error {
			current, ok := r.s.transfers[next.id]
			if !ok {
				return port_persistence.ErrNotFound
			}
			if current.status != expected {
				return fmt.Errorf("%w: transfer %s is %s, expected %s",
					port_persistence.ErrStatusConflict, next.id, current.status, expected)
			}
			return nil
		},
		apply: func() {
			current := r.s.transfers[next.id]
			current.status = next.status
			current.failureReason = next.failureReason
			current.settledAt = next.settledAt
			current.updatedAt = next.updatedAt
			r.s.transfers[next.id] = current
		},
	})
}
