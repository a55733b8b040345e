package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

const transferColumns = `id, user_id, quote_id, status, idempotency_key, failure_reason, created_at, updated_at, settled_at`

type TransferRepo struct {
	s *Store
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row scanner) (*domain_transfer.Transfer, error) {
	var (
		p                    domain_transfer.RestoreParams
		status               string
		createdAt, updatedAt int64
		settledAt            sql.NullInt64
	)

	if err := row.Scan(&p.TransferID, &p.UserID, &p.QuoteID, &status, &p.IdempotencyKey, &p.FailureReason,
		&createdAt, &updatedAt, &settledAt); err != nil {
		return nil, err
	}

	parsed, err := domain_transfer.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	p.Status = parsed
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	p.SettledAt = fromNullUnix(settledAt)
	return domain_transfer.Restore(p), nil
}

func (r *TransferRepo) Create(ctx context.Context, t *domain_transfer.Transfer) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "transfer",
		`INSERT INTO transfers (`+transferColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		t.ID().String(), t.UserID().String(), t.QuoteID().String(), string(t.Status()),
		t.IdempotencyKey(), t.FailureReason(),
		toUnix(t.CreatedAt()), toUnix(t.UpdatedAt()), toNullUnix(t.SettledAt()),
	)
}

func (r *TransferRepo) GetByID(ctx context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error) {
	t, err := scanTransfer(r.s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = ?`, transferID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

func (r *TransferRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain_transfer.Transfer, error) {
	return r.list(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID.String())
}

func (r *TransferRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain_transfer.Transfer, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.list(ctx,
		`SELECT `+transferColumns+` FROM transfers
		 WHERE status = ? AND created_at <= ?
		 ORDER BY created_at, id
		 LIMIT ?`,
		string(domain_transfer.StatusPending), toUnix(cutoff), limit)
}

func (r *TransferRepo) list(ctx context.Context, query string, args ...any) ([]*domain_transfer.Transfer, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	out := make([]*domain_transfer.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return out, nil
}

func (r *TransferRepo) Transition(ctx context.Context, t *domain_transfer.Transfer, expected domain_transfer.Status) error {
	q := r.s.conn(ctx)

	res, err := q.ExecContext(ctx,
		`UPDATE transfers
		 SET status = ?, failure_reason = ?, settled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(t.Status()), t.FailureReason(), toNullUnix(t.SettledAt()), toUnix(t.UpdatedAt()),
		t.ID().String(), string(expected),
	)
	if err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, `SELECT 1 FROM transfers WHERE id = ?`, t.ID().String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return port_persistence.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}
	return fmt.Errorf("%w: transfer %s no longer %s", port_persistence.ErrStatusConflict, t.ID(), expected)
}
