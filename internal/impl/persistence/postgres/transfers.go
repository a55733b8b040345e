package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transferColumns = `id, user_id, quote_id, status, idempotency_key, failure_reason, created_at, updated_at, settled_at`

type TransferRepo struct {
	s *Store
}

func scanTransfer(row pgx.Row) (*domain_transfer.Transfer, error) {
	var (
		p      domain_transfer.RestoreParams
		status string
	)

	if err := row.Scan(&p.TransferID, &p.UserID, &p.QuoteID, &status, &p.IdempotencyKey, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt, &p.SettledAt); err != nil {
		return nil, err
	}

	parsed, err := domain_transfer.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	p.Status = parsed
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)
	p.SettledAt = utcPtr(p.SettledAt)
	return domain_transfer.Restore(p), nil
}

func (r *TransferRepo) Create(ctx context.Context, t *domain_transfer.Transfer) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "transfer",
		`INSERT INTO transfers (`+transferColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT DO NOTHING`,
		t.ID(), t.UserID(), t.QuoteID(), string(t.Status()), t.IdempotencyKey(), t.FailureReason(),
		t.CreatedAt(), t.UpdatedAt(), t.SettledAt(),
	)
}

func (r *TransferRepo) GetByID(ctx context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error) {
	t, err := scanTransfer(r.s.conn(ctx).QueryRow(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, transferID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

func (r *TransferRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain_transfer.Transfer, error) {
	return r.list(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
}

func (r *TransferRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain_transfer.Transfer, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	return r.list(ctx,
		`SELECT `+transferColumns+` FROM transfers
		 WHERE status = $1 AND created_at <= $2
		 ORDER BY created_at, id
		 LIMIT $3`,
		string(domain_transfer.StatusPending), cutoff, lim)
}

func (r *TransferRepo) list(ctx context.Context, sql string, args ...any) ([]*domain_transfer.Transfer, error) {
	rows, err := r.s.conn(ctx).Query(ctx, sql, args...)
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

	tag, err := q.Exec(ctx,
		`UPDATE transfers
		 SET status = $1, failure_reason = $2, settled_at = $3, updated_at = $4
		 WHERE id = $5 AND status = $6`,
		string(t.Status()), t.FailureReason(), t.SettledAt(), t.UpdatedAt(), t.ID(), string(expected),
	)
	if err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transfers WHERE id = $1)`, t.ID()).Scan(&exists); err != nil {
		return fmt.Errorf("transition transfer: %w", err)
	}
	if !exists {
		return port_persistence.ErrNotFound
	}
	return fmt.Errorf("%w: transfer %s no longer %s", port_persistence.ErrStatusConflict, t.ID(), expected)
}
