// Package postgres implements the persistence ports on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ port_persistence.UnitOfWork            = (*Store)(nil)
	_ port_persistence.QuoteRepository       = (*QuoteRepo)(nil)
	_ port_persistence.TransferRepository    = (*TransferRepo)(nil)
	_ port_persistence.AuditRepository       = (*AuditRepo)(nil)
	_ port_persistence.IdempotencyRepository = (*IdempotencyRepo)(nil)
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	id             UUID PRIMARY KEY,
	user_id        UUID NOT NULL,
	beneficiary_id UUID NOT NULL,
	amount         NUMERIC NOT NULL,
	fx_rate        NUMERIC NOT NULL,
	fee            NUMERIC NOT NULL,
	receive_amount NUMERIC NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transfers (
	id              UUID PRIMARY KEY,
	user_id         UUID NOT NULL,
	quote_id        UUID NOT NULL REFERENCES quotes (id),
	status          TEXT NOT NULL,
	idempotency_key TEXT NOT NULL DEFAULT '',
	failure_reason  TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	settled_at      TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS transfers_user_idempotency_key_uq
	ON transfers (user_id, idempotency_key) WHERE idempotency_key <> '';
CREATE INDEX IF NOT EXISTS transfers_user_created_idx ON transfers (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS transfers_pending_created_idx ON transfers (created_at) WHERE status = 'PENDING';

CREATE TABLE IF NOT EXISTS audit_events (
	seq          BIGSERIAL PRIMARY KEY,
	id           UUID NOT NULL UNIQUE,
	user_id      UUID NOT NULL,
	type         TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	payload      JSONB NOT NULL,
	occurred_at  TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS audit_events_unpublished_idx ON audit_events (seq) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key          TEXT PRIMARY KEY,
	request_hash TEXT NOT NULL,
	resource_id  TEXT NOT NULL,
	response     JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	pool *pgxpool.Pool
}

// New connects to connString, pings the server and applies the schema.
func New(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to apply schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s: s} }

func (s *Store) Transfers() *TransferRepo { return &TransferRepo{s: s} }

func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

func (s *Store) Idempotency() *IdempotencyRepo { return &IdempotencyRepo{s: s} }

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertOrConflict maps both a skipped ON CONFLICT DO NOTHING row and a
// unique violation to ErrDuplicateKey.
func insertOrConflict(ctx context.Context, q querier, what, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", port_persistence.ErrDuplicateKey, what)
		}
		return fmt.Errorf("insert %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", port_persistence.ErrDuplicateKey, what)
	}
	return nil
}

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
