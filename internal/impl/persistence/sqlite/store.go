// Package sqlite implements the persistence ports on a single SQLite file
// using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	_ "modernc.org/sqlite"
)

var (
	_ port_persistence.UnitOfWork            = (*Store)(nil)
	_ port_persistence.QuoteRepository       = (*QuoteRepo)(nil)
	_ port_persistence.TransferRepository    = (*TransferRepo)(nil)
	_ port_persistence.AuditRepository       = (*AuditRepo)(nil)
	_ port_persistence.IdempotencyRepository = (*IdempotencyRepo)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	beneficiary_id TEXT NOT NULL,
	amount         TEXT NOT NULL,
	fx_rate        TEXT NOT NULL,
	fee            TEXT NOT NULL,
	receive_amount TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	expires_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transfers (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	quote_id        TEXT NOT NULL REFERENCES quotes(id),
	status          TEXT NOT NULL,
	idempotency_key TEXT NOT NULL DEFAULT '',
	failure_reason  TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	settled_at      INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS transfers_user_idempotency_key_uq
	ON transfers (user_id, idempotency_key) WHERE idempotency_key <> '';
CREATE INDEX IF NOT EXISTS transfers_user_created_idx ON transfers (user_id, created_at);
CREATE INDEX IF NOT EXISTS transfers_status_created_idx ON transfers (status, created_at);

CREATE TABLE IF NOT EXISTS audit_events (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	user_id      TEXT NOT NULL,
	type         TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	payload      TEXT NOT NULL,
	occurred_at  INTEGER NOT NULL,
	published_at INTEGER
);

CREATE INDEX IF NOT EXISTS audit_events_unpublished_idx ON audit_events (published_at, seq);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key          TEXT PRIMARY KEY,
	request_hash TEXT NOT NULL,
	resource_id  TEXT NOT NULL,
	response     TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
`

// Store owns the database handle. The pool is pinned to one connection so
// every transaction is serialized by SQLite itself.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s: s} }

func (s *Store) Transfers() *TransferRepo { return &TransferRepo{s: s} }

func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

func (s *Store) Idempotency() *IdempotencyRepo { return &IdempotencyRepo{s: s} }

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toUnix(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

func fromNullUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromUnix(n.Int64)
	return &t
}

// insertOrConflict runs an INSERT ... ON CONFLICT DO NOTHING and reports a
// skipped row as ErrDuplicateKey.
func insertOrConflict(ctx context.Context, q querier, what, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", what, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", port_persistence.ErrDuplicateKey, what)
	}
	return nil
}
