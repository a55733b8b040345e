package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
)

type IdempotencyRepo struct {
	s *Store
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*port_persistence.IdempotencyRecord, error) {
	var (
		rec       port_persistence.IdempotencyRecord
		response  []byte
		createdAt int64
	)

	err := r.s.conn(ctx).QueryRowContext(ctx,
		`SELECT key, request_hash, resource_id, response, created_at FROM idempotency_keys WHERE key = ?`, key,
	).Scan(&rec.Key, &rec.RequestHash, &rec.ResourceID, &response, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}

	rec.Response = response
	rec.CreatedAt = fromUnix(createdAt)
	return &rec, nil
}

func (r *IdempotencyRepo) Insert(ctx context.Context, rec port_persistence.IdempotencyRecord) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "idempotency record",
		`INSERT INTO idempotency_keys (key, request_hash, resource_id, response, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		rec.Key, rec.RequestHash, rec.ResourceID, string(rec.Response), toUnix(rec.CreatedAt),
	)
}
