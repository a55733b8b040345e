package postgres

import (
	"context"
	"errors"
	"fmt"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/jackc/pgx/v5"
)

type IdempotencyRepo struct {
	s *Store
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*port_persistence.IdempotencyRecord, error) {
	var (
		rec      port_persistence.IdempotencyRecord
		response []byte
	)

	err := r.s.conn(ctx).QueryRow(ctx,
		`SELECT key, request_hash, resource_id, response, created_at FROM idempotency_keys WHERE key = $1`, key,
	).Scan(&rec.Key, &rec.RequestHash, &rec.ResourceID, &response, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}

	rec.Response = response
	rec.CreatedAt = utc(rec.CreatedAt)
	return &rec, nil
}

func (r *IdempotencyRepo) Insert(ctx context.Context, rec port_persistence.IdempotencyRecord) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "idempotency record",
		`INSERT INTO idempotency_keys (key, request_hash, resource_id, response, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)
		 ON CONFLICT DO NOTHING`,
		rec.Key, rec.RequestHash, rec.ResourceID, string(rec.Response), rec.CreatedAt,
	)
}
