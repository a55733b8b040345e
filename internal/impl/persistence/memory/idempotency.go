package memory

import (
	"context"
	"fmt"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
)

type IdempotencyRepo struct {
	s *Store
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*port_persistence.IdempotencyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.idempotency[key]
	if !ok {
		return nil, port_persistence.ErrNotFound
	}

	return &rec, nil
}

func (r *IdempotencyRepo) Insert(ctx context.Context, rec port_persistence.IdempotencyRecord) error {
	return r.s.write(ctx, mutation{
		check: func() error {
			if _, exists := r.s.idempotency[rec.Key]; exists {
				return fmt.Errorf("%w: idempotency key %q", port_persistence.ErrDuplicateKey, rec.Key)
			}
			return nil
		},
		apply: func() { r.s.idempotency[rec.Key] = rec },
	})
}
