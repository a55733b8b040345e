package port_persistence

import (
	"context"
	"encoding/json"
	"time"
)

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ResourceID  string
	Response    json.RawMessage
	CreatedAt   time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Insert stores rec only if no record exists for rec.Key, else ErrDuplicateKey.
	Insert(ctx context.Context, rec IdempotencyRecord) error
}
