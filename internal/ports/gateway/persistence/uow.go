package port_persistence

import "context"

// UnitOfWork runs fn atomically. Repositories called with the ctx handed to fn
// join the same transaction; nested WithinTx calls join the outer one.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
