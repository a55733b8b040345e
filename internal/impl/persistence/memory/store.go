// Package memory is a process-local implementation of the persistence ports.
// It backs tests and single-replica demo runs.
package memory

import (
	"context"
	"sync"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

var (
	_ port_persistence.UnitOfWork            = (*Store)(nil)
	_ port_persistence.QuoteRepository       = (*QuoteRepo)(nil)
	_ port_persistence.TransferRepository    = (*TransferRepo)(nil)
	_ port_persistence.AuditRepository       = (*AuditRepo)(nil)
	_ port_persistence.IdempotencyRepository = (*IdempotencyRepo)(nil)
)

// Store holds all tables behind one lock. Writes made inside WithinTx are
// staged and applied together at commit, so readers never observe a partial
// unit of work.
type Store struct {
	mu sync.RWMutex

	quotes       map[uuid.UUID]quoteRow
	transfers    map[uuid.UUID]transferRow
	transferKeys map[string]uuid.UUID
	audit        []domain_audit.Event
	auditIndex   map[uuid.UUID]int
	idempotency  map[string]port_persistence.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		quotes:       make(map[uuid.UUID]quoteRow),
		transfers:    make(map[uuid.UUID]transferRow),
		transferKeys: make(map[string]uuid.UUID),
		auditIndex:   make(map[uuid.UUID]int),
		idempotency:  make(map[string]port_persistence.IdempotencyRecord),
	}
}

func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s: s} }

func (s *Store) Transfers() *TransferRepo { return &TransferRepo{s: s} }

func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

func (s *Store) Idempotency() *IdempotencyRepo { return &IdempotencyRepo{s: s} }

// mutation is a staged write. check runs under the write lock before any
// apply of the same unit of work.
type mutation struct {
	check func() error
	apply func()
}

type txKey struct{}

type memTx struct {
	mutations []mutation
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txKey{}).(*memTx)
	return tx
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	return s.commit(tx.mutations)
}

func (s *Store) commit(mutations []mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range mutations {
		if m.check == nil {
			continue
		}
		if err := m.check(); err != nil {
			return err
		}
	}

	for _, m := range mutations {
		m.apply()
	}

	return nil
}

func (s *Store) write(ctx context.Context, m mutation) error {
	if tx := txFrom(ctx); tx != nil {
		tx.mutations = append(tx.mutations, m)
		return nil
	}

	return s.commit([]mutation{m})
}
