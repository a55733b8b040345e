package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/storetest"
	"github.com/google/uuid"
)

// The suite needs a disposable database; every subtest truncates all tables.
func TestStore(t *testing.T) {
	dsn := os.Getenv("TEST_DB_SOURCE")
	if dsn == "" {
		t.Skip("TEST_DB_SOURCE not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)

	storetest.Run(t, func(t *testing.T) storetest.Repos {
		t.Helper()

		if _, err := s.pool.Exec(ctx,
			`TRUNCATE idempotency_keys, audit_events, transfers, quotes RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}

		return storetest.Repos{
			UoW:         s,
			Quotes:      s.Quotes(),
			Transfers:   s.Transfers(),
			Audit:       s.Audit(),
			Idempotency: s.Idempotency(),
		}
	})
}

func TestAuditRepo_DequeueSkipsRowsLockedByAnotherRelay(t *testing.T) {
	dsn := os.Getenv("TEST_DB_SOURCE")
	if dsn == "" {
		t.Skip("TEST_DB_SOURCE not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)

	if _, err := s.pool.Exec(ctx, `TRUNCATE idempotency_keys, audit_events, transfers, quotes RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ev := domain_audit.Event{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Type:        domain_audit.TypeQuoteCreated,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{}`),
		OccurredAt:  storetest.Base,
	}
	if err := s.Audit().Append(ctx, ev); err != nil {
		t.Fatalf("append: %v", err)
	}

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context) error {
			batch, err := s.Audit().DequeueBatch(ctx, 10)
			if err != nil {
				return err
			}
			if len(batch) != 1 {
				return fmt.Errorf("expected 1 event in first batch, got %d", len(batch))
			}
			close(locked)
			<-release
			return nil
		})
	}()

	select {
	case <-locked:
	case err := <-done:
		t.Fatalf("first relay finished early: %v", err)
	}

	err = s.WithinTx(ctx, func(ctx context.Context) error {
		batch, err := s.Audit().DequeueBatch(ctx, 10)
		if err != nil {
			return err
		}
		if len(batch) != 0 {
			return fmt.Errorf("expected locked event to be skipped, got %d", len(batch))
		}
		return nil
	})
	close(release)

	if err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
