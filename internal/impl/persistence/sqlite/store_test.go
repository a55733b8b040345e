package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/sqlite"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/storetest"
	"github.com/google/uuid"
)

func open(t *testing.T) storetest.Repos {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "remittance.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return storetest.Repos{
		UoW:         s,
		Quotes:      s.Quotes(),
		Transfers:   s.Transfers(),
		Audit:       s.Audit(),
		Idempotency: s.Idempotency(),
	}
}

func TestStore(t *testing.T) {
	storetest.Run(t, open)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "remittance.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	q := storetest.NewQuote(t, uuid.New(), "100", storetest.Base)
	if err := s.Quotes().Create(ctx, q); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = sqlite.New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Quotes().GetByID(ctx, q.ID())
	if err != nil {
		t.Fatalf("expected quote after reopen, got %v", err)
	}
	if !got.ReceiveAmount().Equal(q.ReceiveAmount()) {
		t.Fatalf("expected receive amount %s, got %s", q.ReceiveAmount(), got.ReceiveAmount())
	}
}
