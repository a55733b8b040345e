package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/memory"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/storetest"
	"github.com/google/uuid"
)

func open(t *testing.T) storetest.Repos {
	s := memory.NewStore()
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

func TestStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	q := storetest.NewQuote(t, uuid.New(), "100", storetest.Base)
	if err := s.Quotes().Create(ctx, q); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	tr := storetest.NewTransfer(t, q, "", storetest.Base.Add(time.Second))
	if err := s.Transfers().Create(ctx, tr); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	got, _ := s.Transfers().GetByID(ctx, tr.ID())
	if err := got.Settle(storetest.Base.Add(time.Minute)); err != nil {
		t.Fatalf("settle: %v", err)
	}

	again, _ := s.Transfers().GetByID(ctx, tr.ID())
	if again.Status() != domain_transfer.StatusPending {
		t.Fatalf("expected stored transfer untouched until Transition, got %s", again.Status())
	}
}

func TestStore_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	q := storetest.NewQuote(t, uuid.New(), "100", storetest.Base)
	if err := s.Quotes().Create(ctx, q); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	tr := storetest.NewTransfer(t, q, "", storetest.Base.Add(time.Second))
	if err := s.Transfers().Create(ctx, tr); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			snapshot, err := s.Transfers().GetByID(ctx, tr.ID())
			if err != nil {
				return
			}
			if err := snapshot.Settle(storetest.Base.Add(time.Minute)); err != nil {
				return
			}
			if err := s.Transfers().Transition(ctx, snapshot, domain_transfer.StatusPending); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning transition, got %d", wins)
	}
}
