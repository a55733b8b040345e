// Package storetest holds the behavioural suite every persistence adapter
// must pass. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repos is one freshly opened, empty store.
type Repos struct {
	UoW         port_persistence.UnitOfWork
	Quotes      port_persistence.QuoteRepository
	Transfers   port_persistence.TransferRepository
	Audit       port_persistence.AuditRepository
	Idempotency port_persistence.IdempotencyRepository
}

// Opener returns an empty store for a single subtest.
type Opener func(t *testing.T) Repos

// Base is whole seconds so it survives the coarsest backend timestamp.
var Base = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func Run(t *testing.T, open Opener) {
	t.Run("quotes", func(t *testing.T) { testQuotes(t, open(t)) })
	t.Run("transfers", func(t *testing.T) { testTransfers(t, open(t)) })
	t.Run("pending scan", func(t *testing.T) { testPendingScan(t, open(t)) })
	t.Run("transition", func(t *testing.T) { testTransition(t, open(t)) })
	t.Run("audit", func(t *testing.T) { testAudit(t, open(t)) })
	t.Run("idempotency", func(t *testing.T) { testIdempotency(t, open(t)) })
	t.Run("unit of work", func(t *testing.T) { testUnitOfWork(t, open(t)) })
}

func NewQuote(t *testing.T, userID uuid.UUID, amount string, now time.Time) *domain_quote.Quote {
	t.Helper()

	q, err := domain_quote.New(domain_quote.NewParams{
		QuoteID:       uuid.New(),
		UserID:        userID,
		BeneficiaryID: uuid.New(),
		Amount:        decimal.RequireFromString(amount),
		Pricing:       domain_quote.DefaultPricing(),
		Now:           now,
	})
	if err != nil {
		t.Fatalf("new quote: %v", err)
	}
	return q
}

func NewTransfer(t *testing.T, q *domain_quote.Quote, key string, now time.Time) *domain_transfer.Transfer {
	t.Helper()

	tr, err := domain_transfer.New(domain_transfer.NewParams{
		TransferID:     uuid.New(),
		UserID:         q.UserID(),
		Quote:          q,
		IdempotencyKey: key,
		Now:            now,
	})
	if err != nil {
		t.Fatalf("new transfer: %v", err)
	}
	return tr
}

func mustCreateQuote(t *testing.T, r Repos, q *domain_quote.Quote) {
	t.Helper()
	if err := r.Quotes.Create(context.Background(), q); err != nil {
		t.Fatalf("create quote: %v", err)
	}
}

func mustCreateTransfer(t *testing.T, r Repos, tr *domain_transfer.Transfer) {
	t.Helper()
	if err := r.Transfers.Create(context.Background(), tr); err != nil {
		t.Fatalf("create transfer: %v", err)
	}
}

func testQuotes(t *testing.T, r Repos) {
	ctx := context.Background()
	q := NewQuote(t, uuid.New(), "1043.75", Base)
	mustCreateQuote(t, r, q)

	got, err := r.Quotes.GetByID(ctx, q.ID())
	if err != nil {
		t.Fatalf("expected quote, got %v", err)
	}
	if got.UserID() != q.UserID() || got.BeneficiaryID() != q.BeneficiaryID() {
		t.Fatalf("expected owner %s/%s, got %s/%s", q.UserID(), q.BeneficiaryID(), got.UserID(), got.BeneficiaryID())
	}
	for name, pair := range map[string][2]decimal.Decimal{
		"amount":         {q.Amount(), got.Amount()},
		"fx_rate":        {q.FXRate(), got.FXRate()},
		"fee":            {q.Fee(), got.Fee()},
		"receive_amount": {q.ReceiveAmount(), got.ReceiveAmount()},
	} {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("expected %s %s, got %s", name, pair[0], pair[1])
		}
	}
	if !got.CreatedAt().Equal(q.CreatedAt()) || !got.ExpiresAt().Equal(q.ExpiresAt()) {
		t.Fatalf("expected times %s/%s, got %s/%s", q.CreatedAt(), q.ExpiresAt(), got.CreatedAt(), got.ExpiresAt())
	}

	if err := r.Quotes.Create(ctx, q); !errors.Is(err, port_persistence.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	if _, err := r.Quotes.GetByID(ctx, uuid.New()); !errors.Is(err, port_persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	t.Run("stored decimals are exact", func(t *testing.T) {
		precise := domain_quote.Restore(domain_quote.RestoreParams{
			QuoteID:       uuid.New(),
			UserID:        uuid.New(),
			BeneficiaryID: uuid.New(),
			Amount:        decimal.RequireFromString("100.005"),
			FXRate:        decimal.RequireFromString("57.123456789"),
			Fee:           decimal.RequireFromString("1.50"),
			ReceiveAmount: decimal.RequireFromString("5626.94"),
			CreatedAt:     Base,
			ExpiresAt:     Base.Add(5 * time.Minute),
		})
		mustCreateQuote(t, r, precise)

		got, err := r.Quotes.GetByID(ctx, precise.ID())
		if err != nil {
			t.Fatalf("expected quote, got %v", err)
		}
		if !got.Amount().Equal(precise.Amount()) || !got.FXRate().Equal(precise.FXRate()) {
			t.Fatalf("expected amount %s and rate %s unchanged, got %s and %s",
				precise.Amount(), precise.FXRate(), got.Amount(), got.FXRate())
		}
	})
}

func testTransfers(t *testing.T, r Repos) {
	ctx := context.Background()
	userID := uuid.New()
	q := NewQuote(t, userID, "100", Base)
	mustCreateQuote(t, r, q)

	first := NewTransfer(t, q, "key-1", Base.Add(time.Second))
	second := NewTransfer(t, q, "", Base.Add(2*time.Second))
	third := NewTransfer(t, q, "", Base.Add(3*time.Second))
	for _, tr := range []*domain_transfer.Transfer{first, second, third} {
		mustCreateTransfer(t, r, tr)
	}

	got, err := r.Transfers.GetByID(ctx, first.ID())
	if err != nil {
		t.Fatalf("expected transfer, got %v", err)
	}
	if got.Status() != domain_transfer.StatusPending || got.QuoteID() != q.ID() || got.IdempotencyKey() != "key-1" {
		t.Fatalf("unexpected transfer %+v", got)
	}
	if got.SettledAt() != nil {
		t.Fatal("expected no settled_at on a pending transfer")
	}
	if !got.CreatedAt().Equal(first.CreatedAt()) {
		t.Fatalf("expected created_at %s, got %s", first.CreatedAt(), got.CreatedAt())
	}

	t.Run("duplicate idempotency key", func(t *testing.T) {
		dup := NewTransfer(t, q, "key-1", Base.Add(4*time.Second))
		if err := r.Transfers.Create(ctx, dup); !errors.Is(err, port_persistence.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("same key for another user", func(t *testing.T) {
		otherQuote := NewQuote(t, uuid.New(), "100", Base)
		mustCreateQuote(t, r, otherQuote)
		if err := r.Transfers.Create(ctx, NewTransfer(t, otherQuote, "key-1", Base.Add(4*time.Second))); err != nil {
			t.Fatalf("expected idempotency keys scoped per user, got %v", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := r.Transfers.ListByUser(ctx, userID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("expected 3 transfers, got %d", len(list))
		}
		if list[0].ID() != third.ID() || list[2].ID() != first.ID() {
			t.Fatalf("expected newest first, got %s, %s, %s", list[0].ID(), list[1].ID(), list[2].ID())
		}

		other, err := r.Transfers.ListByUser(ctx, uuid.New())
		if err != nil || len(other) != 0 {
			t.Fatalf("expected no transfers for another user, got %d, %v", len(other), err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := r.Transfers.GetByID(ctx, uuid.New()); !errors.Is(err, port_persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func testPendingScan(t *testing.T, r Repos) {
	ctx := context.Background()
	q := NewQuote(t, uuid.New(), "250", Base)
	mustCreateQuote(t, r, q)

	var created []*domain_transfer.Transfer
	for i := 1; i <= 4; i++ {
		tr := NewTransfer(t, q, "", Base.Add(time.Duration(i)*time.Second))
		mustCreateTransfer(t, r, tr)
		created = append(created, tr)
	}

	settled := created[0]
	if err := settled.Settle(Base.Add(time.Minute)); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := r.Transfers.Transition(ctx, settled, domain_transfer.StatusPending); err != nil {
		t.Fatalf("transition: %v", err)
	}

	// cutoff is inclusive
	pending, err := r.Transfers.ListPendingCreatedBefore(ctx, Base.Add(3*time.Second), 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(pending) != 2 || pending[0].ID() != created[1].ID() || pending[1].ID() != created[2].ID() {
		t.Fatalf("expected transfers 2 and 3 oldest first, got %d results", len(pending))
	}

	limited, err := r.Transfers.ListPendingCreatedBefore(ctx, Base.Add(time.Hour), 2)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(limited) != 2 || limited[0].ID() != created[1].ID() {
		t.Fatalf("expected the 2 oldest pending transfers, got %d results", len(limited))
	}
}

func testTransition(t *testing.T, r Repos) {
	ctx := context.Background()
	q := NewQuote(t, uuid.New(), "100", Base)
	mustCreateQuote(t, r, q)

	tr := NewTransfer(t, q, "", Base.Add(time.Second))
	mustCreateTransfer(t, r, tr)

	settledAt := Base.Add(20 * time.Second)
	if err := tr.Settle(settledAt); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := r.Transfers.Transition(ctx, tr, domain_transfer.StatusPending); err != nil {
		t.Fatalf("expected transition, got %v", err)
	}

	got, err := r.Transfers.GetByID(ctx, tr.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status() != domain_transfer.StatusSettled {
		t.Fatalf("expected SETTLED, got %s", got.Status())
	}
	if got.SettledAt() == nil || !got.SettledAt().Equal(settledAt) {
		t.Fatalf("expected settled_at %s, got %v", settledAt, got.SettledAt())
	}

	t.Run("stale expected status conflicts", func(t *testing.T) {
		stale := domain_transfer.Restore(domain_transfer.RestoreParams{
			TransferID: tr.ID(),
			UserID:     tr.UserID(),
			QuoteID:    tr.QuoteID(),
			Status:     domain_transfer.StatusPending,
			CreatedAt:  tr.CreatedAt(),
			UpdatedAt:  tr.CreatedAt(),
		})
		if err := stale.Fail("rail rejected", Base.Add(30*time.Second)); err != nil {
			t.Fatalf("fail: %v", err)
		}

		err := r.Transfers.Transition(ctx, stale, domain_transfer.StatusPending)
		if !errors.Is(err, port_persistence.ErrStatusConflict) {
			t.Fatalf("expected ErrStatusConflict, got %v", err)
		}

		got, _ := r.Transfers.GetByID(ctx, tr.ID())
		if got.Status() != domain_transfer.StatusSettled {
			t.Fatalf("expected status untouched, got %s", got.Status())
		}
	})

	t.Run("unknown transfer", func(t *testing.T) {
		ghost := NewTransfer(t, q, "", Base.Add(time.Second))
		if err := ghost.Settle(settledAt); err != nil {
			t.Fatalf("settle: %v", err)
		}
		err := r.Transfers.Transition(ctx, ghost, domain_transfer.StatusPending)
		if !errors.Is(err, port_persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func auditEvent(userID uuid.UUID, typ domain_audit.EventType, at time.Time) domain_audit.Event {
	return domain_audit.Event{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        typ,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"amount": "100.00"}`),
		OccurredAt:  at,
	}
}

func testAudit(t *testing.T, r Repos) {
	ctx := context.Background()
	userID := uuid.New()

	first := auditEvent(userID, domain_audit.TypeQuoteCreated, Base)
	second := auditEvent(userID, domain_audit.TypeTransferSubmitted, Base.Add(time.Second))
	third := auditEvent(uuid.New(), domain_audit.TypeTransferSettled, Base.Add(2*time.Second))
	for _, ev := range []domain_audit.Event{first, second, third} {
		if err := r.Audit.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := r.Audit.Append(ctx, first); !errors.Is(err, port_persistence.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	events, err := r.Audit.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 || events[0].ID != first.ID || events[1].ID != second.ID {
		t.Fatalf("expected the user's 2 events in occurrence order, got %+v", events)
	}
	if events[1].Type != domain_audit.TypeTransferSubmitted || events[1].AggregateID != second.AggregateID {
		t.Fatalf("unexpected event %+v", events[1])
	}
	var payload map[string]string
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil || payload["amount"] != "100.00" {
		t.Fatalf("expected payload to round trip, got %s (%v)", events[0].Payload, err)
	}

	batch, err := r.Audit.DequeueBatch(ctx, 2)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(batch) != 2 || batch[0].ID != first.ID || batch[1].ID != second.ID {
		t.Fatalf("expected first two events in append order, got %d", len(batch))
	}

	publishedAt := Base.Add(time.Minute)
	if err := r.Audit.MarkPublished(ctx, first.ID, publishedAt); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	batch, err = r.Audit.DequeueBatch(ctx, 10)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(batch) != 2 || batch[0].ID != second.ID || batch[1].ID != third.ID {
		t.Fatalf("expected published event to leave the queue, got %d", len(batch))
	}

	events, _ = r.Audit.ListByUser(ctx, userID)
	if events[0].PublishedAt == nil || !events[0].PublishedAt.Equal(publishedAt) {
		t.Fatalf("expected published_at %s, got %v", publishedAt, events[0].PublishedAt)
	}

	if err := r.Audit.MarkPublished(ctx, uuid.New(), publishedAt); !errors.Is(err, port_persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testIdempotency(t *testing.T, r Repos) {
	ctx := context.Background()

	if _, err := r.Idempotency.Get(ctx, "missing"); !errors.Is(err, port_persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := port_persistence.IdempotencyRecord{
		Key:         "abc-123",
		RequestHash: "h1",
		ResourceID:  uuid.NewString(),
		Response:    json.RawMessage(`{"transfer_id": "x", "status": "PENDING"}`),
		CreatedAt:   Base,
	}
	if err := r.Idempotency.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := r.Idempotency.Get(ctx, rec.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RequestHash != rec.RequestHash || got.ResourceID != rec.ResourceID || !got.CreatedAt.Equal(Base) {
		t.Fatalf("unexpected record %+v", got)
	}
	var snapshot map[string]string
	if err := json.Unmarshal(got.Response, &snapshot); err != nil || snapshot["status"] != "PENDING" {
		t.Fatalf("expected snapshot to round trip, got %s (%v)", got.Response, err)
	}

	loser := rec
	loser.RequestHash = "h2"
	if err := r.Idempotency.Insert(ctx, loser); !errors.Is(err, port_persistence.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ = r.Idempotency.Get(ctx, rec.Key)
	if got.RequestHash != "h1" {
		t.Fatalf("expected first writer to win, got %s", got.RequestHash)
	}
}

func testUnitOfWork(t *testing.T, r Repos) {
	ctx := context.Background()
	q := NewQuote(t, uuid.New(), "100", Base)

	t.Run("commit", func(t *testing.T) {
		err := r.UoW.WithinTx(ctx, func(ctx context.Context) error {
			if err := r.Quotes.Create(ctx, q); err != nil {
				return err
			}
			return r.Audit.Append(ctx, auditEvent(q.UserID(), domain_audit.TypeQuoteCreated, Base))
		})
		if err != nil {
			t.Fatalf("expected commit, got %v", err)
		}

		if _, err := r.Quotes.GetByID(ctx, q.ID()); err != nil {
			t.Fatalf("expected committed quote, got %v", err)
		}
		events, _ := r.Audit.ListByUser(ctx, q.UserID())
		if len(events) != 1 {
			t.Fatalf("expected 1 committed audit event, got %d", len(events))
		}
	})

	t.Run("error rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		other := NewQuote(t, uuid.New(), "100", Base)

		err := r.UoW.WithinTx(ctx, func(ctx context.Context) error {
			if err := r.Quotes.Create(ctx, other); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected fn error, got %v", err)
		}
		if _, err := r.Quotes.GetByID(ctx, other.ID()); !errors.Is(err, port_persistence.ErrNotFound) {
			t.Fatalf("expected rolled back quote, got %v", err)
		}
	})

	t.Run("conflict rolls back earlier writes", func(t *testing.T) {
		if err := r.Idempotency.Insert(ctx, port_persistence.IdempotencyRecord{
			Key: "taken", RequestHash: "h", ResourceID: "r", Response: json.RawMessage(`{}`), CreatedAt: Base,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}

		other := NewQuote(t, uuid.New(), "100", Base)
		err := r.UoW.WithinTx(ctx, func(ctx context.Context) error {
			if err := r.Quotes.Create(ctx, other); err != nil {
				return err
			}
			return r.Idempotency.Insert(ctx, port_persistence.IdempotencyRecord{
				Key: "taken", RequestHash: "h2", ResourceID: "r2", Response: json.RawMessage(`{}`), CreatedAt: Base,
			})
		})
		if !errors.Is(err, port_persistence.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
		if _, err := r.Quotes.GetByID(ctx, other.ID()); !errors.Is(err, port_persistence.ErrNotFound) {
			t.Fatalf("expected quote rolled back with the conflicting insert, got %v", err)
		}
	})

	t.Run("nested joins outer", func(t *testing.T) {
		other := NewQuote(t, uuid.New(), "100", Base)
		boom := errors.New("outer failed")

		err := r.UoW.WithinTx(ctx, func(ctx context.Context) error {
			if err := r.UoW.WithinTx(ctx, func(ctx context.Context) error {
				return r.Quotes.Create(ctx, other)
			}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected outer error, got %v", err)
		}
		if _, err := r.Quotes.GetByID(ctx, other.ID()); !errors.Is(err, port_persistence.ErrNotFound) {
			t.Fatalf("expected inner write rolled back with outer, got %v", err)
		}
	})
}
