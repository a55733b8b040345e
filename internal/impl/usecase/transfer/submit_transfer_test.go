package impl_transfer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/memory"
	impl_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/platform"
	impl_idempotency "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/idempotency"
	impl_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/quote"
	impl_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/transfer"
	gwmocks "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/mocks"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/quote"
	port_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/transfer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

const testIdempotencyKey = "idem-123"

var start = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	clock  *impl_platform.ManualClock
	quotes *impl_quote.QuoteEngine
	ledger *impl_transfer.TransferLedger
}

func newFixture() *fixture {
	store := memory.NewStore()
	clock := impl_platform.NewManualClock(start)
	ids := impl_platform.UUIDGenerator{}

	guard := impl_idempotency.NewGuard(store, store.Idempotency(), clock)

	return &fixture{
		store:  store,
		clock:  clock,
		quotes: impl_quote.NewQuoteEngine(store, store.Quotes(), store.Audit(), clock, ids, domain_quote.DefaultPricing()),
		ledger: impl_transfer.NewTransferLedger(guard, store.Quotes(), store.Transfers(), store.Audit(), clock, ids, ""),
	}
}

func (f *fixture) quote(t *testing.T, userID string) port_quote.QuoteView {
	t.Helper()

	q, err := f.quotes.Execute(context.Background(), port_quote.CreateQuoteInput{
		UserID:        userID,
		BeneficiaryID: uuid.NewString(),
		Amount:        decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("expected no error creating quote, got %v", err)
	}
	return q
}

func TestSubmitTransfer_CreatesPendingTransfer(t *testing.T) {
	f := newFixture()
	userID := uuid.NewString()
	q := f.quote(t, userID)

	f.clock.Advance(time.Minute)

	out, err := f.ledger.Execute(context.Background(), port_transfer.SubmitTransferInput{
		UserID:         userID,
		QuoteID:        q.QuoteID,
		IdempotencyKey: testIdempotencyKey,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.Status != string(domain_transfer.StatusPending) {
		t.Fatalf("expected status PENDING, got %s", out.Status)
	}
	if out.ETA != impl_transfer.DefaultETA {
		t.Fatalf("expected default eta, got %q", out.ETA)
	}
	if !out.CreatedAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected created at %s, got %s", start.Add(time.Minute), out.CreatedAt)
	}
	if out.Replayed {
		t.Fatal("expected first submission not to be a replay")
	}

	view, err := f.ledger.GetTransfer(context.Background(), out.TransferID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.QuoteID != q.QuoteID || view.IdempotencyKey != testIdempotencyKey || view.SettledAt != nil {
		t.Fatalf("unexpected stored transfer %+v", view)
	}

	events, _ := f.store.Audit().ListByUser(context.Background(), uuid.MustParse(userID))
	if len(events) != 2 {
		t.Fatalf("expected quote and transfer audit events, got %d", len(events))
	}
	if events[0].Type != domain_audit.TypeQuoteCreated || events[1].Type != domain_audit.TypeTransferSubmitted {
		t.Fatalf("unexpected audit types %s, %s", events[0].Type, events[1].Type)
	}
}

func TestSubmitTransfer_RetryReturnsSameTransfer(t *testing.T) {
	f := newFixture()
	userID := uuid.NewString()
	q := f.quote(t, userID)

	in := port_transfer.SubmitTransferInput{UserID: userID, QuoteID: q.QuoteID, IdempotencyKey: testIdempotencyKey}

	first, err := f.ledger.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The replay must not depend on the quote still being live.
	f.clock.Advance(10 * time.Minute)

	second, err := f.ledger.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if second.TransferID != first.TransferID || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected replay of %s, got %s", first.TransferID, second.TransferID)
	}
	if !second.Replayed {
		t.Fatal("expected second submission to be flagged as replay")
	}

	list, _ := f.ledger.ListTransfers(context.Background(), userID)
	if len(list) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(list))
	}
}

func TestSubmitTransfer_ConcurrentRetriesCreateOneTransfer(t *testing.T) {
	f := newFixture()
	userID := uuid.NewString()
	q := f.quote(t, userID)

	in := port_transfer.SubmitTransferInput{UserID: userID, QuoteID: q.QuoteID, IdempotencyKey: testIdempotencyKey}

	const callers = 20
	var (
		wg   sync.WaitGroup
		outs = make([]port_transfer.SubmitTransferOutput, callers)
		errs = make([]error, callers)
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i], errs[i] = f.ledger.Execute(context.Background(), in)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if outs[i].TransferID != outs[0].TransferID {
			t.Fatalf("caller %d: expected transfer %s, got %s", i, outs[0].TransferID, outs[i].TransferID)
		}
		if !outs[i].Replayed {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one caller to see a fresh transfer, got %d", created)
	}

	list, _ := f.ledger.ListTransfers(context.Background(), userID)
	if len(list) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(list))
	}
}

func TestSubmitTransfer_SameKeyFromTwoUsers(t *testing.T) {
	f := newFixture()
	alice, bob := uuid.NewString(), uuid.NewString()
	aliceQuote := f.quote(t, alice)
	bobQuote := f.quote(t, bob)

	a, err := f.ledger.Execute(context.Background(), port_transfer.SubmitTransferInput{
		UserID: alice, QuoteID: aliceQuote.QuoteID, IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("alice: expected no error, got %v", err)
	}

	b, err := f.ledger.Execute(context.Background(), port_transfer.SubmitTransferInput{
		UserID: bob, QuoteID: bobQuote.QuoteID, IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("bob: expected no error, got %v", err)
	}

	if b.Replayed {
		t.Fatal("expected bob's first submission not to be a replay")
	}
	if a.TransferID == b.TransferID {
		t.Fatalf("expected distinct transfers, both got %s", a.TransferID)
	}

	view, err := f.ledger.GetTransfer(context.Background(), b.TransferID)
	if err != nil {
		t.Fatalf("expected bob's transfer, got %v", err)
	}
	if view.UserID != bob || view.QuoteID != bobQuote.QuoteID {
		t.Fatalf("expected transfer owned by bob on his quote, got %+v", view)
	}

	for _, user := range []string{alice, bob} {
		list, _ := f.ledger.ListTransfers(context.Background(), user)
		if len(list) != 1 {
			t.Fatalf("expected one transfer for %s, got %d", user, len(list))
		}
	}
}

func TestSubmitTransfer_EmptyKeyIsNotDeduplicated(t *testing.T) {
	f := newFixture()
	userID := uuid.NewString()
	q := f.quote(t, userID)

	in := port_transfer.SubmitTransferInput{UserID: userID, QuoteID: q.QuoteID}

	first, err := f.ledger.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	f.clock.Advance(time.Second)
	second, err := f.ledger.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first.TransferID == second.TransferID {
		t.Fatal("expected two distinct transfers without an idempotency key")
	}

	list, _ := f.ledger.ListTransfers(context.Background(), userID)
	if len(list) != 2 {
		t.Fatalf("expected two transfers, got %d", len(list))
	}
	if list[0].TransferID != second.TransferID {
		t.Fatalf("expected newest transfer first, got %s", list[0].TransferID)
	}
}

func TestSubmitTransfer_ExpiredQuote(t *testing.T) {
	f := newFixture()
	userID := uuid.NewString()
	q := f.quote(t, userID)

	f.clock.Set(q.ExpiresAt)

	in := port_transfer.SubmitTransferInput{UserID: userID, QuoteID: q.QuoteID, IdempotencyKey: testIdempotencyKey}
	_, err := f.ledger.Execute(context.Background(), in)
	if !errors.Is(err, domain_quote.ErrQuoteExpired) {
		t.Fatalf("expected ErrQuoteExpired, got %v", err)
	}

	scoped := impl_transfer.ScopedIdempotencyKey(uuid.MustParse(userID), testIdempotencyKey)
	if _, err := f.store.Idempotency().Get(context.Background(), scoped); !errors.Is(err, port_persistence.ErrNotFound) {
		t.Fatalf("expected no idempotency record after failure, got %v", err)
	}

	// The key stays usable once the caller has a live quote.
	fresh := f.quote(t, userID)
	in.QuoteID = fresh.QuoteID
	if _, err := f.ledger.Execute(context.Background(), in); err != nil {
		t.Fatalf("expected retry with the same key to succeed, got %v", err)
	}
}

func TestSubmitTransfer_QuoteNotFound(t *testing.T) {
	f := newFixture()
	owner := uuid.NewString()
	q := f.quote(t, owner)

	tests := []struct {
		name string
		in   port_transfer.SubmitTransferInput
	}{
		{"unknown quote", port_transfer.SubmitTransferInput{UserID: owner, QuoteID: uuid.NewString()}},
		{"quote of another user", port_transfer.SubmitTransferInput{UserID: uuid.NewString(), QuoteID: q.QuoteID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Execute(context.Background(), tt.in)
			if !errors.Is(err, domain_quote.ErrQuoteNotFound) {
				t.Fatalf("expected ErrQuoteNotFound, got %v", err)
			}
		})
	}
}

func TestSubmitTransfer_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	quotes := gwmocks.NewMockQuoteRepository(ctrl)
	transfers := gwmocks.NewMockTransferRepository(ctrl)
	audit := gwmocks.NewMockAuditRepository(ctrl)
	clock := gwmocks.NewMockClock(ctrl)
	ids := gwmocks.NewMockIDGenerator(ctrl)
	uow := gwmocks.NewMockUnitOfWork(ctrl)
	idem := gwmocks.NewMockIdempotencyRepository(ctrl)

	quotes.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)
	transfers.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
	uow.EXPECT().WithinTx(gomock.Any(), gomock.Any()).Times(0)
	idem.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
	clock.EXPECT().Now().Times(0)
	ids.EXPECT().NewUUID().Times(0)

	guard := impl_idempotency.NewGuard(uow, idem, clock)
	ledger := impl_transfer.NewTransferLedger(guard, quotes, transfers, audit, clock, ids, "soon")

	for _, in := range []port_transfer.SubmitTransferInput{
		{UserID: "bad", QuoteID: uuid.NewString(), IdempotencyKey: testIdempotencyKey},
		{UserID: uuid.NewString(), QuoteID: "", IdempotencyKey: testIdempotencyKey},
	} {
		if _, err := ledger.Execute(context.Background(), in); !errors.Is(err, impl_transfer.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestSubmitTransfer_StorageFailureIsRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	quotes := gwmocks.NewMockQuoteRepository(ctrl)
	transfers := gwmocks.NewMockTransferRepository(ctrl)
	audit := gwmocks.NewMockAuditRepository(ctrl)
	clock := gwmocks.NewMockClock(ctrl)
	ids := gwmocks.NewMockIDGenerator(ctrl)
	uow := gwmocks.NewMockUnitOfWork(ctrl)
	idem := gwmocks.NewMockIdempotencyRepository(ctrl)

	userID := uuid.New()
	q := domain_quote.Restore(domain_quote.RestoreParams{
		QuoteID:       uuid.New(),
		UserID:        userID,
		BeneficiaryID: uuid.New(),
		Amount:        decimal.NewFromInt(100),
		FXRate:        decimal.RequireFromString("57.25"),
		Fee:           decimal.RequireFromString("1.5"),
		ReceiveAmount: decimal.RequireFromString("5639.13"),
		CreatedAt:     start,
		ExpiresAt:     start.Add(5 * time.Minute),
	})

	idem.EXPECT().Get(gomock.Any(), impl_transfer.ScopedIdempotencyKey(userID, testIdempotencyKey)).Return(nil, port_persistence.ErrNotFound)
	uow.EXPECT().
		WithinTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
	quotes.EXPECT().GetByID(gomock.Any(), q.ID()).Return(q, nil)
	clock.EXPECT().Now().Return(start.Add(time.Minute))
	ids.EXPECT().NewUUID().Return(uuid.New()).Times(2)
	transfers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	audit.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)
	idem.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

	guard := impl_idempotency.NewGuard(uow, idem, clock)
	ledger := impl_transfer.NewTransferLedger(guard, quotes, transfers, audit, clock, ids, "")

	_, err := ledger.Execute(context.Background(), port_transfer.SubmitTransferInput{
		UserID:         userID.String(),
		QuoteID:        q.ID().String(),
		IdempotencyKey: testIdempotencyKey,
	})
	if !errors.Is(err, port_persistence.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}

func TestQueryTransfers(t *testing.T) {
	f := newFixture()

	t.Run("unknown transfer", func(t *testing.T) {
		if _, err := f.ledger.GetTransfer(context.Background(), uuid.NewString()); !errors.Is(err, impl_transfer.ErrTransferNotFound) {
			t.Fatalf("expected ErrTransferNotFound, got %v", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		if _, err := f.ledger.GetTransfer(context.Background(), "x"); !errors.Is(err, impl_transfer.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("user without transfers", func(t *testing.T) {
		list, err := f.ledger.ListTransfers(context.Background(), uuid.NewString())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected empty list, got %d", len(list))
		}
	})
}
