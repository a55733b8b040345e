package domain_quote_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestPricing(t *testing.T) {
	p := domain_quote.DefaultPricing()

	tests := []struct {
		amount  string
		fee     string
		receive string
	}{
		{"100", "1.50", "5639.13"},
		{"1000", "12.00", "56563.00"},
		{"1043.75", "12.53", "59037.35"},
		{"125", "1.50", "7070.38"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)

			fee := p.Fee(amount)
			if !fee.Equal(decimal.RequireFromString(tt.fee)) {
				t.Errorf("expected fee %s, got %s", tt.fee, fee)
			}

			receive := p.ReceiveAmount(amount, fee)
			if !receive.Equal(decimal.RequireFromString(tt.receive)) {
				t.Errorf("expected receive amount %s, got %s", tt.receive, receive)
			}
		})
	}
}

func TestPricingValidate(t *testing.T) {
	valid := domain_quote.DefaultPricing()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected default pricing to be valid, got %v", err)
	}

	mutations := map[string]func(*domain_quote.Pricing){
		"zero fx rate":      func(p *domain_quote.Pricing) { p.FXRate = decimal.Zero },
		"negative fee rate": func(p *domain_quote.Pricing) { p.FeeRate = decimal.NewFromInt(-1) },
		"negative min fee":  func(p *domain_quote.Pricing) { p.MinFee = decimal.NewFromInt(-1) },
		"zero validity":     func(p *domain_quote.Pricing) { p.Validity = 0 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := domain_quote.DefaultPricing()
			mutate(&p)
			if err := p.Validate(); !errors.Is(err, domain_quote.ErrInvalidPricing) {
				t.Fatalf("expected ErrInvalidPricing, got %v", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	quoteID := uuid.New()
	userID := uuid.New()
	beneficiaryID := uuid.New()

	t.Run("prices and time-boxes the quote", func(t *testing.T) {
		q, err := domain_quote.New(domain_quote.NewParams{
			QuoteID:       quoteID,
			UserID:        userID,
			BeneficiaryID: beneficiaryID,
			Amount:        decimal.NewFromInt(100),
			Pricing:       domain_quote.DefaultPricing(),
			Now:           now,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if q.ID() != quoteID || q.UserID() != userID || q.BeneficiaryID() != beneficiaryID {
			t.Errorf("unexpected ids %v %v %v", q.ID(), q.UserID(), q.BeneficiaryID())
		}
		if !q.Fee().Equal(decimal.RequireFromString("1.5")) {
			t.Errorf("expected fee 1.5, got %s", q.Fee())
		}
		if !q.ReceiveAmount().Equal(decimal.RequireFromString("5639.13")) {
			t.Errorf("expected receive amount 5639.13, got %s", q.ReceiveAmount())
		}
		if !q.FXRate().Equal(decimal.RequireFromString("57.25")) {
			t.Errorf("expected fx rate 57.25, got %s", q.FXRate())
		}
		if got := q.ExpiresAt().Sub(q.CreatedAt()); got != 5*time.Minute {
			t.Errorf("expected 5m validity, got %s", got)
		}
	})

	t.Run("rejects amounts that are not whole positive cents within bounds", func(t *testing.T) {
		for _, amount := range []string{"0", "-10", "100.005", "0.001", "1000000000000000.01"} {
			_, err := domain_quote.New(domain_quote.NewParams{
				QuoteID:       quoteID,
				UserID:        userID,
				BeneficiaryID: beneficiaryID,
				Amount:        decimal.RequireFromString(amount),
				Pricing:       domain_quote.DefaultPricing(),
				Now:           now,
			})
			if !errors.Is(err, domain_quote.ErrInvalidAmount) {
				t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
			}
		}
	})

	t.Run("accepts trailing zeros and the upper bound", func(t *testing.T) {
		for _, amount := range []string{"100.500", "0.01", "1000000000000000"} {
			_, err := domain_quote.New(domain_quote.NewParams{
				QuoteID:       quoteID,
				UserID:        userID,
				BeneficiaryID: beneficiaryID,
				Amount:        decimal.RequireFromString(amount),
				Pricing:       domain_quote.DefaultPricing(),
				Now:           now,
			})
			if err != nil {
				t.Errorf("amount %s: expected no error, got %v", amount, err)
			}
		}
	})

	t.Run("rejects nil identifiers", func(t *testing.T) {
		_, err := domain_quote.New(domain_quote.NewParams{
			QuoteID: quoteID,
			UserID:  userID,
			Amount:  decimal.NewFromInt(10),
			Pricing: domain_quote.DefaultPricing(),
			Now:     now,
		})
		if !errors.Is(err, domain_quote.ErrInvalidBeneficiaryID) {
			t.Fatalf("expected ErrInvalidBeneficiaryID, got %v", err)
		}
	})
}

func TestExpiry(t *testing.T) {
	q, err := domain_quote.New(domain_quote.NewParams{
		QuoteID:       uuid.New(),
		UserID:        uuid.New(),
		BeneficiaryID: uuid.New(),
		Amount:        decimal.NewFromInt(100),
		Pricing:       domain_quote.DefaultPricing(),
		Now:           now,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if q.IsExpired(q.ExpiresAt().Add(-time.Second)) {
		t.Error("expected quote to be live one second before expiry")
	}
	if err := q.EnsureLive(q.ExpiresAt().Add(-time.Second)); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !q.IsExpired(q.ExpiresAt()) {
		t.Error("expected quote to be expired at expires_at")
	}
	if err := q.EnsureLive(q.ExpiresAt()); !errors.Is(err, domain_quote.ErrQuoteExpired) {
		t.Errorf("expected ErrQuoteExpired, got %v", err)
	}
}

func TestPullCreated(t *testing.T) {
	q, err := domain_quote.New(domain_quote.NewParams{
		QuoteID:       uuid.New(),
		UserID:        uuid.New(),
		BeneficiaryID: uuid.New(),
		Amount:        decimal.NewFromInt(1000),
		Pricing:       domain_quote.DefaultPricing(),
		Now:           now,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ev, ok := q.PullCreated()
	if !ok {
		t.Fatal("expected created event")
	}
	if ev.EventName() != "quote.created" || ev.AggregateID() != q.ID() || ev.OwnerID() != q.UserID() {
		t.Errorf("unexpected event %+v", ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var decoded domain_quote.QuoteCreated
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !decoded.Fee.Equal(decimal.NewFromInt(12)) || decoded.QuoteID != q.ID() {
		t.Errorf("unexpected payload %s", payload)
	}

	if _, ok := q.PullCreated(); ok {
		t.Error("expected created event to be pulled only once")
	}
}
