package domain_quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuoteCreated struct {
	At            time.Time       `json:"occurred_at"`
	QuoteID       uuid.UUID       `json:"quote_id"`
	UserID        uuid.UUID       `json:"user_id"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
	FXRate        decimal.Decimal `json:"fx_rate"`
	Fee           decimal.Decimal `json:"fee"`
	ReceiveAmount decimal.Decimal `json:"receive_amount"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

func (e QuoteCreated) EventName() string { return "quote.created" }

func (e QuoteCreated) OccurredAt() time.Time { return e.At }

func (e QuoteCreated) AggregateID() uuid.UUID { return e.QuoteID }

func (e QuoteCreated) OwnerID() uuid.UUID { return e.UserID }
