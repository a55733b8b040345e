package port_quote

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CreateQuoteInput struct {
	UserID        string
	BeneficiaryID string
	Amount        decimal.Decimal
}

type QuoteView struct {
	QuoteID       string          `json:"quote_id"`
	UserID        string          `json:"user_id"`
	BeneficiaryID string          `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
	FXRate        decimal.Decimal `json:"fx_rate"`
	Fee           decimal.Decimal `json:"fee"`
	ReceiveAmount decimal.Decimal `json:"receive_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

type CreateQuoteUseCase interface {
	Execute(ctx context.Context, input CreateQuoteInput) (QuoteView, error)
}

type GetQuoteUseCase interface {
	GetQuote(ctx context.Context, quoteID string) (QuoteView, error)
}
