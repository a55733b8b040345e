package domain_quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is immutable once created.
type Quote struct {
	id            uuid.UUID
	userID        uuid.UUID
	beneficiaryID uuid.UUID

	amount        decimal.Decimal
	fxRate        decimal.Decimal
	fee           decimal.Decimal
	receiveAmount decimal.Decimal

	createdAt time.Time
	expiresAt time.Time

	created *QuoteCreated
}

type NewParams struct {
	QuoteID       uuid.UUID
	UserID        uuid.UUID
	BeneficiaryID uuid.UUID
	Amount        decimal.Decimal
	Pricing       Pricing
	Now           time.Time
}

func New(p NewParams) (*Quote, error) {
	if p.QuoteID == uuid.Nil {
		return nil, ErrInvalidQuoteID
	}

	if p.UserID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	if p.BeneficiaryID == uuid.Nil {
		return nil, ErrInvalidBeneficiaryID
	}

	if err := ValidateAmount(p.Amount); err != nil {
		return nil, err
	}

	if err := p.Pricing.Validate(); err != nil {
		return nil, err
	}

	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}

	fee := p.Pricing.Fee(p.Amount)

	q := &Quote{
		id:            p.QuoteID,
		userID:        p.UserID,
		beneficiaryID: p.BeneficiaryID,
		amount:        p.Amount,
		fxRate:        p.Pricing.FXRate,
		fee:           fee,
		receiveAmount: p.Pricing.ReceiveAmount(p.Amount, fee),
		createdAt:     p.Now,
		expiresAt:     p.Now.Add(p.Pricing.Validity),
	}

	q.created = &QuoteCreated{
		At:            q.createdAt,
		QuoteID:       q.id,
		UserID:        q.userID,
		BeneficiaryID: q.beneficiaryID,
		Amount:        q.amount,
		FXRate:        q.fxRate,
		Fee:           q.fee,
		ReceiveAmount: q.receiveAmount,
		ExpiresAt:     q.expiresAt,
	}

	return q, nil
}

type RestoreParams struct {
	QuoteID       uuid.UUID
	UserID        uuid.UUID
	BeneficiaryID uuid.UUID
	Amount        decimal.Decimal
	FXRate        decimal.Decimal
	Fee           decimal.Decimal
	ReceiveAmount decimal.Decimal
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

func Restore(p RestoreParams) *Quote {
	return &Quote{
		id:            p.QuoteID,
		userID:        p.UserID,
		beneficiaryID: p.BeneficiaryID,
		amount:        p.Amount,
		fxRate:        p.FXRate,
		fee:           p.Fee,
		receiveAmount: p.ReceiveAmount,
		createdAt:     p.CreatedAt,
		expiresAt:     p.ExpiresAt,
	}
}

// IsExpired is true once now reaches ExpiresAt.
func (q *Quote) IsExpired(now time.Time) bool {
	return !now.Before(q.expiresAt)
}

func (q *Quote) EnsureLive(now time.Time) error {
	if q.IsExpired(now) {
		return ErrQuoteExpired
	}
	return nil
}

// PullCreated returns the creation event once; restored quotes have none.
func (q *Quote) PullCreated() (QuoteCreated, bool) {
	if q.created == nil {
		return QuoteCreated{}, false
	}

	ev := *q.created
	q.created = nil

	return ev, true
}

func (q *Quote) ID() uuid.UUID { return q.id }

func (q *Quote) UserID() uuid.UUID { return q.userID }

func (q *Quote) BeneficiaryID() uuid.UUID { return q.beneficiaryID }

func (q *Quote) Amount() decimal.Decimal { return q.amount }

func (q *Quote) FXRate() decimal.Decimal { return q.fxRate }

func (q *Quote) Fee() decimal.Decimal { return q.fee }

func (q *Quote) ReceiveAmount() decimal.Decimal { return q.receiveAmount }

func (q *Quote) CreatedAt() time.Time { return q.createdAt }

func (q *Quote) ExpiresAt() time.Time { return q.expiresAt }
