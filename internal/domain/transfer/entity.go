package domain_transfer

import (
	"strings"
	"time"

	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	"github.com/google/uuid"
)

type Transfer struct {
	id uuid.UUID

	userID  uuid.UUID
	quoteID uuid.UUID

	status         Status
	idempotencyKey string
	failureReason  string

	createdAt time.Time
	updatedAt time.Time
	settledAt *time.Time

	pendingEvents []DomainEvent
}

type NewParams struct {
	TransferID     uuid.UUID
	UserID         uuid.UUID
	Quote          *domain_quote.Quote
	IdempotencyKey string
	Now            time.Time
}

// New creates a PENDING transfer against a quote that must still be live at p.Now.
func New(p NewParams) (*Transfer, error) {
	if p.TransferID == uuid.Nil {
		return nil, ErrInvalidTransferID
	}

	if p.UserID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	if p.Quote == nil || p.Quote.ID() == uuid.Nil {
		return nil, ErrInvalidQuoteID
	}

	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}

	if err := p.Quote.EnsureLive(p.Now); err != nil {
		return nil, err
	}

	t := &Transfer{
		id:             p.TransferID,
		userID:         p.UserID,
		quoteID:        p.Quote.ID(),
		status:         StatusPending,
		idempotencyKey: strings.TrimSpace(p.IdempotencyKey),
		createdAt:      p.Now,
		updatedAt:      p.Now,
	}

	t.raise(TransferSubmitted{
		At:             p.Now,
		TransferID:     t.id,
		UserID:         t.userID,
		QuoteID:        t.quoteID,
		IdempotencyKey: t.idempotencyKey,
	})

	return t, nil
}

type RestoreParams struct {
	TransferID     uuid.UUID
	UserID         uuid.UUID
	QuoteID        uuid.UUID
	Status         Status
	IdempotencyKey string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SettledAt      *time.Time
}

// Restore rebuilds a transfer from storage without raising events.
func Restore(p RestoreParams) *Transfer {
	t := &Transfer{
		id:             p.TransferID,
		userID:         p.UserID,
		quoteID:        p.QuoteID,
		status:         p.Status,
		idempotencyKey: p.IdempotencyKey,
		failureReason:  p.FailureReason,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}

	if p.SettledAt != nil {
		at := *p.SettledAt
		t.settledAt = &at
	}

	return t
}

func (t *Transfer) Settle(now time.Time) error {
	if err := t.checkTransition(StatusSettled); err != nil {
		return err
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	t.status = StatusSettled
	t.settledAt = &now
	t.updatedAt = now

	t.raise(TransferSettled{
		At:         now,
		TransferID: t.id,
		UserID:     t.userID,
		QuoteID:    t.quoteID,
	})

	return nil
}

func (t *Transfer) HoldForAML(reason string, now time.Time) error {
	if err := t.checkTransition(StatusAMLHold); err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	t.status = StatusAMLHold
	t.failureReason = reason
	t.updatedAt = now

	t.raise(TransferHeld{
		At:         now,
		TransferID: t.id,
		UserID:     t.userID,
		Reason:     reason,
	})

	return nil
}

func (t *Transfer) Fail(reason string, now time.Time) error {
	if err := t.checkTransition(StatusFailed); err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	t.status = StatusFailed
	t.failureReason = reason
	t.updatedAt = now

	t.raise(TransferFailed{
		At:         now,
		TransferID: t.id,
		UserID:     t.userID,
		Reason:     reason,
	})

	return nil
}

// EligibleForSettlement reports whether the transfer is PENDING and at least delay old at now.
func (t *Transfer) EligibleForSettlement(now time.Time, delay time.Duration) bool {
	return t.status == StatusPending && !t.createdAt.After(now.Add(-delay))
}

func (t *Transfer) checkTransition(next Status) error {
	if t.status.IsFinal() {
		return ErrAlreadyFinalized
	}

	if !t.status.CanTransitionTo(next) {
		return ErrInvalidStateTransition
	}

	return nil
}

func (t *Transfer) PullEvents() []DomainEvent {
	if len(t.pendingEvents) == 0 {
		return nil
	}

	ev := make([]DomainEvent, len(t.pendingEvents))
	copy(ev, t.pendingEvents)

	t.pendingEvents = t.pendingEvents[:0]

	return ev
}

func (t *Transfer) raise(event DomainEvent) {
	t.pendingEvents = append(t.pendingEvents, event)
}

func (t *Transfer) ID() uuid.UUID { return t.id }

func (t *Transfer) UserID() uuid.UUID { return t.userID }

func (t *Transfer) QuoteID() uuid.UUID { return t.quoteID }

func (t *Transfer) Status() Status { return t.status }

func (t *Transfer) IdempotencyKey() string { return t.idempotencyKey }

func (t *Transfer) FailureReason() string { return t.failureReason }

func (t *Transfer) CreatedAt() time.Time { return t.createdAt }

func (t *Transfer) UpdatedAt() time.Time { return t.updatedAt }

func (t *Transfer) SettledAt() *time.Time {
	if t.settledAt == nil {
		return nil
	}

	at := *t.settledAt
	return &at
}
