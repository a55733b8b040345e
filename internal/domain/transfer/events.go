package domain_transfer

import (
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	OwnerID() uuid.UUID
}

type TransferSubmitted struct {
	At             time.Time `json:"occurred_at"`
	TransferID     uuid.UUID `json:"transfer_id"`
	UserID         uuid.UUID `json:"user_id"`
	QuoteID        uuid.UUID `json:"quote_id"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func (e TransferSubmitted) EventName() string { return "transfer.submitted" }

func (e TransferSubmitted) OccurredAt() time.Time { return e.At }

func (e TransferSubmitted) AggregateID() uuid.UUID { return e.TransferID }

func (e TransferSubmitted) OwnerID() uuid.UUID { return e.UserID }

type TransferSettled struct {
	At         time.Time `json:"occurred_at"`
	TransferID uuid.UUID `json:"transfer_id"`
	UserID     uuid.UUID `json:"user_id"`
	QuoteID    uuid.UUID `json:"quote_id"`
}

func (e TransferSettled) EventName() string { return "transfer.settled" }

func (e TransferSettled) OccurredAt() time.Time { return e.At }

func (e TransferSettled) AggregateID() uuid.UUID { return e.TransferID }

func (e TransferSettled) OwnerID() uuid.UUID { return e.UserID }

type TransferHeld struct {
	At         time.Time `json:"occurred_at"`
	TransferID uuid.UUID `json:"transfer_id"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
}

func (e TransferHeld) EventName() string { return "transfer.aml_hold" }

func (e TransferHeld) OccurredAt() time.Time { return e.At }

func (e TransferHeld) AggregateID() uuid.UUID { return e.TransferID }

func (e TransferHeld) OwnerID() uuid.UUID { return e.UserID }

type TransferFailed struct {
	At         time.Time `json:"occurred_at"`
	TransferID uuid.UUID `json:"transfer_id"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
}

func (e TransferFailed) EventName() string { return "transfer.failed" }

func (e TransferFailed) OccurredAt() time.Time { return e.At }

func (e TransferFailed) AggregateID() uuid.UUID { return e.TransferID }

func (e TransferFailed) OwnerID() uuid.UUID { return e.UserID }
