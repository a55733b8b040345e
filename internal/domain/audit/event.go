package domain_audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	TypeQuoteCreated      EventType = "QUOTE_CREATED"
	TypeTransferSubmitted EventType = "TRANSFER_SUBMITTED"
	TypeTransferSettled   EventType = "TRANSFER_SETTLED"
	TypeTransferAMLHold   EventType = "TRANSFER_AML_HOLD"
	TypeTransferFailed    EventType = "TRANSFER_FAILED"
)

var (
	ErrInvalidEventID     = errors.New("audit: invalid event id")
	ErrUnmappedEventName  = errors.New("audit: no audit type for domain event")
	ErrMissingEventSource = errors.New("audit: event source is required")
)

var typesByEventName = map[string]EventType{
	"quote.created":      TypeQuoteCreated,
	"transfer.submitted": TypeTransferSubmitted,
	"transfer.settled":   TypeTransferSettled,
	"transfer.aml_hold":  TypeTransferAMLHold,
	"transfer.failed":    TypeTransferFailed,
}

// Source is satisfied by the domain events of the quote and transfer aggregates.
type Source interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	OwnerID() uuid.UUID
}

// Event is an append-only audit log entry. PublishedAt is the outbox marker
// set by the relay; nothing else on an Event ever changes.
type Event struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        EventType
	AggregateID uuid.UUID
	Payload     json.RawMessage
	OccurredAt  time.Time
	PublishedAt *time.Time
}

func FromDomainEvent(id uuid.UUID, src Source) (Event, error) {
	if id == uuid.Nil {
		return Event{}, ErrInvalidEventID
	}

	if src == nil {
		return Event{}, ErrMissingEventSource
	}

	typ, ok := typesByEventName[src.EventName()]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnmappedEventName, src.EventName())
	}

	payload, err := json.Marshal(src)
	if err != nil {
		return Event{}, fmt.Errorf("audit: marshal %s payload: %w", src.EventName(), err)
	}

	return Event{
		ID:          id,
		UserID:      src.OwnerID(),
		Type:        typ,
		AggregateID: src.AggregateID(),
		Payload:     payload,
		OccurredAt:  src.OccurredAt(),
	}, nil
}
