package domain_audit_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	"github.com/google/uuid"
)

type unknownEvent struct{}

func (unknownEvent) EventName() string { return "transfer.teleported" }
func (unknownEvent) OccurredAt() time.Time { return time.Time{} }
func (unknownEvent) AggregateID() uuid.UUID { return uuid.Nil }
func (unknownEvent) OwnerID() uuid.UUID { return uuid.Nil }

func TestFromDomainEvent(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 15, 0, time.UTC)
	settled := domain_transfer.TransferSettled{
		At:         at,
		TransferID: uuid.New(),
		UserID:     uuid.New(),
		QuoteID:    uuid.New(),
	}

	t.Run("maps settled transfer", func(t *testing.T) {
		id := uuid.New()
		ev, err := domain_audit.FromDomainEvent(id, settled)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if ev.ID != id || ev.Type != domain_audit.TypeTransferSettled {
			t.Errorf("unexpected id/type %v %v", ev.ID, ev.Type)
		}
		if ev.UserID != settled.UserID || ev.AggregateID != settled.TransferID {
			t.Errorf("unexpected owner/aggregate %v %v", ev.UserID, ev.AggregateID)
		}
		if !ev.OccurredAt.Equal(at) || ev.PublishedAt != nil {
			t.Errorf("unexpected timestamps %v %v", ev.OccurredAt, ev.PublishedAt)
		}

		var payload domain_transfer.TransferSettled
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatalf("payload is not valid JSON: %v", err)
		}
		if payload.TransferID != settled.TransferID || !payload.At.Equal(at) {
			t.Errorf("unexpected payload %s", ev.Payload)
		}
	})

	t.Run("rejects nil id", func(t *testing.T) {
		if _, err := domain_audit.FromDomainEvent(uuid.Nil, settled); !errors.Is(err, domain_audit.ErrInvalidEventID) {
			t.Fatalf("expected ErrInvalidEventID, got %v", err)
		}
	})

	t.Run("rejects nil source", func(t *testing.T) {
		if _, err := domain_audit.FromDomainEvent(uuid.New(), nil); !errors.Is(err, domain_audit.ErrMissingEventSource) {
			t.Fatalf("expected ErrMissingEventSource, got %v", err)
		}
	})

	t.Run("rejects unmapped events", func(t *testing.T) {
		if _, err := domain_audit.FromDomainEvent(uuid.New(), unknownEvent{}); !errors.Is(err, domain_audit.ErrUnmappedEventName) {
			t.Fatalf("expected ErrUnmappedEventName, got %v", err)
		}
	})
}
