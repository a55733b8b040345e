package port_persistence

import (
	"context"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditRepository is the audit sink and doubles as the outbox drained by the relay.
type AuditRepository interface {
	Append(ctx context.Context, ev domain_audit.Event) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain_audit.Event, error)
	DequeueBatch(ctx context.Context, limit int) ([]domain_audit.Event, error)
	MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error
}
