package impl_audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/audit"
	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input data")

var _ port_audit.QueryAuditUseCase = (*Trail)(nil)

// Trail reads a user's audit history in occurrence order.
type Trail struct {
	audit port_persistence.AuditRepository
}

func NewTrail(audit port_persistence.AuditRepository) *Trail {
	return &Trail{audit: audit}
}

func (t *Trail) ListAuditEvents(ctx context.Context, userID string) ([]port_audit.AuditEventView, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: user_id: %v", ErrInvalidInput, err)
	}

	events, err := t.audit.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit events: %w", port_persistence.ErrStorageFailure, err)
	}

	out := make([]port_audit.AuditEventView, 0, len(events))
	for _, ev := range events {
		out = append(out, port_audit.AuditEventView{
			EventID:     ev.ID.String(),
			Type:        string(ev.Type),
			AggregateID: ev.AggregateID.String(),
			Payload:     ev.Payload,
			OccurredAt:  ev.OccurredAt,
			Published:   ev.PublishedAt != nil,
		})
	}
	return out, nil
}
