package port_audit

import (
	"context"
	"encoding/json"
	"time"
)

type AuditEventView struct {
	EventID     string          `json:"event_id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Published   bool            `json:"published"`
}

type QueryAuditUseCase interface {
	ListAuditEvents(ctx context.Context, userID string) ([]AuditEventView, error)
}
