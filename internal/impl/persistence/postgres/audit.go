package postgres

import (
	"context"
	"fmt"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

const auditColumns = `id, user_id, type, aggregate_id, payload, occurred_at, published_at`

type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) Append(ctx context.Context, ev domain_audit.Event) error {
	return insertOrConflict(ctx, r.s.conn(ctx), "audit event",
		`INSERT INTO audit_events (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		 ON CONFLICT DO NOTHING`,
		ev.ID, ev.UserID, string(ev.Type), ev.AggregateID, string(ev.Payload), ev.OccurredAt, ev.PublishedAt,
	)
}

func (r *AuditRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain_audit.Event, error) {
	return r.list(ctx,
		`SELECT `+auditColumns+` FROM audit_events WHERE user_id = $1 ORDER BY occurred_at, seq`,
		userID)
}

// DequeueBatch skips rows locked by a concurrent relay when called inside a unit of work.
func (r *AuditRepo) DequeueBatch(ctx context.Context, limit int) ([]domain_audit.Event, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	return r.list(ctx,
		`SELECT `+auditColumns+` FROM audit_events
		 WHERE published_at IS NULL
		 ORDER BY seq
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`,
		lim)
}

func (r *AuditRepo) MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	tag, err := r.s.conn(ctx).Exec(ctx,
		`UPDATE audit_events SET published_at = $1 WHERE id = $2`, at, eventID)
	if err != nil {
		return fmt.Errorf("mark audit event published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port_persistence.ErrNotFound
	}
	return nil
}

func (r *AuditRepo) list(ctx context.Context, sql string, args ...any) ([]domain_audit.Event, error) {
	rows, err := r.s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]domain_audit.Event, 0)
	for rows.Next() {
		var (
			ev      domain_audit.Event
			typ     string
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &typ, &ev.AggregateID, &payload, &ev.OccurredAt, &ev.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.Type = domain_audit.EventType(typ)
		ev.Payload = payload
		ev.OccurredAt = utc(ev.OccurredAt)
		ev.PublishedAt = utcPtr(ev.PublishedAt)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
