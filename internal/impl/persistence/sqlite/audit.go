package sqlite

import (
	"context"
	"database/sql"
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
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		ev.ID.String(), ev.UserID.String(), string(ev.Type), ev.AggregateID.String(),
		string(ev.Payload), toUnix(ev.OccurredAt), toNullUnix(ev.PublishedAt),
	)
}

func (r *AuditRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain_audit.Event, error) {
	return r.list(ctx,
		`SELECT `+auditColumns+` FROM audit_events WHERE user_id = ? ORDER BY occurred_at, seq`,
		userID.String())
}

func (r *AuditRepo) DequeueBatch(ctx context.Context, limit int) ([]domain_audit.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.list(ctx,
		`SELECT `+auditColumns+` FROM audit_events WHERE published_at IS NULL ORDER BY seq LIMIT ?`,
		limit)
}

func (r *AuditRepo) MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	res, err := r.s.conn(ctx).ExecContext(ctx,
		`UPDATE audit_events SET published_at = ? WHERE id = ?`, toUnix(at), eventID.String())
	if err != nil {
		return fmt.Errorf("mark audit event published: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark audit event published: %w", err)
	}
	if n == 0 {
		return port_persistence.ErrNotFound
	}
	return nil
}

func (r *AuditRepo) list(ctx context.Context, query string, args ...any) ([]domain_audit.Event, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]domain_audit.Event, 0)
	for rows.Next() {
		var (
			ev          domain_audit.Event
			typ         string
			payload     []byte
			occurredAt  int64
			publishedAt sql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &typ, &ev.AggregateID, &payload, &occurredAt, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.Type = domain_audit.EventType(typ)
		ev.Payload = payload
		ev.OccurredAt = fromUnix(occurredAt)
		ev.PublishedAt = fromNullUnix(publishedAt)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
