package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) Append(ctx context.Context, ev domain_audit.Event) error {
	return r.s.write(ctx, mutation{
		check: func() error {
			if _, exists := r.s.auditIndex[ev.ID]; exists {
				return fmt.Errorf("%w: audit event %s", port_persistence.ErrDuplicateKey, ev.ID)
			}
			return nil
		},
		apply: func() {
			r.s.auditIndex[ev.ID] = len(r.s.audit)
			r.s.audit = append(r.s.audit, ev)
		},
	})
}

func (r *AuditRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain_audit.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain_audit.Event, 0)
	for _, ev := range r.s.audit {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

// DequeueBatch returns unpublished events in append order.
func (r *AuditRepo) DequeueBatch(ctx context.Context, limit int) ([]domain_audit.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain_audit.Event, 0)
	for _, ev := range r.s.audit {
		if ev.PublishedAt != nil {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *AuditRepo) MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	return r.s.write(ctx, mutation{
		check: func() error {
			if _, ok := r.s.auditIndex[eventID]; !ok {
				return port_persistence.ErrNotFound
			}
			return nil
		},
		apply: func() {
			i := r.s.auditIndex[eventID]
			published := at
			r.s.audit[i].PublishedAt = &published
		},
	})
}
