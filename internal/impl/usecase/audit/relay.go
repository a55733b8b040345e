package impl_audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/messaging"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultRelayInterval = 2 * time.Second
	DefaultRelayBatch    = 100
)

var relayPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "remittance_audit_relay_events_total",
	Help: "Audit events handled by the outbox relay, labeled by result",
}, []string{"result"})

// Relay drains unpublished audit events to the message broker. Delivery is
// at-least-once: an event is marked published only after the broker accepted it.
type Relay struct {
	uow       port_persistence.UnitOfWork
	audit     port_persistence.AuditRepository
	publisher messaging.Publisher
	clock     port_platform.Clock
	topic     string
	interval  time.Duration
	batch     int
}

func NewRelay(
	uow port_persistence.UnitOfWork,
	audit port_persistence.AuditRepository,
	publisher messaging.Publisher,
	clock port_platform.Clock,
	topic string,
	interval time.Duration,
	batch int,
) *Relay {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	if batch <= 0 {
		batch = DefaultRelayBatch
	}

	return &Relay{
		uow:       uow,
		audit:     audit,
		publisher: publisher,
		clock:     clock,
		topic:     topic,
		interval:  interval,
		batch:     batch,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "audit relay started", "topic", r.topic, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "audit relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				slog.WarnContext(ctx, "audit relay flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch in order and stops at the first failure so the
// remaining events keep their position for the next round. The batch runs in
// one unit of work: its rows stay locked against other relays until the
// published marks commit.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	var (
		published  int
		publishErr error
	)

	err := r.uow.WithinTx(ctx, func(ctx context.Context) error {
		events, err := r.audit.DequeueBatch(ctx, r.batch)
		if err != nil {
			return fmt.Errorf("dequeue audit events: %w", err)
		}

		for _, ev := range events {
			headers := map[string]string{
				"event_id":     ev.ID.String(),
				"event_type":   string(ev.Type),
				"aggregate_id": ev.AggregateID.String(),
				"occurred_at":  ev.OccurredAt.UTC().Format(time.RFC3339Nano),
			}

			if err := r.publisher.Publish(ctx, r.topic, ev.UserID.String(), ev.Payload, headers); err != nil {
				relayPublished.WithLabelValues("failed").Inc()
				// Commit the marks already made; the rest waits for the next round.
				publishErr = fmt.Errorf("publish audit event %s: %w", ev.ID, err)
				return nil
			}

			if err := r.audit.MarkPublished(ctx, ev.ID, r.clock.Now()); err != nil {
				relayPublished.WithLabelValues("failed").Inc()
				return fmt.Errorf("mark audit event %s published: %w", ev.ID, err)
			}

			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	relayPublished.WithLabelValues("published").Add(float64(published))
	return published, publishErr
}
