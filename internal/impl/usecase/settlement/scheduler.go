package impl_settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domain_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/audit"
	domain_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/platform"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultInterval  = 3 * time.Second
	DefaultDelay     = 15 * time.Second
	DefaultBatchSize = 500
)

var errSkipped = errors.New("settlement: transfer not eligible")

type Config struct {
	Interval  time.Duration
	Delay     time.Duration
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

type TickResult struct {
	Scanned int
	Settled int
	Skipped int
	Failed  int
}

// Scheduler advances PENDING transfers older than the settlement delay to
// SETTLED on a fixed interval.
type Scheduler struct {
	uow       port_persistence.UnitOfWork
	transfers port_persistence.TransferRepository
	audit     port_persistence.AuditRepository
	clock     port_platform.Clock
	ids       port_platform.IDGenerator
	cfg       Config
}

func NewScheduler(
	uow port_persistence.UnitOfWork,
	transfers port_persistence.TransferRepository,
	audit port_persistence.AuditRepository,
	clock port_platform.Clock,
	ids port_platform.IDGenerator,
	cfg Config,
) *Scheduler {
	return &Scheduler{
		uow:       uow,
		transfers: transfers,
		audit:     audit,
		clock:     clock,
		ids:       ids,
		cfg:       cfg.withDefaults(),
	}
}

// Run ticks until ctx is cancelled. Cancellation is only observed between
// ticks and between transfers of a tick.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "settlement scheduler started",
		"interval", s.cfg.Interval,
		"delay", s.cfg.Delay,
		"batch_size", s.cfg.BatchSize,
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "settlement scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick settles every transfer in the snapshot taken at tick start. A failing
// transfer is logged and left PENDING for the next tick.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	timer := prometheus.NewTimer(settlementTickDuration)
	defer timer.ObserveDuration()

	now := s.clock.Now()
	cutoff := now.Add(-s.cfg.Delay)

	pending, err := s.transfers.ListPendingCreatedBefore(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		settlementScanErrors.Inc()
		slog.ErrorContext(ctx, "settlement scan failed", "cutoff", cutoff, "error", err)
		return TickResult{}
	}

	res := TickResult{Scanned: len(pending)}

	for _, t := range pending {
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "settlement tick abandoned", "remaining", len(pending)-res.Settled-res.Skipped-res.Failed)
			break
		}

		// The in-flight transition is allowed to finish after a stop signal.
		err := s.settle(context.WithoutCancel(ctx), t, now)
		switch {
		case err == nil:
			res.Settled++
			settlementTransitions.WithLabelValues("settled").Inc()
		case errors.Is(err, errSkipped), errors.Is(err, port_persistence.ErrStatusConflict):
			res.Skipped++
			settlementTransitions.WithLabelValues("skipped").Inc()
			slog.DebugContext(ctx, "settlement skipped", "transfer_id", t.ID(), "reason", err)
		default:
			res.Failed++
			settlementTransitions.WithLabelValues("failed").Inc()
			slog.WarnContext(ctx, "settlement failed, will retry next tick", "transfer_id", t.ID(), "error", err)
		}
	}

	if res.Scanned > 0 {
		slog.InfoContext(ctx, "settlement tick completed",
			"scanned", res.Scanned,
			"settled", res.Settled,
			"skipped", res.Skipped,
			"failed", res.Failed,
		)
	}

	return res
}

func (s *Scheduler) settle(ctx context.Context, t *domain_transfer.Transfer, tickStart time.Time) error {
	if !t.EligibleForSettlement(tickStart, s.cfg.Delay) {
		return errSkipped
	}

	if err := t.Settle(s.clock.Now()); err != nil {
		return fmt.Errorf("%w: %w", errSkipped, err)
	}

	events := t.PullEvents()
	auditEvents := make([]domain_audit.Event, 0, len(events))
	for _, ev := range events {
		ae, err := domain_audit.FromDomainEvent(s.ids.NewUUID(), ev)
		if err != nil {
			return err
		}
		auditEvents = append(auditEvents, ae)
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.transfers.Transition(ctx, t, domain_transfer.StatusPending); err != nil {
			return err
		}
		for _, ae := range auditEvents {
			if err := s.audit.Append(ctx, ae); err != nil {
				return fmt.Errorf("append audit event: %w", err)
			}
		}
		return nil
	})
}
