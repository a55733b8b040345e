package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/config"
	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/delivery/httpapi"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/messaging/kafka"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/memory"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/postgres"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/persistence/sqlite"
	impl_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/platform"
	impl_audit "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/audit"
	impl_idempotency "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/idempotency"
	impl_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/quote"
	impl_settlement "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/settlement"
	impl_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/impl/usecase/transfer"
	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	"github.com/PedroCamargo-dev/core-bank-remittance-service/pkg/logging"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// storage is the set of ports every storage driver provides.
type storage struct {
	uow         port_persistence.UnitOfWork
	quotes      port_persistence.QuoteRepository
	transfers   port_persistence.TransferRepository
	audit       port_persistence.AuditRepository
	idempotency port_persistence.IdempotencyRepository
	close       func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("remittance service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	clock := impl_platform.SystemClock{}
	ids := impl_platform.UUIDGenerator{}

	pricing := domain_quote.Pricing{
		FXRate:   cfg.FXRate,
		FeeRate:  cfg.FeeRate,
		MinFee:   cfg.MinFee,
		Validity: cfg.QuoteValidity,
	}
	if err := pricing.Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	quotes := impl_quote.NewQuoteEngine(store.uow, store.quotes, store.audit, clock, ids, pricing)
	guard := impl_idempotency.NewGuard(store.uow, store.idempotency, clock)
	ledger := impl_transfer.NewTransferLedger(guard, store.quotes, store.transfers, store.audit, clock, ids, cfg.TransferETA)
	trail := impl_audit.NewTrail(store.audit)

	scheduler := impl_settlement.NewScheduler(store.uow, store.transfers, store.audit, clock, ids, impl_settlement.Config{
		Interval:  cfg.SettlementInterval,
		Delay:     cfg.SettlementDelay,
		BatchSize: cfg.SettlementBatchSize,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewHandler(quotes, quotes, ledger, ledger, trail).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if cfg.RelayEnabled() {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer publisher.Close()

		relay := impl_audit.NewRelay(store.uow, store.audit, publisher, clock, cfg.AuditTopic, cfg.RelayInterval, impl_audit.DefaultRelayBatch)
		g.Go(func() error {
			return relay.Run(gctx)
		})
	} else {
		slog.Info("audit relay disabled, no KAFKA_BROKERS configured")
	}

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DBSource)
		if err != nil {
			return nil, err
		}
		return &storage{
			uow: s, quotes: s.Quotes(), transfers: s.Transfers(), audit: s.Audit(), idempotency: s.Idempotency(),
			close: s.Close,
		}, nil

	case config.DriverSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			uow: s, quotes: s.Quotes(), transfers: s.Transfers(), audit: s.Audit(), idempotency: s.Idempotency(),
			close: func() {
				if err := s.Close(); err != nil {
					slog.Warn("close sqlite", "error", err)
				}
			},
		}, nil

	default:
		s := memory.NewStore()
		return &storage{
			uow: s, quotes: s.Quotes(), transfers: s.Transfers(), audit: s.Audit(), idempotency: s.Idempotency(),
			close: func() {},
		}, nil
	}
}
