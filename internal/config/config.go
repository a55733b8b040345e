package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPAddr string

	StorageDriver string
	DBSource      string
	SQLitePath    string

	KafkaBrokers  []string
	AuditTopic    string
	RelayInterval time.Duration

	SettlementInterval  time.Duration
	SettlementDelay     time.Duration
	SettlementBatchSize int

	QuoteValidity time.Duration
	FXRate        decimal.Decimal
	FeeRate       decimal.Decimal
	MinFee        decimal.Decimal
	TransferETA   string

	LogLevel  string
	LogFormat string
}

// Load reads the process environment, after merging a .env file from the
// working directory when one exists. Variables already set win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}

	cfg := &Config{
		HTTPAddr:            p.str("HTTP_ADDR", ":8080"),
		StorageDriver:       strings.ToLower(p.str("STORAGE_DRIVER", DriverMemory)),
		DBSource:            p.str("DB_SOURCE", ""),
		SQLitePath:          p.str("SQLITE_PATH", "./data/remittance.db"),
		KafkaBrokers:        p.list("KAFKA_BROKERS"),
		AuditTopic:          p.str("AUDIT_TOPIC", "remittance.audit"),
		RelayInterval:       p.duration("RELAY_INTERVAL", 2*time.Second),
		SettlementInterval:  p.duration("SETTLEMENT_INTERVAL", 3*time.Second),
		SettlementDelay:     p.duration("SETTLEMENT_DELAY", 15*time.Second),
		SettlementBatchSize: p.integer("SETTLEMENT_BATCH_SIZE", 500),
		QuoteValidity:       p.duration("QUOTE_VALIDITY", 5*time.Minute),
		FXRate:              p.decimal("FX_RATE", "57.25"),
		FeeRate:             p.decimal("FEE_RATE", "0.012"),
		MinFee:              p.decimal("MIN_FEE", "1.5"),
		TransferETA:         p.str("TRANSFER_ETA", "Usually within 1 minute"),
		LogLevel:            p.str("LOG_LEVEL", "info"),
		LogFormat:           strings.ToLower(p.str("LOG_FORMAT", "text")),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DBSource == "" {
			return nil, fmt.Errorf("DB_SOURCE environment variable is required for the %s driver", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER: unsupported driver %q", cfg.StorageDriver)
	}

	if cfg.SettlementInterval <= 0 || cfg.SettlementDelay <= 0 || cfg.RelayInterval <= 0 || cfg.QuoteValidity <= 0 {
		return nil, errors.New("intervals and quote validity must be positive")
	}
	if cfg.SettlementBatchSize <= 0 {
		return nil, errors.New("SETTLEMENT_BATCH_SIZE must be positive")
	}

	return cfg, nil
}

// RelayEnabled reports whether audit events should be shipped to Kafka.
func (c *Config) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, fallback string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (p *parser) list(key string) []string {
	raw := p.str(key, "")
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (p *parser) decimal(key, fallback string) decimal.Decimal {
	raw := p.str(key, fallback)

	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return decimal.Zero
	}
	return d
}
