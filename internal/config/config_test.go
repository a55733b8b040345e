package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.StorageDriver != DriverMemory {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if cfg.SettlementInterval != 3*time.Second || cfg.SettlementDelay != 15*time.Second {
		t.Errorf("settlement timing = %s / %s", cfg.SettlementInterval, cfg.SettlementDelay)
	}
	if cfg.QuoteValidity != 5*time.Minute {
		t.Errorf("QuoteValidity = %s", cfg.QuoteValidity)
	}
	if !cfg.FXRate.Equal(decimal.RequireFromString("57.25")) ||
		!cfg.FeeRate.Equal(decimal.RequireFromString("0.012")) ||
		!cfg.MinFee.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("pricing = %s %s %s", cfg.FXRate, cfg.FeeRate, cfg.MinFee)
	}
	if cfg.RelayEnabled() {
		t.Error("relay should be disabled without brokers")
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"STORAGE_DRIVER":        "Postgres",
		"DB_SOURCE":             "postgres://localhost/remit",
		"KAFKA_BROKERS":         "k1:9092, k2:9092,",
		"SETTLEMENT_DELAY":      "30s",
		"SETTLEMENT_BATCH_SIZE": "50",
		"FX_RATE":               "60.1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StorageDriver != DriverPostgres {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if !cfg.RelayEnabled() {
		t.Error("relay should be enabled with brokers")
	}
	if cfg.SettlementDelay != 30*time.Second || cfg.SettlementBatchSize != 50 {
		t.Errorf("settlement = %s / %d", cfg.SettlementDelay, cfg.SettlementBatchSize)
	}
	if !cfg.FXRate.Equal(decimal.RequireFromString("60.1")) {
		t.Errorf("FXRate = %s", cfg.FXRate)
	}
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without source", map[string]string{"STORAGE_DRIVER": "postgres"}, "DB_SOURCE"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "unsupported driver"},
		{"bad duration", map[string]string{"SETTLEMENT_INTERVAL": "soon"}, "SETTLEMENT_INTERVAL"},
		{"bad decimal", map[string]string{"MIN_FEE": "one"}, "MIN_FEE"},
		{"bad batch", map[string]string{"SETTLEMENT_BATCH_SIZE": "0"}, "SETTLEMENT_BATCH_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
