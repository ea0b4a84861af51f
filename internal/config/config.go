package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger backends accepted by LEDGER_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type AppConfig struct {
	Addr string

	LedgerBackend string
	RedisURL      string
	DatabaseURL   string
	ResultTTL     time.Duration

	MaxTables    int
	TableIdleTTL time.Duration
	SweepEvery   time.Duration

	ResultsLimit int
	MessagesDir  string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Addr:          ":8080",
		LedgerBackend: BackendMemory,
		ResultTTL:     30 * 24 * time.Hour,
		MaxTables:     200,
		TableIdleTTL:  time.Hour,
		SweepEvery:    time.Minute,
		ResultsLimit:  20,
	}

	if v := strings.TrimSpace(os.Getenv("CHECKERS_ADDR")); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LEDGER_BACKEND")); v != "" {
		cfg.LedgerBackend = strings.ToLower(v)
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("MAX_TABLES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTables = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TABLE_IDLE_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TableIdleTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("TABLE_SWEEP_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SweepEvery = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("RESULT_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResultTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("RESULTS_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResultsLimit = n
		}
	}

	switch cfg.LedgerBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis ledger")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres ledger")
		}
	default:
		return nil, fmt.Errorf("unsupported LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	return cfg, nil
}
