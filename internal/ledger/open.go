package ledger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/checkers-engine/internal/config"
	"github.com/park285/checkers-engine/internal/obslog"
)

// Open returns the recorder selected by cfg.LedgerBackend.
func Open(cfg *config.AppConfig) (Recorder, error) {
	if cfg == nil {
		return NewMemory(), nil
	}
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		r, err := NewRedis(cfg.RedisURL, cfg.ResultTTL)
		if err != nil {
			return nil, fmt.Errorf("redis ledger: %w", err)
		}
		obslog.L().Info("ledger_open", zap.String("backend", cfg.LedgerBackend))
		return r, nil
	case config.BackendPostgres:
		p, err := NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres ledger: %w", err)
		}
		obslog.L().Info("ledger_open", zap.String("backend", cfg.LedgerBackend))
		return p, nil
	case config.BackendMemory, "":
		obslog.L().Info("ledger_open", zap.String("backend", config.BackendMemory))
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.LedgerBackend)
	}
}
