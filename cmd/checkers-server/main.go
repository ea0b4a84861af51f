package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/checkers-engine/internal/adapter/checkerspresenter"
	appcfg "github.com/park285/checkers-engine/internal/config"
	"github.com/park285/checkers-engine/internal/httpapi"
	"github.com/park285/checkers-engine/internal/ledger"
	"github.com/park285/checkers-engine/internal/msgcat"
	"github.com/park285/checkers-engine/internal/obslog"
	"github.com/park285/checkers-engine/internal/table"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		obslog.L().Fatal("msgcat_init_error", zap.Error(err))
	}
	rec, err := ledger.Open(cfg)
	if err != nil {
		obslog.L().Fatal("ledger_init_error", zap.Error(err))
	}

	tables := table.NewRegistry(rec, table.Options{MaxTables: cfg.MaxTables, IdleTTL: cfg.TableIdleTTL})
	presenter := checkerspresenter.NewPresenter(checkerspresenter.NewFormatter(cat), true)
	api := httpapi.NewServer(tables, presenter, cfg.ResultsLimit)

	srv := &fasthttp.Server{
		Handler:      api.Handler,
		Name:         "checkers-server",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go sweepLoop(ctx, tables, cfg.SweepEvery)

	go func() {
		obslog.L().Info("server_listen", zap.String("addr", cfg.Addr), zap.String("ledger", cfg.LedgerBackend))
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			obslog.L().Fatal("server_listen_error", zap.Error(err))
		}
	}()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := srv.ShutdownWithContext(sctx); err != nil {
		obslog.L().Warn("server_shutdown_error", zap.Error(err))
	}
	if err := rec.Close(); err != nil {
		obslog.L().Warn("ledger_close_error", zap.Error(err))
	}
	obslog.L().Info("server_stopped")
}

func sweepLoop(ctx context.Context, tables *table.Registry, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			tables.Sweep(now)
		}
	}
}
