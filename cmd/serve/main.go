package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognicore/triage/internal/logging"
	"github.com/cognicore/triage/pkg/triage/config"
	"github.com/cognicore/triage/pkg/triage/dashboard"
	"github.com/cognicore/triage/pkg/triage/inference"
	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/server"
	"github.com/cognicore/triage/pkg/triage/table"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional YAML config file")
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("serve failed", zap.Error(err))
		return exitError
	}
	logger.Info("server exited")
	return exitOK
}

func serve(ctx context.Context, cfg *config.Service, logger *zap.Logger) error {
	tbl, err := loadTable(ctx, cfg, logger)
	if err != nil {
		return err
	}

	loader := cfg.Loader()
	comp, err := loader.Load(tbl.Schema)
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	adapter := inference.NewAdapter(tbl.Schema, comp.Classifier, logger)
	if err := adapter.CheckLabels(ctx); err != nil {
		if errors.Is(err, internalerr.ErrSchemaDrift) {
			return err
		}
		// an unreachable model may come up later; queries report it per request
		logger.Warn("could not verify classifier labels", zap.Error(err))
	}

	stats := dashboard.Summarize(tbl, dashboard.DefaultOptions())
	logger.Info("dashboard computed",
		zap.Int64("rows", stats.TotalRows),
		zap.Int("categories", tbl.Schema.Len()))

	gin.SetMode(cfg.Server.Mode)
	return server.NewServer(adapter, stats, logger).Run(ctx, cfg.Server.Addr)
}

// loadTable reads the persisted table once; the store is closed afterwards.
func loadTable(ctx context.Context, cfg *config.Service, logger *zap.Logger) (table.Table, error) {
	st, err := config.OpenStore(ctx, cfg.Store.DSN)
	if err != nil {
		return table.Table{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tbl, err := st.LoadTable(ctx, cfg.Store.Table)
	if err != nil {
		return table.Table{}, fmt.Errorf("load table %q: %w", cfg.Store.Table, err)
	}

	fields := []zap.Field{
		zap.String("table", cfg.Store.Table),
		zap.Int("rows", len(tbl.Rows)),
		zap.String("schema", tbl.Schema.Fingerprint()),
	}
	run, ok, err := st.LatestRun(ctx, cfg.Store.Table)
	if err != nil {
		logger.Warn("could not read run ledger", zap.Error(err))
	} else if ok {
		fields = append(fields, zap.String("run_id", run.ID), zap.Time("run_at", run.CreatedAt))
		if run.Fingerprint != tbl.Schema.Fingerprint() {
			logger.Warn("table schema differs from the last recorded run",
				zap.String("recorded", run.Fingerprint))
		}
	}
	logger.Info("table loaded", fields...)
	return tbl, nil
}
