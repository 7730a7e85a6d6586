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

	"go.uber.org/zap"

	"github.com/cognicore/triage/internal/logging"
	"github.com/cognicore/triage/pkg/triage/config"
	"github.com/cognicore/triage/pkg/triage/ingest"
	"github.com/cognicore/triage/pkg/triage/labels"
	"github.com/cognicore/triage/pkg/triage/store"
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

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [flags] MESSAGES CATEGORIES DATABASE\n\n", fs.Name())
	fmt.Fprintln(w, "Loads the messages and categories CSV files, cleans and deduplicates them,")
	fmt.Fprintln(w, "and overwrites one table in DATABASE (a SQLite file or a postgres:// URL).")
	fmt.Fprintln(w, "\nExample: process-data disaster_messages.csv disaster_categories.csv DisasterResponse.db")
	fmt.Fprintln(w, "\nFlags:")
	fs.PrintDefaults()
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("process-data", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional YAML config file")
	tableName := fs.String("table", "", "destination table (default from config: disaster_messages)")
	policy := fs.String("policy", "", "category layout policy: positional, quarantine or strict")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 3 {
		usage(fs, stderr)
		return exitUsage
	}
	src := ingest.Sources{MessagesPath: fs.Arg(0), CategoriesPath: fs.Arg(1)}
	dest := fs.Arg(2)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	if *tableName != "" {
		cfg.Store.Table = *tableName
	}
	if *policy != "" {
		cfg.ETL.Policy = *policy
	}

	logger, err := logging.New(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()

	pol, err := labels.ParsePolicy(cfg.ETL.Policy)
	if err != nil {
		logger.Error("invalid layout policy", zap.Error(err))
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("loading data",
		zap.String("messages", src.MessagesPath),
		zap.String("categories", src.CategoriesPath))

	sink := &deferredSink{dest: dest}
	defer sink.Close()

	pipeline := ingest.NewPipeline(labels.NewParser(pol), logger)
	rep, err := pipeline.Run(ctx, src, sink, cfg.Store.Table)
	if err != nil {
		logger.Error("etl failed", zap.Error(err))
		return exitError
	}

	logger.Info("cleaned data saved to database",
		zap.String("database", dest),
		zap.String("table", cfg.Store.Table),
		zap.String("run_id", rep.Run.ID),
		zap.Int("rows", rep.Rows),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("quarantined", len(rep.Quarantined)))
	return exitOK
}

// deferredSink opens the destination on the first write, so a run that fails
// while reading its inputs never creates or touches the database.
type deferredSink struct {
	dest string
	st   store.Store
}

func (d *deferredSink) ReplaceTable(ctx context.Context, name string, t table.Table) (store.Run, error) {
	if d.st == nil {
		st, err := config.OpenStore(ctx, d.dest)
		if err != nil {
			return store.Run{}, err
		}
		d.st = st
	}
	return d.st.ReplaceTable(ctx, name, t)
}

func (d *deferredSink) Close() error {
	if d.st == nil {
		return nil
	}
	return d.st.Close()
}
