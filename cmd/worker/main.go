package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/match-tracker/internal/app"
	"github.com/riskibarqy/match-tracker/internal/config"
	"github.com/riskibarqy/match-tracker/internal/observability"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

type runOptions struct {
	Mode    string `validate:"required,oneof=batch monitor once"`
	MatchID string `validate:"required_if=Mode once"`
	Inplay  bool
}

func main() {
	opts := runOptions{}
	flag.StringVar(&opts.Mode, "mode", "batch", "run mode: batch, monitor or once")
	flag.StringVar(&opts.MatchID, "match-id", "", "match identifier for once mode")
	flag.BoolVar(&opts.Inplay, "inplay", false, "treat the once target as a live match")
	flag.Parse()

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(opts); err != nil {
		fmt.Fprintf(os.Stderr, "invalid options: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownUptrace(context.Background()); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	worker, err := app.NewWorker(cfg, logger)
	if err != nil {
		logger.Error("build worker", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := worker.Close(context.Background()); err != nil {
			logger.Warn("close worker failed", "error", err)
		}
	}()

	if err := run(ctx, worker, opts, logger); err != nil {
		if ctx.Err() != nil {
			logger.Info("worker interrupted", "mode", opts.Mode)
			return
		}
		logger.Error("worker run failed", "mode", opts.Mode, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, worker *app.Worker, opts runOptions, logger *logging.Logger) error {
	switch opts.Mode {
	case "batch":
		report, err := worker.Scheduler.RunBatch(ctx)
		if err != nil {
			return err
		}
		logger.Info("batch run complete",
			"total", report.TotalMatches,
			"succeeded", report.Succeeded,
			"failed", len(report.Failures),
		)
		return nil
	case "monitor":
		report, err := worker.Scheduler.RunMonitor(ctx)
		if err != nil {
			return err
		}
		logger.Info("monitor run complete",
			"total_sessions", report.TotalSessions,
			"total_changes", report.TotalChanges,
			"monitored_matches", report.MonitoredMatchesCount,
		)
		return nil
	case "once":
		result, err := worker.Scheduler.RunOnce(ctx, opts.MatchID, opts.Inplay)
		if err != nil {
			return err
		}
		logger.Info("single match run complete",
			"match_id", result.MatchID,
			"summary_written", result.SummaryWritten,
			"detail_written", result.DetailWritten,
			"media_count", result.MediaCount,
		)
		return nil
	default:
		return fmt.Errorf("unknown mode %q", opts.Mode)
	}
}
