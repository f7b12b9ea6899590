package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/match-tracker/internal/config"
	"github.com/riskibarqy/match-tracker/internal/domain/process"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/filesink"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/supervisor"
)

func main() {
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

	var statusSink supervisor.StatusSink
	if cfg.OutputEnabled {
		sink, err := filesink.New(cfg.OutputDir)
		if err != nil {
			logger.Error("create status sink", "error", err)
			os.Exit(1)
		}
		statusSink = sink
	}

	source := &supervisor.ExecSource{
		Binary: cfg.SupervisorWorkerBinary,
		ArgsByRole: map[process.Role][]string{
			process.RoleBatch:   {"-mode", "batch"},
			process.RoleMonitor: {"-mode", "monitor"},
		},
		LogDir: cfg.SupervisorLogDir,
	}

	sup := supervisor.New(source, statusSink, supervisor.Config{
		Roles:                []process.Role{process.RoleBatch, process.RoleMonitor},
		RestartBackoff:       cfg.SupervisorRestartBackoff,
		BatchRestartInterval: cfg.SupervisorBatchRestartEvery,
		HealthInterval:       cfg.SupervisorHealthInterval,
		ShutdownGrace:        cfg.SupervisorShutdownGrace,
		ReloadPause:          cfg.SupervisorReloadPause,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var wg conc.WaitGroup
	wg.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("reload signal received, restarting workers")
				sup.Reload()
			}
		}
	})

	if cfg.SupervisorStatusAddr != "" {
		statusServer := supervisor.NewStatusServer(sup, logger)
		wg.Go(func() {
			if err := statusServer.ListenAndServe(ctx, cfg.SupervisorStatusAddr); err != nil {
				logger.Error("status server failed", "error", err)
			}
		})
	}

	logger.Info("supervisor starting",
		"worker_binary", cfg.SupervisorWorkerBinary,
		"restart_backoff", cfg.SupervisorRestartBackoff,
		"batch_restart_interval", cfg.SupervisorBatchRestartEvery,
	)

	if err := sup.Run(ctx); err != nil {
		logger.Error("supervisor run failed", "error", err)
		os.Exit(1)
	}
	wg.Wait()
	logger.Info("supervisor stopped")
}
