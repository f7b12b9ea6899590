package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/match-tracker/external/sportapi"
	"github.com/riskibarqy/match-tracker/internal/config"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/media"
	"github.com/riskibarqy/match-tracker/internal/domain/session"
	"github.com/riskibarqy/match-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/filesink"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/platform/resilience"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

// Worker bundles the wired pipeline for one tracker process.
type Worker struct {
	Scheduler *usecase.SchedulerService
	db        *sqlx.DB
}

// NewWorker wires provider, reconciler and scheduler from configuration.
// With persistence disabled everything runs against in-memory stores, which
// keeps dry runs and local debugging free of Postgres.
func NewWorker(cfg config.Config, logger *logging.Logger) (*Worker, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := sportapi.NewClient(sportapi.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.SportAPITimeout},
		BaseURL:    cfg.SportAPIBaseURL,
		MainSite:   cfg.SportAPIMainSite,
		SourceID:   cfg.SportAPISourceID,
		Language:   cfg.SportAPILanguage,
		DateWindow: cfg.SportAPIDateWindow,
		Timeout:    cfg.SportAPITimeout,
		MaxRetries: cfg.SportAPIMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportAPICircuitEnabled,
			FailureThreshold: cfg.SportAPICircuitFailureCount,
			OpenTimeout:      cfg.SportAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportAPICircuitHalfOpenMaxReq,
		},
	})

	var (
		summaryRepo match.Repository
		detailRepo  snapshot.Repository
		mediaRepo   media.Repository
		sessionRepo session.Repository
		db          *sqlx.DB
	)

	if cfg.PersistEnabled {
		opened, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		db = opened
		summaryRepo = postgres.NewMatchSummaryRepository(db)
		detailRepo = postgres.NewMatchSnapshotRepository(db)
		mediaRepo = postgres.NewMatchMediaRepository(db)
		sessionRepo = postgres.NewMonitorSessionRepository(db)
	} else {
		logger.Info("persistence disabled, using in-memory stores")
		summaryRepo = memory.NewMatchSummaryRepository()
		detailRepo = memory.NewMatchSnapshotRepository()
		mediaRepo = memory.NewMatchMediaRepository()
		sessionRepo = memory.NewMonitorSessionRepository()
	}

	var sink usecase.ArtifactSink
	if cfg.OutputEnabled {
		fileSink, err := filesink.New(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("create output sink: %w", err)
		}
		sink = fileSink
	}

	reconciler := usecase.NewReconcileService(summaryRepo, detailRepo, mediaRepo, logger)
	scheduler := usecase.NewSchedulerService(
		client,
		reconciler,
		sessionRepo,
		summaryRepo,
		sink,
		usecase.SchedulerConfig{
			LiveList:        cfg.BatchLiveList,
			MaxMatches:      cfg.BatchMaxMatches,
			MarketOnly:      cfg.BatchMarketOnly,
			RequestDelay:    cfg.RequestDelay,
			MonitorInterval: cfg.MonitorInterval,
			MonitorDuration: cfg.MonitorDuration,
			WatchList:       cfg.MonitorWatchList,
		},
		logger,
	)

	return &Worker{Scheduler: scheduler, db: db}, nil
}

func (w *Worker) Close(_ context.Context) error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
