package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/tractorstats/tractor-stats/internal/config"
	"github.com/tractorstats/tractor-stats/internal/domain/gamerecord"
	"github.com/tractorstats/tractor-stats/internal/domain/scoring"
	"github.com/tractorstats/tractor-stats/internal/infrastructure/notify"
	"github.com/tractorstats/tractor-stats/internal/infrastructure/recordsource/memory"
	"github.com/tractorstats/tractor-stats/internal/infrastructure/recordsource/postgres"
	"github.com/tractorstats/tractor-stats/internal/infrastructure/recordsource/sheet"
	"github.com/tractorstats/tractor-stats/internal/interfaces/httpapi"
	"github.com/tractorstats/tractor-stats/internal/platform/cache"
	"github.com/tractorstats/tractor-stats/internal/platform/logging"
	"github.com/tractorstats/tractor-stats/internal/platform/resilience"
	"github.com/tractorstats/tractor-stats/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// NewHTTPServer assembles the record source, services and router into a
// ready-to-run server. The returned cleanup releases infrastructure handles
// (currently the database pool) and is safe to call after shutdown.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	source, cleanup, err := newRecordSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	statsSvc := usecase.NewStatsService(source, store, usecase.StatsConfig{
		MinSampleSize: cfg.MinSampleSize,
		Indicators: scoring.IndicatorConfig{
			Threshold: cfg.IndicatorThreshold,
			Cap:       cfg.IndicatorCap,
		},
	}, logger)
	partnerSvc := usecase.NewPartnerService(statsSvc, logger)

	var notifier usecase.RefreshNotifier
	if cfg.WebhookEnabled {
		webhook, whErr := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.WebhookTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
			},
		}, logger)
		if whErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("build refresh webhook: %w", whErr)
		}
		notifier = webhook
	}
	refreshSvc := usecase.NewRefreshService(statsSvc, notifier, logger)

	handler := httpapi.NewHandler(statsSvc, partnerSvc, refreshSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

func newRecordSource(cfg config.Config, logger *logging.Logger) (gamerecord.Source, func(), error) {
	noop := func() {}

	switch cfg.RecordSource {
	case config.SourceSheet:
		client := sheet.NewClient(sheet.ClientConfig{
			CSVURL:     cfg.SheetCSVURL,
			Timeout:    cfg.SheetTimeout,
			MaxRetries: cfg.SheetMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SheetCircuitEnabled,
				FailureThreshold: cfg.SheetCircuitFailureCount,
				OpenTimeout:      cfg.SheetCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SheetCircuitHalfOpenMaxReq,
			},
		})
		return client, noop, nil

	case config.SourcePostgres:
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		cleanup := func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("close database", "error", closeErr)
			}
		}
		return postgres.NewSource(db), cleanup, nil

	case config.SourceMemory:
		return memory.NewSource(memory.SeedRecords()), noop, nil

	default:
		return nil, nil, fmt.Errorf("unsupported record source %q", cfg.RecordSource)
	}
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
