// Package control wires the application together and manages its lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/planwise/authguard/internal/alerting"
	"github.com/planwise/authguard/internal/auth"
	"github.com/planwise/authguard/internal/core/config"
	"github.com/planwise/authguard/internal/errhandler"
	"github.com/planwise/authguard/internal/errlog"
	"github.com/planwise/authguard/internal/health"
	"github.com/planwise/authguard/internal/infra/audit"
	"github.com/planwise/authguard/internal/infra/store"
	"github.com/planwise/authguard/internal/monitor"
	"github.com/planwise/authguard/internal/provider"
)

// App is the assembled application.
type App struct {
	cfg config.AppConfig
	log *slog.Logger

	provider     *provider.HTTPProvider
	store        store.Store
	db           *audit.DB
	logger       *errlog.Logger
	handler      *errhandler.Handler
	orchestrator *auth.Orchestrator
	monitor      *monitor.Monitor
	registry     *alerting.Registry
	escalator    *alerting.Escalator
	engine       *alerting.Engine
	healthServer *health.Server

	cancel context.CancelFunc
}

// New creates an App with all dependencies initialized.
func New(cfg config.AppConfig) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}

	// Storage: redis when configured, in-memory otherwise.
	if cfg.Redis.URL != "" {
		redisStore, err := store.NewRedis(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.store = redisStore
		slog.Info("Using Redis store")
	} else {
		app.store = store.NewMemory()
		slog.Info("Using memory store")
	}

	loggerOpts := []errlog.Option{errlog.WithStore(app.store)}
	if cfg.Logging.MaxEntries > 0 {
		loggerOpts = append(loggerOpts, errlog.WithConfig(errlog.Config{
			MaxEntries: cfg.Logging.MaxEntries,
		}))
	}

	// Audit database is optional; telemetry stays in-process without it.
	if cfg.Database.URL != "" {
		db, err := audit.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		app.db = db
		loggerOpts = append(loggerOpts, errlog.WithSink(audit.NewRepo(db)))
		slog.Info("Audit database enabled")
	}

	app.logger = errlog.New(loggerOpts...)
	app.handler = errhandler.New(app.logger)

	app.provider = provider.NewHTTPProvider(cfg.Provider)
	app.orchestrator = auth.New(auth.Config{
		Provider: app.provider,
		Handler:  app.handler,
		Logger:   app.logger,
		Store:    app.store,
		Locale:   cfg.Locale,
	})

	prober := monitor.NewHTTPProber(app.provider.HealthURL(), cfg.Monitor.Timeout)
	app.monitor = monitor.New(prober, cfg.Monitor)

	app.registry = alerting.NewRegistry(time.Minute)
	app.registry.Register(alerting.NewConsoleChannel())
	if cfg.Alerting.WebhookURL != "" {
		app.registry.Register(alerting.NewWebhookChannel(cfg.Alerting.WebhookURL, 10*time.Second))
	}
	app.escalator = alerting.NewEscalator(cfg.Alerting.Escalation, app.registry)

	app.engine = alerting.NewEngine(alerting.EngineConfig{
		Rules:     alerting.DefaultRules(cfg.Alerting.Thresholds.RuleThresholds()),
		Registry:  app.registry,
		Escalator: app.escalator,
		Interval:  cfg.Alerting.Interval,
		Collect: func() alerting.Snapshot {
			return alerting.Snapshot{
				Log:        app.logger.Snapshot(),
				Connection: app.monitor.Status(),
			}
		},
	})

	app.healthServer = health.NewServer(app.monitor, app.logger, app.engine, cfg.Server.Port)

	return app, nil
}

// Auth exposes the orchestrator for embedding callers.
func (a *App) Auth() *auth.Orchestrator {
	return a.orchestrator
}

// Monitor exposes the connection monitor.
func (a *App) Monitor() *monitor.Monitor {
	return a.monitor
}

// Start launches background monitoring, alert evaluation and the health
// server. It returns once everything is running.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.monitor.StartMonitoring(runCtx)
	go a.engine.Run(runCtx)

	go func() {
		a.log.Info("Health server listening", "port", a.cfg.Server.Port)
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts everything down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.monitor.StopMonitoring()
	a.escalator.Stop()

	if err := a.healthServer.Stop(ctx); err != nil {
		a.log.Warn("Health server shutdown failed", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("DB close failed", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("Store close failed", "error", err)
	}
	return nil
}
