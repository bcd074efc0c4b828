package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"vetting/internal/alert"
	artifactService "vetting/internal/artifact/service"
	artifactStore "vetting/internal/artifact/store"
	driverService "vetting/internal/driver/service"
	driverStore "vetting/internal/driver/store"
	"vetting/internal/expiry"
	"vetting/internal/history/reconcile"
	historyStore "vetting/internal/history/store"
	httpapi "vetting/internal/http"
	"vetting/internal/platform/config"
	"vetting/internal/platform/httpserver"
	"vetting/internal/platform/metrics"
	"vetting/internal/platform/postgres"
	platformredis "vetting/internal/platform/redis"
	"vetting/internal/platform/resilience"
	"vetting/internal/review/cache"
	"vetting/internal/review/handler"
	reviewService "vetting/internal/review/service"
	"vetting/internal/risk"
	"vetting/pkg/platform/tx"
)

// app owns every long-lived resource so main can shut them down in order.
type app struct {
	server  *http.Server
	worker  *reconcile.Worker
	sweeper *expiry.Sweeper

	db    *sql.DB
	redis *platformredis.Client
	nats  *alert.NATSSink
}

type storeSet struct {
	drivers   driverService.Store
	artifacts artifactService.Store
	history   interface {
		driverService.HistoryStore
		reconcile.Appender
		reconcile.HistoryReader
		reviewService.History
	}
	runner tx.Runner
	// driverReader is the raw store; the checker bypasses the service layer
	driverReader reconcile.DriverReader
}

func buildApp(ctx context.Context, cfg config.Server, logger *slog.Logger) (*app, error) {
	a := &app{}
	m := metrics.New()

	stores, err := a.openStores(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	sinks := alert.Multi{alert.NewLogSink(logger)}
	if cfg.Alerts.NATSURL != "" {
		a.nats, err = alert.DialNATS(cfg.Alerts.NATSURL, cfg.Alerts.Subject, alert.NATSOptions{Logger: logger})
		if err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, a.nats)
	}

	policies := risk.DefaultPolicyBook()
	if cfg.RiskPolicyFile != "" {
		if policies, err = risk.LoadPolicyBook(cfg.RiskPolicyFile); err != nil {
			a.close()
			return nil, err
		}
	}
	if err := reviewService.ValidatePolicy(policies); err != nil {
		a.close()
		return nil, err
	}
	logger.Info("risk policy loaded", "version", policies.Current().Version)

	var riskCache reviewService.RiskCache = cache.NewInMemory(cfg.Redis.RiskCacheTTL)
	if a.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		a.close()
		return nil, err
	}
	if a.redis != nil {
		riskCache = cache.NewRedis(a.redis.Client, cfg.Redis.RiskCacheTTL)
	}

	reconcileMetrics := reconcile.NewMetrics(m.Registry)
	queue := reconcile.NewQueue(cfg.Workers.ReconcileCapacity)
	a.worker = reconcile.NewWorker(queue, stores.history, resilience.NewExecutor(resilience.DefaultConfig(), logger),
		reconcile.WithLogger(logger),
		reconcile.WithAlertSink(sinks),
		reconcile.WithMetrics(reconcileMetrics),
		reconcile.WithInterval(cfg.Workers.ReconcileInterval),
	)

	artifacts := artifactService.New(stores.artifacts, stores.drivers, stores.runner,
		artifactService.WithLogger(logger),
		artifactService.WithMetrics(artifactService.NewMetrics(m.Registry)),
		artifactService.WithStoreTimeout(cfg.StoreTimeout),
	)
	drivers := driverService.New(stores.drivers, stores.history, artifacts, stores.runner,
		driverService.WithLogger(logger),
		driverService.WithMetrics(driverService.NewMetrics(m.Registry)),
		driverService.WithAlertSink(sinks),
		driverService.WithReconciler(a.worker),
		driverService.WithStoreTimeout(cfg.StoreTimeout),
	)
	checker := reconcile.NewChecker(stores.driverReader, stores.history, queue, sinks, reconcileMetrics, logger)
	review := reviewService.New(drivers, artifacts, stores.history, policies,
		reviewService.WithLogger(logger),
		reviewService.WithMetrics(reviewService.NewMetrics(m.Registry)),
		reviewService.WithRiskCache(riskCache),
		reviewService.WithConsistencyChecker(checker),
	)

	a.sweeper = expiry.NewSweeper(review,
		expiry.WithLogger(logger),
		expiry.WithAlertSink(sinks),
		expiry.WithMetrics(expiry.NewMetrics(m.Registry)),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Review:         handler.New(review, logger),
		Metrics:        m,
		Logger:         logger,
		AdminToken:     cfg.AdminAPIToken,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RequestTimeout: cfg.StoreTimeout * 3,
		Health:         a.healthChecks(),
	})
	a.server = httpserver.New(cfg.Addr, router, cfg.StoreTimeout)
	return a, nil
}

func (a *app) openStores(ctx context.Context, cfg config.Server, logger *slog.Logger) (*storeSet, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		drivers := driverStore.NewInMemory()
		return &storeSet{
			drivers:      drivers,
			artifacts:    artifactStore.NewInMemory(),
			history:      historyStore.NewInMemory(),
			runner:       tx.NewSharded(cfg.StoreTimeout),
			driverReader: drivers,
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	drivers := driverStore.NewPostgres(db)
	return &storeSet{
		drivers:      drivers,
		artifacts:    artifactStore.NewPostgres(db),
		history:      historyStore.NewPostgres(db),
		runner:       tx.NewPostgres(db, cfg.StoreTimeout),
		driverReader: drivers,
	}, nil
}

func (a *app) healthChecks() []httpapi.HealthCheck {
	var checks []httpapi.HealthCheck
	if a.db != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "postgres", Check: a.db.PingContext})
	}
	if a.redis != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: a.redis.Health})
	}
	if a.nats != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !a.nats.Connected() {
				return errors.New("not connected")
			}
			return nil
		}})
	}
	return checks
}

func (a *app) close() {
	if a.nats != nil {
		a.nats.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *app) String() string {
	return fmt.Sprintf("app{postgres:%t redis:%t nats:%t}", a.db != nil, a.redis != nil, a.nats != nil)
}
