package main

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"

	"roster-bot/internal/app/service"
	"roster-bot/internal/metrics"
	"roster-bot/internal/repository/api"
	"roster-bot/internal/repository/sqlite"
	"roster-bot/pkg/logging"
	"roster-bot/pkg/workerpool"
)

// app holds what every API-facing command shares.
type app struct {
	db      *sql.DB
	pool    *workerpool.WorkerPool
	client  *api.Client
	metrics *metrics.Metrics
	async   *service.AsyncService
}

func newApp(reg prometheus.Registerer) (*app, error) {
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	m := metrics.New(reg)
	opts := []api.Option{
		api.WithLogger(logging.Component(logger, "api")),
		api.WithMetrics(m),
	}
	if cfg.APITimeout > 0 {
		opts = append(opts, api.WithTimeout(cfg.APITimeout))
	}
	if cfg.APIPushURL != "" {
		opts = append(opts, api.WithPushURL(cfg.APIPushURL))
	}

	pool := workerpool.NewWorkerPool(cfg.Workers, cfg.QueueSize)
	return &app{
		db:      db,
		pool:    pool,
		client:  api.NewClient(cfg.APIBaseURL, opts...),
		metrics: m,
		async:   service.NewAsyncService(pool),
	}, nil
}

func (a *app) workspace(sessionKey string) *service.Workspace {
	return service.NewWorkspace(service.WorkspaceDeps{
		Backend:    a.client,
		Sessions:   sqlite.NewSqliteSessionRepo(a.db),
		SessionKey: sessionKey,
		Async:      a.async,
		Reconnect: service.ReconnectPolicy{
			Delay:       cfg.Reconnect.Delay,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			Multiplier:  cfg.Reconnect.Multiplier,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		Ramp:    service.Ramp{Tick: cfg.Import.Tick, Step: cfg.Import.Step, Cap: cfg.Import.Cap},
		Logger:  logger,
		Metrics: a.metrics,
	})
}

func (a *app) Close() {
	a.pool.Close()
	_ = a.db.Close()
}
