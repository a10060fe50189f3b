// Package app wires the client together: local storage, remote backend,
// connectivity watcher and the sync engine, plus the services the UI talks to.
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avolkovs/focuskeeper/internal/client/cache"
	"github.com/avolkovs/focuskeeper/internal/client/config"
	"github.com/avolkovs/focuskeeper/internal/client/netwatch"
	"github.com/avolkovs/focuskeeper/internal/client/outbox"
	"github.com/avolkovs/focuskeeper/internal/client/remote"
	"github.com/avolkovs/focuskeeper/internal/client/services"
	"github.com/avolkovs/focuskeeper/internal/client/storage"
	"github.com/avolkovs/focuskeeper/internal/client/syncer"
	"github.com/avolkovs/focuskeeper/internal/logging"
	"github.com/avolkovs/focuskeeper/internal/metrics"
)

// App owns the client's long-lived components and their shutdown.
type App struct {
	cfg       *config.Config
	log       logging.Logger
	db        *sql.DB
	backend   remote.Backend
	watcher   *netwatch.Watcher
	engine    *syncer.Engine
	collector *metrics.Collector
	registry  *prometheus.Registry

	Profiles services.ProfileService
	Friends  services.FriendService
	Timer    services.TimerService
	Version  services.VersionService
}

// NewApp opens local storage, runs migrations and assembles the component
// graph. Nothing is started yet; Run does that.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	store := cache.NewSQLiteStore(db, log)
	ob := outbox.NewSQLiteOutbox(db)
	backend := remote.NewHTTPBackend(cfg.ServerEndpointURL)

	engine := syncer.NewEngine(ob, backend, store, log, collector)
	watcher := netwatch.NewWatcher(backend, cfg.OnlineCheckInterval, cfg.ProbeTimeout, log)

	a := &App{
		cfg:       cfg,
		log:       log,
		db:        db,
		backend:   backend,
		watcher:   watcher,
		engine:    engine,
		collector: collector,
		registry:  registry,

		Profiles: services.NewProfileService(store, ob, backend, log, collector),
		Friends:  services.NewFriendService(store, ob, backend, log, collector),
		Timer:    services.NewTimerService(store, ob, backend, log, collector),
		Version:  services.NewVersionService(store, backend, log),
	}

	// Every recovered connection triggers a drain; the drain itself is moved
	// off the watcher goroutine so probing never blocks on replay.
	watcher.OnOnline(func(ctx context.Context) { go engine.Drain(ctx) })
	watcher.OnChange(collector.SetOnline)

	return a, nil
}

// Online reports the last observed backend connectivity.
func (a *App) Online() bool {
	return a.watcher.Online()
}

// Sync triggers a drain pass outside the regular connectivity-driven ones.
func (a *App) Sync(ctx context.Context) {
	a.engine.Drain(ctx)
}

// Run starts the connectivity watcher and the optional metrics endpoint,
// fires the startup probe-and-drain, and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.log.Info(ctx, "client starting",
		"server", a.cfg.ServerEndpointURL, "db", a.cfg.DatabasePath)

	var metricsSrv *http.Server
	if a.cfg.MetricsAddr != "" {
		metricsSrv = &http.Server{Addr: a.cfg.MetricsAddr, Handler: metrics.Handler(a.registry)}
		go func() {
			a.log.Info(ctx, "metrics endpoint listening", "addr", a.cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error(ctx, "metrics endpoint failed", "error", err)
			}
		}()
	}

	go a.watcher.Run(ctx)

	// Startup is a drain trigger: if the first probe finds the backend, the
	// OnOnline transition replays whatever the previous run left queued.
	a.watcher.Probe(ctx)

	<-ctx.Done()

	a.log.Info(context.Background(), "client stopping")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}
	return a.db.Close()
}
