package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"shuttle-tracker/internal/api"
	"shuttle-tracker/internal/config"
	"shuttle-tracker/internal/dashboard"
	"shuttle-tracker/internal/db"
	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/metrics"
	"shuttle-tracker/internal/publisher"
	"shuttle-tracker/internal/session"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		logger.InitLogger(logger.DefaultLoggerConfig())
		logger.Fatal("config error", "error", err)
	}

	logCfg := logger.DefaultLoggerConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	logCfg.Console = cfg.LogConsole
	logCfg.File = cfg.LogFile != ""
	logCfg.FilePath = cfg.LogFile
	logger.InitLogger(logCfg)

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		logger.Fatal("session store error", "store", cfg.SessionStore, "error", err)
	}
	defer closeStore()

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.RefreshInterval, cfg.NotifyStagger, cfg.NotifyLifetime)
		metricsSrv = mcol.Serve(cfg.MetricsAddr)
	}

	hostCfg := dashboard.Config{
		RefreshInterval: cfg.RefreshInterval,
		NotifyStagger:   cfg.NotifyStagger,
		NotifyLifetime:  cfg.NotifyLifetime,
		MapsAPIKey:      cfg.MapsAPIKey,
		MapCenter:       cfg.MapCenter,
		MapZoom:         cfg.MapZoom,
		Metrics:         mcol,
		Now:             func() time.Time { return time.Now().In(cfg.Location) },
	}

	// Position publishing is optional
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			logger.Fatal("nats error", "error", err)
		}
		defer pub.Close()
		hostCfg.Publisher = pub
		logger.Info("publishing positions", "nats", cfg.NATSURL)
	}

	sess := session.New(store,
		session.WithLoginDelay(cfg.LoginDelay),
		session.WithMetrics(mcol),
	)
	sess.Init(ctx)

	host := dashboard.NewHost(sess, hostCfg)
	host.Restore(ctx)
	defer host.Close()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(host, api.Options{CORSOrigins: cfg.CORSOrigins}),
	}
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Block until context cancelled
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	logger.Info("shutdown complete")
}

// openSessionStore builds the configured slot backend and its cleanup.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		return session.NewMemoryStore(), noop, nil

	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("session slot in redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return session.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil

	case config.SessionStorePostgres:
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		if err := db.Ping(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		store, err := session.NewPostgresStore(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		if dsn, err := db.Redacted(cfg.DatabaseURL); err == nil {
			logger.Info("session slot in postgres", "dsn", dsn)
		}
		return store, func() { _ = sqlDB.Close() }, nil

	default:
		store, err := session.NewFileStore(cfg.SessionDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session slot on disk", "dir", cfg.SessionDir)
		return store, noop, nil
	}
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
