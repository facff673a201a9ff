package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/api"
	"mdm-registry-backend/internal/blob"
	"mdm-registry-backend/internal/db"
	"mdm-registry-backend/internal/logging"
	"mdm-registry-backend/internal/mw"
	"mdm-registry-backend/internal/notification"
	"mdm-registry-backend/internal/simulator"
	"mdm-registry-backend/internal/store"
	"mdm-registry-backend/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout  = 5 * time.Second
	limiterPruneTick = 5 * time.Minute
	limiterIdle      = 10 * time.Minute
)

func main() {
	bootLog := logging.Default()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLog.Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Info("configuration loaded", "path", configPath, "backend", cfg.Store.Backend)

	blobs, closeBlobs, err := openBlobStore(cfg)
	if err != nil {
		logger.Error("failed to open blob store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBlobs()

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Push notifications are optional; without VAPID keys the
	// subscription endpoints answer 503.
	var (
		webpushOptions *webpush.Options
		subscriptions  api.SubscriptionStore
		pool           *notification.WorkerPool
	)
	// Cached responses are derived from the registry document, so every
	// write flushes them whichever path it came through.
	responseCache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	storeOpts := []store.Option{
		store.WithKey(cfg.Store.Key),
		store.WithChangeHook(responseCache.Flush),
		store.WithLogger(logger.With("component", "store")),
		store.WithSeed(!cfg.Store.DisableSeed),
	}
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		subs := notification.NewSubscriptions(blobs, cfg.Store.SubscriptionsKey)
		subscriptions = subs
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, subs, webpushOptions, logger.With("component", "push"))
		pool.Start(ctx)
		storeOpts = append(storeOpts, store.WithAlertHook(pool.Notify))
	} else {
		logger.Warn("vapid keys not configured, push notifications disabled")
	}

	registry := store.New(blobs, storeOpts...)
	if err := checkRegistry(ctx, registry, cfg.Store.ReseedOnCorrupt, logger); err != nil {
		logger.Error("registry is unusable", "error", err)
		os.Exit(1)
	}
	logger.Info("registry store initialized", "key", cfg.Store.Key)

	telemetryLog := logger.With("component", "telemetry")
	telemetryOpts := []telemetry.Option{telemetry.WithLogger(telemetryLog)}
	influx, err := telemetry.ConnectInflux(cfg.InfluxDB, telemetryLog)
	switch {
	case err == nil:
		defer influx.Close()
		telemetryOpts = append(telemetryOpts, telemetry.WithSampleWriter(influx))
	case errors.Is(err, telemetry.ErrInfluxDisabled):
	default:
		// Samples are a side channel; the registry works without them.
		logger.Warn("influxdb unavailable, telemetry samples will not be stored", "error", err)
	}
	telemetrySvc := telemetry.NewService(registry, cfg.Telemetry, telemetryOpts...)

	if cfg.MQTT.Enabled {
		source, err := telemetry.ConnectMQTT(ctx, cfg.MQTT, telemetrySvc.HandleMessage, telemetryLog)
		if err != nil {
			logger.Error("failed to connect to mqtt broker", "error", err)
			os.Exit(1)
		}
		defer source.Close()
	}

	poller := telemetry.NewPoller(cfg.Telemetry.Poll, telemetrySvc, telemetryLog)
	go poller.Run(ctx)

	if cfg.Simulator.Enabled {
		simulator.New(registry, cfg.Simulator, logger.With("component", "simulator")).Start(ctx)
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go pruneLimiter(ctx, limiter, logger)

	handler := api.NewHandler(registry, telemetrySvc, subscriptions, webpushOptions, logger.With("component", "api"))
	router := api.NewRouter(handler, api.RouterDeps{
		RateLimiter: limiter,
		Cache:       responseCache,
		Logger:      logger.With("component", "http"),
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("http server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
		return
	}
	logger.Info("server gracefully stopped")
}

// openBlobStore connects the configured persistence backend. The returned
// func releases its connections.
func openBlobStore(cfg *config.Config) (blob.Store, func(), error) {
	switch cfg.Store.Backend {
	case "gorm":
		gormDB, err := db.Init(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return blob.NewGormStore(gormDB), closeFn, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return blob.NewRedisStore(client, cfg.Redis.Prefix), func() { _ = client.Close() }, nil
	default:
		return blob.NewMemoryStore(), func() {}, nil
	}
}

// checkRegistry loads the document once so a corrupt blob is reported at
// startup instead of on the first request.
func checkRegistry(ctx context.Context, registry *store.Store, reseed bool, logger *logging.Logger) error {
	_, err := registry.Load(ctx)
	if !errors.Is(err, store.ErrMalformedState) || !reseed {
		return err
	}
	logger.Warn("persisted registry is malformed, restoring demo data", "error", err)
	return registry.Reset(ctx, true)
}

func pruneLimiter(ctx context.Context, limiter *mw.IPRateLimiter, logger *logging.Logger) {
	ticker := time.NewTicker(limiterPruneTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Prune(limiterIdle); n > 0 {
				logger.Debug("pruned idle rate limiters", "count", n)
			}
		}
	}
}
