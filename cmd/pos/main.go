package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"menupos/internal/api"
	"menupos/internal/cache"
	"menupos/internal/config"
	"menupos/internal/domain"
	"menupos/internal/export"
	"menupos/internal/logging"
	"menupos/internal/metrics"
	"menupos/internal/netcheck"
	"menupos/internal/receipt"
	"menupos/internal/remote"
	"menupos/internal/service"
	"menupos/internal/session"
	"menupos/internal/store"
	"menupos/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	metrics.Register()

	queue, err := store.Open(cfg.Storage, logger)
	if err != nil {
		logger.Error().Err(err).Msg("order queue initialization failed")
		return err
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := remote.New(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second, logger)

	monitor := netcheck.New(cfg.Probe, logger)
	go monitor.Start(ctx)

	submitTimeout := time.Duration(cfg.Sync.SubmitTimeoutSeconds) * time.Second
	reconciler := worker.NewReconciler(queue, client, submitTimeout, logger)

	syncWorker := worker.NewSyncWorker(reconciler, monitor, time.Duration(cfg.Sync.IntervalSeconds)*time.Second, logger)
	go syncWorker.Start(ctx)

	sessions := session.NewFileStore(cfg.Session.Path, logger)
	menuCache := initMenuCache(ctx, cfg, logger)

	orderService := service.NewOrderService(queue, client, monitor, submitTimeout, logger)
	menuService := service.NewMenuService(client, menuCache, time.Duration(cfg.Cache.MenuTTLSeconds)*time.Second, logger)

	renderer, err := receipt.NewRenderer()
	if err != nil {
		logger.Error().Err(err).Msg("receipt renderer initialization failed")
		return err
	}
	exporter := export.NewExporter(cfg.Exports.Path, logger)

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg, logger)
	}

	if !cfg.Bridge.Enabled {
		logger.Info().Msg("bridge API disabled, running headless")
		<-ctx.Done()
		logger.Info().Msg("Shutdown complete.")
		return nil
	}

	bridge := api.NewServer(cfg.Bridge, orderService, menuService, reconciler, monitor, sessions, renderer, exporter, logger)
	go func() {
		if err := bridge.Start(); err != nil {
			logger.Error().Err(err).Msg("bridge API error")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bridge.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("bridge shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "pos-main").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	dirs := []string{
		filepath.Dir(cfg.Storage.Path),
		filepath.Dir(cfg.Session.Path),
		cfg.Exports.Path,
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Str("dir", dir).Msg("failed to create data directory")
			return err
		}
	}
	return nil
}

// initMenuCache builds the menu cache stack. With redis configured the
// cache is redis with an in-memory fallback; without it, memory only.
func initMenuCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.MenuCache {
	ttl := time.Duration(cfg.Cache.MenuTTLSeconds) * time.Second
	memory := cache.NewMemoryMenuCache()

	if cfg.Redis.Address == "" {
		return memory
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	return cache.NewFailoverMenuCache(cache.NewRedisMenuCache(redisClient, ttl), memory, logger)
}

func startMetricsServer(cfg *config.Config, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
	logger.Info().Str("addr", addr).Msg("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
