package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	httpadapter "github.com/couchcryptid/complaint-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/complaint-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/complaint-forecast-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/complaint-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/complaint-forecast-service/internal/config"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/observability"
	"github.com/couchcryptid/complaint-forecast-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

// readiness is ready when every checker is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate record store", "error", err)
		os.Exit(1)
	}

	// Temperature lookup (feature-flagged via WEATHER_ENABLED).
	var temperatures domain.TemperatureSource
	if cfg.WeatherEnabled {
		client := openmeteo.NewClient(cfg, metrics, logger)
		temperatures = openmeteo.NewCachedSource(client, cfg.WeatherCacheSize, metrics)
		logger.Info("open-meteo lookup enabled", "cache_size", cfg.WeatherCacheSize, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("open-meteo lookup disabled, forecasts require temp")
	}

	opts := []pipeline.Option{pipeline.WithVersioner(store), pipeline.WithClock(clock)}
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
	}

	service := pipeline.NewService(store, logger, metrics, opts...)
	if _, err := service.Refresh(ctx); err != nil {
		// The service still starts; readiness reports the missing model.
		logger.Warn("initial training failed", "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Service:      service,
		Complaints:   store,
		Temperatures: temperatures,
		Ready:        readiness{store, service},
		Clock:        clock,
	}, logger)

	var wg sync.WaitGroup

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.RefreshInterval > 0 {
		watcher := pipeline.NewWatcher(service, store, clock, cfg.RefreshInterval, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logger.Error("dataset watcher error", "error", err)
			}
		}()
	}

	if reader != nil {
		ingestor := pipeline.NewIngestor(reader, store, logger, metrics, cfg.BatchSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ingestor.Run(ctx); err != nil {
				logger.Error("ingest error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
