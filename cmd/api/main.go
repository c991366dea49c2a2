package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"trafficcast/internal/adapter/repo"
	"trafficcast/internal/config"
	"trafficcast/internal/domain"
	"trafficcast/internal/http/handlers"
	httpapi "trafficcast/internal/http/httpapi"
	"trafficcast/internal/infra"
	"trafficcast/internal/metrics"
	"trafficcast/internal/pipeline"
	"trafficcast/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	opts, err := config.LoadModel(cfg.ForecastConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load forecast config")
	}

	ctx := context.Background()
	runs, closeRuns, err := openRunStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("run_store", cfg.RunStore).Msg("failed to open run store")
	}
	defer closeRuns()

	artifacts, err := storage.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("artifact_store", cfg.ArtifactStore).Msg("failed to open artifact store")
	}

	m := metrics.New()
	analyzer := pipeline.NewAnalyzer(opts, pipeline.Deps{
		Runs:      runs,
		Artifacts: artifacts,
		Metrics:   m,
		Logger:    logger,
	})
	app := handlers.NewApp(analyzer, runs, logger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, cfg, m.Handler())
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("order", opts.Order.String()).
			Int("horizon", opts.Horizon).
			Str("run_store", cfg.RunStore).
			Str("artifact_store", cfg.ArtifactStore).
			Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// openRunStore returns the configured run history, or nil when disabled.
func openRunStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.RunRepository, func(), error) {
	switch cfg.RunStore {
	case infra.RunStorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, func() {}, err
		}
		return repo.NewRunRepository(infra.NewSQLRunner(pool, logger)), pool.Close, nil
	case infra.RunStoreSQLite:
		db, err := infra.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return repo.NewRunRepositorySQLite(db), func() { _ = db.Close() }, nil
	case infra.RunStoreNone:
		return nil, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown run store %q", cfg.RunStore)
	}
}
