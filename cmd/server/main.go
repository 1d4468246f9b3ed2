package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/airsight-labs/airsight/internal/adapter/http"
	"github.com/airsight-labs/airsight/internal/archive"
	"github.com/airsight-labs/airsight/internal/config"
	"github.com/airsight-labs/airsight/internal/dataset"
	"github.com/airsight-labs/airsight/internal/domain"
	"github.com/airsight-labs/airsight/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := archive.NewClient(cfg.ArchiveFilePrefix, cfg.FetchTimeout, logger)
	locator := archive.NewLocator(client, cfg.DefaultRoot(), cfg.CandidateRoots(), logger, metrics)
	service := dataset.New(client, locator, cfg.EarliestDate, logger, metrics)
	resolver := domain.NewResolver(cfg.VariableAliases)

	srv := httpadapter.NewServer(cfg.HTTPAddr, service, resolver, cfg.MaxSpatialPoints, cfg.MaxSeriesPoints, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the cache and readiness with the most recent archive day.
	go func() {
		date := service.DefaultDate()
		records := service.LoadDay(ctx, date)
		logger.Info("warmed most recent day", "date", date, "records", len(records))
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
