package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/abelzeko/water-quality/internal/config"
	"github.com/abelzeko/water-quality/internal/integration"
	"github.com/abelzeko/water-quality/internal/logging"
	"github.com/abelzeko/water-quality/internal/repository"
	"github.com/abelzeko/water-quality/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Dir:        cfg.Logging.Dir,
		File:       "scrapper.log",
		Level:      cfg.Logging.Level,
		Console:    true,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()
	logger.Info("Starting station readings scrapper...")

	if cfg.Stations.SourceURL == "" {
		logger.Fatal("WQ_STATIONS_URL environment variable is not set")
	}

	// Initialize repository
	repo, err := repository.NewSQLiteStationRepository(cfg.DB.Path, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	scraper := integration.NewStationScraper(cfg.Stations.SourceURL, cfg.Stations.RequestTimeout, logger)
	useCase := usecases.NewStationUseCase(repo, scraper, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresh := newRefreshJob(ctx, useCase, cfg, logger)

	// Run once immediately on startup
	refresh()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Stations.RefreshSchedule, refresh); err != nil {
		logger.Fatalf("Failed to set up cron job: %v", err)
	}
	c.Start()
	logger.Infof("Scrapper scheduled with %q", cfg.Stations.RefreshSchedule)

	<-ctx.Done()
	logger.Info("Shutting down scrapper...")
	<-c.Stop().Done()
}

// newRefreshJob returns the scheduled job: refresh the readings, then drop
// the ones past retention
func newRefreshJob(ctx context.Context, useCase *usecases.StationUseCase, cfg config.Config, logger logrus.FieldLogger) func() {
	return func() {
		if err := useCase.RefreshStationReadings(ctx); err != nil {
			logger.Errorf("Station readings refresh failed: %v", err)
		}
		if n, err := useCase.PurgeStale(cfg.Stations.Retention); err != nil {
			logger.Errorf("Purge failed: %v", err)
		} else if n > 0 {
			logger.Infof("Removed %d readings older than %s", n, cfg.Stations.Retention)
		}
	}
}
