package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abelzeko/water-quality/internal/entities"
	"github.com/abelzeko/water-quality/internal/repository"
)

// StationFetcher retrieves the current readings of all monitoring stations
type StationFetcher interface {
	FetchStationReadings(ctx context.Context) ([]entities.StationReading, error)
}

// StationUseCase handles business logic related to station readings used to prefill the form
type StationUseCase struct {
	repo    repository.StationRepository
	fetcher StationFetcher
	logger  logrus.FieldLogger
}

// NewStationUseCase creates a new station use case. fetcher may be nil for read-only use.
func NewStationUseCase(repo repository.StationRepository, fetcher StationFetcher, logger logrus.FieldLogger) *StationUseCase {
	return &StationUseCase{
		repo:    repo,
		fetcher: fetcher,
		logger:  logger,
	}
}

// RefreshStationReadings fetches fresh readings and updates the repository
func (uc *StationUseCase) RefreshStationReadings(ctx context.Context) error {
	if uc.fetcher == nil {
		return fmt.Errorf("no station source configured")
	}
	uc.logger.Infof("Starting station readings refresh...")

	data, err := uc.fetcher.FetchStationReadings(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch station readings: %w", err)
	}
	uc.logger.Infof("Successfully fetched %d station readings", len(data))

	if len(data) == 0 {
		uc.logger.Warnf("Station source returned no readings, keeping existing data")
		return nil
	}

	if err := uc.repo.SaveStationReadings(data); err != nil {
		return fmt.Errorf("failed to save readings to repository: %w", err)
	}
	return nil
}

// GetAvailableStations returns a list of all station names
func (uc *StationUseCase) GetAvailableStations() ([]string, error) {
	uc.logger.Debugf("Retrieving list of available stations")
	return uc.repo.GetStations()
}

// GetStationReading retrieves the latest reading of a station, or nil if it is unknown
func (uc *StationUseCase) GetStationReading(station string) (*entities.StationReading, error) {
	uc.logger.Debugf("Retrieving latest reading for station: %s", station)
	return uc.repo.GetLatestReading(station)
}

// GetLastUpdateTime returns when the newest stored reading was fetched
func (uc *StationUseCase) GetLastUpdateTime() (time.Time, error) {
	return uc.repo.GetLastUpdateTime()
}

// PurgeStale removes readings older than the retention window
func (uc *StationUseCase) PurgeStale(retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return uc.repo.PurgeOlderThan(time.Now().Add(-retention))
}
