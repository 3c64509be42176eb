// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/abelzeko/water-quality/internal/entities"
)

// StationRepository defines the interface for station reading persistence operations
type StationRepository interface {
	SaveStationReadings(data []entities.StationReading) error
	GetLatestReading(station string) (*entities.StationReading, error)
	GetStations() ([]string, error)
	GetLastUpdateTime() (time.Time, error)
	PurgeOlderThan(cutoff time.Time) (int64, error)
	Close() error
}

// SQLiteStationRepository implements StationRepository using SQLite
type SQLiteStationRepository struct {
	db     *sql.DB
	logger logrus.FieldLogger
	DBPath string
}

// NewSQLiteStationRepository creates and initializes a new SQLite repository
func NewSQLiteStationRepository(dbPath string, logger logrus.FieldLogger) (*SQLiteStationRepository, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "stations.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Infof("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS station_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station TEXT NOT NULL,
		ph REAL NOT NULL,
		dissolved_oxygen REAL NOT NULL,
		bod REAL NOT NULL,
		total_coliform REAL NOT NULL,
		timestamp DATETIME NOT NULL,
		UNIQUE(station, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_station ON station_readings(station);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON station_readings(timestamp);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStationRepository{
		db:     db,
		logger: logger,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteStationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveStationReadings stores station readings, replacing a reading already
// recorded for the same station and timestamp
func (r *SQLiteStationRepository) SaveStationReadings(data []entities.StationReading) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO station_readings(station, ph, dissolved_oxygen, bod, total_coliform, timestamp)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(station, timestamp) DO UPDATE SET
		ph=excluded.ph,
		dissolved_oxygen=excluded.dissolved_oxygen,
		bod=excluded.bod,
		total_coliform=excluded.total_coliform
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sr := range data {
		_, err := stmt.Exec(
			sr.Station,
			sr.PH,
			sr.DissolvedOxygen,
			sr.BOD,
			sr.TotalColiform,
			sr.Timestamp.UTC(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert reading for %s: %w", sr.Station, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Infof("Successfully saved %d station readings", len(data))
	return nil
}

// GetLatestReading returns the most recent reading of a station, or nil if the station is unknown
func (r *SQLiteStationRepository) GetLatestReading(station string) (*entities.StationReading, error) {
	query := `
		SELECT id, station, ph, dissolved_oxygen, bod, total_coliform, timestamp
		FROM station_readings
		WHERE station = ?
		ORDER BY timestamp DESC
		LIMIT 1`

	var sr entities.StationReading
	err := r.db.QueryRow(query, station).Scan(
		&sr.ID,
		&sr.Station,
		&sr.PH,
		&sr.DissolvedOxygen,
		&sr.BOD,
		&sr.TotalColiform,
		&sr.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading for %s: %w", station, err)
	}
	return &sr, nil
}

// GetStations returns all station names in the database, sorted
func (r *SQLiteStationRepository) GetStations() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT station FROM station_readings ORDER BY station`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []string
	for rows.Next() {
		var station string
		if err := rows.Scan(&station); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stations = append(stations, station)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return stations, nil
}

// GetLastUpdateTime returns the most recent timestamp in the database, or the
// zero time when it is empty
func (r *SQLiteStationRepository) GetLastUpdateTime() (time.Time, error) {
	var timestampStr sql.NullString
	err := r.db.QueryRow("SELECT MAX(timestamp) FROM station_readings").Scan(&timestampStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last update time: %w", err)
	}
	if !timestampStr.Valid || timestampStr.String == "" {
		return time.Time{}, nil
	}

	// MAX() drops the column type, so the driver hands back the stored text
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if ts, err := time.ParseInLocation(layout, timestampStr.String, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s'", timestampStr.String)
}

// PurgeOlderThan deletes readings recorded before cutoff and returns how many were removed
func (r *SQLiteStationRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM station_readings WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged readings: %w", err)
	}
	r.logger.Infof("Purged %d station readings older than %s", n, cutoff.Format(time.RFC3339))
	return n, nil
}
