// Package config loads application settings from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Model struct {
		Path string
	}
	DB struct {
		Path string
	}
	Stations struct {
		SourceURL       string
		RefreshSchedule string
		Retention       time.Duration
		RequestTimeout  time.Duration
	}
	Logging struct {
		Dir        string
		Level      string
		Console    bool
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
}

// Load reads .env (if present) and the environment, applies defaults, and returns a Config.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path
func LoadFile(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	var errs []string

	cfg.Model.Path = envOr("WQ_MODEL_PATH", "models/water_quality_forest.json")
	cfg.DB.Path = envOr("WQ_DB_PATH", "data/stations.db")

	cfg.Stations.SourceURL = os.Getenv("WQ_STATIONS_URL")
	cfg.Stations.RefreshSchedule = envOr("WQ_REFRESH_SCHEDULE", "0 * * * *")
	cfg.Stations.Retention = durationEnv("WQ_RETENTION", 30*24*time.Hour, &errs)
	cfg.Stations.RequestTimeout = durationEnv("WQ_HTTP_TIMEOUT", 30*time.Second, &errs)

	cfg.Logging.Dir = envOr("LOG_DIR", "logs")
	cfg.Logging.Level = envOr("LOG_LEVEL", "info")
	cfg.Logging.Console = boolEnv("LOG_CONSOLE", false, &errs)
	cfg.Logging.MaxSizeMB = intEnv("LOG_MAX_SIZE_MB", 10, &errs)
	cfg.Logging.MaxBackups = intEnv("LOG_MAX_BACKUPS", 3, &errs)
	cfg.Logging.MaxAgeDays = intEnv("LOG_MAX_AGE_DAYS", 28, &errs)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %v", errs)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, key)
		return fallback
	}
	return d
}

func intEnv(key string, fallback int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, key)
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool, errs *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, key)
		return fallback
	}
	return b
}
