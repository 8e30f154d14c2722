package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the scheduler
// service.
type Config struct {
	Environment     string
	HTTPPort        int
	SQLiteDSN       string
	WarningCacheTTL time.Duration
	TimeZone        string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to sensible defaults; malformed values are
// collected and reported together.
func Load() (Config, error) {
	cfg := Config{
		Environment:     "production",
		HTTPPort:        8080,
		SQLiteDSN:       "file:campus-scheduler.db?_txlock=immediate",
		WarningCacheTTL: 30 * time.Second,
		TimeZone:        "UTC",
	}

	invalid := make([]string, 0, 2)

	if env := strings.TrimSpace(os.Getenv("CAMPUS_ENVIRONMENT")); env != "" {
		cfg.Environment = env
	}

	if portValue := strings.TrimSpace(os.Getenv("CAMPUS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CAMPUS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CAMPUS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CAMPUS_WARNING_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CAMPUS_WARNING_CACHE_TTL")
		} else {
			cfg.WarningCacheTTL = ttl
		}
	}

	if tz := strings.TrimSpace(os.Getenv("CAMPUS_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "CAMPUS_TIMEZONE")
		} else {
			cfg.TimeZone = tz
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured time zone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
