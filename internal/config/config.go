// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"telegram_parser/internal/storage"
	"telegram_parser/internal/validate"
)

// Config holds all configuration for the ingest service.
type Config struct {
	// API server
	APIPort     int
	AuthEnabled bool
	APIKeys     []string

	// Databases
	Storage storage.Config

	// Regions lookup (SQLite). Empty path disables geocoding.
	RegionsDBPath string

	// NATS feed. Empty URL disables the subscriber.
	NATSURL     string
	NATSSubject string
	NATSQueue   string

	// Pipeline
	Workers        int
	Limits         validate.Limits
	ArchiveEnabled bool
}

// Load reads configuration from the environment, preloading .env if present.
func Load() *Config {
	godotenv.Load()

	st := storage.DefaultConfig()
	st.Postgres.Host = getEnv("PG_HOST", st.Postgres.Host)
	st.Postgres.Port = getEnvAsInt("PG_PORT", st.Postgres.Port)
	st.Postgres.User = getEnv("PG_USER", st.Postgres.User)
	st.Postgres.Password = getEnv("PG_PASSWORD", st.Postgres.Password)
	st.Postgres.Database = getEnv("PG_DATABASE", st.Postgres.Database)
	st.ClickHouse.Host = getEnv("CH_HOST", st.ClickHouse.Host)
	st.ClickHouse.Port = getEnvAsInt("CH_PORT", st.ClickHouse.Port)
	st.ClickHouse.User = getEnv("CH_USER", st.ClickHouse.User)
	st.ClickHouse.Password = getEnv("CH_PASSWORD", st.ClickHouse.Password)
	st.ClickHouse.Database = getEnv("CH_DATABASE", st.ClickHouse.Database)

	limits := validate.DefaultLimits()
	limits.MaxFlightDuration = time.Duration(getEnvAsInt("MAX_FLIGHT_DURATION_HOURS", 24)) * time.Hour
	limits.MinFlightDuration = time.Duration(getEnvAsInt("MIN_FLIGHT_DURATION_MINUTES", 1)) * time.Minute
	limits.MaxAltitudeMeters = getEnvAsInt("MAX_ALTITUDE_METERS", limits.MaxAltitudeMeters)
	limits.MaxSpeedKmh = getEnvAsFloat("MAX_SPEED_KMH", limits.MaxSpeedKmh)

	return &Config{
		APIPort:     getEnvAsInt("API_PORT", 8080),
		AuthEnabled: getEnvAsBool("AUTH_ENABLED", false),
		APIKeys:     getEnvAsList("API_KEYS"),

		Storage:       st,
		RegionsDBPath: getEnv("REGIONS_DB_PATH", ""),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "telegrams.batches"),
		NATSQueue:   getEnv("NATS_QUEUE", "telegram_parser"),

		Workers:        getEnvAsInt("WORKERS", 0),
		Limits:         limits,
		ArchiveEnabled: getEnvAsBool("ARCHIVE_ENABLED", true),
	}
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
