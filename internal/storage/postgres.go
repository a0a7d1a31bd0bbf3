package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram_parser/internal/batch"
	"telegram_parser/internal/regions"
	"telegram_parser/internal/telegram"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for flight persistence.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS flights (
		id                      BIGSERIAL PRIMARY KEY,
		flight_id               TEXT NOT NULL,
		message_type            TEXT NOT NULL,
		aircraft_type           TEXT NOT NULL,
		aircraft_registration   TEXT,
		departure_time          TIMESTAMPTZ NOT NULL,
		arrival_time            TIMESTAMPTZ,
		duration_minutes        INTEGER,
		departure_lon           DOUBLE PRECISION NOT NULL,
		departure_lat           DOUBLE PRECISION NOT NULL,
		arrival_lon             DOUBLE PRECISION,
		arrival_lat             DOUBLE PRECISION,
		departure_aerodrome     TEXT,
		arrival_aerodrome       TEXT,
		altitude_m              INTEGER,
		distance_km             DOUBLE PRECISION,
		average_speed_kmh       DOUBLE PRECISION,
		region_departure        TEXT,
		region_departure_code   TEXT,
		region_arrival          TEXT,
		region_arrival_code     TEXT,
		operator_info           TEXT,
		route                   TEXT,
		remarks                 TEXT,
		raw_message             TEXT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (flight_id, departure_time, departure_lon, departure_lat)
	);

	CREATE INDEX IF NOT EXISTS idx_flights_flight_id ON flights(flight_id);
	CREATE INDEX IF NOT EXISTS idx_flights_departure_time ON flights(departure_time);
	CREATE INDEX IF NOT EXISTS idx_flights_aircraft_type ON flights(aircraft_type);
	CREATE INDEX IF NOT EXISTS idx_flights_region_departure ON flights(region_departure_code);

	CREATE TABLE IF NOT EXISTS batches (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		original_count      INTEGER NOT NULL,
		valid_count         INTEGER NOT NULL,
		invalid_count       INTEGER NOT NULL,
		warning_count       INTEGER NOT NULL,
		duplicates_removed  INTEGER NOT NULL,
		accepted_count      INTEGER NOT NULL,
		saved_count         INTEGER NOT NULL,
		interrupted         BOOLEAN NOT NULL DEFAULT FALSE,
		processed_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_batches_processed_at ON batches(processed_at);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create postgres schema: %w", err)
	}
	return nil
}

// SaveFlight persists one accepted record. Re-submissions of the same flight
// (identifier + departure time + departure point) across batches are ignored
// via the unique constraint; the return value reports whether a row was
// actually inserted.
func (d *PostgresDB) SaveFlight(ctx context.Context, rec *telegram.Record, depRegion, arrRegion *regions.Region) (bool, error) {
	if rec.DepartureTime == nil || rec.DepartureCoordinates == nil {
		return false, fmt.Errorf("record %s lacks departure data", rec.FlightID)
	}

	var arrLon, arrLat *float64
	if rec.ArrivalCoordinates != nil {
		arrLon = &rec.ArrivalCoordinates.Lon
		arrLat = &rec.ArrivalCoordinates.Lat
	}

	var depRegionName, depRegionCode, arrRegionName, arrRegionCode *string
	if depRegion != nil {
		depRegionName = &depRegion.RegionName
		depRegionCode = &depRegion.RegionCode
	}
	if arrRegion != nil {
		arrRegionName = &arrRegion.RegionName
		arrRegionCode = &arrRegion.RegionCode
	}

	tag, err := d.pool.Exec(ctx, `
		INSERT INTO flights (
			flight_id, message_type, aircraft_type, aircraft_registration,
			departure_time, arrival_time, duration_minutes,
			departure_lon, departure_lat, arrival_lon, arrival_lat,
			departure_aerodrome, arrival_aerodrome,
			altitude_m, distance_km, average_speed_kmh,
			region_departure, region_departure_code, region_arrival, region_arrival_code,
			operator_info, route, remarks, raw_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		ON CONFLICT (flight_id, departure_time, departure_lon, departure_lat) DO NOTHING`,
		rec.FlightID, string(rec.MessageType), rec.AircraftType, nilIfEmpty(rec.Registration),
		*rec.DepartureTime, rec.ArrivalTime, rec.DurationMinutes,
		rec.DepartureCoordinates.Lon, rec.DepartureCoordinates.Lat, arrLon, arrLat,
		nilIfEmpty(rec.DepartureAerodrome), nilIfEmpty(rec.ArrivalAerodrome),
		rec.Altitude, rec.DistanceKm, rec.AverageSpeedKmh,
		depRegionName, depRegionCode, arrRegionName, arrRegionCode,
		nilIfEmpty(rec.Operator), nilIfEmpty(rec.Route), nilIfEmpty(rec.Remarks), rec.RawMessage)
	if err != nil {
		return false, fmt.Errorf("save flight %s: %w", rec.FlightID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveBatch records the processing statistics of one batch.
func (d *PostgresDB) SaveBatch(ctx context.Context, id, name string, stats *batch.Stats, savedCount int) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO batches (
			id, name, original_count, valid_count, invalid_count,
			warning_count, duplicates_removed, accepted_count, saved_count, interrupted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		id, name, stats.OriginalCount, stats.ValidCount, stats.InvalidCount,
		stats.WarningCount, stats.DuplicatesRemoved, stats.AcceptedCount, savedCount, stats.Interrupted)
	if err != nil {
		return fmt.Errorf("save batch %s: %w", id, err)
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
