// Package regions provides the region lookup used to attribute accepted
// flights to administrative regions. The store keeps per-region bounding
// boxes in SQLite; exact polygon containment is a separate service and not
// implemented here.
package regions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Region describes the administrative region containing a point.
type Region struct {
	RegionCode      string `json:"region_code"`
	RegionName      string `json:"region_name"`
	FederalDistrict string `json:"federal_district,omitempty"`
	RegionType      string `json:"region_type,omitempty"`
}

// Lookup resolves a WGS84 point to a region. Implementations return
// (nil, nil) when no region contains the point.
type Lookup interface {
	Geocode(ctx context.Context, lon, lat float64) (*Region, error)
}

// DB is a SQLite-backed Lookup with an in-memory result cache.
type DB struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[string]*Region // keyed by coordinates rounded to 4 decimals
}

// Open opens or creates the region database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open region database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db, cache: make(map[string]*Region)}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS regions (
		region_code      TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		federal_district TEXT,
		region_type      TEXT,
		lon_min          REAL NOT NULL,
		lon_max          REAL NOT NULL,
		lat_min          REAL NOT NULL,
		lat_max          REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_regions_bbox ON regions(lon_min, lon_max, lat_min, lat_max);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts or replaces a region with its bounding box.
func (d *DB) Upsert(ctx context.Context, r Region, lonMin, lonMax, latMin, latMax float64) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO regions (region_code, name, federal_district, region_type, lon_min, lon_max, lat_min, lat_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region_code) DO UPDATE SET
			name = excluded.name,
			federal_district = excluded.federal_district,
			region_type = excluded.region_type,
			lon_min = excluded.lon_min,
			lon_max = excluded.lon_max,
			lat_min = excluded.lat_min,
			lat_max = excluded.lat_max`,
		r.RegionCode, r.RegionName, r.FederalDistrict, r.RegionType,
		lonMin, lonMax, latMin, latMax)
	if err != nil {
		return fmt.Errorf("upsert region %s: %w", r.RegionCode, err)
	}
	return nil
}

// Count returns the number of loaded regions.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM regions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count regions: %w", err)
	}
	return n, nil
}

// Geocode resolves the point to the smallest region box containing it.
// Results, including misses, are cached per rounded coordinate pair.
func (d *DB) Geocode(ctx context.Context, lon, lat float64) (*Region, error) {
	key := fmt.Sprintf("%.4f,%.4f", lon, lat)

	d.mu.Lock()
	if r, ok := d.cache[key]; ok {
		d.mu.Unlock()
		return r, nil
	}
	d.mu.Unlock()

	var r Region
	err := d.db.QueryRowContext(ctx, `
		SELECT region_code, name, COALESCE(federal_district, ''), COALESCE(region_type, '')
		FROM regions
		WHERE ? BETWEEN lon_min AND lon_max
		  AND ? BETWEEN lat_min AND lat_max
		ORDER BY (lon_max - lon_min) * (lat_max - lat_min) ASC
		LIMIT 1`,
		lon, lat).Scan(&r.RegionCode, &r.RegionName, &r.FederalDistrict, &r.RegionType)

	var result *Region
	switch {
	case err == nil:
		result = &r
	case errors.Is(err, sql.ErrNoRows):
		result = nil
	default:
		return nil, fmt.Errorf("geocode %.4f,%.4f: %w", lon, lat, err)
	}

	d.mu.Lock()
	d.cache[key] = result
	d.mu.Unlock()
	return result, nil
}
