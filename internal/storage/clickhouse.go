// Package storage provides persistent storage for processed telegrams:
// PostgreSQL for accepted flights and batch statistics, ClickHouse for the
// raw telegram audit archive.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for the telegram archive.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS telegrams (
		batch_id        LowCardinality(String),
		line_no         UInt32,
		raw_text        String,
		accepted        UInt8,
		processed_at    DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(processed_at)
	ORDER BY (batch_id, line_no)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create clickhouse schema: %w", err)
	}

	// Add bloom filter index for full-text search (ignore error if already exists).
	_ = d.conn.Exec(ctx, `ALTER TABLE telegrams ADD INDEX IF NOT EXISTS idx_raw_text_bloom raw_text TYPE tokenbf_v1(32768, 3, 0) GRANULARITY 1`)

	return nil
}

// ArchiveTelegrams stores every raw line of a batch with its acceptance flag.
func (d *ClickHouseDB) ArchiveTelegrams(ctx context.Context, batchID string, lines []string, accepted []bool) error {
	if len(lines) == 0 {
		return nil
	}

	b, err := d.conn.PrepareBatch(ctx, "INSERT INTO telegrams (batch_id, line_no, raw_text, accepted, processed_at)")
	if err != nil {
		return fmt.Errorf("prepare archive batch: %w", err)
	}

	now := time.Now()
	for i, line := range lines {
		var flag uint8
		if i < len(accepted) && accepted[i] {
			flag = 1
		}
		if err := b.Append(batchID, uint32(i), line, flag, now); err != nil {
			return fmt.Errorf("append telegram %d: %w", i, err)
		}
	}

	if err := b.Send(); err != nil {
		return fmt.Errorf("send archive batch: %w", err)
	}
	return nil
}
