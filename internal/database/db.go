package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/fleetops/trailer-swap-api/internal/config"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations creates the schema. One fixed schema version per deployment;
// nothing probes table structure at runtime.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trailers (
		trailer_number VARCHAR(50) PRIMARY KEY,
		category VARCHAR(10) NOT NULL CHECK (category IN ('new', 'old')),
		current_location TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'available',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_trailers_status ON trailers(status);

	CREATE TABLE IF NOT EXISTS locations (
		id VARCHAR(50) PRIMARY KEY,
		title VARCHAR(100) UNIQUE NOT NULL,
		street_address TEXT NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		state VARCHAR(50) NOT NULL DEFAULT '',
		zip_code VARCHAR(20) NOT NULL DEFAULT '',
		is_base BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS drivers (
		id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) UNIQUE NOT NULL,
		phone VARCHAR(30) NOT NULL DEFAULT '',
		email VARCHAR(100) NOT NULL DEFAULT '',
		is_contractor BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS moves (
		id VARCHAR(50) PRIMARY KEY,
		new_trailer VARCHAR(50) NOT NULL REFERENCES trailers(trailer_number),
		old_trailer VARCHAR(50) NOT NULL REFERENCES trailers(trailer_number),
		driver_id VARCHAR(50) REFERENCES drivers(id),
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		one_way_miles DOUBLE PRECISION,
		gross_pay DOUBLE PRECISION,
		factoring_fee DOUBLE PRECISION,
		net_pay DOUBLE PRECISION,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		pod_doc_ref TEXT,
		pod_uploaded_at TIMESTAMP,
		status VARCHAR(30) NOT NULL DEFAULT 'created',
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_moves_status ON moves(status);
	CREATE INDEX IF NOT EXISTS idx_moves_driver ON moves(driver_id);

	-- Backstop for the one-open-move-per-trailer invariant. The service
	-- enforces it through the trailer status claim; these indexes make the
	-- database reject a violation that slips past.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_moves_open_new_trailer
		ON moves(new_trailer) WHERE status NOT IN ('completed', 'cancelled');
	CREATE UNIQUE INDEX IF NOT EXISTS idx_moves_open_old_trailer
		ON moves(old_trailer) WHERE status NOT IN ('completed', 'cancelled');

	CREATE TABLE IF NOT EXISTS mileage_cache (
		from_location TEXT NOT NULL,
		to_location TEXT NOT NULL,
		miles DOUBLE PRECISION NOT NULL,
		source VARCHAR(20) NOT NULL DEFAULT 'calculated',
		cached_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (from_location, to_location)
	);

	-- Outbox table for message publishing
	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);

	CREATE TABLE IF NOT EXISTS dead_letter_messages (
		id SERIAL PRIMARY KEY,
		original_message_id BIGINT NOT NULL,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		retry_count INT NOT NULL DEFAULT 0,
		last_retry_at TIMESTAMP,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dead_letter_status ON dead_letter_messages(status);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
