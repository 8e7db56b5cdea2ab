package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewDB opens a PostgreSQL connection pool and verifies it.
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// InitSchema creates the tables if they do not exist. Statuses and plan
// entry states are stored as text; the closed sets are enforced in code.
func InitSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS agencies (
			id INTEGER PRIMARY KEY,
			agency_name TEXT NOT NULL,
			jurisdiction TEXT NOT NULL,
			average_response_days INTEGER NOT NULL DEFAULT 0,
			per_page_rate DOUBLE PRECISION,
			free_page_allowance INTEGER,
			success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			stagger_seconds BIGINT NOT NULL DEFAULT 0,
			organization_id INTEGER NOT NULL DEFAULT 0,
			embargo BOOLEAN NOT NULL DEFAULT FALSE,
			request_fee_waiver BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY,
			campaign_id TEXT REFERENCES campaigns(id),
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			agency_id INTEGER NOT NULL,
			organization_id INTEGER,
			jurisdiction TEXT NOT NULL,
			filed_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			fee DOUBLE PRECISION,
			embargo BOOLEAN NOT NULL DEFAULT FALSE,
			permanent_embargo BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS request_events (
			id SERIAL PRIMARY KEY,
			request_id INTEGER NOT NULL REFERENCES requests(id),
			status TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			UNIQUE (request_id, status, occurred_at)
		)`,
		`CREATE TABLE IF NOT EXISTS denial_reasons (
			id SERIAL PRIMARY KEY,
			request_id INTEGER NOT NULL REFERENCES requests(id),
			exemption_code TEXT NOT NULL,
			justification TEXT NOT NULL DEFAULT '',
			UNIQUE (request_id, exemption_code)
		)`,
		`CREATE TABLE IF NOT EXISTS plan_entries (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL REFERENCES campaigns(id),
			agency_id INTEGER NOT NULL,
			scheduled_at TIMESTAMPTZ NOT NULL,
			state TEXT NOT NULL,
			idempotency_key TEXT NOT NULL UNIQUE,
			request_id INTEGER,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_entries_ready
			ON plan_entries (state, scheduled_at)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id SERIAL PRIMARY KEY,
			metric_name TEXT NOT NULL,
			metric_value TEXT NOT NULL,
			calculated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
