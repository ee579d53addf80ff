package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/config"
)

// DB wraps the sql.DB connection pool. The handle is constructed once at
// startup and injected everywhere it is needed; nothing in this module
// reaches for a global database client.
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Brand guides table
		CREATE TABLE IF NOT EXISTS brand_guides (
			id UUID PRIMARY KEY,
			voice_tone TEXT NOT NULL DEFAULT '',
			brand_pillars TEXT[] NOT NULL DEFAULT '{}',
			safety_guidelines TEXT NOT NULL DEFAULT '',
			legal_disclaimer TEXT NOT NULL DEFAULT '',
			forbidden_terms TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Campaigns table
		CREATE TABLE IF NOT EXISTS campaigns (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			daily_cost_cap NUMERIC(12, 4),
			kill_switch BOOLEAN NOT NULL DEFAULT false,
			brand_guide_id UUID REFERENCES brand_guides(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Figures table
		CREATE TABLE IF NOT EXISTS figures (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			rights_start TIMESTAMPTZ,
			rights_end TIMESTAMPTZ,
			allowed_countries TEXT[] NOT NULL DEFAULT '{}',
			allowed_regions TEXT[] NOT NULL DEFAULT '{}',
			policy_notes TEXT NOT NULL DEFAULT '',
			legal_notes TEXT NOT NULL DEFAULT '',
			brand_guide_id UUID REFERENCES brand_guides(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Generation limits (spend ledger) table
		CREATE TABLE IF NOT EXISTS generation_limits (
			campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			spend NUMERIC(12, 4) NOT NULL DEFAULT 0,
			jobs_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (campaign_id, day)
		);

		-- Decision audit trail table
		CREATE TABLE IF NOT EXISTS decision_logs (
			id UUID PRIMARY KEY,
			campaign_id UUID NOT NULL,
			figure_id UUID NOT NULL,
			brand_guide_id UUID,
			requester_id UUID,
			outcome VARCHAR(20) NOT NULL,
			reason VARCHAR(50),
			violating_terms TEXT[] NOT NULL DEFAULT '{}',
			prompt_hash VARCHAR(64) NOT NULL DEFAULT '',
			brief_preview TEXT NOT NULL DEFAULT '',
			estimated_cost NUMERIC(12, 4) NOT NULL DEFAULT 0,
			country VARCHAR(100) NOT NULL DEFAULT '',
			region VARCHAR(100) NOT NULL DEFAULT '',
			job_id VARCHAR(64),
			request_id VARCHAR(255) NOT NULL DEFAULT '',
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_campaigns_tenant_id ON campaigns(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_figures_tenant_id ON figures(tenant_id);

		CREATE INDEX IF NOT EXISTS idx_decision_logs_campaign_id ON decision_logs(campaign_id);
		CREATE INDEX IF NOT EXISTS idx_decision_logs_figure_id ON decision_logs(figure_id);
		CREATE INDEX IF NOT EXISTS idx_decision_logs_outcome ON decision_logs(outcome);
		CREATE INDEX IF NOT EXISTS idx_decision_logs_created_at ON decision_logs(created_at);
		CREATE INDEX IF NOT EXISTS idx_decision_logs_request_id ON decision_logs(request_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
