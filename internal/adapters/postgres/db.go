package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Pool limits for the journal. Appends happen once per publication, each
// bounded by the observer timeout, so a handful of connections suffices.
const (
	journalMaxConns        = 4
	journalMinConns        = 1
	journalMaxConnIdleTime = 5 * time.Minute
	applicationName        = "noticeboard"
)

// DB holds the connection pool.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewDB creates and tests a new database connection.
func NewDB(ctx context.Context, connString string, baseLogger *zerolog.Logger) (*DB, error) {
	log := baseLogger.With().Str("component", "postgres").Logger()

	poolConfig, err := journalPoolConfig(connString)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse DB connection string")
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create connection pool")
		return nil, err
	}

	// Ping the database to ensure a valid connection
	if err := pool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to ping database")
		pool.Close() // Clean up
		return nil, err
	}

	log.Info().
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Str("database", poolConfig.ConnConfig.Database).
		Msg("Database connection pool established")
	return &DB{pool: pool, log: log}, nil
}

// journalPoolConfig parses connString and applies the journal's pool limits.
// Limits given in the connection string (pool_max_conns and friends) win over
// the defaults, and application_name is set only when absent.
func journalPoolConfig(connString string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(connString, "pool_max_conns") {
		cfg.MaxConns = journalMaxConns
	}
	if !strings.Contains(connString, "pool_min_conns") {
		cfg.MinConns = journalMinConns
	}
	if !strings.Contains(connString, "pool_max_conn_idle_time") {
		cfg.MaxConnIdleTime = journalMaxConnIdleTime
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return cfg, nil
}

// Close gracefully closes the connection pool.
func (db *DB) Close() {
	db.log.Info().Msg("Closing database connection pool")
	db.pool.Close()
}
