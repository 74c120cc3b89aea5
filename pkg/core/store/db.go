// Package store persists normalized records and derived ratio sets to
// Postgres through a pgx connection pool configured from DATABASE_URL.
// The core packages never import it; the pipeline wires it in when a
// database is configured.
package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// The pipeline writes entities sequentially; a small pool suffices.
	defaultMaxConns = 8
	// A bad DSN should fail the run fast instead of hanging it.
	defaultConnectTimeout = 10 * time.Second
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared connection pool from the DATABASE_URL
// environment variable. Only the first call connects; later calls return
// the first call's result state.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, cfgErr := poolConfig(dbURL)
		if cfgErr != nil {
			err = cfgErr
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// poolConfig parses the connection string and applies the batch-pipeline
// defaults for pool size and connect timeout. Values set explicitly in the
// DSN win over the defaults.
func poolConfig(dbURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if !strings.Contains(dbURL, "pool_max_conns") {
		config.MaxConns = defaultMaxConns
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		config.ConnConfig.ConnectTimeout = defaultConnectTimeout
	}
	return config, nil
}

// GetPool returns the shared connection pool, or nil before InitDB.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close releases the shared connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
