// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"facility-ml/internal/common/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	connMaxLifetime = 5 * time.Minute
	retryDelay      = 200 * time.Millisecond
)

// PostgresClient is the pool shared by one training or extract run.
type PostgresClient struct {
	DB *sqlx.DB
}

// NewPostgres opens the pool without contacting the server.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an existing *sql.DB, e.g. a sqlmock connection.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: sqlx.NewDb(db, "postgres")}
}

// Connect opens the pool and pings it, trying up to attempts times while the
// server is still starting. The pool is closed again when every ping fails.
func Connect(ctx context.Context, cfg config.PostgresConfig, attempts int) (*PostgresClient, error) {
	pg, err := NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; ; i++ {
		err = pg.Ping(ctx)
		if err == nil {
			return pg, nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			pg.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	pg.Close()
	return nil, fmt.Errorf("postgres %s:%d unreachable after %d attempts: %w", cfg.Host, cfg.Port, attempts, err)
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// GetDB returns the sqlx handle.
func (c *PostgresClient) GetDB() *sqlx.DB {
	return c.DB
}
