// Package postgres opens the lib/pq pool behind the postgres evaluation store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
	// PingAttempts and PingInterval bound how long Open waits for a
	// server that is still starting.
	PingAttempts int
	PingInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLife <= 0 {
		c.ConnMaxLife = 30 * time.Minute
	}
	if c.PingAttempts <= 0 {
		c.PingAttempts = 5
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 2 * time.Second
	}
	return c
}

type Client struct {
	db *sql.DB
}

// Open validates the DSN, opens the pool and pings until the server answers.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	cfg = cfg.withDefaults()

	connector, err := pq.NewConnector(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)

	if err := waitReady(ctx, db, cfg.PingAttempts, cfg.PingInterval); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Client{db: db}, nil
}

func waitReady(ctx context.Context, db *sql.DB, attempts int, interval time.Duration) error {
	var err error
	for i := 1; ; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Class() == "28" {
			// invalid authorization will not fix itself
			return fmt.Errorf("postgres: %s", pqErr.Message)
		}
		if i >= attempts {
			return fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
