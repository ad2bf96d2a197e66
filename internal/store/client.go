// Package store wraps the analytical-store (ClickHouse) client: bulk
// streaming insert of event rows, arbitrary SQL query, and the
// remote()-table-function replay used by the reconciliation engine.
//
// Credentials are read from four environment variables, loaded from a
// .env file by the caller via internal/runtimeenv.LoadEnv if present:
// CLICKHOUSE_URL, CLICKHOUSE_USER, CLICKHOUSE_DATABASE, CLICKHOUSE_PASSWORD.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

var (
	once     sync.Once
	instance *Client
	initErr  error
)

// Client wraps a pooled ClickHouse connection.
type Client struct {
	conn driver
}

// driver is the subset of clickhouse.Conn the store package uses; named so
// tests can substitute a fake without importing the real driver.
type driver interface {
	PrepareBatch(ctx context.Context, query string, opts ...clickhouse.PrepareBatchOption) (clickhouse.Batch, error)
	Query(ctx context.Context, query string, args ...any) (clickhouse.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

// Connect initializes the process-wide singleton client from the four
// CLICKHOUSE_* environment variables. Safe to call more than once.
func Connect() (*Client, error) {
	once.Do(func() {
		instance, initErr = dial()
	})
	return instance, initErr
}

// GetClient returns the singleton previously created by Connect.
func GetClient() *Client { return instance }

func dial() (*Client, error) {
	url := os.Getenv("CLICKHOUSE_URL")
	user := os.Getenv("CLICKHOUSE_USER")
	db := os.Getenv("CLICKHOUSE_DATABASE")
	password := os.Getenv("CLICKHOUSE_PASSWORD")
	return New(url, user, db, password)
}

// New dials a fresh, non-singleton Client against the given instance.
// Used by the reconciliation engine, which needs two simultaneous
// connections (local and remote) rather than the process-wide singleton
// returned by Connect.
func New(url, user, db, password string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("store: CLICKHOUSE_URL is required")
	}

	opts := &clickhouse.Options{
		Addr: []string{url},
		Auth: clickhouse.Auth{
			Database: db,
			Username: user,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"async_insert":            1,
			"wait_for_async_insert":   0,
			"enable_http_compression": 1,
		},
		Protocol: clickhouse.HTTP,
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open failed: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}

	xlog.Infof("store: connected to %s (db=%s)", url, db)
	return &Client{conn: conn}, nil
}

// NewForTest builds a Client around an arbitrary driver implementation.
func NewForTest(d driver) *Client { return &Client{conn: d} }

// InsertRows opens a streaming batch against table, writes every row, and
// sends it. Any failure here is fatal at the system level per the
// ingestion crash-and-restart policy; callers log context and terminate.
func (c *Client) InsertRows(ctx context.Context, table string, rows []events.Row) error {
	if len(rows) == 0 {
		return nil
	}

	cols := rows[0].Columns()
	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, joinColumns(cols)))
	if err != nil {
		return fmt.Errorf("store: open insert for %s: %w", table, err)
	}

	for i, row := range rows {
		if err := batch.Append(row.Values()...); err != nil {
			return fmt.Errorf("store: write row %d of %s: %w", i, table, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("store: end insert for %s: %w", table, err)
	}
	return nil
}

// Query runs an arbitrary SQL statement.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (clickhouse.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Exec runs a statement with no result rows (used for INSERT ... SELECT
// FROM remote() replay).
func (c *Client) Exec(ctx context.Context, sql string, args ...any) error {
	return c.conn.Exec(ctx, sql, args...)
}

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.conn.Close() }

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
