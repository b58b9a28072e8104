// Package repo is the persistence layer: typed clients for users, facilities
// and slots built on ent's dialect/sql query builder, with a transaction
// wrapper shaped like an ent client.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Client is the entry point to the database. The zero value is not usable;
// create one with NewClient.
type Client struct {
	config
	Schema   *Schema
	User     *UserClient
	Facility *FacilityClient
	Slot     *SlotClient
}

type config struct {
	driver dialect.Driver
	db     *sql.DB
	debug  bool
	log    func(context.Context, ...any)
}

// Option configures the client.
type Option func(*config)

// Driver sets the underlying driver.
func Driver(drv dialect.Driver) Option {
	return func(c *config) { c.driver = drv }
}

// Debug logs every statement through the Log function.
func Debug() Option {
	return func(c *config) { c.debug = true }
}

// Log sets the statement logger used in debug mode.
func Log(fn func(context.Context, ...any)) Option {
	return func(c *config) { c.log = fn }
}

func NewClient(opts ...Option) *Client {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if d, ok := cfg.driver.(*entsql.Driver); ok {
		cfg.db = d.DB()
	}
	if cfg.debug && cfg.log != nil {
		cfg.driver = dialect.DebugWithContext(cfg.driver, cfg.log)
	}
	c := &Client{config: cfg}
	c.init(cfg.driver)
	return c
}

func (c *Client) init(conn dialect.ExecQuerier) {
	d := c.driver.Dialect()
	c.Schema = &Schema{conn: conn, dialect: d}
	c.User = &UserClient{conn: conn, dialect: d}
	c.Facility = &FacilityClient{conn: conn, dialect: d}
	c.Slot = &SlotClient{conn: conn, dialect: d}
}

// Dialect returns the SQL dialect name of the underlying driver.
func (c *Client) Dialect() string { return c.driver.Dialect() }

// Ping checks that the database answers.
func (c *Client) Ping(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.PingContext(ctx)
}

// DB returns the underlying connection pool, or nil when the client was
// built on a driver that does not expose one.
func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Close() error {
	return c.driver.Close()
}

// Tx starts a transaction. The returned Tx exposes the same resource
// clients, bound to the transaction.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo: starting a transaction: %w", err)
	}
	t := &Tx{tx: tx}
	d := c.driver.Dialect()
	t.User = &UserClient{conn: tx, dialect: d}
	t.Facility = &FacilityClient{conn: tx, dialect: d}
	t.Slot = &SlotClient{conn: tx, dialect: d}
	return t, nil
}

// Tx is a transactional client.
type Tx struct {
	tx       dialect.Tx
	User     *UserClient
	Facility *FacilityClient
	Slot     *SlotClient
}

func (tx *Tx) Commit() error { return tx.tx.Commit() }

func (tx *Tx) Rollback() error { return tx.tx.Rollback() }

// WithTx runs fn in a transaction, rolling back when fn returns an error or
// panics and committing otherwise.
func WithTx(ctx context.Context, client *Client, fn func(tx *Tx) error) error {
	tx, err := client.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("rolling back transaction: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// OpenSQL wraps an open *sql.DB for the given dialect.
func OpenSQL(dialectName string, db *sql.DB, opts ...Option) *Client {
	drv := entsql.OpenDB(dialectName, db)
	return NewClient(append([]Option{Driver(drv)}, opts...)...)
}

func query(ctx context.Context, conn dialect.ExecQuerier, q string, args []any) (*entsql.Rows, error) {
	rows := &entsql.Rows{}
	if err := conn.Query(ctx, q, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func exec(ctx context.Context, conn dialect.ExecQuerier, q string, args []any) (int64, error) {
	var res sql.Result
	if err := conn.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// now is truncated to the second so stored and compared values line up
// across drivers.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
