package persist

import (
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelf/pkg/schema"
)

// Connection wraps a database/sql handle with the dialect tag and count
// strategy the engine needs. Many repositories may share one Connection;
// transaction state is connection-scoped, so callers serialize
// transactional work on a given Connection themselves.
type Connection struct {
	mu       sync.Mutex
	db       *sql.DB
	tx       *sql.Tx
	dialect  schema.Dialect
	strategy CountStrategy
	log      *zap.Logger
}

// Option adjusts a Connection at open time.
type Option func(*Connection)

// WithLogger installs a logger for statement tracing. Statements are logged
// at Debug; only leniently swallowed count failures reach Warn. Defaults to
// a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Connection) { c.log = log }
}

// WithCountStrategy overrides the dialect-default count strategy.
func WithCountStrategy(s CountStrategy) Option {
	return func(c *Connection) { c.strategy = s }
}

// Open validates the config, opens the driver, and verifies connectivity
// with a ping.
func Open(cfg Config, opts ...Option) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, _ := schema.ParseDialect(cfg.Dialect)

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", cfg.Driver, err)
	}

	c := Wrap(db, dialect, opts...)
	if cfg.CountStrategy != "" {
		s, _ := ParseCountStrategy(cfg.CountStrategy)
		c.strategy = s
	}
	return c, nil
}

// Wrap adopts an already open database handle. The caller keeps ownership
// of pool settings; Close still closes the handle.
func Wrap(db *sql.DB, dialect schema.Dialect, opts ...Option) *Connection {
	c := &Connection{
		db:       db,
		dialect:  dialect,
		strategy: DefaultCountStrategy(dialect),
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dialect returns the backend dialect tag.
func (c *Connection) Dialect() schema.Dialect { return c.dialect }

// CountStrategy returns the effective count strategy.
func (c *Connection) CountStrategy() CountStrategy { return c.strategy }

// DB returns the underlying handle, or nil after Close.
func (c *Connection) DB() *sql.DB {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db
}

// Open reports whether the connection is usable.
func (c *Connection) Open() bool {
	return c.DB() != nil
}

// Close releases the underlying handle. Idempotent.
func (c *Connection) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Begin starts a transaction. Subsequent statements on this Connection run
// inside it until Commit or Rollback. Returns ErrTxActive when one is
// already open.
func (c *Connection) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrNoConnection
	}
	if c.tx != nil {
		return ErrTxActive
	}
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	c.tx = tx
	return nil
}

// Commit completes the open transaction.
func (c *Connection) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return ErrNoTx
	}
	err := c.tx.Commit()
	c.tx = nil
	return err
}

// Rollback abandons the open transaction.
func (c *Connection) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return ErrNoTx
	}
	err := c.tx.Rollback()
	c.tx = nil
	return err
}

// runner is either the base handle or the open transaction.
type runner interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (c *Connection) runner() (runner, error) {
	if c == nil {
		return nil, ErrNoConnection
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrNoConnection
	}
	if c.tx != nil {
		return c.tx, nil
	}
	return c.db, nil
}

// Exec runs a statement that returns no rows.
func (c *Connection) Exec(query string, args ...any) (sql.Result, error) {
	r, err := c.runner()
	if err != nil {
		return nil, err
	}
	c.log.Debug("exec", zap.String("sql", query), zap.Int("args", len(args)))
	return r.Exec(query, args...)
}

// Query runs a statement that returns rows.
func (c *Connection) Query(query string, args ...any) (*sql.Rows, error) {
	r, err := c.runner()
	if err != nil {
		return nil, err
	}
	c.log.Debug("query", zap.String("sql", query), zap.Int("args", len(args)))
	return r.Query(query, args...)
}

// QueryRow runs a statement expected to return at most one row.
func (c *Connection) QueryRow(query string, args ...any) (*sql.Row, error) {
	r, err := c.runner()
	if err != nil {
		return nil, err
	}
	c.log.Debug("query row", zap.String("sql", query), zap.Int("args", len(args)))
	return r.QueryRow(query, args...), nil
}

func (c *Connection) logger() *zap.Logger {
	if c == nil || c.log == nil {
		return zap.NewNop()
	}
	return c.log
}
