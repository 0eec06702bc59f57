// Package sqlhandle provides the execution handle through which aggregate
// providers may issue statements back into the database.
package sqlhandle

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/kasuganosora/aggexec/pkg/config"
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Executor is the capability handed to providers. Calls made through it may
// have side effects; callers must not assume otherwise.
type Executor interface {
	ID() uuid.UUID
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Conn is an Executor backed by a database/sql pool.
type Conn struct {
	id     uuid.UUID
	driver string
	db     *sql.DB
	logger *zap.Logger
}

var _ Executor = (*Conn)(nil)

const pingTimeout = 5 * time.Second

// Open opens the database described by cfg and verifies connectivity.
func Open(ctx context.Context, cfg config.HandleConfig, logger *zap.Logger) (*Conn, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, domain.NewErrConnectionFailed(cfg.Driver, err.Error())
	}
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, domain.NewErrConnectionFailed(cfg.Driver, err.Error())
	}

	return Wrap(cfg.Driver, db, logger), nil
}

// Wrap turns an existing pool into a Conn with a fresh handle id.
func Wrap(driver string, db *sql.DB, logger *zap.Logger) *Conn {
	id := uuid.New()
	return &Conn{
		id:     id,
		driver: driver,
		db:     db,
		logger: logutil.OrNop(logger).With(zap.Stringer("handle", id), zap.String("driver", driver)),
	}
}

// ID 返回句柄标识
func (c *Conn) ID() uuid.UUID { return c.id }

// Driver 返回驱动名
func (c *Conn) Driver() string { return c.driver }

func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.logger.Debug("exec", zap.String("sql", query), zap.Int("args", len(args)))
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "exec %q", query)
	}
	return res, nil
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	c.logger.Debug("query", zap.String("sql", query), zap.Int("args", len(args)))
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %q", query)
	}
	return rows, nil
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	c.logger.Debug("query row", zap.String("sql", query), zap.Int("args", len(args)))
	return c.db.QueryRowContext(ctx, query, args...)
}

// Close 关闭底层连接池
func (c *Conn) Close() error {
	return c.db.Close()
}
