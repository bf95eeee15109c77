// Package source executes a validated query against a relational database
// and exposes the result set as a forward-only stream of rows with column
// metadata available before the first row.
//
// Concrete drivers live in subpackages (postgres, mysql, mssql, sqlite) and
// register themselves with this package's factory in init; importing
// source/all (even as a blank import) makes every built-in driver available.
// The rest of the application depends only on this package and never imports
// a database driver directly.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gua123/sql-export/internal/query"
)

var (
	// ErrUnknownDriver reports a driver kind with no registered dialer.
	ErrUnknownDriver = errors.New("unknown driver")
	// ErrConnect reports an authentication or network failure while
	// establishing the session.
	ErrConnect = errors.New("connection failed")
	// ErrExecute reports a server-side rejection of an otherwise valid
	// query (e.g. a missing table).
	ErrExecute = errors.New("query execution failed")
)

// Config carries everything needed to open a session.
type Config struct {
	// Driver selects the registered dialer: postgres, mysql, mssql, sqlite.
	Driver string

	// DSN is the driver-specific address. Credentials are injected by the
	// dialer from User/Password, so the DSN may omit them.
	DSN      string
	User     string
	Password string

	// ConnectRetries is the explicit retry budget for the initial ping.
	// Each retry is logged; there is no silent retrying anywhere else.
	ConnectRetries int
}

// Dialer resolves a Config into a database/sql driver name and a final DSN
// with credentials applied.
type Dialer func(cfg Config) (driverName, dsn string, err error)

var (
	dialMu  sync.RWMutex
	dialers = map[string]Dialer{}
)

// Register installs (or replaces) the Dialer for a driver kind. It is called
// from driver subpackages' init functions.
func Register(kind string, d Dialer) {
	dialMu.Lock()
	defer dialMu.Unlock()
	dialers[kind] = d
}

// Conn is an open database session. It is exclusively owned by the export
// run and must be closed when the run ends, success or failure.
type Conn struct {
	db     *sql.DB
	driver string
}

// Open dials the database described by cfg and verifies connectivity with a
// ping. On ping failure it retries at most cfg.ConnectRetries times, logging
// each attempt, then fails with ErrConnect.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	dialMu.RLock()
	dial, ok := dialers[cfg.Driver]
	dialMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no source registered for %q", ErrUnknownDriver, cfg.Driver)
	}

	driverName, dsn, err := dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	attempts := cfg.ConnectRetries + 1
	var pingErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			return &Conn{db: db, driver: cfg.Driver}, nil
		}
		if attempt < attempts {
			logrus.WithFields(logrus.Fields{
				"driver":  cfg.Driver,
				"attempt": attempt,
				"of":      attempts,
			}).Warnf("connect failed, retrying: %v", pingErr)
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("%w: %v", ErrConnect, pingErr)
}

// Query executes q server-side and returns the resulting row stream. The
// stream is finite and non-restartable; a second export must re-execute.
func (c *Conn) Query(ctx context.Context, q query.Validated) (*RowStream, error) {
	rows, err := c.db.QueryContext(ctx, q.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecute, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%w: column metadata: %v", ErrExecute, err)
	}
	cols := make([]Column, len(types))
	for i, ct := range types {
		cols[i] = Column{
			Name:         ct.Name(),
			DatabaseType: ct.DatabaseTypeName(),
			Kind:         classify(ct.DatabaseTypeName()),
			Ordinal:      i,
		}
	}
	return &RowStream{rows: rows, cols: cols}, nil
}

// Count runs SELECT COUNT(1) over q as a subquery to estimate the total row
// count for progress reporting. Failure here is not fatal: not every valid
// read-only statement can be wrapped (EXPLAIN, SHOW), so callers should fall
// back to an unknown total.
func (c *Conn) Count(ctx context.Context, q query.Validated) (int64, error) {
	stmt := "SELECT COUNT(1) FROM (" + q.String() + ")"
	if needsSubqueryAlias(c.driver) {
		stmt += " AS sqlexport_count"
	}
	var n int64
	if err := c.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return n, nil
}

// Close releases the session.
func (c *Conn) Close() error {
	return c.db.Close()
}

// needsSubqueryAlias reports whether the driver's SQL dialect requires a
// derived table to be aliased.
func needsSubqueryAlias(driver string) bool {
	switch strings.ToLower(driver) {
	case "sqlite":
		return false
	default:
		return true
	}
}
