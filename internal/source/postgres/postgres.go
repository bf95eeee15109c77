// Package postgres wires the PostgreSQL driver (pgx stdlib) into the source
// factory. Registration happens in init; callers import this package only
// for its side effect, normally via source/all.
package postgres

import (
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/gua123/sql-export/internal/source"
)

func init() {
	source.Register("postgres", dial)
}

// dial accepts either a full postgres:// URL or the short host:port/dbname
// form used in connection files, and injects credentials from the config.
func dial(cfg source.Config) (string, string, error) {
	dsn := cfg.DSN
	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", fmt.Errorf("postgres dsn %q: %w", cfg.DSN, err)
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return "pgx", u.String(), nil
}
