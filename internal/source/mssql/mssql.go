// Package mssql wires the SQL Server driver into the source factory.
package mssql

import (
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" database/sql driver

	"github.com/gua123/sql-export/internal/source"
)

func init() {
	source.Register("mssql", dial)
}

// dial accepts a full sqlserver:// URL or the short host:port/dbname form.
// The database in the short form maps to the "database" query parameter.
func dial(cfg source.Config) (string, string, error) {
	dsn := cfg.DSN
	if !strings.Contains(dsn, "://") {
		addr, dbname, _ := strings.Cut(dsn, "/")
		if addr == "" {
			return "", "", fmt.Errorf("mssql dsn %q: want host:port/dbname", cfg.DSN)
		}
		u := &url.URL{Scheme: "sqlserver", Host: addr}
		if dbname != "" {
			q := url.Values{}
			q.Set("database", dbname)
			u.RawQuery = q.Encode()
		}
		dsn = u.String()
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", fmt.Errorf("mssql dsn %q: %w", cfg.DSN, err)
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return "sqlserver", u.String(), nil
}
