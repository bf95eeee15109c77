// Package sqlite wires the embedded SQLite driver into the source factory.
// It is mostly useful for local testing and offline exports; credentials in
// the config are ignored because the database is a file.
package sqlite

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/gua123/sql-export/internal/source"
)

func init() {
	source.Register("sqlite", dial)
}

func dial(cfg source.Config) (string, string, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return "", "", fmt.Errorf("sqlite dsn: file path required")
	}
	return "sqlite", cfg.DSN, nil
}
