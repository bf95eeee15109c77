// Package mysql wires the MySQL driver into the source factory.
package mysql

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/gua123/sql-export/internal/source"
)

func init() {
	source.Register("mysql", dial)
}

// dial builds a go-sql-driver DSN. The config DSN may be a full driver DSN
// (anything mysql.ParseDSN accepts) or the short host:port/dbname form;
// either way the config credentials win.
func dial(cfg source.Config) (string, string, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		mc, err = parseShortDSN(cfg.DSN)
		if err != nil {
			return "", "", err
		}
	}
	if cfg.User != "" {
		mc.User = cfg.User
		mc.Passwd = cfg.Password
	}
	return "mysql", mc.FormatDSN(), nil
}

func parseShortDSN(dsn string) (*mysql.Config, error) {
	addr, dbname, ok := strings.Cut(dsn, "/")
	if !ok || addr == "" {
		return nil, fmt.Errorf("mysql dsn %q: want host:port/dbname", dsn)
	}
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = dbname
	return mc, nil
}
