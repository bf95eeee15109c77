package mssql

import (
	"strings"
	"testing"

	"github.com/gua123/sql-export/internal/source"
)

func TestDial_ShortForm(t *testing.T) {
	driver, dsn, err := dial(source.Config{
		DSN:      "db.example.com:1433/sales",
		User:     "alice",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if driver != "sqlserver" {
		t.Errorf("driver = %q", driver)
	}
	for _, part := range []string{"sqlserver://", "alice:pw@", "db.example.com:1433", "database=sales"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}
}

func TestDial_FullURL(t *testing.T) {
	_, dsn, err := dial(source.Config{
		DSN:      "sqlserver://db:1433?database=sales",
		User:     "alice",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if !strings.Contains(dsn, "alice:pw@") {
		t.Errorf("credentials not injected: %q", dsn)
	}
}

func TestDial_EmptyHost(t *testing.T) {
	if _, _, err := dial(source.Config{DSN: "/sales"}); err == nil {
		t.Fatal("dial accepted an empty host")
	}
}
