// Package config loads and validates the export tool's configuration.
//
// Two plain-text inputs drive a run:
//
//   - a connection file (database.txt) with key=value lines:
//     driver, dsn, user, password
//   - a query file (params.txt) holding exactly one SQL statement
//
// When either file is missing, a commented template is written in its place
// and loading fails with ErrTemplateCreated so the operator can fill it in.
// Static validation mirrors the Issue model used elsewhere in this codebase:
// callers receive a list of findings and decide whether warnings are fatal.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrTemplateCreated reports that a required input file was absent and a
// template was generated in its place. The run must abort; the operator edits
// the template and retries.
var ErrTemplateCreated = errors.New("template created, edit it and rerun")

// Config is the connection half of a run's configuration, read from the
// key=value connection file with optional environment overrides.
type Config struct {
	// Driver selects the database backend: postgres, mysql, mssql, sqlite.
	Driver string

	// DSN is the driver-specific data source name or address. Credentials
	// are carried separately in User/Password and injected by the driver
	// wiring, so the DSN itself can be checked into version control.
	DSN string

	User     string
	Password string
}

const connTemplate = `# sql-export connection settings
# driver: postgres | mysql | mssql | sqlite
driver=postgres
dsn=localhost:5432/mydb
user=123
password=456
`

const queryTemplate = "SELECT * FROM dual\n"

// Load reads the connection file at path. A missing file triggers template
// generation and ErrTemplateCreated. Unknown keys are ignored so the format
// can grow without breaking older binaries.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := os.WriteFile(path, []byte(connTemplate), 0o600); werr != nil {
			return Config{}, fmt.Errorf("write config template %s: %w", path, werr)
		}
		return Config{}, fmt.Errorf("%s did not exist: %w", path, ErrTemplateCreated)
	}
	if err != nil {
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	cfg := Config{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return Config{}, fmt.Errorf("config %s line %d: expected key=value, got %q", path, line, text)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch strings.ToLower(key) {
		case "driver":
			cfg.Driver = strings.ToLower(value)
		case "dsn":
			cfg.DSN = value
		case "user":
			cfg.User = value
		case "password":
			cfg.Password = value
		}
	}
	if err := sc.Err(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides lets credentials come from the environment instead of the
// file (12-factor style), which keeps secrets out of checked-in configs.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQLEXPORT_DRIVER"); v != "" {
		cfg.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("SQLEXPORT_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("SQLEXPORT_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("SQLEXPORT_PASSWORD"); v != "" {
		cfg.Password = v
	}
}

// LoadQuery reads the query file at path and returns its trimmed contents.
// Like Load, a missing file produces a template and ErrTemplateCreated.
func LoadQuery(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := os.WriteFile(path, []byte(queryTemplate), 0o644); werr != nil {
			return "", fmt.Errorf("write query template %s: %w", path, werr)
		}
		return "", fmt.Errorf("%s did not exist: %w", path, ErrTemplateCreated)
	}
	if err != nil {
		return "", fmt.Errorf("read query file %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}
