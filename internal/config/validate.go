package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution on its own.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the configuration (e.g. "driver", "run.chunk_size").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Run groups the per-run settings that arrive from CLI flags rather than the
// connection file. It exists so validation can see the whole picture at once.
type Run struct {
	// OutBase is the output base name, without extension.
	OutBase string
	// Format selects the artifact writer kind: "xlsx" or "csv".
	Format string
	// ChunkSize is the maximum number of data rows per artifact.
	ChunkSize int
	// NullOther selects the null policy for non-string, non-numeric columns:
	// "keep" or "empty".
	NullOther string
	// Retries is the explicit connect retry budget.
	Retries int
}

var knownDrivers = map[string]struct{}{
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
	"sqlite":   {},
}

var knownFormats = map[string]struct{}{
	"xlsx": {},
	"csv":  {},
}

// Validate performs static validation of the connection and run settings.
// It does not mutate its inputs and does not touch the network; it returns a
// slice of Issue values and leaves the warning policy to the caller.
func Validate(cfg Config, run Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Driver) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "driver",
			Message:  "driver must not be empty",
		})
	} else if _, ok := knownDrivers[cfg.Driver]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "driver",
			Message:  fmt.Sprintf("unknown driver %q; ensure a matching source is registered", cfg.Driver),
		})
	}

	if strings.TrimSpace(cfg.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "dsn",
			Message:  "dsn must not be empty",
		})
	}

	// SQLite is file-backed and needs no credentials; every network driver
	// normally does.
	if cfg.Driver != "sqlite" && cfg.User == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "user",
			Message:  "user is empty; the server may reject the connection",
		})
	}

	if strings.TrimSpace(run.OutBase) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "run.out",
			Message:  "output base name must not be empty",
		})
	}
	if run.ChunkSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "run.chunk_size",
			Message:  "chunk size must be greater than zero",
		})
	}
	if _, ok := knownFormats[run.Format]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "run.format",
			Message:  fmt.Sprintf("unknown output format %q (want xlsx or csv)", run.Format),
		})
	}
	switch run.NullOther {
	case "", "keep", "empty":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "run.null_other",
			Message:  fmt.Sprintf("unknown null policy %q (want keep or empty)", run.NullOther),
		})
	}
	if run.Retries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "run.retries",
			Message:  "retries must not be negative",
		})
	}

	return issues
}

// HasError reports whether any issue in the slice is of error severity.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
