// Command sqlexport runs a read-only SQL query and writes the result to
// chunked spreadsheet files. It loads the connection and query from plain
// text files (generating editable templates when they are missing),
// optionally initializes a metrics backend, and executes the streaming
// export.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gua123/sql-export/internal/config"
	"github.com/gua123/sql-export/internal/export"
	"github.com/gua123/sql-export/internal/metrics"
	"github.com/gua123/sql-export/internal/metrics/datadog"
	"github.com/gua123/sql-export/internal/metrics/prompush"
	"github.com/gua123/sql-export/internal/normalize"
	"github.com/gua123/sql-export/internal/progress"
	"github.com/gua123/sql-export/internal/progress/bar"
	"github.com/gua123/sql-export/internal/query"
	"github.com/gua123/sql-export/internal/source"

	// register all drivers with the source factory and all formats with the
	// sink factory. config specifies which to use but we build in support
	// for all of them.
	_ "github.com/gua123/sql-export/internal/sink/all"
	_ "github.com/gua123/sql-export/internal/source/all"
)

type options struct {
	configPath string
	queryPath  string
	out        string
	format     string
	encoding   string
	chunkSize  int
	nullOther  string
	count      bool
	retries    int

	metricsBackend string
	pushGatewayURL string
	dogstatsdAddr  string

	progress bool
	logFile  string
	validate bool
	verbose  bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	flag.StringVar(&opts.configPath, "config", "database.txt", "connection config path (template is generated when missing)")
	flag.StringVar(&opts.queryPath, "query", "params.txt", "query file path (template is generated when missing)")
	flag.StringVar(&opts.out, "out", "output", "output base path, without extension")
	flag.StringVar(&opts.format, "format", "xlsx", "output format (xlsx, csv)")
	flag.StringVar(&opts.encoding, "encoding", "", "csv byte encoding (utf8bom, utf8, gbk)")
	flag.IntVar(&opts.chunkSize, "chunk-size", export.DefaultChunkSize, "maximum data rows per output file")
	flag.StringVar(&opts.nullOther, "null-other", "keep", "null policy for non-text, non-numeric columns (keep, empty)")
	flag.BoolVar(&opts.count, "count", true, "estimate the total row count for the progress bar")
	flag.IntVar(&opts.retries, "retries", 1, "connect retry budget")
	flag.StringVar(&opts.metricsBackend, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none); empty falls back to env METRICS_BACKEND, then none")
	flag.StringVar(&opts.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&opts.dogstatsdAddr, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&opts.progress, "progress", true, "render a terminal progress bar")
	flag.StringVar(&opts.logFile, "log-file", "", `log file path; empty = timestamped export_*.log, "-" = stderr only`)
	flag.BoolVar(&opts.validate, "validate", false, "validate the configuration and query, then exit")
	flag.BoolVar(&opts.verbose, "v", false, "enable verbose logs")
	flag.Parse()

	closeLog, err := setupLogging(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return export.ExitConfig
	}
	defer closeLog()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logrus.Errorf("config: %v", err)
		return export.ExitCode(err)
	}
	rawQuery, err := config.LoadQuery(opts.queryPath)
	if err != nil {
		logrus.Errorf("query: %v", err)
		return export.ExitCode(err)
	}

	runCfg := config.Run{
		OutBase:   opts.out,
		Format:    opts.format,
		ChunkSize: opts.chunkSize,
		NullOther: opts.nullOther,
		Retries:   opts.retries,
	}
	issues := config.Validate(cfg, runCfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		logrus.Errorf("configuration is invalid: %s", opts.configPath)
		return export.ExitConfig
	}

	if opts.validate {
		if _, err := query.Validate(rawQuery); err != nil {
			logrus.Errorf("query is invalid: %v", err)
			return export.ExitCode(err)
		}
		logrus.Infof("configuration and query are valid: %s, %s", opts.configPath, opts.queryPath)
		return export.ExitOK
	}

	runName := filepath.Base(opts.out)
	flushMetrics := setupMetrics(opts, runName)
	defer flushMetrics()

	var prog progress.Sink
	if opts.progress {
		prog = bar.New()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := export.Run(ctx, export.Options{
		Source: source.Config{
			Driver:         cfg.Driver,
			DSN:            cfg.DSN,
			User:           cfg.User,
			Password:       cfg.Password,
			ConnectRetries: opts.retries,
		},
		Query:     rawQuery,
		OutBase:   opts.out,
		Format:    opts.format,
		Encoding:  opts.encoding,
		ChunkSize: opts.chunkSize,
		NullOther: normalize.OtherPolicyFromString(opts.nullOther),
		Count:     opts.count,
		Progress:  prog,
		Run:       runName,
	})
	if err != nil {
		return export.ExitCode(err)
	}

	logrus.Infof("exported %d rows to %d file(s) in %s",
		sum.Rows, sum.Chunks, sum.Elapsed.Truncate(time.Millisecond))
	return export.ExitOK
}

// setupLogging configures logrus to write to stderr and, unless disabled, a
// per-run log file. The returned func closes the file.
func setupLogging(opts options) (func(), error) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if opts.logFile == "-" {
		return func() {}, nil
	}
	path := opts.logFile
	if path == "" {
		path = time.Now().Format("export_20060102_150405.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return func() {
		logrus.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

// setupMetrics decides the metrics backend: flag → env → none. The returned
// func flushes at shutdown.
func setupMetrics(opts options, runName string) func() {
	backendName := opts.metricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	flush := func() {
		if err := metrics.Flush(); err != nil {
			logrus.Warnf("metrics: flush error: %v", err)
		}
	}

	switch backendName {
	case "pushgateway":
		gwURL := opts.pushGatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(runName, gwURL)
		if err != nil {
			logrus.Warnf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return func() {}
		}
		logrus.Debugf("metrics: backend=pushgateway url=%s job=%s", gwURL, runName)
		metrics.SetBackend(b)
		return flush

	case "datadog":
		addr := opts.dogstatsdAddr
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      addr,
			Namespace: "sqlexport.",
		})
		if err != nil {
			logrus.Warnf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		logrus.Debugf("metrics: backend=datadog addr=%s", addr)
		metrics.SetBackend(b)
		return flush

	case "", "none":
		return func() {}

	default:
		logrus.Warnf("metrics: unknown backend %q; metrics disabled", backendName)
		return func() {}
	}
}
