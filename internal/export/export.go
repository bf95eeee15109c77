// Package export drives a complete export run: validate the query, open the
// source, stream rows through the null normalizer, and cut the stream into
// chunked spreadsheet artifacts.
//
// The pipeline is a strictly sequential pull. The fetcher yields, the
// normalizer transforms, the writer buffers and flushes; nothing runs
// concurrently and the only shared state is the stream itself. Artifacts
// already flushed survive any later failure.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gua123/sql-export/internal/metrics"
	"github.com/gua123/sql-export/internal/normalize"
	"github.com/gua123/sql-export/internal/progress"
	"github.com/gua123/sql-export/internal/query"
	"github.com/gua123/sql-export/internal/sink"
	"github.com/gua123/sql-export/internal/source"
)

const (
	// DefaultChunkSize matches the original export tool's 200k rows per file.
	DefaultChunkSize = 200000

	progressEveryRows = 5000
	progressMinGap    = 100 * time.Millisecond
)

// Options configures one export run.
type Options struct {
	// Source describes the database to fetch from.
	Source source.Config

	// Query is the raw statement text; it is validated before anything
	// touches the network.
	Query string

	// OutBase is the output path without extension. The sink's extension
	// is appended, and chunks past the first get a _partNNN suffix.
	OutBase string

	// Format selects the registered sink: "xlsx" or "csv".
	Format string
	// Encoding is passed through to the sink (csv only).
	Encoding string

	// ChunkSize is the maximum number of data rows per artifact;
	// non-positive means DefaultChunkSize.
	ChunkSize int

	// NullOther is the normalization policy for columns that are neither
	// text-like nor numeric-like.
	NullOther normalize.OtherPolicy

	// Count enables the pre-count query that feeds the progress total.
	// Failure to count degrades to an unknown total, never aborts.
	Count bool

	// Progress receives throttled progress events; nil means none.
	Progress progress.Sink

	// Run names the run in metrics and logs; empty derives it from OutBase.
	Run string
}

func (o Options) runName() string {
	if o.Run != "" {
		return o.Run
	}
	return filepath.Base(o.OutBase)
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Summary describes a completed run.
type Summary struct {
	Rows    int64
	Chunks  int
	Files   []sink.Info
	Elapsed time.Duration
}

// Session is one export run's state machine. A Session is single-use: Run
// may be called exactly once.
type Session struct {
	opts  Options
	state State
	log   *logrus.Entry
}

// NewSession prepares a run without touching config files, the network, or
// the filesystem.
func NewSession(opts Options) *Session {
	return &Session{
		opts:  opts,
		state: StateIdle,
		log:   logrus.WithField("run", opts.runName()),
	}
}

// Run executes the convenience path: build a session and drive it.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	return NewSession(opts).Run(ctx)
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// Seams for tests; production wiring uses the real source and sink.
var (
	openConnFn = func(ctx context.Context, cfg source.Config) (conn, error) {
		c, err := source.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sourceConn{c}, nil
	}
	newSinkFn = sink.New
)

// conn and rows narrow the source API to what the session needs so tests can
// substitute in-memory implementations.
type conn interface {
	Query(ctx context.Context, q query.Validated) (rows, error)
	Count(ctx context.Context, q query.Validated) (int64, error)
	Close() error
}

type rows interface {
	Columns() []source.Column
	Next() bool
	Row() []any
	Err() error
	Close() error
}

type sourceConn struct{ *source.Conn }

func (c sourceConn) Query(ctx context.Context, q query.Validated) (rows, error) {
	return c.Conn.Query(ctx, q)
}

func (s *Session) transition(next State) {
	s.log.WithFields(logrus.Fields{
		"from": s.state.String(),
		"to":   next.String(),
	}).Debug("state transition")
	s.state = next
}

// fail moves the session to Failed, emits the structured error event, and
// returns the typed error for the caller.
func (s *Session) fail(kind ErrorKind, chunk int, err error) *Error {
	s.transition(StateFailed)
	e := &Error{Kind: kind, Chunk: chunk, Err: err}
	fields := logrus.Fields{"kind": kind.String()}
	if chunk > 0 {
		fields["chunk"] = chunk
	}
	s.log.WithFields(fields).Errorf("export failed: %v", err)
	return e
}

// Run drives the session to Done or Failed. It returns a *Summary on
// success and a *Error on failure; ExitCode maps either to a process status.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	if s.state != StateIdle {
		return nil, s.fail(KindUnknown, 0, fmt.Errorf("session already ran (state %s)", s.state))
	}
	start := time.Now()
	run := s.opts.runName()

	s.transition(StateValidating)
	t0 := time.Now()
	q, err := query.Validate(s.opts.Query)
	metrics.RecordStage(run, "validate", err, time.Since(t0))
	if err != nil {
		return nil, s.fail(KindQuery, 0, err)
	}

	writer, err := newSinkFn(s.opts.Format, sink.Options{Encoding: s.opts.Encoding})
	if err != nil {
		return nil, s.fail(KindConfig, 0, err)
	}

	s.transition(StateFetching)
	t0 = time.Now()
	c, err := openConnFn(ctx, s.opts.Source)
	metrics.RecordStage(run, "connect", err, time.Since(t0))
	if err != nil {
		return nil, s.fail(Classify(err), 0, err)
	}
	defer c.Close()

	total := int64(-1)
	if s.opts.Count {
		if n, cerr := c.Count(ctx, q); cerr == nil {
			total = n
		} else {
			s.log.Debugf("row count unavailable: %v", cerr)
		}
	}

	t0 = time.Now()
	rs, err := c.Query(ctx, q)
	metrics.RecordStage(run, "query", err, time.Since(t0))
	if err != nil {
		return nil, s.fail(Classify(err), 0, err)
	}
	defer rs.Close()

	cols := rs.Columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	norm := normalize.New(cols, normalize.Policy{Other: s.opts.NullOther})

	prog := s.opts.Progress
	if prog == nil {
		prog = progress.Nop{}
	}
	throttled := progress.NewThrottled(prog, progressEveryRows, progressMinGap)
	throttled.Start(total)
	defer throttled.Finish()

	s.transition(StateExporting)
	writeStart := time.Now()
	sum, err := s.writeChunks(ctx, rs, writer, names, norm, throttled)
	metrics.RecordStage(run, "write", err, time.Since(writeStart))
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = &Error{Kind: Classify(err), Err: err}
		}
		return nil, s.fail(e.Kind, e.Chunk, e.Err)
	}
	metrics.RecordRows(run, sum.Rows)

	s.transition(StateDone)
	sum.Elapsed = time.Since(start)
	s.log.WithFields(logrus.Fields{
		"rows":    sum.Rows,
		"chunks":  sum.Chunks,
		"elapsed": sum.Elapsed.Round(time.Millisecond).String(),
	}).Info("export done")
	for _, f := range sum.Files {
		s.log.WithFields(logrus.Fields{
			"path":     f.Path,
			"rows":     f.Rows,
			"checksum": fmt.Sprintf("%016x", f.Checksum),
		}).Info("artifact written")
	}
	return sum, nil
}

// writeChunks consumes the stream, cutting an artifact every chunkSize rows.
// An empty stream still yields one header-only artifact. On failure the
// in-progress file is removed best-effort; finished artifacts stay on disk.
func (s *Session) writeChunks(ctx context.Context, rs rows, writer sink.Writer, names []string, norm *normalize.Normalizer, prog progress.Sink) (*Summary, error) {
	chunkSize := s.opts.chunkSize()
	run := s.opts.runName()

	var (
		sum        Summary
		art        sink.Artifact
		artPath    string
		chunkIndex int
		inChunk    int
	)
	discard := func() {
		if art != nil {
			_ = art.Discard()
		}
		if artPath != "" {
			_ = os.Remove(artPath)
		}
	}

	for rs.Next() {
		if err := ctx.Err(); err != nil {
			discard()
			return nil, &Error{Kind: KindUnknown, Chunk: chunkIndex, Err: err}
		}
		if art == nil {
			chunkIndex++
			artPath = chunkPath(s.opts.OutBase, writer.Ext(), chunkIndex)
			a, err := writer.Create(artPath, names)
			if err != nil {
				discard()
				return nil, &Error{Kind: KindWrite, Chunk: chunkIndex, Err: err}
			}
			art = a
		}
		if err := art.Append(norm.Apply(rs.Row())); err != nil {
			discard()
			return nil, &Error{Kind: KindWrite, Chunk: chunkIndex, Err: err}
		}
		sum.Rows++
		inChunk++
		prog.Report(sum.Rows)

		if inChunk == chunkSize {
			info, err := art.Close()
			if err != nil {
				discard()
				return nil, &Error{Kind: KindWrite, Chunk: chunkIndex, Err: err}
			}
			sum.Files = append(sum.Files, info)
			metrics.RecordArtifacts(run, 1)
			art, artPath, inChunk = nil, "", 0
		}
	}
	if err := rs.Err(); err != nil {
		discard()
		return nil, err
	}

	if art == nil && chunkIndex == 0 {
		// empty result: still produce a header-only artifact
		chunkIndex = 1
		artPath = chunkPath(s.opts.OutBase, writer.Ext(), chunkIndex)
		a, err := writer.Create(artPath, names)
		if err != nil {
			return nil, &Error{Kind: KindWrite, Chunk: chunkIndex, Err: err}
		}
		art = a
	}
	if art != nil {
		info, err := art.Close()
		if err != nil {
			discard()
			return nil, &Error{Kind: KindWrite, Chunk: chunkIndex, Err: err}
		}
		sum.Files = append(sum.Files, info)
		metrics.RecordArtifacts(run, 1)
	}
	sum.Chunks = len(sum.Files)
	return &sum, nil
}

// chunkPath names the n-th artifact (1-based). A single-chunk export keeps
// the base name unmodified; later chunks get a fixed-width sortable suffix.
func chunkPath(base, ext string, n int) string {
	if n == 1 {
		return base + ext
	}
	return fmt.Sprintf("%s_part%03d%s", base, n, ext)
}
