// Package csv writes export artifacts as delimited text. The default output
// starts with a UTF-8 BOM so Excel detects the encoding; a GBK mode is
// available for legacy consumers. Registration with the sink factory happens
// in init.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/gua123/sql-export/internal/sink"
)

const utf8BOM = "\xef\xbb\xbf"

func init() {
	sink.Register("csv", func(opts sink.Options) (sink.Writer, error) {
		switch opts.Encoding {
		case "", "utf8bom", "utf8", "gbk":
			return writer{encoding: opts.Encoding}, nil
		default:
			return nil, fmt.Errorf("csv: unknown encoding %q", opts.Encoding)
		}
	})
}

type writer struct {
	encoding string
}

func (writer) Ext() string { return ".csv" }

func (w writer) Create(path string, columns []string) (sink.Artifact, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	var out io.Writer = f
	var closer io.Closer
	switch w.encoding {
	case "", "utf8bom":
		if _, err := f.WriteString(utf8BOM); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write BOM %s: %w", path, err)
		}
	case "gbk":
		tw := transform.NewWriter(f, simplifiedchinese.GBK.NewEncoder())
		out = tw
		closer = tw
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &artifact{file: f, enc: closer, cw: cw, path: path}, nil
}

type artifact struct {
	file *os.File
	enc  io.Closer // non-nil when a transform encoder wraps the file
	cw   *csv.Writer
	path string
	rows int64
}

func (a *artifact) Append(row []any) error {
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = formatValue(v)
	}
	if err := a.cw.Write(fields); err != nil {
		return fmt.Errorf("write row %s: %w", a.path, err)
	}
	a.rows++
	return nil
}

// Discard releases the file handle without flushing buffered rows. The
// partial file stays on disk for the caller to remove.
func (a *artifact) Discard() error {
	return a.file.Close()
}

func (a *artifact) Close() (sink.Info, error) {
	a.cw.Flush()
	if err := a.cw.Error(); err != nil {
		_ = a.file.Close()
		return sink.Info{}, fmt.Errorf("flush %s: %w", a.path, err)
	}
	if a.enc != nil {
		if err := a.enc.Close(); err != nil {
			_ = a.file.Close()
			return sink.Info{}, fmt.Errorf("finish encoding %s: %w", a.path, err)
		}
	}
	if err := a.file.Close(); err != nil {
		return sink.Info{}, fmt.Errorf("close %s: %w", a.path, err)
	}
	sum, err := sink.ChecksumFile(a.path)
	if err != nil {
		return sink.Info{}, err
	}
	return sink.Info{Path: a.path, Rows: a.rows, Checksum: sum}, nil
}

// formatValue renders a scanned database value as a CSV field.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
