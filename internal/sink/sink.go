// Package sink abstracts the spreadsheet artifact writers used by the export
// pipeline.
//
// Concrete formats live in subpackages (xlsx, csv) and register themselves
// with this package's factory in init; importing sink/all (even as a blank
// import) makes every built-in format available. The pipeline depends only
// on the Writer and Artifact interfaces and never on a format library
// directly.
package sink

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/zeebo/xxh3"
)

// Options carries format-specific settings. Formats ignore fields they do
// not understand.
type Options struct {
	// Encoding selects the csv byte encoding: "utf8bom" (default, Excel
	// friendly), "utf8", or "gbk". Ignored by xlsx.
	Encoding string
}

// Info describes one finished artifact.
type Info struct {
	Path string
	// Rows is the number of data rows written, excluding the header.
	Rows int64
	// Checksum is the xxh3 hash of the final file, logged in the run
	// summary so consumers can verify transfers.
	Checksum uint64
}

// Artifact is a single output file being written. Append may buffer; errors
// that the filesystem reports late (disk full on flush) surface from Close.
type Artifact interface {
	// Append writes one data row in column order.
	Append(row []any) error
	// Close flushes and finalizes the file and returns its description.
	Close() (Info, error)
	// Discard abandons the artifact without finalizing it, releasing any
	// open handles so the caller can remove the partial file. Best effort;
	// calling it after Close is harmless.
	Discard() error
}

// Writer creates artifacts of one format.
type Writer interface {
	// Ext returns the file extension for this format, including the dot.
	Ext() string
	// Create opens a new artifact at path and writes the header row.
	Create(path string, columns []string) (Artifact, error)
}

// Factory builds a Writer from options.
type Factory func(opts Options) (Writer, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the Factory for a format kind. It is
// called from format subpackages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New returns a Writer for the given format kind.
func New(kind string, opts Options) (Writer, error) {
	regMu.RLock()
	f, ok := factories[kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no sink registered for format %q", kind)
	}
	return f(opts)
}

// ChecksumFile computes the xxh3 hash of the file at path. Formats call this
// from Close after the file is fully written.
func ChecksumFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("checksum %s: %w", path, err)
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("checksum %s: %w", path, err)
	}
	return h.Sum64(), nil
}
