package export

import (
	"errors"
	"fmt"

	"github.com/gua123/sql-export/internal/config"
	"github.com/gua123/sql-export/internal/query"
	"github.com/gua123/sql-export/internal/source"
)

// ErrorKind is the failure category of an export run. Each kind maps to a
// distinct process exit code so scripting consumers can branch on the cause.
type ErrorKind int

const (
	// KindUnknown covers failures outside the defined taxonomy.
	KindUnknown ErrorKind = iota
	// KindConfig reports missing or malformed configuration.
	KindConfig
	// KindQuery reports a statement rejected by validation.
	KindQuery
	// KindConnect reports an authentication or network failure.
	KindConnect
	// KindExecute reports a server-side rejection of a valid query.
	KindExecute
	// KindWrite reports an I/O failure while flushing an artifact.
	KindWrite
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindQuery:
		return "invalid_query"
	case KindConnect:
		return "connection"
	case KindExecute:
		return "execution"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Error is the typed failure a session run returns. Chunk is the 1-based
// index of the offending artifact for write failures, zero otherwise.
type Error struct {
	Kind  ErrorKind
	Chunk int
	Err   error
}

func (e *Error) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("%s error at chunk %d: %v", e.Kind, e.Chunk, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps an error to its failure category by walking the wrap chain
// for the package sentinels.
func Classify(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, config.ErrTemplateCreated):
		return KindConfig
	case errors.Is(err, query.ErrInvalidQuery):
		return KindQuery
	case errors.Is(err, source.ErrUnknownDriver):
		return KindConfig
	case errors.Is(err, source.ErrConnect):
		return KindConnect
	case errors.Is(err, source.ErrExecute):
		return KindExecute
	default:
		return KindUnknown
	}
}

// Exit codes per failure category.
const (
	ExitOK      = 0
	ExitOther   = 1
	ExitConfig  = 2
	ExitQuery   = 3
	ExitConnect = 4
	ExitExecute = 5
	ExitWrite   = 6
)

// ExitCode maps an error (or nil) to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch Classify(err) {
	case KindConfig:
		return ExitConfig
	case KindQuery:
		return ExitQuery
	case KindConnect:
		return ExitConnect
	case KindExecute:
		return ExitExecute
	case KindWrite:
		return ExitWrite
	default:
		return ExitOther
	}
}
