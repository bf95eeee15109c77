package source

import (
	"fmt"
)

// RowStream is a lazy, forward-only view over a result set. Column metadata
// is available before the first row. The stream cannot be rewound.
//
// Usage mirrors database/sql:
//
//	for rs.Next() {
//	    row := rs.Row()
//	    ...
//	}
//	if err := rs.Err(); err != nil { ... }
type RowStream struct {
	rows rowScanner
	cols []Column

	current []any
	err     error
}

// rowScanner is the subset of *sql.Rows the stream needs. Tests substitute
// an in-memory implementation.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Columns returns the column descriptors in result-set order.
func (s *RowStream) Columns() []Column { return s.cols }

// Next advances to the next row, returning false at the end of the set or on
// error. After Next returns false, consult Err.
func (s *RowStream) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.rows.Next() {
		return false
	}
	ptrs := make([]any, len(s.cols))
	vals := make([]any, len(s.cols))
	for i := range ptrs {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		s.err = fmt.Errorf("%w: scan: %v", ErrExecute, err)
		return false
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	s.current = vals
	return true
}

// Row returns the most recently scanned row. The slice is freshly allocated
// per row; callers may retain it.
func (s *RowStream) Row() []any { return s.current }

// Err returns the first error encountered while iterating, if any.
func (s *RowStream) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrExecute, err)
	}
	return nil
}

// Close releases the underlying cursor. Safe to call after exhaustion.
func (s *RowStream) Close() error { return s.rows.Close() }
