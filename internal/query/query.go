// Package query gates SQL statements before they reach a database.
//
// Validate confirms that a statement is lexically well-formed (balanced
// quotes, terminated comments) and read-only, without opening a connection.
// The scanner understands single/double quotes, backticks, bracket
// identifiers, line/hash/block comments, and Postgres dollar-quoting, so a
// write keyword inside a string literal does not cause a false rejection.
package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is wrapped by every validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validated is a query string that passed Validate. The zero value is not
// valid; obtain one through Validate.
type Validated struct {
	text string
}

// String returns the normalized statement text (trimmed, without trailing
// terminators).
func (v Validated) String() string { return v.text }

// IsZero reports whether v was produced by Validate.
func (v Validated) IsZero() bool { return v.text == "" }

// Statement kinds allowed at the top level. Anything else is treated as a
// write or DDL statement and rejected.
var readOnlyKinds = map[string]struct{}{
	"select":   {},
	"with":     {},
	"values":   {},
	"show":     {},
	"explain":  {},
	"describe": {},
	"desc":     {},
}

// Keywords that mark a statement as mutating when they appear as bare words
// outside parentheses, strings, and comments. This catches CTEs that wrap
// DML, e.g. "WITH x AS (...) DELETE FROM t".
var writeKinds = map[string]struct{}{
	"insert":   {},
	"update":   {},
	"delete":   {},
	"merge":    {},
	"upsert":   {},
	"replace":  {},
	"drop":     {},
	"alter":    {},
	"create":   {},
	"truncate": {},
	"rename":   {},
	"grant":    {},
	"revoke":   {},
	"call":     {},
	"exec":     {},
	"execute":  {},
	"set":      {},
	"copy":     {},
	"lock":     {},
}

// Validate checks that sql is a single, well-formed, read-only statement.
// It is a pure function of the input; no connection is made.
func Validate(sql string) (Validated, error) {
	text := trimStatement(sql)
	if text == "" {
		return Validated{}, fmt.Errorf("%w: empty statement", ErrInvalidQuery)
	}

	s := scanner{src: text, n: len(text)}
	words, err := s.topLevelWords()
	if err != nil {
		return Validated{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if len(words) == 0 {
		return Validated{}, fmt.Errorf("%w: no statement found", ErrInvalidQuery)
	}

	kind := strings.ToLower(words[0])
	if _, ok := readOnlyKinds[kind]; !ok {
		return Validated{}, fmt.Errorf("%w: statement kind %q is not read-only", ErrInvalidQuery, kind)
	}
	for _, w := range words[1:] {
		if _, ok := writeKinds[strings.ToLower(w)]; ok {
			return Validated{}, fmt.Errorf("%w: top-level %q makes the statement mutating", ErrInvalidQuery, strings.ToUpper(w))
		}
	}

	return Validated{text: text}, nil
}

// trimStatement removes surrounding whitespace and any trailing statement
// terminators (";"), which clients commonly leave in query files.
func trimStatement(sql string) string {
	s := strings.TrimSpace(sql)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}
