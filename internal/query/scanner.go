package query

import (
	"fmt"
	"strings"
)

// scanner walks a SQL statement byte-by-byte, skipping over quoted regions
// and comments so that only bare tokens are observed.
type scanner struct {
	src string
	n   int
	i   int
}

func (s *scanner) peek(k int) byte {
	if s.i+k < s.n {
		return s.src[s.i+k]
	}
	return 0
}

// topLevelWords returns all bare words found outside parentheses, quotes,
// and comments, in order. It fails on unterminated quotes or comments and on
// statements that continue past a top-level ";".
func (s *scanner) topLevelWords() ([]string, error) {
	var words []string
	depth := 0
	for s.i < s.n {
		c := s.src[s.i]
		switch {
		case c == '\'':
			if err := s.consumeSingleQuoted(); err != nil {
				return nil, err
			}
		case c == '"':
			if err := s.consumeDelimited('"', "double-quoted identifier"); err != nil {
				return nil, err
			}
		case c == '`':
			if err := s.consumeDelimited('`', "backtick identifier"); err != nil {
				return nil, err
			}
		case c == '[':
			if err := s.consumeDelimited(']', "bracket identifier"); err != nil {
				return nil, err
			}
		case c == '-' && s.peek(1) == '-':
			s.consumeLine()
		case c == '#':
			s.consumeLine()
		case c == '/' && s.peek(1) == '*':
			if err := s.consumeBlockComment(); err != nil {
				return nil, err
			}
		case c == '$':
			if err := s.consumeDollarQuoted(); err != nil {
				return nil, err
			}
		case c == '(':
			depth++
			s.i++
		case c == ')':
			depth--
			s.i++
		case c == ';':
			s.i++
			if s.rest() != "" {
				return nil, fmt.Errorf("multiple statements are not allowed")
			}
		case isWordByte(c):
			start := s.i
			for s.i < s.n && isWordByte(s.src[s.i]) {
				s.i++
			}
			if depth == 0 {
				words = append(words, s.src[start:s.i])
			}
		default:
			s.i++
		}
	}
	return words, nil
}

// rest returns whatever non-comment content remains after the current
// position, with whitespace stripped.
func (s *scanner) rest() string {
	tail := scanner{src: s.src[s.i:], n: s.n - s.i}
	words, err := tail.topLevelWords()
	if err != nil {
		// Unterminated trailing garbage still counts as content.
		return strings.TrimSpace(s.src[s.i:])
	}
	if len(words) > 0 {
		return words[0]
	}
	return ""
}

// consumeSingleQuoted handles '...' with '' as the escaped quote.
func (s *scanner) consumeSingleQuoted() error {
	s.i++
	for s.i < s.n {
		if s.src[s.i] == '\'' {
			if s.peek(1) == '\'' {
				s.i += 2
				continue
			}
			s.i++
			return nil
		}
		s.i++
	}
	return fmt.Errorf("unterminated string literal")
}

func (s *scanner) consumeDelimited(end byte, what string) error {
	s.i++
	for s.i < s.n {
		if s.src[s.i] == end {
			s.i++
			return nil
		}
		s.i++
	}
	return fmt.Errorf("unterminated %s", what)
}

func (s *scanner) consumeLine() {
	for s.i < s.n && s.src[s.i] != '\n' {
		s.i++
	}
}

func (s *scanner) consumeBlockComment() error {
	s.i += 2
	for s.i < s.n {
		if s.src[s.i] == '*' && s.peek(1) == '/' {
			s.i += 2
			return nil
		}
		s.i++
	}
	return fmt.Errorf("unterminated block comment")
}

// consumeDollarQuoted handles Postgres $tag$...$tag$ strings. A "$" that does
// not open a valid dollar quote (e.g. a $1 placeholder) is consumed as-is.
func (s *scanner) consumeDollarQuoted() error {
	j := s.i + 1
	for j < s.n && (isWordByte(s.src[j]) && s.src[j] != '$') {
		j++
	}
	if j >= s.n || s.src[j] != '$' {
		s.i++
		return nil
	}
	tag := s.src[s.i : j+1]
	close := strings.Index(s.src[j+1:], tag)
	if close < 0 {
		return fmt.Errorf("unterminated dollar-quoted string")
	}
	s.i = j + 1 + close + len(tag)
	return nil
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
