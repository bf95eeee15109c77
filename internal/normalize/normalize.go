// Package normalize substitutes type-appropriate defaults for absent values
// before rows reach the output stage.
//
// The per-column policy is fixed once from column metadata and applied
// uniformly to every row; the transformation is total, in-place, and
// idempotent. Absent values are expected, not exceptional: Apply never fails.
package normalize

import (
	"strings"

	"github.com/gua123/sql-export/internal/source"
)

// OtherPolicy decides what happens to an absent value in a column that is
// neither string-like nor numeric-like (dates, booleans, binary). Not every
// type has a safe default, so this is an explicit configuration choice.
type OtherPolicy int

const (
	// OtherKeep passes the absence through unchanged.
	OtherKeep OtherPolicy = iota
	// OtherEmpty substitutes the empty string.
	OtherEmpty
)

// OtherPolicyFromString maps the config knob to a policy. Unknown and empty
// strings fall back to OtherKeep; config validation rejects unknown values
// before a run starts.
func OtherPolicyFromString(s string) OtherPolicy {
	if strings.EqualFold(s, "empty") {
		return OtherEmpty
	}
	return OtherKeep
}

// Policy carries the configurable parts of normalization.
type Policy struct {
	Other OtherPolicy
}

// Normalizer applies the null policy for a fixed column layout.
type Normalizer struct {
	kinds  []source.Kind
	policy Policy
}

// New builds a Normalizer for the given columns. The column kinds are
// captured once here and never re-inferred per row.
func New(cols []source.Column, p Policy) *Normalizer {
	kinds := make([]source.Kind, len(cols))
	for i, c := range cols {
		kinds[i] = c.Kind
	}
	return &Normalizer{kinds: kinds, policy: p}
}

// Apply rewrites row in place and returns it. Absent values become the empty
// string for string-like columns and int64(0) for numeric-like columns;
// other kinds follow the configured policy. String values are scrubbed of
// the 0x1F unit separator, which corrupts spreadsheet cells.
func (n *Normalizer) Apply(row []any) []any {
	for i, v := range row {
		if i >= len(n.kinds) {
			break
		}
		if v == nil {
			switch n.kinds[i] {
			case source.KindText:
				row[i] = ""
			case source.KindNumeric:
				row[i] = int64(0)
			default:
				if n.policy.Other == OtherEmpty {
					row[i] = ""
				}
			}
			continue
		}
		if s, ok := v.(string); ok && strings.ContainsRune(s, unitSeparator) {
			row[i] = strings.ReplaceAll(s, string(unitSeparator), "")
		}
	}
	return row
}

// unitSeparator shows up in data exported from legacy systems and breaks
// cell values downstream.
const unitSeparator = '\x1f'
