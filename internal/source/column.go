package source

import "strings"

// Kind is the semantic class of a column, fixed once from result metadata
// and used by the null normalizer to pick type-appropriate defaults.
type Kind int

const (
	// KindOther covers dates, booleans, binary, and anything without a
	// safe scalar default.
	KindOther Kind = iota
	// KindText covers string-like columns.
	KindText
	// KindNumeric covers integer and floating-point columns.
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	default:
		return "other"
	}
}

// Column describes one result-set column. Derived from driver metadata on
// first fetch and immutable thereafter.
type Column struct {
	Name         string
	DatabaseType string
	Kind         Kind
	Ordinal      int
}

// textTypes and numericTypes hold upper-cased DatabaseTypeName values across
// the supported drivers (pgx, mysql, mssql, sqlite). Names not listed fall
// through to KindOther.
var textTypes = map[string]struct{}{
	"CHAR": {}, "NCHAR": {}, "BPCHAR": {}, "CHARACTER": {},
	"VARCHAR": {}, "NVARCHAR": {}, "VARCHAR2": {}, "NVARCHAR2": {},
	"CHARACTER VARYING": {},
	"TEXT":              {}, "NTEXT": {}, "TINYTEXT": {}, "MEDIUMTEXT": {}, "LONGTEXT": {},
	"CLOB": {}, "NCLOB": {},
	"STRING": {}, "NAME": {}, "CITEXT": {},
	"UUID": {}, "UNIQUEIDENTIFIER": {},
	"JSON": {}, "JSONB": {}, "XML": {},
	"ENUM": {}, "SET": {},
}

var numericTypes = map[string]struct{}{
	"INT": {}, "INTEGER": {}, "TINYINT": {}, "SMALLINT": {}, "MEDIUMINT": {}, "BIGINT": {},
	"INT2": {}, "INT4": {}, "INT8": {},
	"UNSIGNED INT": {}, "UNSIGNED BIGINT": {},
	"SERIAL": {}, "SMALLSERIAL": {}, "BIGSERIAL": {},
	"DECIMAL": {}, "NUMERIC": {}, "NUMBER": {},
	"FLOAT": {}, "FLOAT4": {}, "FLOAT8": {},
	"DOUBLE": {}, "DOUBLE PRECISION": {}, "REAL": {},
	"MONEY": {}, "SMALLMONEY": {},
	"BINARY_FLOAT": {}, "BINARY_DOUBLE": {},
}

// classify maps a driver-reported type name to a Kind. Unknown names are
// KindOther, which the normalizer treats conservatively.
func classify(databaseType string) Kind {
	name := strings.ToUpper(strings.TrimSpace(databaseType))
	if _, ok := textTypes[name]; ok {
		return KindText
	}
	if _, ok := numericTypes[name]; ok {
		return KindNumeric
	}
	return KindOther
}
