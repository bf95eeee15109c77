package query

import (
	"errors"
	"strings"
	"testing"
)

/*
TestValidate_TableDriven covers the statement gate:

  - well-formed read-only statements pass (SELECT, WITH, VALUES, EXPLAIN),
  - any top-level write or DDL keyword fails,
  - lexical problems (unterminated strings/comments, multiple statements) fail,
  - whitespace and trailing ";" are tolerated and normalized away.
*/
func TestValidate_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
		want    string // expected normalized text when valid
	}{
		{
			name: "plain_select",
			sql:  "SELECT id, name, amount FROM t",
			want: "SELECT id, name, amount FROM t",
		},
		{
			name: "trailing_semicolon_and_whitespace",
			sql:  "  SELECT 1 ; \n",
			want: "SELECT 1",
		},
		{
			name: "multiple_trailing_semicolons",
			sql:  "SELECT 1;;",
			want: "SELECT 1",
		},
		{
			name: "cte_select",
			sql:  "WITH x AS (SELECT 1 AS n) SELECT n FROM x",
			want: "WITH x AS (SELECT 1 AS n) SELECT n FROM x",
		},
		{
			name: "values_statement",
			sql:  "VALUES (1), (2)",
			want: "VALUES (1), (2)",
		},
		{
			name: "explain_select",
			sql:  "EXPLAIN SELECT * FROM t",
			want: "EXPLAIN SELECT * FROM t",
		},
		{
			name: "leading_comment_then_select",
			sql:  "-- export query\nSELECT a FROM t",
			want: "-- export query\nSELECT a FROM t",
		},
		{
			name: "write_keyword_inside_string_is_fine",
			sql:  "SELECT 'please DROP TABLE t' AS msg FROM dual",
			want: "SELECT 'please DROP TABLE t' AS msg FROM dual",
		},
		{
			name: "write_keyword_inside_subquery_parens_is_fine",
			sql:  "SELECT * FROM t WHERE note IN (SELECT txt FROM audit WHERE kind = 'update')",
			want: "SELECT * FROM t WHERE note IN (SELECT txt FROM audit WHERE kind = 'update')",
		},
		{
			name: "quoted_identifier_named_delete",
			sql:  `SELECT "delete" FROM t`,
			want: `SELECT "delete" FROM t`,
		},
		{name: "empty", sql: "", wantErr: true},
		{name: "only_whitespace", sql: "   \n\t ", wantErr: true},
		{name: "only_semicolons", sql: " ;; ", wantErr: true},
		{name: "only_comment", sql: "-- nothing here", wantErr: true},
		{name: "insert", sql: "INSERT INTO t VALUES (1)", wantErr: true},
		{name: "update", sql: "UPDATE t SET a = 1", wantErr: true},
		{name: "delete", sql: "DELETE FROM t", wantErr: true},
		{name: "drop", sql: "DROP TABLE t", wantErr: true},
		{name: "alter", sql: "ALTER TABLE t ADD COLUMN x int", wantErr: true},
		{name: "create", sql: "CREATE TABLE t (x int)", wantErr: true},
		{name: "truncate", sql: "TRUNCATE TABLE t", wantErr: true},
		{name: "lowercase_drop", sql: "drop table t", wantErr: true},
		{name: "cte_wrapping_delete", sql: "WITH x AS (SELECT 1) DELETE FROM t", wantErr: true},
		{name: "select_for_update", sql: "SELECT * FROM t FOR UPDATE", wantErr: true},
		{name: "multiple_statements", sql: "SELECT 1; SELECT 2", wantErr: true},
		{name: "statement_after_semicolon_drop", sql: "SELECT 1; DROP TABLE t", wantErr: true},
		{name: "unterminated_string", sql: "SELECT 'abc FROM t", wantErr: true},
		{name: "unterminated_block_comment", sql: "SELECT 1 /* oops", wantErr: true},
		{name: "unterminated_quoted_ident", sql: `SELECT "col FROM t`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Validate(tt.sql)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate(%q) = %q, want error", tt.sql, v.String())
				}
				if !errors.Is(err, ErrInvalidQuery) {
					t.Fatalf("Validate(%q) error %v is not ErrInvalidQuery", tt.sql, err)
				}
				if !v.IsZero() {
					t.Fatalf("Validate(%q) returned non-zero Validated alongside error", tt.sql)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) unexpected error: %v", tt.sql, err)
			}
			if v.String() != tt.want {
				t.Fatalf("Validate(%q) = %q, want %q", tt.sql, v.String(), tt.want)
			}
		})
	}
}

// TestValidate_SemicolonThenComment verifies that comments after a statement
// terminator do not count as a second statement.
func TestValidate_SemicolonThenComment(t *testing.T) {
	v, err := Validate("SELECT 1; -- done\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(v.String(), "SELECT 1") {
		t.Fatalf("unexpected normalized text %q", v.String())
	}
}

// TestValidate_DollarQuoted exercises Postgres dollar-quoting: write keywords
// inside the quoted body must not trip the gate.
func TestValidate_DollarQuoted(t *testing.T) {
	sql := "SELECT $tag$DROP TABLE t$tag$ AS body"
	if _, err := Validate(sql); err != nil {
		t.Fatalf("Validate(%q) unexpected error: %v", sql, err)
	}
	if _, err := Validate("SELECT $tag$never closed"); err == nil {
		t.Fatal("unterminated dollar quote accepted")
	}
}
