package source

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestClassify_TableDriven(t *testing.T) {
	tests := []struct {
		dbType string
		want   Kind
	}{
		{"VARCHAR", KindText},
		{"varchar", KindText},
		{"NVARCHAR", KindText},
		{"TEXT", KindText},
		{"CLOB", KindText},
		{"BPCHAR", KindText},
		{"UUID", KindText},
		{"JSONB", KindText},
		{"INT", KindNumeric},
		{"INT4", KindNumeric},
		{"INT8", KindNumeric},
		{"BIGINT", KindNumeric},
		{"NUMERIC", KindNumeric},
		{"NUMBER", KindNumeric},
		{"DECIMAL", KindNumeric},
		{"FLOAT8", KindNumeric},
		{"DOUBLE PRECISION", KindNumeric},
		{"REAL", KindNumeric},
		{"DATE", KindOther},
		{"TIMESTAMP", KindOther},
		{"TIMESTAMPTZ", KindOther},
		{"BOOL", KindOther},
		{"BIT", KindOther},
		{"BYTEA", KindOther},
		{"BLOB", KindOther},
		{"", KindOther},
		{"SOMETHING_NEW", KindOther},
	}
	for _, tt := range tests {
		if got := classify(tt.dbType); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.dbType, got, tt.want)
		}
	}
}

func TestKind_String(t *testing.T) {
	if KindText.String() != "text" || KindNumeric.String() != "numeric" || KindOther.String() != "other" {
		t.Error("Kind.String mismatch")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "no_such_driver", DSN: "x"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("err = %v, want ErrUnknownDriver", err)
	}
}

func TestOpen_DialerError(t *testing.T) {
	Register("broken", func(cfg Config) (string, string, error) {
		return "", "", errors.New("boom")
	})
	_, err := Open(context.Background(), Config{Driver: "broken", DSN: "x"})
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("err = %v, want ErrConnect", err)
	}
}

// fakeScanner feeds canned rows into a RowStream.
type fakeScanner struct {
	rows    [][]any
	i       int
	scanErr error
	iterErr error
	closed  bool
}

func (f *fakeScanner) Next() bool {
	if f.i >= len(f.rows) {
		return false
	}
	f.i++
	return true
}

func (f *fakeScanner) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.i-1]
	for j, d := range dest {
		*(d.(*any)) = row[j]
	}
	return nil
}

func (f *fakeScanner) Err() error   { return f.iterErr }
func (f *fakeScanner) Close() error { f.closed = true; return nil }

func TestRowStream_IterationAndByteConversion(t *testing.T) {
	fs := &fakeScanner{rows: [][]any{
		{int64(1), []byte("alice"), nil},
		{int64(2), "bob", 3.5},
	}}
	cols := []Column{
		{Name: "id", Kind: KindNumeric, Ordinal: 0},
		{Name: "name", Kind: KindText, Ordinal: 1},
		{Name: "amount", Kind: KindNumeric, Ordinal: 2},
	}
	rs := &RowStream{rows: fs, cols: cols}

	var got [][]any
	for rs.Next() {
		got = append(got, rs.Row())
	}
	if err := rs.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0][1] != "alice" {
		t.Errorf("[]byte value not converted to string: %#v", got[0][1])
	}
	if got[0][2] != nil {
		t.Errorf("nil value changed: %#v", got[0][2])
	}
	if err := rs.Close(); err != nil || !fs.closed {
		t.Error("Close did not reach the scanner")
	}
}

func TestRowStream_ScanError(t *testing.T) {
	fs := &fakeScanner{rows: [][]any{{1}}, scanErr: io.ErrUnexpectedEOF}
	rs := &RowStream{rows: fs, cols: []Column{{Name: "a"}}}
	if rs.Next() {
		t.Fatal("Next succeeded despite scan error")
	}
	if err := rs.Err(); !errors.Is(err, ErrExecute) {
		t.Fatalf("Err = %v, want ErrExecute", err)
	}
}

func TestRowStream_IterationError(t *testing.T) {
	fs := &fakeScanner{iterErr: errors.New("network dropped")}
	rs := &RowStream{rows: fs, cols: []Column{{Name: "a"}}}
	for rs.Next() {
	}
	if err := rs.Err(); !errors.Is(err, ErrExecute) {
		t.Fatalf("Err = %v, want ErrExecute", err)
	}
}

func TestNeedsSubqueryAlias(t *testing.T) {
	if needsSubqueryAlias("sqlite") {
		t.Error("sqlite should not require an alias")
	}
	for _, d := range []string{"postgres", "mysql", "mssql"} {
		if !needsSubqueryAlias(d) {
			t.Errorf("%s should require an alias", d)
		}
	}
}

// refusingDriver is a database/sql driver that refuses every connection;
// opens counts how many times the pool dialed it.
type refusingDriver struct{ opens *int32 }

func (d refusingDriver) Open(string) (driver.Conn, error) {
	atomic.AddInt32(d.opens, 1)
	return nil, errors.New("dial tcp 127.0.0.1:5432: connection refused")
}

var refusedOpens int32

func init() {
	sql.Register("sqlexport_refused", refusingDriver{opens: &refusedOpens})
	Register("refused", func(cfg Config) (string, string, error) {
		return "sqlexport_refused", cfg.DSN, nil
	})
}

func TestOpen_RetryBudget(t *testing.T) {
	var buf bytes.Buffer
	prev := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(prev) })

	atomic.StoreInt32(&refusedOpens, 0)
	_, err := Open(context.Background(), Config{Driver: "refused", DSN: "x", ConnectRetries: 2})
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("err = %v, want ErrConnect", err)
	}
	if got := atomic.LoadInt32(&refusedOpens); got != 3 {
		t.Errorf("connection attempts = %d, want 3 (1 + 2 retries)", got)
	}
	if got := strings.Count(buf.String(), "retrying"); got != 2 {
		t.Errorf("logged retries = %d, want 2", got)
	}
}

func TestOpen_NoRetriesByDefault(t *testing.T) {
	prev := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	t.Cleanup(func() { logrus.SetOutput(prev) })

	atomic.StoreInt32(&refusedOpens, 0)
	_, err := Open(context.Background(), Config{Driver: "refused", DSN: "x"})
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("err = %v, want ErrConnect", err)
	}
	if got := atomic.LoadInt32(&refusedOpens); got != 1 {
		t.Errorf("connection attempts = %d, want 1", got)
	}
}
